package tracker

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cast"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/release"
	"uploadcheck/internal/services"
)

// Movie categories searched on UNIT3D catalogs.
var unit3dCategories = []int{1, 2, 3, 4, 5}

type unit3d struct {
	*client
}

func (d *unit3d) Family() string { return FamilyUNIT3D }

type unit3dResponse struct {
	Data []struct {
		ID         any            `json:"id"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

func (d *unit3d) query(q Query) url.Values {
	params := url.Values{}
	switch {
	case stripIMDbPrefix(q.IMDbID) != "":
		params.Set("imdbId", stripIMDbPrefix(q.IMDbID))
	case q.TMDBID > 0:
		params.Set("tmdbId", strconv.FormatInt(q.TMDBID, 10))
	default:
		params.Set("name", q.Title)
	}
	for _, category := range unit3dCategories {
		params.Add("categories[]", strconv.Itoa(category))
	}
	return params
}

// Search calls api/torrents/filter and follows links.next up to the page
// limit.
func (d *unit3d) Search(ctx context.Context, q Query) ([]catalog.Entry, error) {
	if q.IMDbID == "" && q.TMDBID <= 0 && q.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "search", d.info.Name, "empty query", nil)
	}
	next := d.info.URL + "api/torrents/filter?" + d.query(q).Encode()

	var entries []catalog.Entry
	for page := 1; next != "" && page <= d.maxPages; page++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "search", d.info.Name, "build request", err)
		}
		req.Header.Set("Authorization", "Bearer "+d.apiKey)

		var payload unit3dResponse
		if err := d.do(req, &payload); err != nil {
			return nil, err
		}
		for _, item := range payload.Data {
			entries = append(entries, unit3dEntry(item.Attributes))
		}
		next = payload.Links.Next
	}
	if next != "" {
		d.logger.Debug("page limit reached", logging.Int("max_pages", d.maxPages))
	}
	return entries, nil
}

func unit3dEntry(attrs map[string]any) catalog.Entry {
	name := cast.ToString(attrs["name"])
	return catalog.NewEntry(name, release.Tokens{
		Quality:    cast.ToString(attrs["type"]),
		Resolution: cast.ToString(attrs["resolution"]),
		HDR:        name,
		Group:      GroupFromName(name),
	})
}
