package tracker

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/release"
	"uploadcheck/internal/services"
)

type f3nix struct {
	*client
}

func (d *f3nix) Family() string { return FamilyF3NIX }

type f3nixResponse struct {
	Results    []map[string]any `json:"results"`
	Page       any              `json:"page"`
	TotalPages any              `json:"total_pages"`
}

func (d *f3nix) query(q Query) url.Values {
	params := url.Values{}
	params.Set("action", "search")
	switch {
	case strings.TrimSpace(q.IMDbID) != "":
		params.Set("imdb_id", strings.TrimSpace(q.IMDbID))
	case q.TMDBID > 0:
		params.Set("tmdb_id", "movie/"+strconv.FormatInt(q.TMDBID, 10))
	default:
		params.Set("search", q.Title)
	}
	return params
}

// Search posts to api/torrents/{key} and walks page/total_pages up to the
// page limit.
func (d *f3nix) Search(ctx context.Context, q Query) ([]catalog.Entry, error) {
	if q.IMDbID == "" && q.TMDBID <= 0 && q.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "search", d.info.Name, "empty query", nil)
	}
	endpoint := d.info.URL + "api/torrents/" + url.PathEscape(d.apiKey)
	params := d.query(q)

	var entries []catalog.Entry
	totalPages := 1
	for page := 1; page <= totalPages && page <= d.maxPages; page++ {
		if page > 1 {
			params.Set("page", strconv.Itoa(page))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "search", d.info.Name, "build request", err)
		}
		var payload f3nixResponse
		if err := d.do(req, &payload); err != nil {
			return nil, err
		}
		for _, item := range payload.Results {
			entries = append(entries, f3nixEntry(item))
		}
		if n := cast.ToInt(payload.TotalPages); n > totalPages {
			totalPages = n
		}
	}
	return entries, nil
}

func f3nixEntry(item map[string]any) catalog.Entry {
	name := cast.ToString(item["name"])
	quality, resolution := f3nixQualityResolution(name, cast.ToString(item["type"]))
	hdr := release.HDRFromFlags(
		cast.ToBool(item["dv"]),
		cast.ToBool(item["hdr10+"]),
		cast.ToBool(item["hdr10"]) || cast.ToBool(item["hdr"]),
	)
	return catalog.NewEntry(name, release.Tokens{
		Quality:    quality,
		Resolution: resolution,
		HDR:        hdr.String(),
		Group:      GroupFromName(name),
	})
}

var f3nixResolutions = []string{"2160p", "1080p", "1080i", "720p", "576p", "540p", "480p"}

var f3nixDiscTypes = []string{"uhd 100", "uhd 66", "uhd 50", "bd 50", "bd 25", "dvd 9", "dvd 5"}

// f3nixQualityResolution derives quality and resolution tokens from the
// F3NIX type field, falling back to the release name.
func f3nixQualityResolution(name, kind string) (string, string) {
	title := strings.ToLower(name)
	kind = strings.ToLower(strings.TrimSpace(kind))
	isResolutionType := slices.Contains(f3nixResolutions, kind)

	resolution := ""
	switch {
	case isResolutionType:
		resolution = kind
	case strings.Contains(kind, "uhd"):
		resolution = "2160p"
	case strings.Contains(kind, "bd") && !strings.Contains(kind, "remux"):
		resolution = "1080p"
		if strings.Contains(title, "2160") || strings.Contains(title, "4k") {
			resolution = "2160p"
		}
	case strings.Contains(kind, "dvd") && !strings.Contains(kind, "remux"):
		resolution = "480p"
	}
	if resolution == "" {
		for _, candidate := range append([]string{"4k"}, f3nixResolutions...) {
			if strings.Contains(title, candidate) {
				resolution = candidate
				break
			}
		}
	}

	var quality string
	switch {
	case strings.Contains(kind, "remux"):
		quality = "remux"
	case containsAny(kind, f3nixDiscTypes):
		quality = "fulldisc"
	case strings.Contains(title, "web-dl") || strings.Contains(title, "webdl"):
		quality = "webdl"
	case strings.Contains(title, "webrip"):
		quality = "webrip"
	case strings.Contains(title, "web"):
		quality = "web"
	case isResolutionType:
		quality = "encode"
	case containsAny(kind, []string{"bd", "uhd", "dvd"}):
		quality = "fulldisc"
	default:
		quality = "encode"
	}
	return quality, resolution
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
