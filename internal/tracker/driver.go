package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/services"
)

const defaultMaxPages = 10

// Query identifies the movie to look up. Drivers prefer the IMDb id, then
// the TMDB id, then the title.
type Query struct {
	IMDbID string
	TMDBID int64
	Title  string
}

// Driver searches one catalog.
type Driver interface {
	Name() string
	Family() string
	Search(ctx context.Context, q Query) ([]catalog.Entry, error)
}

// Options carries the shared knobs for building drivers.
type Options struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Timeout    time.Duration
	MaxPages   int
	Logger     *slog.Logger
}

// NewLimiter returns a limiter allowing one request per cooldown. A
// non-positive cooldown disables limiting.
func NewLimiter(cooldownSeconds float64) *rate.Limiter {
	if cooldownSeconds <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	interval := time.Duration(cooldownSeconds * float64(time.Second))
	return rate.NewLimiter(rate.Every(interval), 1)
}

// New builds the driver for info's family. A missing API key is a
// configuration error so callers can report the catalog as skipped.
func New(info Info, apiKey string, opts Options) (Driver, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "search", info.Name, "no api key", nil)
	}
	if info.URL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "search", info.Name, "catalog url not set", nil)
	}
	if !strings.HasSuffix(info.URL, "/") {
		info.URL += "/"
	}
	base := newClient(info, apiKey, opts)
	switch info.Driver {
	case FamilyUNIT3D, "":
		return &unit3d{client: base}, nil
	case FamilyF3NIX:
		return &f3nix{client: base}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "search", info.Name,
			fmt.Sprintf("unsupported driver %q", info.Driver), nil)
	}
}

type client struct {
	info     Info
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	maxPages int
	logger   *slog.Logger
}

func newClient(info Info, apiKey string, opts Options) *client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		// An invalid UNIT3D token redirects to the login page.
		httpClient = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	logger := logging.NewComponentLogger(opts.Logger, "tracker").With(logging.String(logging.FieldCatalog, info.Name))
	return &client{
		info:     info,
		apiKey:   apiKey,
		http:     httpClient,
		limiter:  limiter,
		maxPages: maxPages,
		logger:   logger,
	}
}

func (c *client) Name() string { return c.info.Name }

// do waits for the limiter, sends req, and decodes a JSON body into out.
func (c *client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return services.Wrap(services.ErrTimeout, "search", c.info.Name, "rate limiter wait", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		return services.Wrap(services.ErrTransient, "search", c.info.Name, fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		logging.String("url", redact(req.URL.String(), c.apiKey)),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return services.Wrap(statusMarker(resp.StatusCode), "search", c.info.Name,
			fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrValidation, "search", c.info.Name, "decode response", err)
	}
	return nil
}

func statusMarker(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status >= 300 && status < 400:
		return services.ErrConfiguration
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusTooManyRequests:
		return services.ErrRateLimited
	default:
		return services.ErrTransient
	}
}

func redact(raw, secret string) string {
	if secret == "" {
		return raw
	}
	return strings.ReplaceAll(raw, secret, "REDACTED")
}

var groupPattern = regexp.MustCompile(`-([^-]*)$`)

// Trailing hyphenated tokens that belong to a format name, not a group.
var formatSuffixes = map[string]struct{}{"dl": {}, "rip": {}, "ray": {}, "hd": {}, "ma": {}}

// GroupFromName extracts the release group after the last hyphen of a
// release name.
func GroupFromName(name string) string {
	m := groupPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return ""
	}
	group := strings.TrimSpace(m[1])
	if strings.ContainsAny(group, " \t") {
		// A hyphenated title without a group, e.g. "Spider-Man 2002 1080p".
		return ""
	}
	if _, ok := formatSuffixes[strings.ToLower(group)]; ok {
		return ""
	}
	return group
}

func stripIMDbPrefix(id string) string {
	id = strings.TrimSpace(strings.ToLower(id))
	id = strings.TrimPrefix(id, "tt")
	if _, err := strconv.Atoi(id); err != nil {
		return ""
	}
	return id
}
