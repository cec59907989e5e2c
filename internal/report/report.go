package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"

	"uploadcheck/internal/config"
	"uploadcheck/internal/deps"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
	"uploadcheck/internal/textutil"
	"uploadcheck/internal/tracker"
)

// Format is one report output kind.
type Format string

const (
	FormatTXT Format = "txt"
	FormatCSV Format = "csv"
	FormatGG  Format = "gg"
	FormatUA  Format = "ua"
)

// AllFormats lists every format in write order.
var AllFormats = []Format{FormatTXT, FormatCSV, FormatGG, FormatUA}

// ParseFormats validates format names. "all" expands to AllFormats and an
// empty list means txt and csv.
func ParseFormats(values []string) ([]Format, error) {
	if len(values) == 0 {
		return []Format{FormatTXT, FormatCSV}, nil
	}
	seen := make(map[Format]struct{})
	var out []Format
	add := func(f Format) {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name := Format(strings.ToLower(strings.TrimSpace(part)))
			switch name {
			case "":
				continue
			case "all":
				for _, f := range AllFormats {
					add(f)
				}
			case FormatTXT, FormatCSV, FormatGG, FormatUA:
				add(name)
			default:
				return nil, fmt.Errorf("unknown export format %q (want txt, csv, gg, ua, or all)", part)
			}
		}
	}
	return out, nil
}

// Options control where reports go and how commands are built.
type Options struct {
	OutputDir  string
	AllowRisky bool
	Python     string
	GGPath     string
	UAPath     string
}

// OptionsFromConfig reads the export section and output directory.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:  cfg.Paths.OutputDir,
		AllowRisky: cfg.Export.AllowRisky,
		Python:     cfg.Export.Python,
		GGPath:     cfg.Export.GGPath,
		UAPath:     cfg.Export.UAPath,
	}
}

// Exporter writes report files.
type Exporter struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Exporter.
func New(opts Options, logger *slog.Logger) *Exporter {
	if strings.TrimSpace(opts.Python) == "" {
		opts.Python = "python3"
	}
	return &Exporter{opts: opts, logger: logging.NewComponentLogger(logger, "report")}
}

// Export writes the requested formats for one catalog and returns the paths
// written. A format that cannot be produced (for example a command export
// without a helper path) is reported in the joined error while the other
// formats are still written.
func (e *Exporter) Export(info tracker.Info, listings []store.Listing, formats []Format) ([]string, error) {
	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	listings = reportable(listings)
	base := textutil.FileToken(info.Name)

	var (
		written []string
		errs    []error
	)
	for _, format := range formats {
		var (
			name    string
			content string
			err     error
		)
		switch format {
		case FormatTXT:
			name, content = base+"_uploads.txt", renderText(info, listings)
		case FormatCSV:
			name, content = base+"_uploads.csv", renderCSV(info, listings)
		case FormatGG:
			name = base + "_gg.txt"
			content, err = e.renderCommands(info, listings, format)
		case FormatUA:
			name = base + "_ua.txt"
			content, err = e.renderCommands(info, listings, format)
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", info.Name, format, err))
			continue
		}
		path := filepath.Join(e.opts.OutputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
			continue
		}
		e.logger.Info("report written",
			logging.String(logging.FieldCatalog, info.Name),
			logging.String("format", string(format)),
			logging.String("path", path),
			logging.Int("files", len(listings)),
		)
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func (e *Exporter) renderCommands(info tracker.Info, listings []store.Listing, format Format) (string, error) {
	if strings.TrimSpace(info.UploadMap) == "" {
		return "", services.Wrap(services.ErrConfiguration, "export", string(format), "catalog has no upload_map", nil)
	}
	var (
		script string
		err    error
	)
	switch format {
	case FormatGG:
		script, err = helperScript(e.opts.GGPath, "auto_upload.py", "export.gg_path")
	default:
		script, err = helperScript(e.opts.UAPath, "upload.py", "export.ua_path")
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, listing := range commandListings(listings, e.opts.AllowRisky) {
		var args []string
		if format == FormatGG {
			args = []string{e.opts.Python, script, "-p", listing.File.Path, "-t", info.UploadMap}
		} else {
			args = []string{e.opts.Python, script, "--trackers", info.UploadMap, listing.File.Path}
		}
		b.WriteString(shellescape.QuoteCommand(args))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func helperScript(configured, script, key string) (string, error) {
	path := deps.ResolveScript(configured, script)
	if path == "" {
		return "", services.Wrap(services.ErrConfiguration, "export", "commands", key+" is not set", nil)
	}
	return path, nil
}
