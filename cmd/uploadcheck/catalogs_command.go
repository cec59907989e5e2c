package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"uploadcheck/internal/config"
	"uploadcheck/internal/tracker"
)

type catalogEntry struct {
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Driver    string   `json:"driver"`
	UploadMap string   `json:"upload_map,omitempty"`
	Nicknames []string `json:"nicknames,omitempty"`
	Enabled   bool     `json:"enabled"`
	HasKey    bool     `json:"has_api_key"`
	KeyEnv    string   `json:"api_key_env"`
}

func newCatalogsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List known catalogs with their key status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := tracker.LoadRegistry(cfg)
			if err != nil {
				return err
			}
			enabled, err := registry.Enabled(cfg.Search.EnabledCatalogs)
			if err != nil {
				return err
			}
			isEnabled := make(map[string]bool, len(enabled))
			for _, info := range enabled {
				isEnabled[info.Name] = true
			}

			entries := make([]catalogEntry, 0, len(registry.Names()))
			for _, name := range registry.Names() {
				info, _ := registry.Lookup(name)
				entries = append(entries, catalogEntry{
					Name:      info.Name,
					URL:       info.URL,
					Driver:    info.Driver,
					UploadMap: info.UploadMap,
					Nicknames: info.Nicknames,
					Enabled:   isEnabled[info.Name],
					HasKey:    cfg.CatalogAPIKey(info.Name) != "",
					KeyEnv:    config.CatalogKeyEnv(info.Name),
				})
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Name,
					strings.Join(e.Nicknames, ", "),
					e.Driver,
					e.URL,
					e.UploadMap,
					yesNo(e.Enabled),
					yesNo(e.HasKey),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Catalog", "Aliases", "Driver", "URL", "Upload Map", "Enabled", "API Key"},
				rows,
				nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
