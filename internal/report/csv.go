package report

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"uploadcheck/internal/store"
	"uploadcheck/internal/tracker"
)

var csvHeader = table.Row{
	"Movie Title", "File Year", "TMDB Year", "Quality", "File Location", "File Size",
	"TMDB Search", "String Search", "TMDB", "Safety", "Reason", "Details", "Media Info",
}

func renderCSV(info tracker.Info, listings []store.Listing) string {
	tw := table.NewWriter()
	tw.AppendHeader(csvHeader)
	for _, listing := range listings {
		r := newRow(info, listing)
		tw.AppendRow(table.Row{
			r.Title, r.FileYear, r.TMDBYear, r.Quality, r.Location, r.Size,
			r.TMDBSearch, r.StringSearch, r.TMDB, r.Safety, r.Reason, r.Details, r.MediaInfo,
		})
	}
	return tw.RenderCSV() + "\n"
}
