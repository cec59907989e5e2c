package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const fileColumns = "id, path, name, directory, size_bytes, mod_time, title, year, quality, resolution, codec, release_group, banned, ban_reason, media_json, tmdb_status, tmdb_id, tmdb_title, tmdb_original_title, tmdb_year, tmdb_votes, tmdb_runtime, tmdb_language, imdb_id, match_score, match_type, identified_at, created_at, updated_at"

// prefixedColumns qualifies a column list with a table alias.
func prefixedColumns(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface{ Scan(dest ...any) error }

func fileDest(f *File, raw *fileRaw) []any {
	return []any{
		&f.ID,
		&f.Path,
		&f.Name,
		&f.Directory,
		&f.SizeBytes,
		&raw.modTime,
		&raw.title,
		&f.Year,
		&raw.quality,
		&raw.resolution,
		&raw.codec,
		&raw.group,
		&raw.banned,
		&raw.banReason,
		&raw.media,
		&raw.status,
		&f.Identity.TMDBID,
		&raw.tmdbTitle,
		&raw.tmdbOriginal,
		&f.Identity.Year,
		&f.Identity.VoteCount,
		&f.Identity.Runtime,
		&raw.tmdbLanguage,
		&raw.imdbID,
		&f.Identity.Score,
		&raw.matchType,
		&raw.identifiedAt,
		&raw.createdAt,
		&raw.updatedAt,
	}
}

type fileRaw struct {
	modTime      int64
	title        sql.NullString
	quality      sql.NullString
	resolution   sql.NullString
	codec        sql.NullString
	group        sql.NullString
	banned       int64
	banReason    sql.NullString
	media        sql.NullString
	status       sql.NullString
	tmdbTitle    sql.NullString
	tmdbOriginal sql.NullString
	tmdbLanguage sql.NullString
	imdbID       sql.NullString
	matchType    sql.NullString
	identifiedAt sql.NullString
	createdAt    sql.NullString
	updatedAt    sql.NullString
}

func (raw *fileRaw) apply(f *File) error {
	f.ModTime = time.Unix(0, raw.modTime).UTC()
	f.Title = raw.title.String
	f.Quality = raw.quality.String
	f.Resolution = raw.resolution.String
	f.Codec = raw.codec.String
	f.Group = raw.group.String
	f.Banned = raw.banned != 0
	f.BanReason = raw.banReason.String
	if raw.media.Valid && raw.media.String != "" {
		var media Media
		if err := json.Unmarshal([]byte(raw.media.String), &media); err != nil {
			return fmt.Errorf("decode media for %s: %w", f.Path, err)
		}
		f.Media = &media
	}
	f.Identity.Status = IdentityStatus(raw.status.String)
	f.Identity.Title = raw.tmdbTitle.String
	f.Identity.OriginalTitle = raw.tmdbOriginal.String
	f.Identity.OriginalLanguage = raw.tmdbLanguage.String
	f.Identity.IMDbID = raw.imdbID.String
	f.Identity.MatchType = raw.matchType.String
	if t, err := parseTimeString(raw.identifiedAt.String); err == nil {
		f.Identity.IdentifiedAt = t
	}
	if t, err := parseTimeString(raw.createdAt.String); err == nil {
		f.CreatedAt = t
	}
	if t, err := parseTimeString(raw.updatedAt.String); err == nil {
		f.UpdatedAt = t
	}
	return nil
}

func scanFile(scanner rowScanner) (*File, error) {
	var (
		file File
		raw  fileRaw
	)
	if err := scanner.Scan(fileDest(&file, &raw)...); err != nil {
		return nil, err
	}
	if err := raw.apply(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableJSON(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nowTime() time.Time {
	return time.Now().UTC()
}

func now() string {
	return nowTime().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func yearLabel(title string, year int) string {
	if year <= 0 {
		return title
	}
	return fmt.Sprintf("%s (%d)", title, year)
}
