package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// UpsertFile inserts a scanned file or refreshes its parsed fields. When the
// size or modification time changed, everything derived from the old
// contents (media facts, identity, searches, verdicts) is discarded. A
// change in banned state drops searches and verdicts only.
func (s *Store) UpsertFile(ctx context.Context, f *File) (*File, error) {
	if f == nil || strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("upsert file: empty path")
	}
	if f.Name == "" {
		f.Name = filepath.Base(f.Path)
	}
	if f.Directory == "" {
		f.Directory = filepath.Dir(f.Path)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		id      int64
		size    int64
		modTime int64
		banned  int
	)
	err = tx.QueryRowContext(ctx, `SELECT id, size_bytes, mod_time, banned FROM files WHERE path = ?`, f.Path).Scan(&id, &size, &modTime, &banned)
	timestamp := now()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO files (
                path, name, directory, size_bytes, mod_time, title, year, quality, resolution,
                codec, release_group, banned, ban_reason, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.Path, f.Name, f.Directory, f.SizeBytes, f.ModTime.UnixNano(),
			nullableString(f.Title), f.Year, nullableString(f.Quality), nullableString(f.Resolution),
			nullableString(f.Codec), nullableString(f.Group), boolToInt(f.Banned), nullableString(f.BanReason),
			timestamp, timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("insert file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup file: %w", err)
	default:
		changed := size != f.SizeBytes || modTime != f.ModTime.UnixNano()
		_, err = tx.ExecContext(ctx,
			`UPDATE files
             SET name = ?, directory = ?, size_bytes = ?, mod_time = ?, title = ?, year = ?,
                 quality = ?, resolution = ?, codec = ?, release_group = ?, banned = ?,
                 ban_reason = ?, updated_at = ?
             WHERE id = ?`,
			f.Name, f.Directory, f.SizeBytes, f.ModTime.UnixNano(), nullableString(f.Title), f.Year,
			nullableString(f.Quality), nullableString(f.Resolution), nullableString(f.Codec),
			nullableString(f.Group), boolToInt(f.Banned), nullableString(f.BanReason), timestamp, id,
		)
		if err != nil {
			return nil, fmt.Errorf("update file: %w", err)
		}
		switch {
		case changed:
			if err := clearDerived(ctx, tx, id, true); err != nil {
				return nil, err
			}
		case banned != boolToInt(f.Banned):
			if err := clearDerived(ctx, tx, id, false); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return s.FileByPath(ctx, f.Path)
}

// clearDerived drops searches and verdicts for a file, and optionally the
// media facts and identity too.
func clearDerived(ctx context.Context, tx *sql.Tx, fileID int64, identityToo bool) error {
	for _, table := range []string{"searches", "verdicts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE file_id = ?", fileID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if !identityToo {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE files
         SET media_json = NULL, tmdb_status = NULL, tmdb_id = 0, tmdb_title = NULL,
             tmdb_original_title = NULL, tmdb_year = 0, tmdb_votes = 0, tmdb_runtime = 0,
             tmdb_language = NULL, imdb_id = NULL, match_score = 0, match_type = NULL,
             identified_at = NULL
         WHERE id = ?`, fileID)
	if err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// FileByPath fetches a file by its absolute path. A missing file returns nil, nil.
func (s *Store) FileByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// FileByID fetches a file by identifier. A missing file returns nil, nil.
func (s *Store) FileByID(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// ListFiles returns every stored file ordered by name.
func (s *Store) ListFiles(ctx context.Context) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// UpdateIdentity stores the TMDB resolution for a file. Choosing a
// different movie invalidates that file's searches and verdicts.
func (s *Store) UpdateIdentity(ctx context.Context, fileID int64, id Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin identity tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var previous int64
	if err := tx.QueryRowContext(ctx, `SELECT tmdb_id FROM files WHERE id = ?`, fileID).Scan(&previous); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update identity: file %d not found", fileID)
		}
		return fmt.Errorf("update identity: %w", err)
	}

	if id.IdentifiedAt.IsZero() {
		id.IdentifiedAt = nowTime()
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE files
         SET tmdb_status = ?, tmdb_id = ?, tmdb_title = ?, tmdb_original_title = ?, tmdb_year = ?,
             tmdb_votes = ?, tmdb_runtime = ?, tmdb_language = ?, imdb_id = ?, match_score = ?,
             match_type = ?, identified_at = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(string(id.Status)), id.TMDBID, nullableString(id.Title), nullableString(id.OriginalTitle),
		id.Year, id.VoteCount, id.Runtime, nullableString(id.OriginalLanguage), nullableString(id.IMDbID),
		id.Score, nullableString(id.MatchType), nullableTime(id.IdentifiedAt), now(), fileID,
	)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if previous != id.TMDBID {
		if err := clearDerived(ctx, tx, fileID, false); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identity: %w", err)
	}
	return nil
}

// UpdateMedia stores the ffprobe facts for a file.
func (s *Store) UpdateMedia(ctx context.Context, fileID int64, media Media) error {
	encoded, err := nullableJSON(media)
	if err != nil {
		return fmt.Errorf("encode media: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET media_json = ?, updated_at = ? WHERE id = ?`,
		encoded, now(), fileID,
	)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update media: file %d not found", fileID)
	}
	return nil
}

// Prune removes files below any of roots whose path is not in present.
// It returns the number of rows removed.
func (s *Store) Prune(ctx context.Context, roots []string, present map[string]struct{}) (int64, error) {
	files, err := s.ListFiles(ctx)
	if err != nil {
		return 0, err
	}
	var stale []int64
	for _, file := range files {
		if _, ok := present[file.Path]; ok {
			continue
		}
		if underAny(file.Path, roots) {
			stale = append(stale, file.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("prune file %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return int64(len(stale)), nil
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
