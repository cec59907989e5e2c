package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"uploadcheck/internal/safety"
)

// RecordSearch stores the outcome of one catalog lookup, replacing any
// previous lookup for the same file and catalog.
func (s *Store) RecordSearch(ctx context.Context, search Search) error {
	if search.Entries == nil {
		search.Entries = []EntryRecord{}
	}
	entries, err := nullableJSON(search.Entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if search.SearchedAt.IsZero() {
		search.SearchedAt = nowTime()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO searches (file_id, catalog, searched_at, error, entries_json)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(file_id, catalog) DO UPDATE SET
             searched_at = excluded.searched_at,
             error = excluded.error,
             entries_json = excluded.entries_json`,
		search.FileID, search.Catalog, nullableTime(search.SearchedAt), nullableString(search.Error), entries,
	)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// SearchFor returns the stored lookup for a file and catalog, or nil when
// the catalog was never searched for that file.
func (s *Store) SearchFor(ctx context.Context, fileID int64, catalogName string) (*Search, error) {
	var (
		searchedAt sql.NullString
		errMsg     sql.NullString
		entries    sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT searched_at, error, entries_json FROM searches WHERE file_id = ? AND catalog = ?`,
		fileID, catalogName,
	).Scan(&searchedAt, &errMsg, &entries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get search: %w", err)
	}

	search := &Search{FileID: fileID, Catalog: catalogName, Error: errMsg.String}
	if t, err := parseTimeString(searchedAt.String); err == nil {
		search.SearchedAt = t
	}
	if entries.Valid && entries.String != "" {
		if err := json.Unmarshal([]byte(entries.String), &search.Entries); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
	}
	return search, nil
}

// SaveVerdict stores the classification of a file for a catalog.
func (s *Store) SaveVerdict(ctx context.Context, v Verdict) error {
	details, err := nullableJSON(v.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}
	if v.DecidedAt.IsZero() {
		v.DecidedAt = nowTime()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (file_id, catalog, outcome, reason, details_json, upgrade, decided_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(file_id, catalog) DO UPDATE SET
             outcome = excluded.outcome,
             reason = excluded.reason,
             details_json = excluded.details_json,
             upgrade = excluded.upgrade,
             decided_at = excluded.decided_at`,
		v.FileID, v.Catalog, string(v.Outcome), v.Reason, details, boolToInt(v.Upgrade), nullableTime(v.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("save verdict: %w", err)
	}
	return nil
}

// DeleteVerdicts removes every verdict recorded for a file.
func (s *Store) DeleteVerdicts(ctx context.Context, fileID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE file_id = ?`, fileID)
	if err != nil {
		return 0, fmt.Errorf("delete verdicts: %w", err)
	}
	return res.RowsAffected()
}

// VerdictsByCatalog returns the verdicts for one catalog joined with their
// files, ordered by outcome and file name. Pass outcomes to filter.
func (s *Store) VerdictsByCatalog(ctx context.Context, catalogName string, outcomes ...safety.Outcome) ([]Listing, error) {
	query := `SELECT v.outcome, v.reason, v.details_json, v.upgrade, v.decided_at, ` + prefixedColumns(fileColumns, "f") + `
        FROM verdicts v JOIN files f ON f.id = v.file_id
        WHERE v.catalog = ?`
	args := []any{catalogName}
	if len(outcomes) > 0 {
		query += ` AND v.outcome IN (` + makePlaceholders(len(outcomes)) + `)`
		for _, outcome := range outcomes {
			args = append(args, string(outcome))
		}
	}
	query += ` ORDER BY CASE v.outcome WHEN 'safe' THEN 0 WHEN 'risky' THEN 1 WHEN 'danger' THEN 2 ELSE 3 END, f.name COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var (
			listing   Listing
			raw       fileRaw
			outcome   string
			details   sql.NullString
			upgrade   int64
			decidedAt sql.NullString
		)
		dest := append([]any{&outcome, &listing.Verdict.Reason, &details, &upgrade, &decidedAt}, fileDest(&listing.File, &raw)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		if err := raw.apply(&listing.File); err != nil {
			return nil, err
		}
		listing.Verdict.FileID = listing.File.ID
		listing.Verdict.Catalog = catalogName
		listing.Verdict.Outcome = safety.Outcome(outcome)
		listing.Verdict.Upgrade = upgrade != 0
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &listing.Verdict.Details); err != nil {
				return nil, fmt.Errorf("decode details: %w", err)
			}
		}
		if t, err := parseTimeString(decidedAt.String); err == nil {
			listing.Verdict.DecidedAt = t
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// VerdictCounts tallies stored outcomes per catalog.
func (s *Store) VerdictCounts(ctx context.Context) (map[string]map[safety.Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT catalog, outcome, COUNT(1) FROM verdicts GROUP BY catalog, outcome`)
	if err != nil {
		return nil, fmt.Errorf("count verdicts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[safety.Outcome]int)
	for rows.Next() {
		var (
			catalogName string
			outcome     string
			n           int
		)
		if err := rows.Scan(&catalogName, &outcome, &n); err != nil {
			return nil, fmt.Errorf("scan verdict count: %w", err)
		}
		if counts[catalogName] == nil {
			counts[catalogName] = make(map[safety.Outcome]int)
		}
		counts[catalogName][safety.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
