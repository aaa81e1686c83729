package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// DocRow represents a row in the docs table.
type DocRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date,omitzero"`
	Draft     bool      `json:"draft,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags,omitempty"`
	Words     int       `json:"words"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListQuery narrows and orders ListDocs results. Drafts are excluded unless
// Drafts is set.
type ListQuery struct {
	Limit  int
	Offset int
	Tag    string
	Drafts bool
	Sort   string // "date" (default), "title", or "path"
}

// TagCount is one tag with the number of documents carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDoc inserts or replaces a document, its FTS entry, and its outgoing
// links within a transaction.
func (db *DB) UpsertDoc(d DocRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(d.Tags)

	// Upsert docs table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO docs (path, title, date, draft, summary, checksum, tags, words, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			date       = excluded.date,
			draft      = excluded.draft,
			summary    = excluded.summary,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			words      = excluded.words,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, dateToDB(d.Date), boolToDB(d.Draft), d.Summary, d.Checksum, string(tagsJSON), d.Words, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert doc: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Path, d.Title, d.Summary, body, d.Tags); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, d.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(d.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDoc removes a document, its FTS entry, and its outgoing links.
func (db *DB) DeleteDoc(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM docs WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// it is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM docs WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetDoc returns one indexed document row.
func (db *DB) GetDoc(path string) (*DocRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, date, draft, summary, checksum, tags, words, updated_at
		FROM docs WHERE path = ?
	`, path)
	d, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get doc: %w", err)
	}
	return d, nil
}

// ListDocs returns a page of documents plus the total count for the filter.
func (db *DB) ListDocs(q ListQuery) ([]DocRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	where := ` WHERE 1=1`
	var args []interface{}
	if !q.Drafts {
		where += ` AND draft = 0`
	}
	if q.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+q.Tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM docs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count docs: %w", err)
	}

	order := ` ORDER BY date DESC, path ASC`
	switch q.Sort {
	case "title":
		order = ` ORDER BY title COLLATE NOCASE ASC`
	case "path":
		order = ` ORDER BY path ASC`
	}

	query := `SELECT path, title, date, draft, summary, checksum, tags, words, updated_at FROM docs` +
		where + order + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list docs: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// ListTags returns every tag in use with its document count, sorted by tag.
func (db *DB) ListTags() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT tags FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: list tags: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, t := range tags {
			counts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns all document paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDoc(s scanner) (*DocRow, error) {
	var (
		d        DocRow
		date     string
		draft    int
		tagsJSON string
	)
	if err := s.Scan(&d.Path, &d.Title, &date, &draft, &d.Summary, &d.Checksum, &tagsJSON, &d.Words, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Date = dateFromDB(date)
	d.Draft = draft != 0
	_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
	return &d, nil
}

// dateToDB stores dates as RFC 3339 text so lexical order is date order.
func dateToDB(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func dateFromDB(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToDB(b bool) int {
	if b {
		return 1
	}
	return 0
}
