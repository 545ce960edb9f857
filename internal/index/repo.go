package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Source      string // absolute source path
	Filename    string
	Title       string
	Date        string // YYYY-MM-DD
	Tags        []string
	Checksum    string
	ConvertedAt time.Time
}

// LinkRow represents one wiki link found in a converted note.
type LinkRow struct {
	Source      string
	Target      string
	Destination string
	Embed       bool
	Resolved    bool
}

// RecordPost inserts or replaces a post and its links within a transaction.
func (db *DB) RecordPost(p PostRow, links []LinkRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO posts (source, filename, title, date, tags, checksum, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			filename     = excluded.filename,
			title        = excluded.title,
			date         = excluded.date,
			tags         = excluded.tags,
			checksum     = excluded.checksum,
			converted_at = excluded.converted_at
	`, p.Source, p.Filename, p.Title, p.Date, string(tagsJSON), p.Checksum, p.ConvertedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// Replace links: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p.Source); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO links (source, target, destination, embed, resolved)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(p.Source, l.Target, l.Destination, l.Embed, l.Resolved); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Prune removes posts (and their links) whose source is not in keep. It
// returns the number of posts removed.
func (db *DB) Prune(keep map[string]struct{}) (int, error) {
	rows, err := db.conn.Query(`SELECT source FROM posts`)
	if err != nil {
		return 0, fmt.Errorf("index: list sources: %w", err)
	}
	var stale []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := keep[s]; !ok {
			stale = append(stale, s)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, s := range stale {
		if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, s); err != nil {
			return 0, fmt.Errorf("index: prune links: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM posts WHERE source = ?`, s); err != nil {
			return 0, fmt.Errorf("index: prune post: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Posts returns every recorded post ordered by filename.
func (db *DB) Posts() ([]PostRow, error) {
	rows, err := db.conn.Query(`
		SELECT source, filename, title, date, tags, checksum, converted_at
		FROM posts
		ORDER BY filename
	`)
	if err != nil {
		return nil, fmt.Errorf("index: posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		var (
			p        PostRow
			tagsJSON string
		)
		if err := rows.Scan(&p.Source, &p.Filename, &p.Title, &p.Date, &tagsJSON, &p.Checksum, &p.ConvertedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return nil, fmt.Errorf("index: decode tags of %s: %w", p.Source, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UnresolvedLinks returns every link whose target matched no known note,
// ordered by source then target.
func (db *DB) UnresolvedLinks() ([]LinkRow, error) {
	rows, err := db.conn.Query(`
		SELECT source, target, destination, embed, resolved
		FROM links
		WHERE resolved = 0
		ORDER BY source, target
	`)
	if err != nil {
		return nil, fmt.Errorf("index: unresolved links: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Source, &l.Target, &l.Destination, &l.Embed, &l.Resolved); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
