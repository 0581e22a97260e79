package store

import (
	"database/sql"
	"time"
)

// GetOrCreateSource returns the source with the given URL, creating it when
// absent. The insert relies on the unique constraint rather than
// check-then-create so concurrent runs cannot race into duplicates.
// Returns the source and whether it was newly created.
func (s *Store) GetOrCreateSource(name, url, kind string, categoryID int64) (*Source, bool, error) {
	result, err := s.conn.Exec(
		`INSERT INTO sources (name, url, kind, category_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		name, url, kind, categoryID,
	)
	if err != nil {
		return nil, false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	src, err := s.getSourceByURL(url)
	if err != nil {
		return nil, false, err
	}
	return src, n > 0, nil
}

// TouchSourceCrawled stamps a source's last_crawled_at.
func (s *Store) TouchSourceCrawled(sourceID int64, at time.Time) error {
	_, err := s.conn.Exec(
		`UPDATE sources SET last_crawled_at = ? WHERE id = ?`,
		formatTime(at), sourceID,
	)
	return err
}

// ListSourceStatuses returns all sources with their most recent crawl log,
// ordered by name.
func (s *Store) ListSourceStatuses() ([]SourceStatus, error) {
	rows, err := s.conn.Query(`
		SELECT s.id, s.name, s.url, s.kind, s.category_id, s.last_crawled_at, s.created_at,
			c.slug,
			COALESCE(l.status, ''), COALESCE(l.error_message, ''),
			COALESCE(l.articles_found, 0), l.started_at
		FROM sources s
		JOIN categories c ON c.id = s.category_id
		LEFT JOIN crawl_logs l ON l.id = (
			SELECT id FROM crawl_logs WHERE source_id = s.id ORDER BY started_at DESC, id DESC LIMIT 1
		)
		ORDER BY s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []SourceStatus
	for rows.Next() {
		var st SourceStatus
		var lastCrawled, createdAt, logStarted sql.NullString
		if err := rows.Scan(&st.ID, &st.Name, &st.URL, &st.Kind, &st.CategoryID,
			&lastCrawled, &createdAt, &st.CategorySlug,
			&st.LastStatus, &st.LastError, &st.LastFound, &logStarted); err != nil {
			return nil, err
		}
		if lastCrawled.Valid && lastCrawled.String != "" {
			t := parseTime(lastCrawled.String)
			st.LastCrawledAt = &t
		}
		if createdAt.Valid {
			st.CreatedAt = parseTime(createdAt.String)
		}
		if logStarted.Valid && logStarted.String != "" {
			t := parseTime(logStarted.String)
			st.LastStartedAt = &t
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

func (s *Store) getSourceByURL(url string) (*Source, error) {
	row := s.conn.QueryRow(
		`SELECT id, name, url, kind, category_id, last_crawled_at, created_at
		FROM sources WHERE url = ?`, url,
	)
	return scanSource(row)
}

func scanSource(row *sql.Row) (*Source, error) {
	var src Source
	var lastCrawled, createdAt sql.NullString
	err := row.Scan(&src.ID, &src.Name, &src.URL, &src.Kind, &src.CategoryID, &lastCrawled, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastCrawled.Valid && lastCrawled.String != "" {
		t := parseTime(lastCrawled.String)
		src.LastCrawledAt = &t
	}
	if createdAt.Valid {
		src.CreatedAt = parseTime(createdAt.String)
	}
	return &src, nil
}
