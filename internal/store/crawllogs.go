package store

import (
	"database/sql"
	"time"
)

// InsertCrawlLog appends a crawl log entry for a source.
func (s *Store) InsertCrawlLog(sourceID int64, status string, articlesFound int, errorMessage string, startedAt, finishedAt time.Time) (int64, error) {
	result, err := s.conn.Exec(
		`INSERT INTO crawl_logs (source_id, status, articles_found, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sourceID, status, articlesFound, errorMessage, formatTime(startedAt), formatTime(finishedAt),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LatestCrawlLog returns the most recent crawl log for a source, or nil when
// the source has never been crawled.
func (s *Store) LatestCrawlLog(sourceID int64) (*CrawlLog, error) {
	row := s.conn.QueryRow(
		`SELECT id, source_id, status, articles_found, error_message, started_at, finished_at
		FROM crawl_logs WHERE source_id = ?
		ORDER BY started_at DESC, id DESC LIMIT 1`, sourceID,
	)
	var l CrawlLog
	var started, finished string
	err := row.Scan(&l.ID, &l.SourceID, &l.Status, &l.ArticlesFound, &l.ErrorMessage, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.StartedAt = parseTime(started)
	l.FinishedAt = parseTime(finished)
	return &l, nil
}
