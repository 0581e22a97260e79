package store

import (
	"database/sql"
	"fmt"
)

// ArticleExistsByURL reports whether an article with the given canonical URL
// is already persisted. This is the deduplication check.
func (s *Store) ArticleExistsByURL(url string) (bool, error) {
	var n int
	if err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM articles WHERE url = ?`, url,
	).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateArticle persists an article together with up to len(tagNames) tag
// associations in a single transaction, so an article never ends up with only
// some of its tags. Tags are get-or-created by slug. Returns the article ID.
func (s *Store) CreateArticle(a *Article, tagNames []string) (int64, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO articles (title, summary, content, url, thumbnail_url,
			category_id, source_id, published_at, content_fetched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Summary, a.Content, a.URL, a.ThumbnailURL,
		a.CategoryID, a.SourceID, formatTime(a.PublishedAt), boolToInt(a.ContentFetched),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting article: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, name := range tagNames {
		tagID, err := getOrCreateTagTx(tx, name)
		if err != nil {
			return 0, fmt.Errorf("attaching tag %q: %w", name, err)
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)`,
			id, tagID,
		); err != nil {
			return 0, fmt.Errorf("attaching tag %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetArticleByID returns a single article by ID, or nil.
func (s *Store) GetArticleByID(id int64) (*Article, error) {
	row := s.conn.QueryRow(articleSelect+` WHERE id = ?`, id)
	a, err := scanArticleRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListArticles returns one page of articles ordered by published_at DESC,
// optionally filtered by category slug, plus the total match count.
func (s *Store) ListArticles(page, pageSize int, categorySlug string) ([]Article, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where := ""
	var args []any
	if categorySlug != "" {
		where = ` WHERE category_id = (SELECT id FROM categories WHERE slug = ?)`
		args = append(args, categorySlug)
	}

	var total int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM articles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := articleSelect + where + ` ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// GetArticleTags returns the tags attached to an article.
func (s *Store) GetArticleTags(articleID int64) ([]Tag, error) {
	rows, err := s.conn.Query(
		`SELECT t.id, t.name, t.slug FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = ? ORDER BY t.slug`, articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// IncrementLikeCount bumps an article's like counter. Returns sql.ErrNoRows
// semantics via a false return when the article does not exist.
func (s *Store) IncrementLikeCount(articleID int64) (bool, error) {
	result, err := s.conn.Exec(
		`UPDATE articles SET like_count = like_count + 1 WHERE id = ?`, articleID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// GetArticlesNeedingFetch returns articles with empty content whose full text
// has not been fetched yet.
func (s *Store) GetArticlesNeedingFetch() ([]Article, error) {
	rows, err := s.conn.Query(
		articleSelect + ` WHERE (content IS NULL OR content = '') AND content_fetched = 0
		ORDER BY published_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// UpdateArticleContent stores fetched full text for an article.
func (s *Store) UpdateArticleContent(articleID int64, content string) error {
	_, err := s.conn.Exec(
		`UPDATE articles SET content = ?, content_fetched = 1 WHERE id = ?`,
		content, articleID,
	)
	return err
}

// MarkArticleFetchAttempted records that a content fetch was tried, so failed
// articles are not retried on every run.
func (s *Store) MarkArticleFetchAttempted(articleID int64) error {
	_, err := s.conn.Exec(
		`UPDATE articles SET content_fetched = 1 WHERE id = ?`, articleID,
	)
	return err
}

// GetStats returns aggregate row counts.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM categories`, &stats.Categories},
		{`SELECT COUNT(*) FROM sources`, &stats.Sources},
		{`SELECT COUNT(*) FROM articles`, &stats.Articles},
		{`SELECT COUNT(*) FROM tags`, &stats.Tags},
		{`SELECT COUNT(*) FROM comments`, &stats.Comments},
	}
	for _, c := range counts {
		if err := s.conn.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

const articleSelect = `SELECT id, title, summary, content, url, thumbnail_url,
	category_id, source_id, published_at, like_count, comment_count, content_fetched, created_at
	FROM articles`

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticleRow(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticleRow(row rowScanner) (*Article, error) {
	var a Article
	var publishedAt string
	var createdAt sql.NullString
	var fetched int
	if err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.URL, &a.ThumbnailURL,
		&a.CategoryID, &a.SourceID, &publishedAt, &a.LikeCount, &a.CommentCount,
		&fetched, &createdAt); err != nil {
		return nil, err
	}
	a.PublishedAt = parseTime(publishedAt)
	if createdAt.Valid {
		a.CreatedAt = parseTime(createdAt.String)
	}
	a.ContentFetched = fetched != 0
	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
