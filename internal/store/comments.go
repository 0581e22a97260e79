package store

// AddComment inserts a comment and bumps the article's comment counter in one
// transaction. Returns the comment ID.
func (s *Store) AddComment(articleID int64, author, body string) (int64, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO comments (article_id, author, body) VALUES (?, ?, ?)`,
		articleID, author, body,
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(
		`UPDATE articles SET comment_count = comment_count + 1 WHERE id = ?`, articleID,
	); err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// ListComments returns an article's comments, oldest first.
func (s *Store) ListComments(articleID int64) ([]Comment, error) {
	rows, err := s.conn.Query(
		`SELECT id, article_id, author, body, created_at FROM comments
		WHERE article_id = ? ORDER BY created_at, id`, articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.Author, &c.Body, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
