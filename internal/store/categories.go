package store

import "database/sql"

// InsertCategory inserts a category if its slug is not already present.
// Returns true when a new row was created.
func (s *Store) InsertCategory(name, slug, description string) (bool, error) {
	result, err := s.conn.Exec(
		`INSERT INTO categories (name, slug, description) VALUES (?, ?, ?)
		ON CONFLICT(slug) DO NOTHING`,
		name, slug, description,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// GetCategoryBySlug returns the category with the given slug, or nil.
func (s *Store) GetCategoryBySlug(slug string) (*Category, error) {
	row := s.conn.QueryRow(
		`SELECT id, name, slug, description, created_at FROM categories WHERE slug = ?`, slug,
	)
	return scanCategory(row)
}

// FirstCategory returns the oldest persisted category, or nil when none exist.
// Last-resort fallback for the categorizer; a seeded database never hits this.
func (s *Store) FirstCategory() (*Category, error) {
	row := s.conn.QueryRow(
		`SELECT id, name, slug, description, created_at FROM categories ORDER BY id LIMIT 1`,
	)
	return scanCategory(row)
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.conn.Query(
		`SELECT id, name, slug, description, created_at FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanCategory(row *sql.Row) (*Category, error) {
	var c Category
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
