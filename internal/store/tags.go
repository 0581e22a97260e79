package store

import (
	"database/sql"
	"strings"
	"unicode"
)

// GetOrCreateTag returns the ID of the tag with the given name, creating it
// under its slugified form when absent.
func (s *Store) GetOrCreateTag(name string) (int64, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := getOrCreateTagTx(tx, name)
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func getOrCreateTagTx(tx *sql.Tx, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if len(name) > 100 {
		name = name[:100]
	}
	slug := Slugify(name)

	if _, err := tx.Exec(
		`INSERT INTO tags (name, slug) VALUES (?, ?) ON CONFLICT(slug) DO NOTHING`,
		name, slug,
	); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM tags WHERE slug = ?`, slug).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Slugify lowercases a name and collapses runs of non-alphanumeric characters
// into single hyphens, capped at 100 characters.
func Slugify(name string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	return slug
}
