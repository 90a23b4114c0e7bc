package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// UpsertPerson creates a person or updates the display name.
func (db *DB) UpsertPerson(id, displayName string) error {
	if id == "" {
		return fmt.Errorf("upsert person: id required")
	}
	_, err := db.Exec(`
		INSERT INTO persons (id, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name
	`, id, displayName, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert person: %w", err)
	}
	return nil
}

// GetPerson returns a person by id, or nil if not found.
func (db *DB) GetPerson(id string) (*model.Person, error) {
	var p model.Person
	var name sql.NullString
	var created int64
	err := db.QueryRow(`SELECT id, display_name, created_at FROM persons WHERE id = ?`, id).
		Scan(&p.ID, &name, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	p.DisplayName = name.String
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

// ListPersonIDs returns every known person id in ascending order.
func (db *DB) ListPersonIDs() ([]string, error) {
	rows, err := db.Query(`SELECT id FROM persons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeletePerson removes a person and, by cascade, every person-scoped row.
func (db *DB) DeletePerson(id string) error {
	if _, err := db.Exec(`DELETE FROM persons WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}
