package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// AddMemory inserts a memory record and returns its id.
func (db *DB) AddMemory(m model.Memory) (int64, error) {
	kind := m.Kind
	if kind == "" {
		kind = "journal"
	}
	res, err := db.Exec(`
		INSERT INTO memories (person_id, kind, content, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.PersonID, kind, m.Content, toMillis(m.OccurredAt), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("add memory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("memory id: %w", err)
	}
	return id, nil
}

// AddTag attaches an episodic tag to a memory.
func (db *DB) AddTag(tag model.EpisodicTag) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO episodic_tags (memory_id, dimension, key, polarity, intensity)
		VALUES (?, ?, ?, ?, ?)
	`, tag.MemoryID, string(tag.Dimension), tag.Key, string(tag.Polarity), string(tag.Intensity))
	if err != nil {
		return 0, fmt.Errorf("add tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("tag id: %w", err)
	}
	return id, nil
}

// MemoriesInWindow returns the memories that occurred inside the window,
// oldest first.
func (db *DB) MemoriesInWindow(personID string, w model.Window) ([]model.Memory, error) {
	rows, err := db.Query(`
		SELECT id, kind, content, occurred_at, created_at FROM memories
		WHERE person_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id
	`, personID, toMillis(w.Start), toMillis(w.End))
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		var m model.Memory
		var content sql.NullString
		var occurred, created int64
		if err := rows.Scan(&m.ID, &m.Kind, &content, &occurred, &created); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.PersonID = personID
		m.Content = content.String
		m.OccurredAt = fromMillis(occurred)
		m.CreatedAt = fromMillis(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// TagsInWindow returns the tags whose memory occurred inside the window.
// Tags naming a dimension this build does not know are skipped.
func (db *DB) TagsInWindow(personID string, w model.Window) ([]model.EpisodicTag, error) {
	rows, err := db.Query(`
		SELECT t.id, t.memory_id, t.dimension, t.key, t.polarity, t.intensity, m.occurred_at
		FROM episodic_tags t
		JOIN memories m ON m.id = t.memory_id
		WHERE m.person_id = ? AND m.occurred_at >= ? AND m.occurred_at < ?
		ORDER BY m.occurred_at, t.id
	`, personID, toMillis(w.Start), toMillis(w.End))
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var out []model.EpisodicTag
	for rows.Next() {
		var tag model.EpisodicTag
		var dim, polarity, intensity string
		var key sql.NullString
		var occurred int64
		if err := rows.Scan(&tag.ID, &tag.MemoryID, &dim, &key, &polarity, &intensity, &occurred); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tag.Dimension = model.Dimension(dim)
		if !tag.Dimension.Valid() {
			log.Printf("store: tag %d: skipping unknown dimension %q", tag.ID, dim)
			continue
		}
		tag.Key = key.String
		tag.Polarity = model.Polarity(polarity)
		tag.Intensity = model.Intensity(intensity)
		tag.OccurredAt = fromMillis(occurred)
		out = append(out, tag)
	}
	return out, rows.Err()
}
