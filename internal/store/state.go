package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lazypower/tidemark/internal/model"
)

// stateRecord is the stored state document. Dimensions are decoded
// individually so one damaged entry does not discard the others.
type stateRecord struct {
	PersonID   string                     `json:"person_id"`
	Dimensions map[string]json.RawMessage `json:"dimensions"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// GetState returns the person's longitudinal state, or nil if none has been
// written. The document is validated on the way out: unknown dimensions
// are dropped, damaged or missing ones come back as the unknown payload,
// and every value is clamped.
func (db *DB) GetState(personID string) (*model.State, error) {
	var raw string
	err := db.QueryRow(`SELECT doc FROM longitudinal_state WHERE person_id = ?`, personID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return decodeState(personID, raw)
}

func decodeState(personID, raw string) (*model.State, error) {
	var rec stateRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", personID, err)
	}
	st := model.NewState(personID)
	st.UpdatedAt = rec.UpdatedAt.UTC()
	for key, body := range rec.Dimensions {
		d := model.Dimension(key)
		if !d.Valid() {
			log.Printf("store: state %s: dropping unknown dimension %q", personID, key)
			continue
		}
		var ds model.DimensionState
		if err := json.Unmarshal(body, &ds); err != nil {
			log.Printf("store: state %s: dimension %s unreadable: %v", personID, key, err)
			continue
		}
		st.Dimensions[d] = ds.Normalize()
	}
	return st, nil
}

// SaveState replaces the person's whole state document in one transaction.
func (db *DB) SaveState(st *model.State) error {
	if st == nil || st.PersonID == "" {
		return fmt.Errorf("save state: person id required")
	}
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM longitudinal_state WHERE person_id = ?`, st.PersonID); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO longitudinal_state (person_id, doc, updated_at) VALUES (?, ?, ?)
		`, st.PersonID, string(doc), toMillis(st.UpdatedAt)); err != nil {
			return fmt.Errorf("write state: %w", err)
		}
		return nil
	})
}
