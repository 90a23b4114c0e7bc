package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "persons: sweep population",
		SQL: `
CREATE TABLE persons (
    id           TEXT PRIMARY KEY,
    display_name TEXT,
    created_at   INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "energy_curves and rhythm_events: raw rhythm inputs",
		SQL: `
CREATE TABLE energy_curves (
    person_id  TEXT NOT NULL,
    day        INTEGER NOT NULL,
    levels     TEXT NOT NULL,
    confidence REAL,
    PRIMARY KEY (person_id, day),
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);

CREATE TABLE rhythm_events (
    id           INTEGER PRIMARY KEY,
    person_id    TEXT NOT NULL,
    occurred_at  INTEGER NOT NULL,
    body_energy  REAL,
    mind_focus   REAL,
    stress_level REAL,
    confidence   REAL,
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);

CREATE INDEX idx_events_person_time ON rhythm_events(person_id, occurred_at);
`,
	},
	{
		Version:     3,
		Description: "weekly_rhythm_rollups: per-channel weekly summaries",
		SQL: `
CREATE TABLE weekly_rhythm_rollups (
    person_id  TEXT NOT NULL,
    week_start INTEGER NOT NULL,
    channels   TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (person_id, week_start),
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     4,
		Description: "planned_items and weekly_planner_pressure",
		SQL: `
CREATE TABLE planned_items (
    id         TEXT NOT NULL,
    person_id  TEXT NOT NULL,
    label      TEXT,
    status     TEXT NOT NULL,
    due_at     INTEGER,
    priority   INTEGER NOT NULL DEFAULT 0,
    horizon    TEXT,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (person_id, id),
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);

CREATE TABLE weekly_planner_pressure (
    person_id           TEXT NOT NULL,
    week_start          INTEGER NOT NULL,
    open_count          INTEGER NOT NULL,
    overdue_count       INTEGER NOT NULL,
    due_this_week       INTEGER NOT NULL,
    carryover_rate      REAL NOT NULL,
    urgency_ratio       REAL NOT NULL,
    deadline_density    REAL NOT NULL,
    fragmentation_score REAL NOT NULL,
    horizon_mix         TEXT NOT NULL,
    overload_flag       INTEGER NOT NULL,
    confidence          REAL NOT NULL,
    updated_at          INTEGER NOT NULL,
    PRIMARY KEY (person_id, week_start),
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     5,
		Description: "memories and episodic_tags: explicit evidence",
		SQL: `
CREATE TABLE memories (
    id          INTEGER PRIMARY KEY,
    person_id   TEXT NOT NULL,
    kind        TEXT NOT NULL DEFAULT 'journal',
    content     TEXT,
    occurred_at INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);

CREATE INDEX idx_memories_person_time ON memories(person_id, occurred_at);

CREATE TABLE episodic_tags (
    id        INTEGER PRIMARY KEY,
    memory_id INTEGER NOT NULL,
    dimension TEXT NOT NULL,
    key       TEXT,
    polarity  TEXT NOT NULL,
    intensity TEXT NOT NULL,
    FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE INDEX idx_tags_memory ON episodic_tags(memory_id);
`,
	},
	{
		Version:     6,
		Description: "longitudinal_state: one document per person",
		SQL: `
CREATE TABLE longitudinal_state (
    person_id  TEXT PRIMARY KEY,
    doc        TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     7,
		Description: "weekly_signals: read-side projection",
		SQL: `
CREATE TABLE weekly_signals (
    person_id  TEXT NOT NULL,
    week_start INTEGER NOT NULL,
    doc        TEXT NOT NULL,
    confidence REAL NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (person_id, week_start),
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     8,
		Description: "runs: job audit log",
		SQL: `
CREATE TABLE runs (
    id          TEXT PRIMARY KEY,
    component   TEXT NOT NULL CHECK (component IN ('rollup', 'pressure', 'state', 'signals')),
    person_id   TEXT,
    started_at  INTEGER NOT NULL,
    finished_at INTEGER,
    processed   INTEGER NOT NULL DEFAULT 0,
    updated     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    status      TEXT NOT NULL DEFAULT 'running' CHECK (status IN ('running', 'completed', 'partial', 'cancelled'))
);

CREATE INDEX idx_runs_started ON runs(started_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// LatestSchemaVersion is the version the compiled migrations bring a
// database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].Version
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
