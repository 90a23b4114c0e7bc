package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lazypower/tidemark/internal/config"
	"github.com/lazypower/tidemark/internal/engine"
	"github.com/lazypower/tidemark/internal/metrics"
	"github.com/lazypower/tidemark/internal/store"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openDB opens the configured database, falling back to the default path.
func openDB(cfg config.Config) (*store.DB, string, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	return db, dbPath, nil
}

func newEngine(cfg config.Config, db *store.DB, collector metrics.Collector) *engine.Engine {
	eng := engine.New(db, collector)
	eng.Workers = cfg.Engine.Workers
	eng.PersonTimeout = cfg.Engine.PersonTimeout
	return eng
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
