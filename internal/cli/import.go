package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lazypower/tidemark/internal/engine"
	"github.com/lazypower/tidemark/internal/model"
	"github.com/lazypower/tidemark/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import persons and raw evidence from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

// fixture is the import file layout.
type fixture struct {
	Persons []fixturePerson `yaml:"persons"`
}

type fixturePerson struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Curves   []fixtureCurve  `yaml:"curves"`
	Events   []fixtureEvent  `yaml:"events"`
	Items    []fixtureItem   `yaml:"items"`
	Memories []fixtureMemory `yaml:"memories"`
}

// fixtureCurve takes either the full slot list or a single level that
// fills every slot.
type fixtureCurve struct {
	Day        time.Time `yaml:"day"`
	Level      *float64  `yaml:"level"`
	Levels     []float64 `yaml:"levels"`
	Confidence *float64  `yaml:"confidence"`
}

type fixtureEvent struct {
	At          time.Time `yaml:"at"`
	BodyEnergy  *float64  `yaml:"body_energy"`
	MindFocus   *float64  `yaml:"mind_focus"`
	StressLevel *float64  `yaml:"stress_level"`
	Confidence  *float64  `yaml:"confidence"`
}

type fixtureItem struct {
	ID       string     `yaml:"id"`
	Label    string     `yaml:"label"`
	Status   string     `yaml:"status"`
	Due      *time.Time `yaml:"due"`
	Priority int        `yaml:"priority"`
	Horizon  string     `yaml:"horizon"`
}

type fixtureMemory struct {
	At      time.Time    `yaml:"at"`
	Kind    string       `yaml:"kind"`
	Content string       `yaml:"content"`
	Tags    []fixtureTag `yaml:"tags"`
}

type fixtureTag struct {
	Dimension string `yaml:"dimension"`
	Key       string `yaml:"key"`
	Polarity  string `yaml:"polarity"`
	Intensity string `yaml:"intensity"`
}

type importStats struct {
	Persons, Curves, Events, Items, Memories, Tags int
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, _, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := importFixture(db, f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d persons: %d curves, %d events, %d items, %d memories, %d tags\n",
		stats.Persons, stats.Curves, stats.Events, stats.Items, stats.Memories, stats.Tags)
	return nil
}

// importFixture validates the whole file before writing anything.
func importFixture(db *store.DB, r io.Reader) (importStats, error) {
	var stats importStats
	var fx fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		return stats, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return stats, err
	}

	for _, p := range fx.Persons {
		if err := db.UpsertPerson(p.ID, p.Name); err != nil {
			return stats, err
		}
		stats.Persons++

		for _, c := range p.Curves {
			levels := c.Levels
			if c.Level != nil {
				levels = make([]float64, model.SlotsPerDay)
				for i := range levels {
					levels[i] = *c.Level
				}
			}
			if err := db.SaveCurve(model.DailyEnergyCurve{PersonID: p.ID, Day: c.Day, Levels: levels, Confidence: c.Confidence}); err != nil {
				return stats, err
			}
			stats.Curves++
		}
		for _, ev := range p.Events {
			err := db.AddEvent(model.RhythmEvent{
				PersonID: p.ID, OccurredAt: ev.At, BodyEnergy: ev.BodyEnergy,
				MindFocus: ev.MindFocus, StressLevel: ev.StressLevel, Confidence: ev.Confidence,
			})
			if err != nil {
				return stats, err
			}
			stats.Events++
		}
		for _, it := range p.Items {
			err := db.UpsertItem(model.PlannedItem{
				ID: it.ID, PersonID: p.ID, Label: it.Label, Status: it.Status,
				DueAt: it.Due, Priority: it.Priority, Horizon: it.Horizon,
			})
			if err != nil {
				return stats, err
			}
			stats.Items++
		}
		for _, m := range p.Memories {
			id, err := db.AddMemory(model.Memory{PersonID: p.ID, Kind: m.Kind, Content: m.Content, OccurredAt: m.At})
			if err != nil {
				return stats, err
			}
			stats.Memories++
			for _, tag := range m.Tags {
				_, err := db.AddTag(model.EpisodicTag{
					MemoryID:  id,
					Dimension: model.Dimension(tag.Dimension),
					Key:       tag.Key,
					Polarity:  model.Polarity(tag.Polarity),
					Intensity: model.Intensity(tag.Intensity),
				})
				if err != nil {
					return stats, err
				}
				stats.Tags++
			}
		}
	}
	return stats, nil
}

func (fx fixture) validate() error {
	for i, p := range fx.Persons {
		if p.ID == "" {
			return fmt.Errorf("persons[%d]: id required", i)
		}
		for j, c := range p.Curves {
			if c.Day.IsZero() {
				return fmt.Errorf("person %s curves[%d]: day required", p.ID, j)
			}
			if err := unitOrNil(c.Level, c.Confidence); err != nil {
				return fmt.Errorf("person %s curves[%d]: %w", p.ID, j, err)
			}
			if len(c.Levels) > model.SlotsPerDay {
				return fmt.Errorf("person %s curves[%d]: %d slots, max %d", p.ID, j, len(c.Levels), model.SlotsPerDay)
			}
		}
		for j, ev := range p.Events {
			if err := unitOrNil(ev.BodyEnergy, ev.MindFocus, ev.StressLevel, ev.Confidence); err != nil {
				return fmt.Errorf("person %s events[%d]: %w", p.ID, j, err)
			}
		}
		for j, it := range p.Items {
			if it.ID == "" || it.Status == "" {
				return fmt.Errorf("person %s items[%d]: id and status required", p.ID, j)
			}
		}
		for j, m := range p.Memories {
			for k, tag := range m.Tags {
				if !model.Dimension(tag.Dimension).Valid() {
					return fmt.Errorf("person %s memories[%d].tags[%d]: unknown dimension %q", p.ID, j, k, tag.Dimension)
				}
				if _, ok := model.Polarity(tag.Polarity).Sign(); !ok {
					return fmt.Errorf("person %s memories[%d].tags[%d]: unknown polarity %q", p.ID, j, k, tag.Polarity)
				}
				if _, ok := model.Intensity(tag.Intensity).Weight(); !ok {
					return fmt.Errorf("person %s memories[%d].tags[%d]: unknown intensity %q", p.ID, j, k, tag.Intensity)
				}
			}
		}
	}
	return nil
}

func unitOrNil(values ...*float64) error {
	for _, v := range values {
		if v != nil && !model.ValidUnit(*v) {
			return fmt.Errorf("%w: %v outside [0,1]", engine.ErrInvalidNumericInput, *v)
		}
	}
	return nil
}
