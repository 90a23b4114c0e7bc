package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/tidemark/internal/metrics"
	"github.com/lazypower/tidemark/internal/model"
	"github.com/lazypower/tidemark/internal/store"
	"github.com/lazypower/tidemark/internal/worker"
)

// Component names a weekly job.
type Component string

const (
	ComponentRollup   Component = "rollup"
	ComponentPressure Component = "pressure"
	ComponentState    Component = "state"
	ComponentSignals  Component = "signals"
)

// Components lists the jobs in dependency order: feeders first, then the
// state engine, then the signals projection that reads it.
var Components = []Component{ComponentRollup, ComponentPressure, ComponentState, ComponentSignals}

// ParseComponent validates a component name.
func ParseComponent(s string) (Component, error) {
	for _, c := range Components {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown component %q", s)
}

// Failure is one person a run could not update.
type Failure struct {
	PersonID string `json:"person_id"`
	Error    string `json:"error"`
	Type     string `json:"type"`
}

// RunResult summarizes one invocation of a component.
type RunResult struct {
	RunID     string    `json:"run_id"`
	Component Component `json:"component"`
	Processed int       `json:"processed"`
	Updated   int       `json:"updated"`
	Failures  []Failure `json:"failures"`
	Status    string    `json:"status"`
}

// Engine runs the weekly jobs over the person population.
type Engine struct {
	DB      *store.DB
	Metrics metrics.Collector
	// Workers bounds the sweep fan-out; <= 0 means runtime.NumCPU().
	Workers int
	// PersonTimeout bounds one person's read-compute-write; 0 disables it.
	PersonTimeout time.Duration
	// Now is the engine clock. It is normalized to UTC midnight per run.
	Now    func() time.Time
	stopCh chan struct{}
}

// New creates a new Engine.
func New(db *store.DB, collector metrics.Collector) *Engine {
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Engine{
		DB:      db,
		Metrics: collector,
		Now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// runContext is the per-run state handed to every worker.
type runContext struct {
	id        string
	component Component
	now       time.Time
	current   model.Window
	previous  model.Window
}

type personJob func(ctx context.Context, rc runContext, personID string) (bool, error)

func (e *Engine) job(c Component) personJob {
	switch c {
	case ComponentRollup:
		return e.rollupPerson
	case ComponentPressure:
		return e.pressurePerson
	case ComponentState:
		return e.statePerson
	case ComponentSignals:
		return e.signalsPerson
	}
	return nil
}

// RunRollups computes and stores the weekly rhythm rollups.
func (e *Engine) RunRollups(ctx context.Context, personID *string) (RunResult, error) {
	return e.Run(ctx, ComponentRollup, personID)
}

// RunPressure computes and stores the weekly planner pressure.
func (e *Engine) RunPressure(ctx context.Context, personID *string) (RunResult, error) {
	return e.Run(ctx, ComponentPressure, personID)
}

// RunState updates the longitudinal state.
func (e *Engine) RunState(ctx context.Context, personID *string) (RunResult, error) {
	return e.Run(ctx, ComponentState, personID)
}

// RunSignals builds the weekly signals projection.
func (e *Engine) RunSignals(ctx context.Context, personID *string) (RunResult, error) {
	return e.Run(ctx, ComponentSignals, personID)
}

// RunAll runs every component in dependency order. It stops early only if
// ctx is cancelled.
func (e *Engine) RunAll(ctx context.Context, personID *string) ([]RunResult, error) {
	var results []RunResult
	for _, c := range Components {
		res, err := e.Run(ctx, c, personID)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Run executes one component for a single person or, when personID is
// nil, for every known person. Per-person failures are collected in the
// result and never abort the sweep. The returned error is non-nil only
// when the population cannot be listed, the person is unknown, or ctx was
// cancelled.
func (e *Engine) Run(ctx context.Context, c Component, personID *string) (RunResult, error) {
	job := e.job(c)
	if job == nil {
		return RunResult{}, fmt.Errorf("unknown component %q", c)
	}

	ids, err := e.population(personID)
	if err != nil {
		e.Metrics.RecordError(ctx, string(c), ClassifyError(err))
		return RunResult{Component: c}, err
	}
	if personID == nil {
		e.Metrics.SetPersonCount(ctx, int64(len(ids)))
	}

	now := model.DayStart(e.clock())
	rc := runContext{
		id:        uuid.New().String(),
		component: c,
		now:       now,
		current:   model.CurrentWindow(now),
		previous:  model.PreviousWindow(now),
	}
	if _, err := e.DB.StartRun(rc.id, string(c), personID); err != nil {
		log.Printf("%s: record run start: %v", c, err)
	}

	pool := worker.NewPool[bool](e.Workers)
	results := pool.Process(ctx, ids, func(ctx context.Context, id string) (bool, error) {
		return e.runPerson(ctx, rc, id, job)
	})

	res := RunResult{RunID: rc.id, Component: c}
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) && ctx.Err() != nil {
			continue
		}
		res.Processed++
		if r.Err != nil {
			res.Failures = append(res.Failures, Failure{PersonID: r.Item, Error: r.Err.Error(), Type: ClassifyError(r.Err)})
			continue
		}
		if r.Value {
			res.Updated++
		}
	}

	res.Status = store.RunCompleted
	switch {
	case ctx.Err() != nil:
		res.Status = store.RunCancelled
	case len(res.Failures) > 0:
		res.Status = store.RunPartial
	}
	if err := e.DB.FinishRun(rc.id, res.Processed, res.Updated, len(res.Failures), res.Status); err != nil {
		log.Printf("%s: record run finish: %v", c, err)
	}
	log.Printf("%s: run %s: processed %d, updated %d, failed %d", c, rc.id, res.Processed, res.Updated, len(res.Failures))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// runPerson applies the per-person timeout and records metrics.
func (e *Engine) runPerson(ctx context.Context, rc runContext, personID string, job personJob) (bool, error) {
	if e.PersonTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.PersonTimeout)
		defer cancel()
	}

	start := time.Now()
	updated, err := job(ctx, rc, personID)
	status := "success"
	if err != nil {
		status = "error"
		e.Metrics.RecordError(ctx, string(rc.component), ClassifyError(err))
		log.Printf("%s: person %s: %v", rc.component, personID, err)
	}
	e.Metrics.RecordOperation(ctx, string(rc.component), status, time.Since(start).Milliseconds())
	return updated, err
}

func (e *Engine) population(personID *string) ([]string, error) {
	if personID == nil {
		ids, err := e.DB.ListPersonIDs()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return ids, nil
	}
	p, err := e.DB.GetPerson(*personID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPerson, *personID)
	}
	return []string{p.ID}, nil
}

func (e *Engine) clock() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// stage times one step of a per-person job.
func (e *Engine) stage(ctx context.Context, c Component, name string, start time.Time) {
	e.Metrics.RecordStage(ctx, string(c), name, time.Since(start).Milliseconds())
}
