package engine

import (
	"context"
	"log"
	"time"
)

// StartSchedule runs every component once at startup and then on each
// interval tick until Stop is called.
func (e *Engine) StartSchedule(interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-e.stopCh
		cancel()
	}()

	go func() {
		e.sweep(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.sweep(ctx)
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
}

func (e *Engine) sweep(ctx context.Context) {
	results, err := e.RunAll(ctx, nil)
	if err != nil {
		log.Printf("schedule: sweep stopped: %v", err)
		return
	}
	failed := 0
	for _, r := range results {
		failed += len(r.Failures)
	}
	if failed > 0 {
		log.Printf("schedule: sweep finished with %d failures", failed)
	}
}
