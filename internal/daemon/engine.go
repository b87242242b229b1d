package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/internal/store"
)

// Task is a periodic background pass run by the daemon engine.
type Task interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context, st *store.Store)
}

// Engine runs all registered tasks until its context is canceled.
type Engine struct {
	store  *store.Store
	tasks  []Task
	logger *logrus.Entry
}

// NewEngine creates an Engine over the given store.
func NewEngine(st *store.Store, logger *logrus.Entry) *Engine {
	return &Engine{store: st, logger: logger}
}

// Register adds a task to the engine.
func (e *Engine) Register(t Task) {
	e.tasks = append(e.tasks, t)
}

// Start runs all tasks and blocks until the context is canceled. Each task
// runs once immediately, then on its own ticker.
func (e *Engine) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range e.tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			e.logger.WithField("task", task.Name()).Info("starting task")

			task.Run(ctx, e.store)
			ticker := time.NewTicker(task.Interval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					task.Run(ctx, e.store)
				}
			}
		}(t)
	}
	wg.Wait()
}
