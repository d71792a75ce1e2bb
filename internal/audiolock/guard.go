// Package audiolock keeps audio work from overlapping. Only one task that
// speaks or listens may run at a time; anyone else who asks while it runs is
// turned away instead of queued.
package audiolock

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Guard is an acquire-or-skip lock around audio tasks. The zero value is
// ready to use.
type Guard struct {
	busy atomic.Bool
	log  *slog.Logger
}

func New(log *slog.Logger) *Guard {
	return &Guard{log: log}
}

// Busy reports whether a task currently holds the guard.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}

// Run executes task if the guard is free and reports skipped=true without
// running it otherwise. The guard is released when task returns, errors or
// panics; panics are re-raised after release.
func (g *Guard) Run(ctx context.Context, task func(context.Context) error) (skipped bool, err error) {
	if !g.busy.CompareAndSwap(false, true) {
		if g.log != nil {
			g.log.Debug("audio busy, skipping task")
		}
		return true, nil
	}
	defer g.busy.Store(false)

	return false, task(ctx)
}

// Do is Run for tasks that produce a value.
func Do[T any](ctx context.Context, g *Guard, task func(context.Context) (T, error)) (result T, skipped bool, err error) {
	skipped, err = g.Run(ctx, func(ctx context.Context) error {
		var taskErr error
		result, taskErr = task(ctx)
		return taskErr
	})
	return result, skipped, err
}
