// Package dispatch runs best-effort work outside the request/response path.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Task is a unit of detached work.
type Task func(ctx context.Context) error

// Dispatcher launches tasks whose outcome never reaches the caller.
type Dispatcher interface {
	Go(ctx context.Context, name string, task Task)
}

// ErrorHandler receives the failure of a named task.
type ErrorHandler func(name string, err error)

// Async runs every task in its own goroutine, detached from the caller's cancellation.
type Async struct {
	// Timeout bounds each task. Zero means no bound beyond the task's own.
	Timeout time.Duration
	OnError ErrorHandler

	wg sync.WaitGroup
}

// Go starts task in the background. ctx contributes values only; its cancellation is ignored.
func (a *Async) Go(ctx context.Context, name string, task Task) {
	if task == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		taskCtx := context.WithoutCancel(ctx)
		if a.Timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(taskCtx, a.Timeout)
			defer cancel()
		}
		run(taskCtx, name, task, a.OnError)
	}()
}

// Wait blocks until every started task has finished or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch: waiting for background tasks: %w", ctx.Err())
	}
}

// Inline runs tasks synchronously on the caller's goroutine. Failures are still
// routed to OnError and never returned.
type Inline struct {
	Timeout time.Duration
	OnError ErrorHandler
}

// Go runs task before returning.
func (i Inline) Go(ctx context.Context, name string, task Task) {
	if task == nil {
		return
	}
	taskCtx := context.WithoutCancel(ctx)
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, i.Timeout)
		defer cancel()
	}
	run(taskCtx, name, task, i.OnError)
}

func run(ctx context.Context, name string, task Task, onError ErrorHandler) {
	defer func() {
		if rec := recover(); rec != nil && onError != nil {
			onError(name, fmt.Errorf("dispatch: task %s panicked: %v", name, rec))
		}
	}()
	if err := task(ctx); err != nil && onError != nil {
		onError(name, err)
	}
}
