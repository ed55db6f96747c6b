// Package task runs asynchronous provider jobs to completion: submit once,
// poll on an interval until a terminal state, enforce an overall deadline.
// Transcription and speech synthesis both build on it.
package task

import (
	"context"
	"fmt"
	"time"
)

// State is the lifecycle state of a provider-side task.
type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

// Terminal reports whether no further transition can occur from s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Update is one observation of a task's status. Result is only meaningful
// when State is StateSucceeded; Message carries the provider's error text
// when State is StateFailed.
type Update[T any] struct {
	State   State
	Result  T
	Message string
}

// SubmitFunc starts the task on the provider and returns its identifier.
type SubmitFunc func(ctx context.Context) (string, error)

// PollFunc queries the current status of the task with the given identifier.
type PollFunc[T any] func(ctx context.Context, taskID string) (Update[T], error)

// Config controls the poll loop.
type Config struct {
	// Interval is the fixed delay between status queries.
	Interval time.Duration
	// Timeout bounds the whole run, submission included.
	Timeout time.Duration
}

const (
	DefaultInterval = 1500 * time.Millisecond
	DefaultTimeout  = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// TimeoutError reports a task that did not reach a terminal state in time.
type TimeoutError struct {
	TaskID  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s did not finish within %s", e.TaskID, e.Elapsed.Round(time.Millisecond))
}

// ExecutionError reports a task the provider marked as failed.
type ExecutionError struct {
	TaskID  string
	Message string
}

func (e *ExecutionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task %s failed", e.TaskID)
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Message)
}

// Run submits a task and polls it until it succeeds, fails, times out, or
// ctx is cancelled. The loop always sleeps cfg.Interval between polls so the
// provider is never hammered, and it never recurses, so arbitrarily slow
// tasks cost constant stack. On success the task's result is returned; a
// provider-side failure surfaces as *ExecutionError and an exceeded deadline
// as *TimeoutError.
func Run[T any](ctx context.Context, cfg Config, submit SubmitFunc, poll PollFunc[T]) (T, error) {
	var zero T
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	start := time.Now()

	taskID, err := submit(ctx)
	if err != nil {
		return zero, fmt.Errorf("submitting task: %w", err)
	}

	timer := time.NewTimer(cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return zero, &TimeoutError{TaskID: taskID, Elapsed: time.Since(start)}
			}
			return zero, ctx.Err()
		case <-timer.C:
		}

		update, err := poll(ctx, taskID)
		if err != nil {
			// A poll that failed because the deadline hit is a timeout,
			// not a transport error.
			if ctx.Err() == context.DeadlineExceeded {
				return zero, &TimeoutError{TaskID: taskID, Elapsed: time.Since(start)}
			}
			return zero, fmt.Errorf("polling task %s: %w", taskID, err)
		}

		switch update.State {
		case StateSucceeded:
			return update.Result, nil
		case StateFailed:
			return zero, &ExecutionError{TaskID: taskID, Message: update.Message}
		default:
			timer.Reset(cfg.Interval)
		}
	}
}
