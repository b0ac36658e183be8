// Package ui holds the single-threaded UI model: a looper that runs every
// state change on one goroutine, the View that renders it, and the string
// resources shown to the user.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLooperStopped is returned when posting to a looper that has exited.
var ErrLooperStopped = errors.New("ui: looper stopped")

// DefaultQueueSize is the number of queued events before Post blocks.
const DefaultQueueSize = 64

// Looper runs posted functions one at a time, in order, on the goroutine
// that called Run. It plays the role of a UI main thread.
type Looper struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewLooper creates a looper with the given queue size.
func NewLooper(size int, logger *slog.Logger) *Looper {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Looper{
		queue:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: logger.With("component", "looper"),
	}
}

// Post enqueues fn. Returns false if the looper has stopped.
func (l *Looper) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Await posts fn and waits until it has run.
func (l *Looper) Await(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrLooperStopped
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrLooperStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled or Stop is called.
func (l *Looper) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			l.dispatch(fn)
		}
	}
}

// Stop makes Run return and rejects further posts.
func (l *Looper) Stop() {
	l.once.Do(func() { close(l.done) })
}

// dispatch runs fn, keeping the loop alive if it panics.
func (l *Looper) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("ui event panicked", "panic", r)
		}
	}()
	fn()
}
