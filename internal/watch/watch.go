// Package watch reports files that appear under a directory tree once their
// writer has finished with them.
//
// Files present when a subscription starts are never reported. A new file is
// reported once its size and modification time have held still for the
// configured stability threshold, so half-written recordings are not picked up.
package watch

import (
	"context"
	"time"
)

// Event describes a newly created file that stopped changing.
type Event struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Handler receives stabilized create events. It is called from the
// subscription's goroutine and must not block for long.
type Handler func(Event)

// Subscription is an active recursive watch of one directory.
type Subscription interface {
	Dir() string
	Close() error
}

// Backend creates subscriptions.
type Backend interface {
	Subscribe(ctx context.Context, dir string, fn Handler) (Subscription, error)
}

// Options tunes write-finish detection.
type Options struct {
	StabilityThreshold time.Duration
	PollInterval       time.Duration
}

const (
	defaultStabilityThreshold = 2 * time.Second
	defaultPollInterval       = 100 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.StabilityThreshold <= 0 {
		o.StabilityThreshold = defaultStabilityThreshold
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	return o
}
