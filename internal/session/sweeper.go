package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically evicts sessions idle beyond Timeout. It runs
// independently of request handling and shares the store's critical section,
// so an in-flight Record for an id never races its deletion.
type Sweeper struct {
	Store    *Store
	Interval time.Duration
	Timeout  time.Duration
	Logger   *logrus.Logger

	// OnSweep, when set, observes the number of sessions removed per pass.
	OnSweep func(removed int)
}

// Run blocks until ctx is cancelled, sweeping every Interval.
func (w *Sweeper) Run(ctx context.Context) {
	if w.Interval <= 0 {
		w.Interval = 15 * time.Minute
	}
	if w.Timeout <= 0 {
		w.Timeout = 30 * time.Minute
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := w.Store.Sweep(now, w.Timeout)
			if w.OnSweep != nil {
				w.OnSweep(len(removed))
			}
			for _, id := range removed {
				w.Logger.WithField("session_id", id).Info("expired session removed")
			}
		}
	}
}
