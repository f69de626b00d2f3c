package session

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestSweeperEvictsIdleSessions(t *testing.T) {
	s := NewStore()

	s.now = func() time.Time { return time.Now().Add(-31 * time.Minute) }
	s.Record("stale", result("r1"))
	s.now = time.Now
	s.Record("fresh", result("r1"))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	swept := make(chan int, 1)
	w := &Sweeper{
		Store:    s,
		Interval: 10 * time.Millisecond,
		Timeout:  30 * time.Minute,
		Logger:   log,
		OnSweep: func(removed int) {
			select {
			case swept <- removed:
			default:
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case n := <-swept:
		if n != 1 {
			t.Fatalf("expected 1 session swept, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run")
	}

	if s.Get("stale") != nil {
		t.Error("stale session should be removed")
	}
	if s.Get("fresh") == nil {
		t.Error("fresh session should survive the sweep")
	}
}
