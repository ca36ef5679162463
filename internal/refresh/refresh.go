// Package refresh keeps the dashboard's table current. A single loop fetches
// the sheet on a fixed interval and publishes each result as an immutable
// Snapshot; readers load the pointer once per render and never observe a
// partially replaced table.
package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"f1insights/internal/engine"
)

// DefaultInterval between two refresh ticks.
const DefaultInterval = 2 * time.Second

// Fetcher produces a fresh table. *source.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (*engine.ColumnStore, error)
}

// Snapshot is one installed table. It is never mutated after publication.
type Snapshot struct {
	Version   uint64
	FetchID   uuid.UUID
	FetchedAt time.Time
	Table     *engine.ColumnStore
}

// Failure records the most recent tick that did not install a table.
type Failure struct {
	At      time.Time
	FetchID uuid.UUID
	Err     error
}

// Scheduler owns the current snapshot. Tick and Run must be driven from a
// single goroutine; Snapshot and LastFailure are safe from any goroutine.
type Scheduler struct {
	fetcher  Fetcher
	interval time.Duration
	log      *logrus.Entry
	now      func() time.Time

	current atomic.Pointer[Snapshot]
	failure atomic.Pointer[Failure]
}

// New returns a scheduler that refreshes through fetcher every interval.
func New(fetcher Fetcher, interval time.Duration, log *logrus.Entry) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logrus.WithField("component", "refresh")
	}
	return &Scheduler{fetcher: fetcher, interval: interval, log: log, now: time.Now}
}

// Snapshot returns the installed snapshot, nil until the first successful tick.
func (s *Scheduler) Snapshot() *Snapshot { return s.current.Load() }

// LastFailure returns the failure of the latest tick, nil if it succeeded.
func (s *Scheduler) LastFailure() *Failure { return s.failure.Load() }

// Ready reports whether a table has been installed.
func (s *Scheduler) Ready() bool { return s.current.Load() != nil }

// Interval returns the refresh period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Tick fetches once. On success the new table replaces the old one wholesale.
// On failure the installed snapshot stays in place, the failure is recorded and
// the error returned.
func (s *Scheduler) Tick(ctx context.Context) error {
	id := uuid.New()
	log := s.log.WithField("fetch_id", id)

	table, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.failure.Store(&Failure{At: s.now(), FetchID: id, Err: err})
		log.WithError(err).Warn("refresh failed, keeping previous table")
		return err
	}

	var version uint64 = 1
	prev := s.current.Load()
	if prev != nil {
		version = prev.Version + 1
		if prev.Table.Checksum == table.Checksum {
			log.Debug("sheet unchanged")
		}
	}
	s.current.Store(&Snapshot{Version: version, FetchID: id, FetchedAt: s.now(), Table: table})
	s.failure.Store(nil)

	log.WithFields(logrus.Fields{"version": version, "rows": table.Rows}).Debug("table installed")
	return nil
}

// Run ticks immediately and then every interval until ctx is cancelled.
// Failed ticks do not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		_ = s.Tick(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
