package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	coresys "github.com/skyguard/radarsim/internal/core/system"
	"github.com/skyguard/radarsim/internal/persist"
	"github.com/skyguard/radarsim/internal/stats"
)

// JournalSink accepts a batch without blocking. *persist.JournalWriter
// implements it.
type JournalSink interface {
	Submit(batch []persist.JournalEntry) bool
}

// JournalSystem collects engagement events from the bus and hands them to
// the journal writer on each flush tick. Phase 5 (Persist).
type JournalSystem struct {
	sink    JournalSink
	task    *coresys.Periodic
	pending []persist.JournalEntry
	log     *zap.Logger
}

func NewJournalSystem(bus *event.Bus, sink JournalSink, flushInterval time.Duration, log *zap.Logger) *JournalSystem {
	s := &JournalSystem{
		sink: sink,
		task: coresys.NewPeriodic(flushInterval),
		log:  log,
	}
	s.subscribe(bus)
	return s
}

func (s *JournalSystem) subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.EntityAdded) {
		s.add(persist.JournalEntry{Kind: persist.KindSpawn, EntityID: e.ID, X: e.Position.X, Y: e.Position.Y, Level: e.Level, At: e.At})
	})
	event.Subscribe(bus, func(e event.EntityDestroyed) {
		s.add(persist.JournalEntry{Kind: persist.KindDestroy, EntityID: e.ID, X: e.Position.X, Y: e.Position.Y, At: e.At})
	})
	event.Subscribe(bus, func(e event.EntityEscaped) {
		s.add(persist.JournalEntry{Kind: persist.KindEscape, EntityID: e.ID, X: e.Position.X, Y: e.Position.Y, At: e.At})
	})
	event.Subscribe(bus, func(e event.StrikeExecuted) {
		s.add(persist.JournalEntry{
			Kind:   persist.KindStrike,
			X:      e.Center.X,
			Y:      e.Center.Y,
			Radius: e.Radius,
			Count:  e.Destroyed,
			At:     e.At,
		})
	})
	event.Subscribe(bus, func(e event.HighPriorityThreat) {
		s.add(persist.JournalEntry{Kind: persist.KindAlert, EntityID: e.ID, Score: e.Score, Level: e.Level, At: e.At})
	})
	event.Subscribe(bus, func(e event.WeaponFired) {
		s.add(persist.JournalEntry{
			Kind:     persist.KindFire,
			EntityID: e.TargetID,
			X:        e.Point.X,
			Y:        e.Point.Y,
			Radius:   e.Radius,
			Count:    e.Destroyed,
			Weapon:   e.Weapon,
			At:       e.At,
		})
	})
}

func (s *JournalSystem) add(e persist.JournalEntry) {
	s.pending = append(s.pending, e)
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(now time.Time, _ time.Duration) {
	if s.task.Due(now) {
		s.Flush()
	}
}

// Pending returns the number of entries waiting for the next flush.
func (s *JournalSystem) Pending() int { return len(s.pending) }

// Flush submits everything collected so far. Called on shutdown too.
func (s *JournalSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	batch := s.pending
	s.pending = nil
	if !s.sink.Submit(batch) {
		s.log.Warn("journal batch dropped", zap.Int("entries", len(batch)))
	}
}

// StatsSystem logs a statistics summary periodically. Phase 5 (Persist).
type StatsSystem struct {
	tracker *stats.Tracker
	task    *coresys.Periodic
}

func NewStatsSystem(tracker *stats.Tracker, interval time.Duration) *StatsSystem {
	return &StatsSystem{tracker: tracker, task: coresys.NewPeriodic(interval)}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *StatsSystem) Update(now time.Time, _ time.Duration) {
	if s.task.Due(now) {
		s.tracker.Log()
	}
}
