package stats

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/skyguard/radarsim/internal/core/event"
	"github.com/skyguard/radarsim/internal/track"
)

// Summary is a point-in-time view of the defense statistics.
type Summary struct {
	Spawned     int
	Destroyed   int
	Escaped     int
	Strikes     int
	ShotsFired  int
	Alerts      int
	Intercepts  int
	Scans       int
	Detections  int
	Neutralized float64 // summed base threat of destroyed entities
	MaxAlert    float64 // highest alert score seen

	// Efficiency is destroyed / (destroyed + escaped), 0 before any outcome.
	Efficiency float64
	// AvgResponse averages alert→destroy; entities destroyed without an alert
	// count spawn→destroy instead.
	AvgResponse time.Duration
}

// Tracker accumulates statistics from bus events. Game loop only.
type Tracker struct {
	sum Summary

	spawnedAt  map[int32]time.Time
	alertedAt  map[int32]time.Time
	responses  int
	responseNs int64

	log *zap.Logger
}

func NewTracker(log *zap.Logger) *Tracker {
	return &Tracker{
		spawnedAt: make(map[int32]time.Time),
		alertedAt: make(map[int32]time.Time),
		log:       log,
	}
}

// Subscribe wires the tracker to every event it counts.
func (t *Tracker) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.EntityAdded) {
		t.sum.Spawned++
		t.spawnedAt[e.ID] = e.At
	})
	event.Subscribe(bus, t.onDestroyed)
	event.Subscribe(bus, func(e event.EntityEscaped) {
		t.sum.Escaped++
		t.forget(e.ID)
	})
	event.Subscribe(bus, func(event.StrikeExecuted) { t.sum.Strikes++ })
	event.Subscribe(bus, func(event.WeaponFired) { t.sum.ShotsFired++ })
	event.Subscribe(bus, func(e event.HighPriorityThreat) {
		t.sum.Alerts++
		if e.Score > t.sum.MaxAlert {
			t.sum.MaxAlert = e.Score
		}
		if _, seen := t.alertedAt[e.ID]; !seen {
			t.alertedAt[e.ID] = e.At
		}
	})
	event.Subscribe(bus, func(event.InterceptRecommendation) { t.sum.Intercepts++ })
	event.Subscribe(bus, func(e event.DetectionBatch) {
		t.sum.Scans++
		t.sum.Detections += len(e.Detections)
	})
}

func (t *Tracker) onDestroyed(e event.EntityDestroyed) {
	t.sum.Destroyed++
	t.sum.Neutralized += track.BaseScore(e.Position)

	from, ok := t.alertedAt[e.ID]
	if !ok {
		from, ok = t.spawnedAt[e.ID]
	}
	if ok && !e.At.Before(from) {
		t.responses++
		t.responseNs += int64(e.At.Sub(from))
	}
	t.forget(e.ID)
}

func (t *Tracker) forget(id int32) {
	delete(t.spawnedAt, id)
	delete(t.alertedAt, id)
}

// Summary returns the current statistics with derived fields filled in.
func (t *Tracker) Summary() Summary {
	s := t.sum
	if done := s.Destroyed + s.Escaped; done > 0 {
		s.Efficiency = float64(s.Destroyed) / float64(done)
	}
	if t.responses > 0 {
		s.AvgResponse = time.Duration(t.responseNs / int64(t.responses))
	}
	return s
}

// Log writes one summary line.
func (t *Tracker) Log() {
	s := t.Summary()
	t.log.Info("defense statistics",
		zap.Int("spawned", s.Spawned),
		zap.Int("destroyed", s.Destroyed),
		zap.Int("escaped", s.Escaped),
		zap.Int("strikes", s.Strikes),
		zap.Int("alerts", s.Alerts),
		zap.Int("scans", s.Scans),
		zap.Float64("efficiency", s.Efficiency),
		zap.Duration("avg_response", s.AvgResponse),
	)
}

// Report renders the summary as a short human-readable block.
func (s Summary) Report() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("spawned %d  destroyed %d  escaped %d\n", s.Spawned, s.Destroyed, s.Escaped) +
		p.Sprintf("strikes %d  shots %d  alerts %d  intercepts %d\n", s.Strikes, s.ShotsFired, s.Alerts, s.Intercepts) +
		p.Sprintf("scans %d  detections %d\n", s.Scans, s.Detections) +
		p.Sprintf("efficiency %.1f%%  threat neutralized %.2f  avg response %v", s.Efficiency*100, s.Neutralized, s.AvgResponse.Round(time.Millisecond))
}
