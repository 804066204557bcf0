package system

import "time"

// Periodic is a schedulable task slot: a period and the next due time on the
// loop clock. The first run is one period after the first Due call, like a
// freshly started timer. A non-positive period never fires.
type Periodic struct {
	period time.Duration
	next   time.Time
}

func NewPeriodic(period time.Duration) *Periodic {
	return &Periodic{period: period}
}

func (p *Periodic) Period() time.Duration { return p.period }

// Due reports whether the task should run at now and, if so, schedules the
// next run. A loop that fell more than a period behind runs once and
// re-anchors at now instead of bursting.
func (p *Periodic) Due(now time.Time) bool {
	if p.period <= 0 {
		return false
	}
	if p.next.IsZero() {
		p.next = now.Add(p.period)
		return false
	}
	if now.Before(p.next) {
		return false
	}
	p.next = p.next.Add(p.period)
	if !p.next.After(now) {
		p.next = now.Add(p.period)
	}
	return true
}

// Reset changes the period and restarts the countdown from now.
func (p *Periodic) Reset(period time.Duration, now time.Time) {
	p.period = period
	p.next = now.Add(period)
}
