package system

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	coresys "github.com/skyguard/radarsim/internal/core/system"
	"github.com/skyguard/radarsim/internal/geom"
	gonet "github.com/skyguard/radarsim/internal/net"
	"github.com/skyguard/radarsim/internal/net/packet"
	"github.com/skyguard/radarsim/internal/persist"
	"github.com/skyguard/radarsim/internal/radar"
	"github.com/skyguard/radarsim/internal/targeting"
	"github.com/skyguard/radarsim/internal/world"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type chanInbox chan gonet.Datagram

func (c chanInbox) Incoming() <-chan gonet.Datagram { return c }

type frameSink struct {
	frames  [][]byte
	flushes int
}

func (f *frameSink) Queue(frame []byte) { f.frames = append(f.frames, frame) }
func (f *frameSink) Flush() int {
	f.flushes++
	n := len(f.frames)
	f.frames = nil
	return n
}

type batchSink struct {
	batches [][]persist.JournalEntry
	full    bool
}

func (b *batchSink) Submit(batch []persist.JournalEntry) bool {
	if b.full {
		return false
	}
	b.batches = append(b.batches, batch)
	return true
}

func newWorld(t *testing.T) (*world.Registry, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	return world.NewRegistry(bus, rand.New(rand.NewSource(3)), zap.NewNop()), bus
}

func flush(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

func TestInputSystemDrainsUpToLimit(t *testing.T) {
	reg := packet.NewRegistry(zap.NewNop())
	var seen []string
	reg.Register("ping", func(from any, msg packet.Message) {
		seen = append(seen, from.(*net.UDPAddr).String())
	})

	inbox := make(chanInbox, 8)
	from := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}
	inbox <- gonet.Datagram{From: from, Data: []byte(`{"type":"ping"}`)}
	inbox <- gonet.Datagram{From: from, Data: []byte(`not json`)}
	inbox <- gonet.Datagram{From: from, Data: []byte(`{"type":"ping"}`)}

	s := NewInputSystem(inbox, reg, 2, zap.NewNop())
	assert.Equal(t, coresys.PhaseInput, s.Phase())

	s.Update(t0, 0)
	assert.Len(t, seen, 1, "the invalid datagram counts toward the limit")
	assert.Len(t, inbox, 1)

	s.Update(t0, 0)
	assert.Equal(t, []string{"127.0.0.1:9000", "127.0.0.1:9000"}, seen)
	assert.Empty(t, inbox)
}

func TestSpawnSystem(t *testing.T) {
	reg, _ := newWorld(t)
	task := coresys.NewPeriodic(time.Second)
	s := NewSpawnSystem(reg, task, false)

	s.Update(t0, 0)
	s.Update(t0.Add(2*time.Second), 0)
	assert.Zero(t, reg.Count(), "disabled")

	s.SetEnabled(true)
	s.Update(t0.Add(3*time.Second), 0)
	assert.Zero(t, reg.Count(), "first due call arms the task")
	s.Update(t0.Add(4*time.Second), 0)
	assert.Equal(t, 1, reg.Count())

	// A control change resets the shared task.
	task.Reset(500*time.Millisecond, t0.Add(4*time.Second))
	s.Update(t0.Add(4500*time.Millisecond), 0)
	assert.Equal(t, 2, reg.Count())
}

func TestMotionSystemRemovesEscaped(t *testing.T) {
	reg, bus := newWorld(t)
	p := reg.SpawnParams()
	p.PerturbChance = 0
	reg.SetSpawnParams(p)

	_, err := reg.AddBallistic(0, geom.V(790, 0), geom.V(100, 0), t0)
	require.NoError(t, err)
	var escaped []event.EntityEscaped
	event.Subscribe(bus, func(e event.EntityEscaped) { escaped = append(escaped, e) })

	s := NewMotionSystem(reg)
	s.Update(t0.Add(time.Second), time.Second)
	flush(bus)
	assert.Zero(t, reg.Count())
	assert.Len(t, escaped, 1)
}

func TestScanSystemQueuesFrame(t *testing.T) {
	reg, bus := newWorld(t)
	id, err := reg.AddBallistic(0, geom.V(100, 0), geom.Vec2{}, t0)
	require.NoError(t, err)

	var batches []event.DetectionBatch
	event.Subscribe(bus, func(e event.DetectionBatch) { batches = append(batches, e) })

	out := &frameSink{}
	scanner := radar.NewScanner(reg, radar.DefaultSettings(), zap.NewNop())
	s := NewScanSystem(scanner, coresys.NewPeriodic(time.Second), bus, out, zap.NewNop())

	s.Update(t0, 0)
	assert.Empty(t, out.frames)

	now := t0.Add(time.Second)
	s.Update(now, 0)
	require.Len(t, out.frames, 1)
	frame, err := packet.DecodeFrame(out.frames[0])
	require.NoError(t, err)
	require.Len(t, frame.Detections, 1)
	assert.Equal(t, id, frame.Detections[0].ID)
	assert.Equal(t, now.UnixMilli(), frame.Timestamp.UnixMilli())

	flush(bus)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Detections, 1)
}

func TestScanSystemEmptyScanSendsNothing(t *testing.T) {
	reg, bus := newWorld(t)
	var batches int
	event.Subscribe(bus, func(event.DetectionBatch) { batches++ })

	out := &frameSink{}
	scanner := radar.NewScanner(reg, radar.DefaultSettings(), zap.NewNop())
	s := NewScanSystem(scanner, coresys.NewPeriodic(time.Second), bus, out, zap.NewNop())
	s.Update(t0, 0)
	s.Update(t0.Add(time.Second), 0)
	flush(bus)

	assert.Empty(t, out.frames)
	assert.Equal(t, 1, batches, "the batch is still published")
}

func TestWeaponSystemAutoFire(t *testing.T) {
	reg, bus := newWorld(t)
	_, err := reg.AddBallistic(0, geom.V(100, 0), geom.Vec2{}, t0)
	require.NoError(t, err)

	eng := targeting.NewEngine(reg, bus, targeting.DefaultCatalog(), zap.NewNop())
	scanner := radar.NewScanner(reg, radar.DefaultSettings(), zap.NewNop())
	s := NewWeaponSystem(eng, scanner, reg, 100*time.Millisecond, 500*time.Millisecond, zap.NewNop())

	s.Update(t0, 0)
	s.Update(t0.Add(100*time.Millisecond), 0)
	assert.Equal(t, 1, reg.Count(), "auto-fire is off")

	eng.SetAutoFire(true)
	s.Update(t0.Add(200*time.Millisecond), 0)
	assert.Zero(t, reg.Count())
	assert.Equal(t, targeting.Cooling, eng.State())

	s.Update(t0.Add(2*time.Second), 0)
	assert.Equal(t, targeting.Ready, eng.State())
}

func TestOutputSystemDispatchesThenFlushes(t *testing.T) {
	bus := event.NewBus()
	var got []int32
	event.Subscribe(bus, func(e event.EntityAdded) { got = append(got, e.ID) })
	out := &frameSink{}
	s := NewOutputSystem(bus, out)

	event.Emit(bus, event.EntityAdded{ID: 4})
	out.Queue([]byte{1})
	s.Update(t0, 0)

	assert.Equal(t, []int32{4}, got)
	assert.Equal(t, 1, out.flushes)
	assert.Zero(t, bus.Pending())
}

func TestJournalSystemBatchesEvents(t *testing.T) {
	bus := event.NewBus()
	sink := &batchSink{}
	s := NewJournalSystem(bus, sink, time.Second, zap.NewNop())
	assert.Equal(t, coresys.PhasePersist, s.Phase())

	event.Emit(bus, event.EntityAdded{ID: 1, Position: geom.V(800, 0), Level: 2, At: t0})
	event.Emit(bus, event.WeaponFired{Weapon: "laser single strike", TargetID: 1, Point: geom.V(10, 0), Radius: 35, Destroyed: 1, At: t0})
	event.Emit(bus, event.EntityDestroyed{ID: 1, Position: geom.V(10, 0), At: t0})
	event.Emit(bus, event.CooldownComplete{Weapon: "laser single strike", At: t0})
	flush(bus)
	assert.Equal(t, 3, s.Pending())

	s.Update(t0, 0)
	assert.Empty(t, sink.batches, "first due call arms the task")
	s.Update(t0.Add(time.Second), 0)
	require.Len(t, sink.batches, 1)
	batch := sink.batches[0]
	require.Len(t, batch, 3)
	assert.Equal(t, persist.KindSpawn, batch[0].Kind)
	assert.Equal(t, 2, batch[0].Level)
	assert.Equal(t, persist.KindFire, batch[1].Kind)
	assert.Equal(t, "laser single strike", batch[1].Weapon)
	assert.Equal(t, persist.KindDestroy, batch[2].Kind)
	assert.Zero(t, s.Pending())

	s.Update(t0.Add(2*time.Second), 0)
	assert.Len(t, sink.batches, 1, "nothing to flush")
}

func TestJournalSystemRecordsAlertLevel(t *testing.T) {
	bus := event.NewBus()
	sink := &batchSink{}
	s := NewJournalSystem(bus, sink, time.Second, zap.NewNop())

	event.Emit(bus, event.HighPriorityThreat{ID: 2, Score: 1200, Level: 10, At: t0})
	flush(bus)
	s.Flush()
	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
	alert := sink.batches[0][0]
	assert.Equal(t, persist.KindAlert, alert.Kind)
	assert.Equal(t, 1200.0, alert.Score)
	assert.Equal(t, 10, alert.Level)
}

func TestJournalSystemFullSinkDropsBatch(t *testing.T) {
	bus := event.NewBus()
	sink := &batchSink{full: true}
	s := NewJournalSystem(bus, sink, time.Second, zap.NewNop())

	event.Emit(bus, event.HighPriorityThreat{ID: 2, Score: 1200, At: t0})
	flush(bus)
	s.Flush()
	assert.Zero(t, s.Pending())
	assert.Empty(t, sink.batches)
}
