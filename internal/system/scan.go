package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/event"
	coresys "github.com/skyguard/radarsim/internal/core/system"
	"github.com/skyguard/radarsim/internal/net/packet"
	"github.com/skyguard/radarsim/internal/radar"
)

// FrameQueue accepts encoded frames for the Output phase.
type FrameQueue interface {
	Queue(frame []byte)
}

// ScanSystem runs a radar scan on each scan tick, publishes the batch on the
// bus and queues a detection frame. Empty scans publish the batch but send
// no frame. Phase 2 (Scan).
type ScanSystem struct {
	scanner *radar.Scanner
	task    *coresys.Periodic
	bus     *event.Bus
	out     FrameQueue
	log     *zap.Logger
}

func NewScanSystem(scanner *radar.Scanner, task *coresys.Periodic, bus *event.Bus, out FrameQueue, log *zap.Logger) *ScanSystem {
	return &ScanSystem{scanner: scanner, task: task, bus: bus, out: out, log: log}
}

func (s *ScanSystem) Phase() coresys.Phase { return coresys.PhaseScan }

func (s *ScanSystem) Update(now time.Time, _ time.Duration) {
	if !s.task.Due(now) {
		return
	}
	dets := s.scanner.Scan(now)
	event.Emit(s.bus, event.DetectionBatch{At: now, Detections: dets})
	if len(dets) == 0 || s.out == nil {
		return
	}
	frame, err := packet.EncodeFrame(now, dets)
	if err != nil {
		s.log.Warn("detection frame not sent", zap.Int("detections", len(dets)), zap.Error(err))
		return
	}
	s.out.Queue(frame)
}
