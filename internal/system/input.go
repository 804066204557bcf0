package system

import (
	"errors"
	"time"

	"go.uber.org/zap"

	coresys "github.com/skyguard/radarsim/internal/core/system"
	gonet "github.com/skyguard/radarsim/internal/net"
	"github.com/skyguard/radarsim/internal/net/packet"
)

// Inbox yields datagrams read by a network goroutine.
type Inbox interface {
	Incoming() <-chan gonet.Datagram
}

// InputSystem drains control datagrams and dispatches them through the
// packet registry. Phase 0 (Input).
type InputSystem struct {
	inbox      Inbox
	registry   *packet.Registry
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(inbox Inbox, registry *packet.Registry, maxPerTick int, log *zap.Logger) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	return &InputSystem{
		inbox:      inbox,
		registry:   registry,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Time, _ time.Duration) {
	if s.inbox == nil {
		return
	}
	in := s.inbox.Incoming()
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case d, ok := <-in:
			if !ok {
				return
			}
			s.dispatch(d)
		default:
			return
		}
	}
}

func (s *InputSystem) dispatch(d gonet.Datagram) {
	if err := s.registry.Dispatch(d.From, d.Data); err != nil {
		lvl := s.log.Warn
		if errors.Is(err, packet.ErrInvalidJSON) {
			lvl = s.log.Debug
		}
		lvl("control datagram rejected",
			zap.Stringer("from", d.From),
			zap.Int("bytes", len(d.Data)),
			zap.Error(err),
		)
	}
}
