package net

import (
	"net"

	"go.uber.org/zap"
)

// Sender writes a datagram to one address.
type Sender interface {
	SendTo(addr *net.UDPAddr, data []byte) error
}

// Broadcaster fans one encoded frame out to every registered receiver.
// Game loop only, no locks.
type Broadcaster struct {
	sender    Sender
	receivers []*net.UDPAddr
	known     map[string]struct{}

	outBuf [][]byte // frames queued this tick, written by Flush

	log *zap.Logger
}

func NewBroadcaster(sender Sender, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		sender: sender,
		known:  make(map[string]struct{}),
		log:    log,
	}
}

// AddReceiver registers addr. Returns false when it was already known.
func (b *Broadcaster) AddReceiver(addr *net.UDPAddr) bool {
	if addr == nil {
		return false
	}
	key := addr.String()
	if _, ok := b.known[key]; ok {
		return false
	}
	b.known[key] = struct{}{}
	b.receivers = append(b.receivers, addr)
	b.log.Info("receiver added", zap.String("receiver", key))
	return true
}

// Receivers returns the registered addresses in registration order.
func (b *Broadcaster) Receivers() []*net.UDPAddr {
	return b.receivers
}

// Queue buffers a frame until the next Flush.
func (b *Broadcaster) Queue(frame []byte) {
	if len(frame) == 0 {
		return
	}
	b.outBuf = append(b.outBuf, frame)
}

// Flush writes every queued frame to every receiver and returns the number
// of successful sends. A failed send is logged and skipped.
func (b *Broadcaster) Flush() int {
	sent := 0
	for _, frame := range b.outBuf {
		sent += b.Broadcast(frame)
	}
	b.outBuf = b.outBuf[:0]
	return sent
}

// Broadcast sends frame unchanged to every receiver.
func (b *Broadcaster) Broadcast(frame []byte) int {
	if b.sender == nil {
		return 0
	}
	sent := 0
	for _, addr := range b.receivers {
		if err := b.sender.SendTo(addr, frame); err != nil {
			b.log.Warn("frame send failed", zap.Stringer("receiver", addr), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
