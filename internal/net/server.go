package net

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// maxDatagram is the largest UDP payload over IPv4.
const maxDatagram = 65507

// Datagram is one inbound packet with its sender.
type Datagram struct {
	From *net.UDPAddr
	Data []byte
}

// DatagramServer owns one UDP socket. The read loop runs in its own
// goroutine and hands datagrams to the game loop through a bounded channel;
// writes may be issued from the game loop directly.
type DatagramServer struct {
	conn      *net.UDPConn
	inQueue   chan Datagram
	dropped   atomic.Uint64
	log       *zap.Logger
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewDatagramServer binds bindAddr. A bind failure is returned to the caller
// and no goroutine is started.
func NewDatagramServer(bindAddr string, inSize int, log *zap.Logger) (*DatagramServer, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", bindAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", bindAddr, err)
	}
	if inSize <= 0 {
		inSize = 64
	}
	s := &DatagramServer{
		conn:    conn,
		inQueue: make(chan Datagram, inSize),
		log:     log.With(zap.String("addr", conn.LocalAddr().String())),
		closeCh: make(chan struct{}),
	}
	return s, nil
}

// ReadLoop runs in its own goroutine until Shutdown. When the game loop
// falls behind, new datagrams are dropped rather than blocking the socket.
func (s *DatagramServer) ReadLoop() {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.log.Debug("datagram read failed", zap.Error(err))
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case s.inQueue <- Datagram{From: from, Data: data}:
		case <-s.closeCh:
			return
		default:
			if s.dropped.Add(1)%100 == 1 {
				s.log.Warn("inbound queue full, dropping datagram",
					zap.Stringer("from", from),
					zap.Uint64("dropped", s.dropped.Load()),
				)
			}
		}
	}
}

// Incoming returns the channel the game loop drains.
func (s *DatagramServer) Incoming() <-chan Datagram {
	return s.inQueue
}

// SendTo writes one datagram. Errors are returned, never fatal.
func (s *DatagramServer) SendTo(addr *net.UDPAddr, data []byte) error {
	if s.closed.Load() {
		return net.ErrClosed
	}
	if _, err := s.conn.WriteToUDP(data, addr); err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}

// Dropped reports how many inbound datagrams were discarded on a full queue.
func (s *DatagramServer) Dropped() uint64 {
	return s.dropped.Load()
}

// Shutdown closes the socket and stops ReadLoop. Safe to call twice.
func (s *DatagramServer) Shutdown() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

// Addr returns the bound local address.
func (s *DatagramServer) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}
