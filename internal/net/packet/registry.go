package packet

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInvalidJSON is returned by Dispatch for datagrams that are not a JSON
// object. Such messages get no reply.
var ErrInvalidJSON = errors.New("packet: invalid json")

// Message is one decoded control datagram. Raw holds the whole object so a
// handler can unmarshal its own fields.
type Message struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// HandlerFunc is the callback signature for control handlers. The reply
// target is passed opaquely to avoid an import cycle with the net package.
type HandlerFunc func(from any, msg Message)

// Registry maps control message types to handlers.
type Registry struct {
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// Register maps a message type to a handler.
func (reg *Registry) Register(msgType string, fn HandlerFunc) {
	reg.handlers[msgType] = fn
}

// Dispatch decodes the envelope and calls the handler registered for its
// type. Unknown types are ignored.
func (reg *Registry) Dispatch(from any, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	msg.Raw = data
	reg.log.Debug("control message",
		zap.String("type", msg.Type),
		zap.Int("size", len(data)),
	)

	fn, ok := reg.handlers[msg.Type]
	if !ok {
		reg.log.Debug("unknown control message type", zap.String("type", msg.Type))
		return nil
	}
	return reg.safeCall(fn, from, msg)
}

// safeCall executes a handler with panic recovery so a single bad message
// cannot take down the game loop.
func (reg *Registry) safeCall(fn HandlerFunc, from any, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("control handler panic recovered",
				zap.String("type", msg.Type),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %q: %v", msg.Type, rec)
		}
	}()
	fn(from, msg)
	return nil
}
