package handler

import (
	"encoding/json"
	"net"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/core/clock"
	"github.com/skyguard/radarsim/internal/core/system"
	gonet "github.com/skyguard/radarsim/internal/net"
	"github.com/skyguard/radarsim/internal/net/packet"
	"github.com/skyguard/radarsim/internal/radar"
	"github.com/skyguard/radarsim/internal/targeting"
	"github.com/skyguard/radarsim/internal/world"
)

// Deps holds shared dependencies injected into all control handlers.
type Deps struct {
	Scanner     *radar.Scanner
	Registry    *world.Registry
	Weapon      *targeting.Engine // optional
	ScanTask    *system.Periodic
	SpawnTask   *system.Periodic
	Generator   Generator // optional
	Clock       clock.Clock
	Replier     gonet.Sender       // control socket
	Broadcaster *gonet.Broadcaster // detection receivers
	Log         *zap.Logger
}

// Generator switches automatic entity generation on and off.
type Generator interface {
	SetEnabled(on bool)
	Enabled() bool
}

// RegisterAll registers all control handlers into the registry. The sender
// passed to Dispatch must be a *net.UDPAddr.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register("config", func(from any, msg packet.Message) {
		HandleConfig(from.(*net.UDPAddr), msg, deps)
	})
	reg.Register("query", func(from any, msg packet.Message) {
		HandleQuery(from.(*net.UDPAddr), msg, deps)
	})
	reg.Register("subscribe", func(from any, msg packet.Message) {
		HandleSubscribe(from.(*net.UDPAddr), msg, deps)
	})
}

// reply sends v as compact JSON back to the requester.
func reply(to *net.UDPAddr, v any, deps *Deps) {
	if deps.Replier == nil || to == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		deps.Log.Error("control reply encode failed", zap.Error(err))
		return
	}
	if err := deps.Replier.SendTo(to, data); err != nil {
		deps.Log.Warn("control reply send failed", zap.Stringer("to", to), zap.Error(err))
	}
}
