package handler

import (
	"encoding/json"
	"net"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/net/packet"
)

type subscribeRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SubscribeResult acknowledges a subscribe request.
type SubscribeResult struct {
	Type     string `json:"type"`
	Receiver string `json:"receiver"`
	Added    bool   `json:"added"`
}

// HandleSubscribe registers a detection receiver. Without a port the
// requester's own address is used; without a host, the requester's IP.
func HandleSubscribe(from *net.UDPAddr, msg packet.Message, deps *Deps) {
	if deps.Broadcaster == nil {
		return
	}
	var req subscribeRequest
	if err := json.Unmarshal(msg.Raw, &req); err != nil {
		deps.Log.Debug("subscribe request ignored", zap.Error(err))
		return
	}

	addr := &net.UDPAddr{IP: from.IP, Port: from.Port, Zone: from.Zone}
	if req.Host != "" {
		ip := net.ParseIP(req.Host)
		if ip == nil {
			deps.Log.Warn("subscribe with bad host", zap.String("host", req.Host))
			return
		}
		addr.IP = ip
	}
	if req.Port > 0 && req.Port <= 65535 {
		addr.Port = req.Port
	}

	added := deps.Broadcaster.AddReceiver(addr)
	reply(from, SubscribeResult{Type: "subscribed", Receiver: addr.String(), Added: added}, deps)
}
