package handler

import (
	"encoding/json"
	"net"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/net/packet"
)

// Settings is the reply to {"type":"query","request":"current_settings"}.
// Intervals are milliseconds.
type Settings struct {
	Type               string  `json:"type"`
	ScanInterval       int64   `json:"scanInterval"`
	RadarRadius        float64 `json:"radarRadius"`
	CenterX            float64 `json:"centerX"`
	CenterY            float64 `json:"centerY"`
	GenerationInterval int64   `json:"generationInterval"`
	MaxDrones          int     `json:"maxDrones"`
	MinSpeed           float64 `json:"minSpeed"`
	MaxSpeed           float64 `json:"maxSpeed"`
	AutoGenerate       bool    `json:"autoGenerate"`
	Weapon             string  `json:"weapon,omitempty"`
	AutoFire           bool    `json:"autoFire"`
}

type queryRequest struct {
	Request string `json:"request"`
}

// HandleQuery answers current_settings. Any other request gets a failed
// config_result.
func HandleQuery(from *net.UDPAddr, msg packet.Message, deps *Deps) {
	var req queryRequest
	if err := json.Unmarshal(msg.Raw, &req); err != nil {
		deps.Log.Debug("query request ignored", zap.Error(err))
		return
	}
	if req.Request != "current_settings" {
		reply(from, ConfigResult{
			Type:    "config_result",
			Message: "unknown query request: " + req.Request,
		}, deps)
		return
	}
	reply(from, CurrentSettings(deps), deps)
}

// CurrentSettings snapshots the live radar, spawn and weapon settings.
func CurrentSettings(deps *Deps) Settings {
	s := deps.Scanner.Settings()
	p := deps.Registry.SpawnParams()
	out := Settings{
		Type:         "settings",
		ScanInterval: s.Interval.Milliseconds(),
		RadarRadius:  s.Radius,
		CenterX:      s.Center.X,
		CenterY:      s.Center.Y,
		MaxDrones:    p.MaxDrones,
		MinSpeed:     p.MinSpeed,
		MaxSpeed:     p.MaxSpeed,
	}
	if deps.SpawnTask != nil {
		out.GenerationInterval = deps.SpawnTask.Period().Milliseconds()
	}
	if deps.Generator != nil {
		out.AutoGenerate = deps.Generator.Enabled()
	}
	if deps.Weapon != nil {
		out.Weapon = deps.Weapon.Active().Name
		out.AutoFire = deps.Weapon.AutoFireEnabled()
	}
	return out
}
