package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/net/packet"
	"github.com/skyguard/radarsim/internal/targeting"
)

const noChanges = "no parameters to update"

// ConfigResult is the reply to every config request.
type ConfigResult struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

type configRequest struct {
	Category string `json:"category"`

	// radar
	ScanInterval *float64 `json:"scanInterval"` // ms
	RadarRadius  *float64 `json:"radarRadius"`
	CenterX      *float64 `json:"centerX"`
	CenterY      *float64 `json:"centerY"`

	// drone
	GenerationInterval *float64 `json:"generationInterval"` // ms
	MaxDrones          *float64 `json:"maxDrones"`
	MinSpeed           *float64 `json:"minSpeed"`
	MaxSpeed           *float64 `json:"maxSpeed"`
	AutoGenerate       *bool    `json:"autoGenerate"`

	// weapon
	Profile  *string `json:"profile"`
	Strategy *string `json:"strategy"`
	AutoFire *bool   `json:"autoFire"`
}

// HandleConfig applies a config request and replies with config_result.
// success reports whether anything changed.
func HandleConfig(from *net.UDPAddr, msg packet.Message, deps *Deps) {
	var req configRequest
	if err := json.Unmarshal(msg.Raw, &req); err != nil {
		deps.Log.Debug("config request ignored", zap.Error(err))
		return
	}

	res := ConfigResult{Type: "config_result", Category: req.Category}
	var changes []string
	var err error
	switch req.Category {
	case "radar":
		changes, err = applyRadar(&req, deps)
	case "drone":
		changes, err = applyDrone(&req, deps)
	case "weapon":
		changes, err = applyWeapon(&req, deps)
	default:
		err = fmt.Errorf("unknown config category: %s", req.Category)
	}

	switch {
	case err != nil:
		res.Message = err.Error()
	case len(changes) == 0:
		res.Message = noChanges
	default:
		res.Success = true
		res.Message = strings.Join(changes, " ")
	}
	deps.Log.Info("config request",
		zap.Stringer("from", from),
		zap.String("category", req.Category),
		zap.Bool("success", res.Success),
		zap.String("message", res.Message),
	)
	reply(from, res, deps)
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// applyRadar validates every field before touching the scanner, so a bad
// request leaves the settings unchanged.
func applyRadar(req *configRequest, deps *Deps) ([]string, error) {
	if req.ScanInterval != nil && *req.ScanInterval <= 0 {
		return nil, fmt.Errorf("invalid scanInterval: %v", *req.ScanInterval)
	}
	if req.RadarRadius != nil && *req.RadarRadius <= 0 {
		return nil, fmt.Errorf("invalid radarRadius: %v", *req.RadarRadius)
	}

	s := deps.Scanner.Settings()
	var changes []string
	if req.ScanInterval != nil {
		if d := msDuration(*req.ScanInterval); d != s.Interval {
			s.Interval = d
			if deps.ScanTask != nil {
				deps.ScanTask.Reset(d, deps.Clock.Now())
			}
			changes = append(changes, fmt.Sprintf("scan interval: %dms", d.Milliseconds()))
		}
	}
	if req.RadarRadius != nil && *req.RadarRadius != s.Radius {
		s.Radius = *req.RadarRadius
		changes = append(changes, fmt.Sprintf("radar radius: %g", s.Radius))
	}
	if req.CenterX != nil && req.CenterY != nil {
		if c := geom.V(*req.CenterX, *req.CenterY); c != s.Center {
			s.Center = c
			changes = append(changes, fmt.Sprintf("center: (%g,%g)", c.X, c.Y))
		}
	}
	deps.Scanner.SetSettings(s)
	return changes, nil
}

func applyDrone(req *configRequest, deps *Deps) ([]string, error) {
	if req.GenerationInterval != nil && *req.GenerationInterval <= 0 {
		return nil, fmt.Errorf("invalid generationInterval: %v", *req.GenerationInterval)
	}
	if req.MaxDrones != nil {
		// JSON numbers arrive as float64; only whole counts are meaningful.
		if v := *req.MaxDrones; v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
			return nil, fmt.Errorf("invalid maxDrones: %v", v)
		}
	}
	if req.AutoGenerate != nil && deps.Generator == nil {
		return nil, fmt.Errorf("no generator attached")
	}

	p := deps.Registry.SpawnParams()
	minSpeed, maxSpeed := p.MinSpeed, p.MaxSpeed
	if req.MinSpeed != nil {
		minSpeed = *req.MinSpeed
	}
	if req.MaxSpeed != nil {
		maxSpeed = *req.MaxSpeed
	}
	if minSpeed <= 0 || minSpeed > maxSpeed {
		return nil, fmt.Errorf("invalid speed range: %g-%g", minSpeed, maxSpeed)
	}

	var changes []string
	if req.GenerationInterval != nil && deps.SpawnTask != nil {
		if d := msDuration(*req.GenerationInterval); d != deps.SpawnTask.Period() {
			deps.SpawnTask.Reset(d, deps.Clock.Now())
			changes = append(changes, fmt.Sprintf("generation interval: %dms", d.Milliseconds()))
		}
	}
	if req.MaxDrones != nil && int(*req.MaxDrones) != p.MaxDrones {
		p.MaxDrones = int(*req.MaxDrones)
		changes = append(changes, fmt.Sprintf("max drones: %d", p.MaxDrones))
	}
	if minSpeed != p.MinSpeed || maxSpeed != p.MaxSpeed {
		p.MinSpeed, p.MaxSpeed = minSpeed, maxSpeed
		changes = append(changes, fmt.Sprintf("speed range: %g-%g", minSpeed, maxSpeed))
	}
	deps.Registry.SetSpawnParams(p)
	if req.AutoGenerate != nil && *req.AutoGenerate != deps.Generator.Enabled() {
		deps.Generator.SetEnabled(*req.AutoGenerate)
		changes = append(changes, fmt.Sprintf("auto generation: %t", *req.AutoGenerate))
	}
	return changes, nil
}

func applyWeapon(req *configRequest, deps *Deps) ([]string, error) {
	if deps.Weapon == nil {
		return nil, fmt.Errorf("no weapon attached")
	}
	active := deps.Weapon.Active()
	profile, strategy := active.Profile, active.Strategy

	var err error
	if req.Profile != nil {
		if profile, err = targeting.ParseProfile(*req.Profile); err != nil {
			return nil, err
		}
	}
	if req.Strategy != nil {
		if strategy, err = targeting.ParseStrategy(*req.Strategy); err != nil {
			return nil, err
		}
	}

	var changes []string
	if profile != active.Profile || strategy != active.Strategy {
		if err := deps.Weapon.Select(profile, strategy); err != nil {
			return nil, err
		}
		changes = append(changes, "weapon: "+deps.Weapon.Active().Name)
	}
	if req.AutoFire != nil && *req.AutoFire != deps.Weapon.AutoFireEnabled() {
		deps.Weapon.SetAutoFire(*req.AutoFire)
		changes = append(changes, fmt.Sprintf("auto fire: %t", *req.AutoFire))
	}
	return changes, nil
}
