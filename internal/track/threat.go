package track

import (
	"math"

	"github.com/skyguard/radarsim/internal/geom"
)

// BaseScore is 1000/max(1, d) where d is the distance from the defended
// origin. Higher is more threatening.
func BaseScore(p geom.Vec2) float64 {
	return 1000 / math.Max(1, p.Dist(geom.Origin))
}

// levelBands maps distance thresholds to discrete threat levels.
var levelBands = []struct {
	below float64
	level int
}{
	{100, 10},
	{200, 8},
	{400, 6},
	{600, 4},
	{800, 2},
}

// ThreatLevel buckets a distance from the defended origin into 1..10.
func ThreatLevel(d float64) int {
	for _, b := range levelBands {
		if d < b.below {
			return b.level
		}
	}
	return 1
}
