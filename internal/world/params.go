package world

import "time"

// SpawnParams controls random entity generation and per-tick perturbation.
// Mutable at runtime through Registry.SetSpawnParams.
type SpawnParams struct {
	HalfSize  float64 // operating square is [-HalfSize, HalfSize]²
	MaxDrones int     // live entity cap; 0 means unlimited

	StartSpeedMin float64
	StartSpeedMax float64
	EndFactorMin  float64 // ramped end speed = start × U[EndFactorMin, EndFactorMax]
	EndFactorMax  float64
	EndSpeedMin   float64
	EndSpeedMax   float64

	CurvedChance float64
	RampedChance float64
	CenterChance float64 // target near the defended center instead of the opposite edge
	CenterSpread float64 // center targets fall within ±CenterSpread on each axis
	EdgeBand     float64 // opposite-edge targets fall within EdgeBand×HalfSize of that edge
	BendMin      float64
	BendMax      float64

	PerturbChance float64 // per entity per tick
	PerturbAngle  float64 // full span in radians, centered on zero
	PerturbSpeed  float64 // full span, centered on zero
	MinSpeed      float64
	MaxSpeed      float64
}

func DefaultSpawnParams() SpawnParams {
	return SpawnParams{
		HalfSize:      800,
		MaxDrones:     20,
		StartSpeedMin: 30,
		StartSpeedMax: 100,
		EndFactorMin:  0.3,
		EndFactorMax:  3.0,
		EndSpeedMin:   10,
		EndSpeedMax:   150,
		CurvedChance:  0.8,
		RampedChance:  0.6,
		CenterChance:  0.2,
		CenterSpread:  300,
		EdgeBand:      0.3,
		BendMin:       1.2,
		BendMax:       1.8,
		PerturbChance: 0.045,
		PerturbAngle:  0.3,
		PerturbSpeed:  10,
		MinSpeed:      10,
		MaxSpeed:      150,
	}
}

// ThreatParams holds the advanced scoring and engagement constants.
type ThreatParams struct {
	DistanceOffset  float64 // distanceFactor = 1000/(d+DistanceOffset)
	SpeedScale      float64 // speedFactor = 1 + speed/SpeedScale
	ApproachRange   float64 // trajectoryFactor ramps 1→2 below this min approach
	UrgencyHorizon  float64 // seconds; urgencyFactor ramps 1→2 below this
	MinEngageScore  float64
	HighThreatScore float64 // engage regardless of geometry above this
	AlertScore      float64 // HighPriorityThreat above this
	CoreFraction    float64 // of radar radius
	CoreHorizon     time.Duration
	ApproachFactor  float64 // engage when min approach < ApproachFactor × radius
	StrikeGridCells int     // cells per diameter of the strike point search
	InterceptSpeed  float64 // interceptor speed for InterceptRecommendation
	MaxPriority     int
}

func DefaultThreatParams() ThreatParams {
	return ThreatParams{
		DistanceOffset:  100,
		SpeedScale:      100,
		ApproachRange:   800,
		UrgencyHorizon:  30,
		MinEngageScore:  50,
		HighThreatScore: 500,
		AlertScore:      1000,
		CoreFraction:    0.5,
		CoreHorizon:     10 * time.Second,
		ApproachFactor:  0.7,
		StrikeGridCells: 20,
		InterceptSpeed:  300,
		MaxPriority:     5,
	}
}
