package sim

import "time"

// MethodSpec is a table-driven entry for one intercept method.
type MethodSpec struct {
	MinDistance      float64
	MaxDistance      float64
	BaseSuccessRate  float64
	SpeedFactor      float64
	EvadePenalty     float64
	GunAttemptsCap   int
	JamDurationReq   time.Duration
}

// MethodTable holds the fixed per-method intercept constants.
var MethodTable = map[Method]MethodSpec{
	MethodRAM: {MinDistance: 0, MaxDistance: 30, BaseSuccessRate: 0.70, SpeedFactor: 0.30, EvadePenalty: 0.40},
	MethodGun: {MinDistance: 100, MaxDistance: 400, BaseSuccessRate: 0.50, SpeedFactor: 0.20, EvadePenalty: 0.30, GunAttemptsCap: 5},
	MethodNet: {MinDistance: 0, MaxDistance: 80, BaseSuccessRate: 0.80, SpeedFactor: 0.40, EvadePenalty: 0.50},
	MethodJam: {MinDistance: 50, MaxDistance: 300, BaseSuccessRate: 0.60, SpeedFactor: 0.10, EvadePenalty: 0.10, JamDurationReq: 5 * time.Second},
}

// EngagementThresholds holds the FUSION/BASELINE policy defaults.
type EngagementThresholds struct {
	ThreatEngage        float64
	ExistProbEngage     float64
	MaxEngageRange      float64
	CivilExcludeConf    float64
	ExistProbAbort      float64
	ThreatAbort         float64
	MinDecisionInterval time.Duration
	MaxConcurrent       int
	EvalInterval        time.Duration
	BaselineEngageDist  float64
	BaselineEngageProb  float64
}

// DefaultThresholds returns the  FUSION/BASELINE threshold defaults.
func DefaultThresholds() EngagementThresholds {
	return EngagementThresholds{
		ThreatEngage:        70,
		ExistProbEngage:     0.7,
		MaxEngageRange:      400,
		CivilExcludeConf:    0.75,
		ExistProbAbort:      0.3,
		ThreatAbort:         40,
		MinDecisionInterval: 2 * time.Second,
		MaxConcurrent:       3,
		EvalInterval:        500 * time.Millisecond,
		BaselineEngageDist:  300,
		BaselineEngageProb:  0.8,
	}
}

// EngagementPolicy selects the BASELINE or FUSION engagement strategy.
type EngagementPolicy string

const (
	PolicyBaseline EngagementPolicy = "BASELINE"
	PolicyFusion   EngagementPolicy = "FUSION"
)

// FusionSensorWeight is the per-sensor base existence-update weight.
var FusionSensorWeight = map[SensorKind]float64{
	SensorRadar:    1.0,
	SensorAcoustic: 1.0,
	SensorEO:       1.0,
}

// FusionSensorRate is the per-sensor existence decay/growth rate.
var FusionSensorRate = map[SensorKind]float64{
	SensorRadar:    0.55,
	SensorAcoustic: 0.40,
	SensorEO:       0.70,
}

// FusionConfig holds the tunable constants for the track fusion engine.
type FusionConfig struct {
	AssociationRangeGate   float64 // meters
	AssociationBearingGate float64 // degrees
	SensorPositionWeight   float64 // w in the position blend
	ExistenceMin           float64
	ExistenceMax           float64
	ExistenceDecayRate     float64 // per second
	DropExistenceThreshold float64
	DropTimeout            time.Duration
	MaxHistory             int
}

// DefaultFusionConfig returns the fusion engine's default tunables.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		AssociationRangeGate:   120,
		AssociationBearingGate: 15,
		SensorPositionWeight:   0.4,
		ExistenceMin:           0.05,
		ExistenceMax:           0.99,
		ExistenceDecayRate:     0.03,
		DropExistenceThreshold: 0.1,
		DropTimeout:            15 * time.Second,
		MaxHistory:             50,
	}
}
