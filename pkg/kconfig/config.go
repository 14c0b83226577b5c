// Package kconfig loads the kernel's tunable numeric defaults (fusion,
// engagement, sensor) from YAML with environment-variable overrides, the
// way the rest of this codebase's CLI tools load their settings.
package kconfig

import "time"

// KernelConfig holds every tunable the engine exposes outside of a
// scenario file's entity roster.
type KernelConfig struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Engagement EngagementTuning `yaml:"engagement"`
	Fusion     FusionTuning     `yaml:"fusion"`
	Sensors    SensorTuning     `yaml:"sensors"`
	Playback   PlaybackTuning   `yaml:"playback"`
}

// LoggingConfig controls console verbosity.
type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"` // debug/info/warn/error
	NoColor      bool   `yaml:"no_color"`
	ShowTime     bool   `yaml:"show_time"`
}

// EngagementTuning mirrors sim.EngagementThresholds in YAML-friendly form.
type EngagementTuning struct {
	Policy              string        `yaml:"policy"` // BASELINE or FUSION
	ThreatEngage        float64       `yaml:"threat_engage"`
	ExistProbEngage     float64       `yaml:"exist_prob_engage"`
	MaxEngageRange      float64       `yaml:"max_engage_range"`
	CivilExcludeConf    float64       `yaml:"civil_exclude_confidence"`
	ExistProbAbort      float64       `yaml:"exist_prob_abort"`
	ThreatAbort         float64       `yaml:"threat_abort"`
	MinDecisionInterval time.Duration `yaml:"min_decision_interval"`
	MaxConcurrent       int           `yaml:"max_concurrent_engagements"`
	EvalInterval        time.Duration `yaml:"eval_interval"`
	BaselineEngageDist  float64       `yaml:"baseline_engage_distance"`
	BaselineEngageProb  float64       `yaml:"baseline_engage_probability"`
}

// FusionTuning mirrors sim.FusionConfig in YAML-friendly form.
type FusionTuning struct {
	UseEKF                 bool          `yaml:"use_ekf"`
	AssociationRangeGate   float64       `yaml:"association_range_gate"`
	AssociationBearingGate float64       `yaml:"association_bearing_gate"`
	SensorPositionWeight   float64       `yaml:"sensor_position_weight"`
	ExistenceMin           float64       `yaml:"existence_min"`
	ExistenceMax           float64       `yaml:"existence_max"`
	ExistenceDecayRate     float64       `yaml:"existence_decay_rate"`
	DropExistenceThreshold float64       `yaml:"drop_existence_threshold"`
	DropTimeout            time.Duration `yaml:"drop_timeout"`
	MaxHistory             int           `yaml:"max_history"`
}

// SensorTuning bundles the three sensor models' max ranges plus the radar
// miss probability and EO minimum range. ToWorldConfig does not carry these
// values into the world: sim.NewWorld builds its sensors from the sim
// package's default sensor configs.
type SensorTuning struct {
	RadarMaxRange     float64 `yaml:"radar_max_range"`
	RadarMissProb     float64 `yaml:"radar_miss_probability"`
	AcousticMaxRange  float64 `yaml:"acoustic_max_range"`
	EOMaxRange        float64 `yaml:"eo_max_range"`
	EOMinRange        float64 `yaml:"eo_min_range"`
}

// PlaybackTuning controls Run()'s wall-clock pacing.
type PlaybackTuning struct {
	TickInterval     time.Duration `yaml:"tick_interval"`
	StatusInterval   time.Duration `yaml:"status_interval"`
	BusBatchSize     int           `yaml:"bus_batch_size"`
	BusFlushInterval time.Duration `yaml:"bus_flush_interval"`
}

// Default returns the kernel's built-in defaults, matching sim's own
// DefaultThresholds/DefaultFusionConfig/DefaultWorldConfig values so a
// caller that never loads a file still gets a consistent configuration.
func Default() *KernelConfig {
	return &KernelConfig{
		Logging: LoggingConfig{ConsoleLevel: "info"},
		Engagement: EngagementTuning{
			Policy:              "FUSION",
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
		},
		Fusion: FusionTuning{
			AssociationRangeGate:   120,
			AssociationBearingGate: 15,
			SensorPositionWeight:   0.4,
			ExistenceMin:           0.05,
			ExistenceMax:           0.99,
			ExistenceDecayRate:     0.03,
			DropExistenceThreshold: 0.1,
			DropTimeout:            15 * time.Second,
			MaxHistory:             50,
		},
		Sensors: SensorTuning{
			RadarMaxRange:    1500,
			RadarMissProb:    0.05,
			AcousticMaxRange: 600,
			EOMaxRange:       300,
			EOMinRange:       20,
		},
		Playback: PlaybackTuning{
			TickInterval:     100 * time.Millisecond,
			StatusInterval:   5 * time.Second,
			BusBatchSize:     50,
			BusFlushInterval: 250 * time.Millisecond,
		},
	}
}
