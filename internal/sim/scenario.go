package sim

import (
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Scenario is the on-disk (YAML) description of a world to stand up: base
// position, seed, policy, and the initial hostile/interceptor roster.
type Scenario struct {
	Name   string  `yaml:"name"`
	Seed   int64   `yaml:"seed"`
	Policy string  `yaml:"policy"` // "BASELINE" or "FUSION"
	UseEKF bool    `yaml:"use_ekf"`
	Base   ScenarioPoint `yaml:"base"`

	Hostiles     []ScenarioHostile     `yaml:"hostiles"`
	Interceptors []ScenarioInterceptor `yaml:"interceptors"`
}

// ScenarioPoint is a YAML-friendly Position3D.
type ScenarioPoint struct {
	X, Y, Z float64
}

func (p ScenarioPoint) toPosition() Position3D { return Position3D{X: p.X, Y: p.Y, Z: p.Z} }

// ScenarioHostile describes one spawned hostile.
type ScenarioHostile struct {
	Position     ScenarioPoint   `yaml:"position"`
	HeadingDeg   float64         `yaml:"heading_deg"`
	Speed        float64         `yaml:"speed"`
	Behavior     HostileBehavior `yaml:"behavior"`
	Label        GroundTruthLabel `yaml:"label"`
	MaxSpeed     float64         `yaml:"max_speed"`
	CruiseSpeed  float64         `yaml:"cruise_speed"`
	Acceleration float64         `yaml:"acceleration"`
	TurnRate     float64         `yaml:"turn_rate"`
	ClimbRate    float64         `yaml:"climb_rate"`
	EvasionRange float64         `yaml:"evasion_trigger_range"`
	EvasionStrength float64      `yaml:"evasion_strength"`

	Armed       bool   `yaml:"armed"`
	DroneType   string `yaml:"drone_type"`
	SizeClass   SizeClass `yaml:"size_class"`
	RecommendedMethod Method `yaml:"recommended_method"`
}

// ScenarioInterceptor describes one idle interceptor stationed at base.
type ScenarioInterceptor struct {
	MaxSpeed     float64 `yaml:"max_speed"`
	CruiseSpeed  float64 `yaml:"cruise_speed"`
	Acceleration float64 `yaml:"acceleration"`
	TurnRate     float64 `yaml:"turn_rate"`
	ClimbRate    float64 `yaml:"climb_rate"`
}

// DefaultHostileLimits returns reasonable hostile kinematic limits, used
// when a scenario hostile entry omits them.
func DefaultHostileLimits() MotionLimits {
	return MotionLimits{
		MaxSpeed:            30,
		CruiseSpeed:         18,
		Acceleration:        4,
		TurnRate:            1.0,
		ClimbRate:           5,
		EvasionTriggerRange: 200,
		EvasionStrength:     0.8,
	}
}

// DefaultInterceptorLimits returns reasonable interceptor kinematic
// limits, used when a scenario interceptor entry omits them.
func DefaultInterceptorLimits() MotionLimits {
	return MotionLimits{
		MaxSpeed:     60,
		CruiseSpeed:  40,
		Acceleration: 8,
		TurnRate:     1.5,
		ClimbRate:    12,
	}
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: reading scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("sim: parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario for the minimum shape BuildWorld needs.
func (s *Scenario) Validate() error {
	if s.Policy != "" && s.Policy != string(PolicyBaseline) && s.Policy != string(PolicyFusion) {
		return fmt.Errorf("%w: policy %q must be BASELINE or FUSION", ErrInvalidScenario, s.Policy)
	}
	if len(s.Hostiles) == 0 {
		return fmt.Errorf("%w: at least one hostile is required", ErrInvalidScenario)
	}
	return nil
}

// BuildWorld constructs and populates a World from the scenario using the
// kernel's built-in tunable defaults, ready for Start()+Tick()/Run().
func (s *Scenario) BuildWorld() *World {
	return s.BuildWorldFrom(DefaultWorldConfig())
}

// BuildWorldFrom constructs and populates a World from the scenario,
// layering the scenario's seed/base position/policy/EKF choice on top of
// an already-loaded base WorldConfig (typically one produced by
// kconfig.KernelConfig.ToWorldConfig, carrying operator-tuned fusion and
// engagement thresholds).
func (s *Scenario) BuildWorldFrom(base WorldConfig) *World {
	cfg := base
	cfg.Seed = s.Seed
	cfg.BasePosition = s.Base.toPosition()
	cfg.UseEKF = s.UseEKF
	if s.Policy != "" {
		cfg.Policy = EngagementPolicy(s.Policy)
	}

	w := NewWorld(cfg)

	for _, hd := range s.Hostiles {
		limits := DefaultHostileLimits()
		if hd.MaxSpeed > 0 {
			limits.MaxSpeed = hd.MaxSpeed
		}
		if hd.CruiseSpeed > 0 {
			limits.CruiseSpeed = hd.CruiseSpeed
		}
		if hd.Acceleration > 0 {
			limits.Acceleration = hd.Acceleration
		}
		if hd.TurnRate > 0 {
			limits.TurnRate = hd.TurnRate
		}
		if hd.ClimbRate > 0 {
			limits.ClimbRate = hd.ClimbRate
		}
		if hd.EvasionRange > 0 {
			limits.EvasionTriggerRange = hd.EvasionRange
		}
		if hd.EvasionStrength > 0 {
			limits.EvasionStrength = hd.EvasionStrength
		}

		rad := hd.HeadingDeg * math.Pi / 180
		vel := Velocity3D{X: hd.Speed * math.Cos(rad), Y: hd.Speed * math.Sin(rad)}

		behavior := hd.Behavior
		if behavior == "" {
			behavior = BehaviorNormal
		}
		label := hd.Label
		if label == "" {
			label = LabelUnknown
		}

		h := NewHostileVehicle(uuid.New(), hd.Position.toPosition(), vel, behavior, limits, label)
		if hd.DroneType != "" || hd.Armed || hd.SizeClass != "" {
			h.Attributes = &ExtendedAttributes{
				IsHostile:         label == LabelHostile,
				DroneType:         hd.DroneType,
				Armed:             hd.Armed,
				SizeClass:         hd.SizeClass,
				RecommendedMethod: hd.RecommendedMethod,
			}
		}
		w.AddHostile(h)
	}

	for _, id := range s.Interceptors {
		limits := DefaultInterceptorLimits()
		if id.MaxSpeed > 0 {
			limits.MaxSpeed = id.MaxSpeed
		}
		if id.CruiseSpeed > 0 {
			limits.CruiseSpeed = id.CruiseSpeed
		}
		if id.Acceleration > 0 {
			limits.Acceleration = id.Acceleration
		}
		if id.TurnRate > 0 {
			limits.TurnRate = id.TurnRate
		}
		if id.ClimbRate > 0 {
			limits.ClimbRate = id.ClimbRate
		}
		in := NewInterceptorVehicle(uuid.New(), cfg.BasePosition, limits)
		w.AddInterceptor(in)
	}

	return w
}
