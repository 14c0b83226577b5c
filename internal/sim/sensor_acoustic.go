package sim

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// AcousticConfig configures an AcousticSensor.
type AcousticConfig struct {
	Position          Position3D
	MaxRange          float64
	BaseDetectionProb float64
	MissProbability   float64
	FalseAlarmRate    float64
	DetectionDelayMean time.Duration
	DetectionDelayStd  time.Duration
	BearingNoiseStd    float64 // degrees
	RangeNoiseStd      float64 // meters
}

// DefaultAcousticConfig returns reasonable acoustic defaults.
func DefaultAcousticConfig(pos Position3D) AcousticConfig {
	return AcousticConfig{
		Position:           pos,
		MaxRange:           600,
		BaseDetectionProb:  0.6,
		MissProbability:    0.1,
		FalseAlarmRate:     0.005,
		DetectionDelayMean: 800 * time.Millisecond,
		DetectionDelayStd:  200 * time.Millisecond,
		BearingNoiseStd:    10,
		RangeNoiseStd:      50,
	}
}

type pendingAcoustic struct {
	deliverAt time.Duration
	obs       SensorObservation
}

// AcousticSensor implements bearing+activity-state detection with a
// scheduled detection delay. It scans every 2s of sim time.
type AcousticSensor struct {
	cfg      AcousticConfig
	rnd      *RandSource
	lastScan time.Duration
	hasScanned bool
	pending  []pendingAcoustic
}

// NewAcousticSensor constructs an acoustic sensor bound to rnd.
func NewAcousticSensor(cfg AcousticConfig, rnd *RandSource) *AcousticSensor {
	return &AcousticSensor{cfg: cfg, rnd: rnd}
}

func (a *AcousticSensor) Reset() {
	a.hasScanned = false
	a.lastScan = 0
	a.pending = nil
}

// Scan implements Sensor: schedules new detections and delivers any
// pending ones whose delay has elapsed, in time order.
func (a *AcousticSensor) Scan(now time.Duration, hostiles map[DroneID]*HostileVehicle) []SensorObservation {
	const scanInterval = 2 * time.Second
	if a.hasScanned && now-a.lastScan < scanInterval {
		return a.deliverDue(now)
	}
	a.hasScanned = true
	a.lastScan = now

	for _, h := range hostiles {
		if h.IsNeutralized {
			continue
		}
		rng := a.cfg.Position.Distance3D(h.Position)
		if rng > a.cfg.MaxRange {
			continue
		}
		activity := classifyActivity(a.cfg.Position, h)
		prob := a.cfg.BaseDetectionProb*(1-math.Pow(rng/a.cfg.MaxRange, 1.5)) + activityBonus(activity)
		prob *= 1 - a.cfg.MissProbability
		if !a.rnd.Bool(prob) {
			continue
		}
		delay := time.Duration(a.rnd.Gaussian(float64(a.cfg.DetectionDelayMean), float64(a.cfg.DetectionDelayStd)))
		if delay < 0 {
			delay = 0
		}
		id := h.ID
		bearing := NormalizeDegrees(bearingToward(a.cfg.Position, h.Position) + a.rnd.Gaussian(0, a.cfg.BearingNoiseStd))
		noisyRange := rng + a.rnd.Gaussian(0, a.cfg.RangeNoiseStd)
		conf := Clamp(0.8-0.3*rng/a.cfg.MaxRange, 0.1, 0.95)

		a.pending = append(a.pending, pendingAcoustic{
			deliverAt: now + delay,
			obs: SensorObservation{
				Sensor:     SensorAcoustic,
				HostileID:  &id,
				Bearing:    &bearing,
				Range:      &noisyRange,
				Confidence: conf,
				Metadata:   SensorMetadata{ActivityState: &activity},
			},
		})
	}

	if a.rnd.Bool(a.cfg.FalseAlarmRate) {
		bearing := a.rnd.Float64() * 360
		idPtr := newSyntheticAcousticID()
		a.pending = append(a.pending, pendingAcoustic{
			deliverAt: now,
			obs: SensorObservation{
				Sensor:     SensorAcoustic,
				HostileID:  idPtr,
				Bearing:    &bearing,
				Confidence: 0.25,
				Metadata:   SensorMetadata{IsFalseAlarm: true},
			},
		})
	}

	return a.deliverDue(now)
}

func (a *AcousticSensor) deliverDue(now time.Duration) []SensorObservation {
	var out []SensorObservation
	remaining := a.pending[:0]
	for _, p := range a.pending {
		if p.deliverAt <= now {
			p.obs.Time = now
			out = append(out, p.obs)
		} else {
			remaining = append(remaining, p)
		}
	}
	a.pending = remaining
	return out
}

func classifyActivity(sensorPos Position3D, h *HostileVehicle) ActivityState {
	speed := h.Velocity.Horizontal()
	climb := h.Velocity.ClimbRate

	switch {
	case climb > 3:
		return ActivityTakeoff
	case speed < 1 && math.Abs(climb) < 1:
		return ActivityIdle
	case speed < 3:
		return ActivityHover
	}

	toSensor := h.Position.Sub(sensorPos)
	approaching := (h.Velocity.X*-toSensor.X + h.Velocity.Y*-toSensor.Y) > 0
	switch {
	case approaching && speed > 8:
		return ActivityApproach
	case !approaching && speed > 8:
		return ActivityDepart
	default:
		return ActivityLoiter
	}
}

func activityBonus(a ActivityState) float64 {
	switch a {
	case ActivityTakeoff:
		return 0.3
	case ActivityApproach:
		return 0.2
	default:
		return 0
	}
}

func newSyntheticAcousticID() *DroneID {
	id := uuid.New()
	return &id
}
