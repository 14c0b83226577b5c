package sim

import (
	"time"
)

// EOConfig configures an EOSensor.
type EOConfig struct {
	Position            Position3D
	MinRange            float64
	MaxRange            float64
	MinDetectInterval   time.Duration
	HostileAccuracy     float64 // P(classified HOSTILE | is hostile)
	UnknownFallbackProb float64
	ConfusionProbability float64
	BearingNoiseStd     float64
	RangeNoiseStd       float64
	AltitudeNoiseStd    float64
}

// DefaultEOConfig returns reasonable EO defaults.
func DefaultEOConfig(pos Position3D) EOConfig {
	return EOConfig{
		Position:             pos,
		MinRange:             20,
		MaxRange:              300,
		MinDetectInterval:     1 * time.Second,
		HostileAccuracy:       0.9,
		UnknownFallbackProb:   0.5,
		ConfusionProbability:  0.1,
		BearingNoiseStd:       0.5,
		RangeNoiseStd:         2,
		AltitudeNoiseStd:      2,
	}
}

// EOSensor implements range/bearing/altitude+classification detection with
// a range gate and a per-hostile minimum detection interval. It applies no
// field-of-view gate: every hostile inside the range gate is a candidate.
type EOSensor struct {
	cfg         EOConfig
	rnd         *RandSource
	lastDetect  map[DroneID]time.Duration
}

// NewEOSensor constructs an EO sensor bound to rnd.
func NewEOSensor(cfg EOConfig, rnd *RandSource) *EOSensor {
	return &EOSensor{cfg: cfg, rnd: rnd, lastDetect: make(map[DroneID]time.Duration)}
}

func (e *EOSensor) Reset() {
	e.lastDetect = make(map[DroneID]time.Duration)
}

// Scan implements Sensor.
func (e *EOSensor) Scan(now time.Duration, hostiles map[DroneID]*HostileVehicle) []SensorObservation {
	var obs []SensorObservation
	for _, h := range hostiles {
		if h.IsNeutralized {
			continue
		}
		rng := e.cfg.Position.Distance3D(h.Position)
		if rng < e.cfg.MinRange || rng > e.cfg.MaxRange {
			continue
		}
		if last, ok := e.lastDetect[h.ID]; ok && now-last < e.cfg.MinDetectInterval {
			continue
		}

		prob := detectionProbability(rng)
		if !e.rnd.Bool(prob) {
			continue
		}
		e.lastDetect[h.ID] = now
		obs = append(obs, e.detect(now, h, rng))
	}
	return obs
}

// detectionProbability decays from >=0.85 below 100m to a floor around
// 0.45 above 200m.
func detectionProbability(rng float64) float64 {
	switch {
	case rng <= 100:
		return 0.85 + 0.1*(1-rng/100)
	case rng <= 200:
		return 0.85 - 0.4*((rng-100)/100)
	default:
		return 0.45
	}
}

func (e *EOSensor) detect(now time.Duration, h *HostileVehicle, rng float64) SensorObservation {
	id := h.ID
	bearing := NormalizeDegrees(bearingToward(e.cfg.Position, h.Position) + e.rnd.Gaussian(0, e.cfg.BearingNoiseStd))
	noisyRange := rng + e.rnd.Gaussian(0, e.cfg.RangeNoiseStd)
	altitude := h.Position.Z + e.rnd.Gaussian(0, e.cfg.AltitudeNoiseStd)
	conf := Clamp(0.95-0.3*rng/e.cfg.MaxRange, 0.3, 0.98)

	classification, classConf := e.classify(h)

	meta := SensorMetadata{}
	if h.Attributes != nil {
		armed := h.Attributes.Armed
		if e.rnd.Bool(e.cfg.ConfusionProbability) {
			armed = !armed
		}
		meta.Armed = &armed

		size := h.Attributes.SizeClass
		meta.SizeClass = &size
		dtype := h.Attributes.DroneType
		meta.DroneType = &dtype
	}

	return SensorObservation{
		Sensor:          SensorEO,
		Time:            now,
		HostileID:       &id,
		Bearing:         &bearing,
		Range:           &noisyRange,
		Altitude:        &altitude,
		Confidence:      conf,
		Classification:  &classification,
		ClassConfidence: &classConf,
		Metadata:        meta,
	}
}

// classify samples a classification from ground truth via the accuracy
// table in , symmetric for hostile and civil truth labels.
func (e *EOSensor) classify(h *HostileVehicle) (GroundTruthLabel, float64) {
	truth := NormalizeClassification(h.Label)
	var result GroundTruthLabel

	switch truth {
	case LabelHostile:
		if e.rnd.Bool(e.cfg.HostileAccuracy) {
			result = LabelHostile
		} else if e.rnd.Bool(e.cfg.UnknownFallbackProb) {
			result = LabelUnknown
		} else {
			result = LabelCivil
		}
	case LabelCivil:
		if e.rnd.Bool(e.cfg.HostileAccuracy) {
			result = LabelCivil
		} else if e.rnd.Bool(e.cfg.UnknownFallbackProb) {
			result = LabelUnknown
		} else {
			result = LabelHostile
		}
	default:
		result = LabelUnknown
	}

	rng := e.cfg.Position.Distance3D(h.Position)
	const base = 0.9
	classConf := base * maxFloat(0.6, 1-rng/(1.5*e.cfg.MaxRange))
	return result, classConf
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
