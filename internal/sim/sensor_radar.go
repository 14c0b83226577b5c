package sim

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// RadarConfig configures a RadarSensor.
type RadarConfig struct {
	Position       Position3D
	MaxRange       float64
	ScanRate       float64 // Hz
	MissProbability float64
	FalseAlarmRate  float64 // per scan
	RangeNoiseStd   float64
	BearingNoiseStd float64
	AltitudeNoiseStd float64
}

// DefaultRadarConfig returns reasonable radar defaults.
func DefaultRadarConfig(pos Position3D) RadarConfig {
	return RadarConfig{
		Position:         pos,
		MaxRange:         1500,
		ScanRate:         2,
		MissProbability:  0.05,
		FalseAlarmRate:   0.01,
		RangeNoiseStd:    5,
		BearingNoiseStd:  1.5,
		AltitudeNoiseStd: 5,
	}
}

// RadarSensor implements range+bearing+altitude+radial-velocity detection
// with Gaussian noise and configurable miss/false-alarm rates.
type RadarSensor struct {
	cfg      RadarConfig
	rnd      *RandSource
	lastScan time.Duration
	hasScanned bool
}

// NewRadarSensor constructs a radar sensor bound to rnd for every draw.
func NewRadarSensor(cfg RadarConfig, rnd *RandSource) *RadarSensor {
	return &RadarSensor{cfg: cfg, rnd: rnd}
}

func (r *RadarSensor) Reset() {
	r.hasScanned = false
	r.lastScan = 0
}

// Scan implements Sensor. Scans are gated to the configured scan rate.
func (r *RadarSensor) Scan(now time.Duration, hostiles map[DroneID]*HostileVehicle) []SensorObservation {
	period := time.Duration(float64(time.Second) / r.cfg.ScanRate)
	if r.hasScanned && now-r.lastScan < period {
		return nil
	}
	r.hasScanned = true
	r.lastScan = now

	var obs []SensorObservation
	for _, h := range hostiles {
		if h.IsNeutralized {
			continue
		}
		rng := r.cfg.Position.Distance3D(h.Position)
		if rng > r.cfg.MaxRange {
			continue
		}
		if r.rnd.Bool(r.cfg.MissProbability) {
			continue
		}
		obs = append(obs, r.detect(now, h, rng))
	}

	if r.rnd.Bool(r.cfg.FalseAlarmRate) {
		obs = append(obs, r.falseAlarm(now))
	}
	return obs
}

func (r *RadarSensor) detect(now time.Duration, h *HostileVehicle, rng float64) SensorObservation {
	noisyRange := rng + r.rnd.Gaussian(0, r.cfg.RangeNoiseStd)
	bearing := NormalizeDegrees(bearingToward(r.cfg.Position, h.Position) + r.rnd.Gaussian(0, r.cfg.BearingNoiseStd))
	altitude := h.Position.Z + r.rnd.Gaussian(0, r.cfg.AltitudeNoiseStd)

	toSensor := r.cfg.Position.Sub(h.Position)
	toSensorMag := math.Max(1e-6, math.Sqrt(toSensor.X*toSensor.X+toSensor.Y*toSensor.Y+toSensor.Z*toSensor.Z))
	radial := (h.Velocity.X*toSensor.X+h.Velocity.Y*toSensor.Y+h.Velocity.ClimbRate*toSensor.Z)/toSensorMag + r.rnd.Gaussian(0, 1)

	conf := Clamp(1-0.3*rng/r.cfg.MaxRange+r.rnd.Gaussian(0, 0.05), 0.5, 0.99)

	id := h.ID
	return SensorObservation{
		Sensor:     SensorRadar,
		Time:       now,
		HostileID:  &id,
		Bearing:    &bearing,
		Range:      &noisyRange,
		Altitude:   &altitude,
		Confidence: conf,
		Metadata:   SensorMetadata{RadialVelocity: &radial},
	}
}

func (r *RadarSensor) falseAlarm(now time.Duration) SensorObservation {
	bearing := r.rnd.Float64() * 360
	rng := r.rnd.Float64() * r.cfg.MaxRange
	alt := 50 + r.rnd.Float64()*500

	return SensorObservation{
		Sensor:     SensorRadar,
		Time:       now,
		HostileID:  newSyntheticID(r),
		Bearing:    &bearing,
		Range:      &rng,
		Altitude:   &alt,
		Confidence: 0.3,
		Metadata:   SensorMetadata{IsFalseAlarm: true},
	}
}

func newSyntheticID(_ *RadarSensor) *DroneID {
	id := uuid.New()
	return &id
}
