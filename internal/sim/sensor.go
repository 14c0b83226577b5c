package sim

import "time"

// SensorMetadata is the per-observation "bag" of sensor-specific extras.
// Only the fields relevant to the originating sensor are populated.
type SensorMetadata struct {
	RadialVelocity   *float64
	IsFalseAlarm     bool
	ActivityState    *ActivityState
	Armed            *bool
	SizeClass        *SizeClass
	DroneType        *string
	IsFirstDetection bool
}

// SensorObservation is the tagged union over {RADAR, ACOUSTIC, EO}.
//
// bearing: degrees, 0 = +X, increasing counter-clockwise toward +Y.
type SensorObservation struct {
	Sensor         SensorKind
	Time           time.Duration
	HostileID      *DroneID
	Bearing        *float64
	Range          *float64
	Altitude       *float64
	Confidence     float64
	Classification *GroundTruthLabel
	ClassConfidence *float64
	Metadata       SensorMetadata
}

// Sensor is the common contract every sensor model implements.
type Sensor interface {
	Scan(now time.Duration, hostiles map[DroneID]*HostileVehicle) []SensorObservation
	Reset()
}

// bearingToward computes the observation bearing in degrees from sensor to
// target using the kernel-wide convention (0=+X, CCW toward +Y).
func bearingToward(from, to Position3D) float64 {
	return from.Bearing(to)
}
