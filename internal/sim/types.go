// Package sim implements the counter-UAS command-and-control simulation
// kernel: world state, motion models, sensors, fusion, threat scoring,
// guidance, and the engagement manager described in the project's design
// documents. The kernel is deliberately transport-agnostic — callers drive
// it with Tick and receive/issue typed events and commands through two
// callbacks.
package sim

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/skyguard/ccuas-sim/pkg/logger"
)

// Position3D is a point in the world's right-handed Cartesian frame.
// Units are meters; Z is altitude above the ground plane.
type Position3D struct {
	X, Y, Z float64
}

// Velocity3D is a rate of change of Position3D. X/Y are horizontal
// components in m/s; ClimbRate is the vertical component in m/s.
//
// bearing: degrees, 0 = +X, increasing counter-clockwise toward +Y.
type Velocity3D struct {
	X, Y      float64
	ClimbRate float64
}

// Horizontal returns the horizontal speed magnitude.
func (v Velocity3D) Horizontal() float64 {
	return math.Hypot(v.X, v.Y)
}

// Sub returns a-b.
func (a Position3D) Sub(b Position3D) Position3D {
	return Position3D{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Add returns a+b.
func (a Position3D) Add(b Position3D) Position3D {
	return Position3D{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Scale returns a scaled by s.
func (a Position3D) Scale(s float64) Position3D {
	return Position3D{a.X * s, a.Y * s, a.Z * s}
}

// Distance2D returns the horizontal (X/Y) Euclidean distance to b.
func (a Position3D) Distance2D(b Position3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance3D returns the full 3D Euclidean distance to b.
func (a Position3D) Distance3D(b Position3D) float64 {
	d := a.Sub(b)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Bearing returns the bearing in degrees [0,360) from a to b, using the
// convention 0 = +X, increasing counter-clockwise toward +Y.
func (a Position3D) Bearing(b Position3D) float64 {
	ang := math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
	return NormalizeDegrees(ang)
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// NormalizeRadians wraps an angle into [-pi, pi].
func NormalizeRadians(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad < -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HostileBehavior is the hostile motion FSM state.
type HostileBehavior string

const (
	BehaviorNormal     HostileBehavior = "NORMAL"
	BehaviorRecon      HostileBehavior = "RECON"
	BehaviorAttackRun   HostileBehavior = "ATTACK_RUN"
	BehaviorEvade      HostileBehavior = "EVADE"
)

// GroundTruthLabel is the simulation's hidden-from-fusion label for a
// hostile vehicle.
type GroundTruthLabel string

const (
	LabelHostile GroundTruthLabel = "HOSTILE"
	LabelCivil   GroundTruthLabel = "CIVIL"
	LabelUnknown GroundTruthLabel = "UNKNOWN"
	// LabelFriendly only appears on the classification/threat side (never as
	// a hostile ground truth label); LabelNeutral is an alias of LabelCivil
	// at event boundaries.
	LabelFriendly GroundTruthLabel = "FRIENDLY"
	LabelNeutral  GroundTruthLabel = "NEUTRAL"
)

// NormalizeClassification maps the legacy "NEUTRAL" alias onto CIVIL.
func NormalizeClassification(l GroundTruthLabel) GroundTruthLabel {
	if l == LabelNeutral {
		return LabelCivil
	}
	return l
}

// SizeClass is the hostile's extended-attribute size bucket.
type SizeClass string

const (
	SizeSmall  SizeClass = "SMALL"
	SizeMedium SizeClass = "MEDIUM"
	SizeLarge  SizeClass = "LARGE"
)

// Method is an interceptor engagement method.
type Method string

const (
	MethodNone Method = ""
	MethodRAM  Method = "RAM"
	MethodGun  Method = "GUN"
	MethodNet  Method = "NET"
	MethodJam  Method = "JAM"
)

// InterceptorState is the interceptor state-machine state.
type InterceptorState string

const (
	StateIdle         InterceptorState = "IDLE"
	StateScramble     InterceptorState = "SCRAMBLE"
	StatePursuing     InterceptorState = "PURSUING"
	StateRecon        InterceptorState = "RECON"
	StateInterceptRam InterceptorState = "INTERCEPT_RAM"
	StateInterceptGun InterceptorState = "INTERCEPT_GUN"
	StateInterceptNet InterceptorState = "INTERCEPT_NET"
	StateInterceptJam InterceptorState = "INTERCEPT_JAM"
	StateReturning    InterceptorState = "RETURNING"
	StateNeutralized  InterceptorState = "NEUTRALIZED"

	// stateLaunching is a legacy alias for StateScramble, per the
	// legacy naming. It is never stored; callers
	// that submit it get normalized (with a one-time warning) to SCRAMBLE.
	stateLaunching InterceptorState = "LAUNCHING"
)

var launchingWarnOnce sync.Once

// NormalizeInterceptorState resolves the LAUNCHING/SCRAMBLE ambiguity.
func NormalizeInterceptorState(s InterceptorState) InterceptorState {
	if s == stateLaunching {
		launchingWarnOnce.Do(func() {
			logger.Warn("interceptor state LAUNCHING is a legacy alias; normalized to SCRAMBLE")
		})
		return StateScramble
	}
	return s
}

func interceptStateForMethod(m Method) InterceptorState {
	switch m {
	case MethodRAM:
		return StateInterceptRam
	case MethodGun:
		return StateInterceptGun
	case MethodNet:
		return StateInterceptNet
	case MethodJam:
		return StateInterceptJam
	default:
		return StatePursuing
	}
}

// InterceptResult is the outcome of a completed or aborted intercept.
type InterceptResult string

const (
	ResultSuccess InterceptResult = "SUCCESS"
	ResultMiss    InterceptResult = "MISS"
	ResultEvaded  InterceptResult = "EVADED"
	ResultAborted InterceptResult = "ABORTED"
)

// FailureReason is the intercept failure taxonomy.
type FailureReason string

const (
	FailureTargetLost       FailureReason = "target_lost"
	FailureEvaded           FailureReason = "evaded"
	FailureCollisionAvoided FailureReason = "collision_avoided"
	FailureGunMissed        FailureReason = "gun_missed"
	FailureNetMissed        FailureReason = "net_missed"
	FailureJamFailed        FailureReason = "jam_failed"
	FailureTimeout          FailureReason = "timeout"
)

// SensorKind tags which sensor produced an observation.
type SensorKind string

const (
	SensorRadar    SensorKind = "RADAR"
	SensorAcoustic SensorKind = "ACOUSTIC"
	SensorEO       SensorKind = "EO"
	// sourceFused tags a track's classification as arbitrated by fusion
	// rather than copied from a single sensor reading.
	sourceFused SensorKind = "FUSED"
)

// ThreatLevel is the ordinal danger-to-base summary.
type ThreatLevel string

const (
	ThreatInfo     ThreatLevel = "INFO"
	ThreatCaution  ThreatLevel = "CAUTION"
	ThreatDanger   ThreatLevel = "DANGER"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// LevelForScore is the pure function from threatScore to ThreatLevel.
func LevelForScore(score float64) ThreatLevel {
	switch {
	case score >= 80:
		return ThreatCritical
	case score >= 60:
		return ThreatDanger
	case score >= 35:
		return ThreatCaution
	default:
		return ThreatInfo
	}
}

// ActivityState is the acoustic sensor's behavioral classification.
type ActivityState string

const (
	ActivityTakeoff  ActivityState = "TAKEOFF"
	ActivityApproach ActivityState = "APPROACH"
	ActivityDepart   ActivityState = "DEPART"
	ActivityLoiter   ActivityState = "LOITER"
	ActivityHover    ActivityState = "HOVER"
	ActivityIdle     ActivityState = "IDLE"
)

// DroneID / TrackID / InterceptorID are uuid aliases kept distinct for
// documentation purposes; all three are backed by google/uuid.
type (
	DroneID       = uuid.UUID
	TrackID       = uuid.UUID
	InterceptorID = uuid.UUID
)
