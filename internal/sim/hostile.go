package sim

import (
	"math"
	"time"
)

// MotionLimits bounds a vehicle's kinematics.
type MotionLimits struct {
	MaxSpeed             float64 // m/s
	CruiseSpeed          float64 // m/s
	Acceleration         float64 // m/s^2
	TurnRate             float64 // rad/s
	ClimbRate            float64 // m/s
	EvasionTriggerRange  float64 // meters
	EvasionStrength      float64 // [0,1]
}

// ExtendedAttributes are optional ground-truth attributes a hostile may
// carry, surfaced to EO classification and threat scoring.
type ExtendedAttributes struct {
	IsHostile           bool
	DroneType           string
	Armed               bool
	SizeClass           SizeClass
	RecommendedMethod   Method
}

// HostileVehicle is a red-force airborne vehicle under full simulation
// control (ground truth the kernel knows but sensors only partially
// observe).
type HostileVehicle struct {
	ID             DroneID
	Position       Position3D
	Velocity       Velocity3D
	Behavior       HostileBehavior
	Limits         MotionLimits
	TargetPoint    *Position3D
	IsEvading      bool
	IsNeutralized  bool
	SpawnTime      time.Duration
	Label          GroundTruthLabel
	Attributes     *ExtendedAttributes

	// evadeParity is a deterministic per-hostile tie-break for the evade
	// turn direction.
	evadeParity float64
}

// NewHostileVehicle constructs a hostile with sane defaults for its
// evasion parity, derived deterministically from its id so the same
// scenario always yields the same evade-turn sign.
func NewHostileVehicle(id DroneID, pos Position3D, vel Velocity3D, behavior HostileBehavior, limits MotionLimits, label GroundTruthLabel) *HostileVehicle {
	parity := 1.0
	if id[0]%2 == 1 {
		parity = -1.0
	}
	return &HostileVehicle{
		ID:          id,
		Position:    pos,
		Velocity:    vel,
		Behavior:    behavior,
		Limits:      limits,
		Label:       label,
		evadeParity: parity,
	}
}

// UpdateHostile advances one hostile by dt given the base position and the
// current interceptor roster. It is pure over its inputs modulo
// the RandSource draws used for EVADE jitter.
func UpdateHostile(h *HostileVehicle, dt float64, basePos Position3D, interceptors map[InterceptorID]*InterceptorVehicle, rnd *RandSource) {
	if h.IsNeutralized {
		return
	}

	pursuer, pursuerDist := nearestPursuer(h, interceptors)

	switch {
	case pursuer != nil && pursuerDist < h.Limits.EvasionTriggerRange && !h.IsEvading:
		h.Behavior = BehaviorEvade
		h.IsEvading = true
	case pursuer == nil && h.IsEvading:
		h.Behavior = BehaviorNormal
		h.IsEvading = false
	}

	switch h.Behavior {
	case BehaviorNormal:
		updateNormal(h, dt, basePos)
	case BehaviorRecon:
		updateRecon(h, dt)
	case BehaviorAttackRun:
		updateAttackRun(h, dt, basePos)
	case BehaviorEvade:
		updateEvade(h, dt, pursuer, rnd)
	default:
		updateNormal(h, dt, basePos)
	}

	h.Position = h.Position.Add(Position3D{h.Velocity.X * dt, h.Velocity.Y * dt, h.Velocity.ClimbRate * dt})
	if h.Position.Z < 10 {
		h.Position.Z = 10
	}
}

// nearestPursuer finds the geometrically closest interceptor actively
// PURSUING this hostile.
func nearestPursuer(h *HostileVehicle, interceptors map[InterceptorID]*InterceptorVehicle) (*InterceptorVehicle, float64) {
	var best *InterceptorVehicle
	bestDist := math.MaxFloat64
	for _, in := range interceptors {
		if in.State != StatePursuing || in.TargetID == nil || *in.TargetID != h.ID {
			continue
		}
		d := in.Position.Distance3D(h.Position)
		if d < bestDist {
			bestDist = d
			best = in
		}
	}
	return best, bestDist
}

// accelerateToward advances speed toward targetSpeed by at most accel*dt
// while snapping heading directly to (dirX, dirY) — the motion models
// described in  steer by unit-vector-to-target rather than by turn rate.
func accelerateToward(current Velocity3D, dirX, dirY float64, targetSpeed, accel, dt float64) Velocity3D {
	speed := current.Horizontal()
	delta := accel * dt
	if speed < targetSpeed {
		speed = math.Min(targetSpeed, speed+delta)
	} else {
		speed = math.Max(targetSpeed, speed-delta)
	}
	return Velocity3D{X: dirX * speed, Y: dirY * speed, ClimbRate: current.ClimbRate}
}

func unitToward(from, to Position3D) (float64, float64) {
	dx, dy := to.X-from.X, to.Y-from.Y
	d := math.Hypot(dx, dy)
	if d < 1e-6 {
		return 0, 0
	}
	return dx / d, dy / d
}

func decayClimbRate(cr float64, dt float64) float64 {
	rate := 2.0 // m/s^2 decay toward zero
	if cr > 0 {
		return math.Max(0, cr-rate*dt)
	}
	return math.Min(0, cr+rate*dt)
}

func updateNormal(h *HostileVehicle, dt float64, basePos Position3D) {
	dx, dy := unitToward(h.Position, basePos)
	h.Velocity = accelerateToward(h.Velocity, dx, dy, h.Limits.CruiseSpeed, h.Limits.Acceleration, dt)
	h.Velocity.ClimbRate = decayClimbRate(h.Velocity.ClimbRate, dt)
}

func updateRecon(h *HostileVehicle, dt float64) {
	const orbitRadius = 100.0
	target := basePointOr(h.TargetPoint, h.Position)
	dist := h.Position.Distance2D(target)

	if dist > orbitRadius+50 {
		dx, dy := unitToward(h.Position, target)
		h.Velocity = accelerateToward(h.Velocity, dx, dy, h.Limits.CruiseSpeed*0.7, h.Limits.Acceleration, dt)
		return
	}

	// Circle the target at orbitRadius with angular velocity v/r.
	speed := h.Limits.CruiseSpeed * 0.7
	if speed < 1 {
		speed = 1
	}
	angVel := speed / orbitRadius
	curAngle := math.Atan2(h.Position.Y-target.Y, h.Position.X-target.X)
	newAngle := curAngle + angVel*dt
	newPos := Position3D{
		X: target.X + orbitRadius*math.Cos(newAngle),
		Y: target.Y + orbitRadius*math.Sin(newAngle),
		Z: h.Position.Z,
	}
	vx := (newPos.X - h.Position.X) / dt
	vy := (newPos.Y - h.Position.Y) / dt
	h.Velocity.X, h.Velocity.Y = vx, vy
	// Adjust altitude proportionally toward the orbit target's altitude.
	if dist > 1 {
		h.Velocity.ClimbRate = (target.Z - h.Position.Z) * 0.1
	}
}

func basePointOr(p *Position3D, fallback Position3D) Position3D {
	if p != nil {
		return *p
	}
	return fallback
}

func updateAttackRun(h *HostileVehicle, dt float64, basePos Position3D) {
	dx, dy := unitToward(h.Position, basePos)
	h.Velocity = accelerateToward(h.Velocity, dx, dy, h.Limits.MaxSpeed, h.Limits.Acceleration, dt)

	const targetAlt = 50.0
	altErr := targetAlt - h.Position.Z
	cr := altErr * 0.2
	h.Velocity.ClimbRate = Clamp(cr, -10, 10)
}

func updateEvade(h *HostileVehicle, dt float64, pursuer *InterceptorVehicle, rnd *RandSource) {
	var awayX, awayY float64
	if pursuer != nil {
		awayX, awayY = unitToward(pursuer.Position, h.Position)
	} else {
		awayX, awayY = math.Cos(h.evadeParity), math.Sin(h.evadeParity)
	}

	angle := math.Atan2(awayY, awayX) + h.evadeParity*(math.Pi/4)
	dirX, dirY := math.Cos(angle), math.Sin(angle)

	targetSpeed := h.Limits.MaxSpeed * h.Limits.EvasionStrength
	h.Velocity = accelerateToward(h.Velocity, dirX, dirY, targetSpeed, 2*h.Limits.Acceleration, dt)

	if rnd != nil && rnd.Bool(0.5) {
		h.Velocity.ClimbRate = 5
	} else if rnd != nil {
		h.Velocity.ClimbRate = -5
	}
}

// Neutralize idempotently marks a hostile as destroyed; motion freezes.
// Neutralizing an already-neutralized hostile is a no-op.
func (h *HostileVehicle) Neutralize() {
	if h.IsNeutralized {
		return
	}
	h.IsNeutralized = true
	h.Velocity = Velocity3D{}
}
