package sim

import (
	"math"
	"time"
)

// ReconState tracks an interceptor's visual-confirmation loiter.
type ReconState struct {
	Start        time.Duration
	Duration     time.Duration
	EOConfirmed  bool
}

// InterceptorVehicle is a blue-force interceptor under the state machine
// described below.
type InterceptorVehicle struct {
	ID       InterceptorID
	Position Position3D
	Velocity Velocity3D
	State    InterceptorState
	Limits   MotionLimits

	TargetID   *DroneID
	LaunchTime time.Duration
	Method     Method
	Recon      ReconState

	JamDuration   time.Duration
	GunAttempts   int

	Guidance GuidanceState

	basePos Position3D
}

// NewInterceptorVehicle creates an idle interceptor at the given base
// position, defaulting to pure-pursuit guidance.
func NewInterceptorVehicle(id InterceptorID, basePos Position3D, limits MotionLimits) *InterceptorVehicle {
	return &InterceptorVehicle{
		ID:       id,
		Position: basePos,
		State:    StateIdle,
		Limits:   limits,
		basePos:  basePos,
		Guidance: GuidanceState{Mode: GuidancePurePursuit},
	}
}

// Launch transitions IDLE/STANDBY -> SCRAMBLE.
func (in *InterceptorVehicle) Launch(target DroneID, method Method, now time.Duration) {
	if in.State != StateIdle {
		return
	}
	t := target
	in.TargetID = &t
	in.Method = method
	in.LaunchTime = now
	in.Recon = ReconState{}
	in.JamDuration = 0
	in.GunAttempts = 0
	in.State = StateScramble
}

// Metadata returns a display-friendly snapshot, mirroring the teacher's
// CounterUASSystem/UASThreat GetMetadata pattern.
func (in *InterceptorVehicle) Metadata() map[string]any {
	m := map[string]any{
		"id":           in.ID.String(),
		"state":        string(in.State),
		"method":       string(in.Method),
		"gun_attempts": in.GunAttempts,
		"jam_duration": in.JamDuration.Seconds(),
	}
	if in.TargetID != nil {
		m["target_id"] = in.TargetID.String()
	}
	return m
}

// InterceptOutcome is emitted when an interceptor completes or aborts an
// engagement attempt during a tick.
type InterceptOutcome struct {
	InterceptorID InterceptorID
	TargetID      DroneID
	Result        InterceptResult
	Reason        FailureReason
	Method        Method
}

// UpdateInterceptor advances one interceptor by dt. hostiles provides
// lookup for the current target (nil/missing means target lost).
func UpdateInterceptor(in *InterceptorVehicle, dt float64, now time.Duration, hostiles map[DroneID]*HostileVehicle, rnd *RandSource) *InterceptOutcome {
	in.State = NormalizeInterceptorState(in.State)

	switch in.State {
	case StateIdle, StateNeutralized:
		return nil
	case StateScramble:
		return updateScramble(in, dt, now)
	case StatePursuing:
		return updatePursuing(in, dt, now, hostiles)
	case StateRecon:
		return updateReconState(in, dt, now, hostiles)
	case StateInterceptRam:
		return updateInterceptRam(in, dt, hostiles, rnd)
	case StateInterceptGun:
		return updateInterceptGun(in, dt, hostiles, rnd)
	case StateInterceptNet:
		return updateInterceptNet(in, dt, hostiles, rnd)
	case StateInterceptJam:
		return updateInterceptJam(in, dt, hostiles, rnd)
	case StateReturning:
		return updateReturning(in, dt)
	}
	return nil
}

func targetOf(in *InterceptorVehicle, hostiles map[DroneID]*HostileVehicle) *HostileVehicle {
	if in.TargetID == nil {
		return nil
	}
	h, ok := hostiles[*in.TargetID]
	if !ok || h.IsNeutralized {
		return nil
	}
	return h
}

func abortToReturning(in *InterceptorVehicle, reason FailureReason) *InterceptOutcome {
	target := DroneID{}
	if in.TargetID != nil {
		target = *in.TargetID
	}
	out := &InterceptOutcome{InterceptorID: in.ID, TargetID: target, Result: ResultAborted, Reason: reason, Method: in.Method}
	in.State = StateReturning
	in.TargetID = nil
	return out
}

func updateScramble(in *InterceptorVehicle, dt float64, now time.Duration) *InterceptOutcome {
	in.Velocity = Velocity3D{ClimbRate: in.Limits.ClimbRate}
	in.Position.Z += in.Velocity.ClimbRate * dt
	if now-in.LaunchTime >= 2*time.Second {
		in.State = StatePursuing
	}
	return nil
}

func updatePursuing(in *InterceptorVehicle, dt float64, now time.Duration, hostiles map[DroneID]*HostileVehicle) *InterceptOutcome {
	target := targetOf(in, hostiles)
	if target == nil {
		return abortToReturning(in, FailureTargetLost)
	}

	steer(in, target, dt, in.Limits.MaxSpeed)
	dist := in.Position.Distance3D(target.Position)

	if in.Method == MethodNone {
		if dist < 150 && !in.Recon.EOConfirmed {
			in.State = StateRecon
			in.Recon.Start = now
		}
		return nil
	}

	spec := MethodTable[in.Method]
	if dist <= spec.MaxDistance {
		in.State = interceptStateForMethod(in.Method)
	}
	return nil
}

func updateReconState(in *InterceptorVehicle, dt float64, now time.Duration, hostiles map[DroneID]*HostileVehicle) *InterceptOutcome {
	target := targetOf(in, hostiles)
	if target == nil {
		return abortToReturning(in, FailureTargetLost)
	}

	const orbitRadius = 120.0
	orbitAround(in, target.Position, orbitRadius, dt)

	if in.Recon.Duration == 0 {
		in.Recon.Duration = now - in.Recon.Start
	} else {
		in.Recon.Duration += time.Duration(dt * float64(time.Second))
	}

	if in.Recon.Duration >= 3*time.Second {
		in.Recon.EOConfirmed = true
		if in.Method == MethodNone {
			in.State = StateReturning
			in.TargetID = nil
		} else {
			in.State = StatePursuing
		}
	}
	return nil
}

func orbitAround(in *InterceptorVehicle, center Position3D, radius, dt float64) {
	speed := in.Limits.CruiseSpeed
	if speed < 1 {
		speed = 1
	}
	dist := in.Position.Distance2D(center)
	if dist > radius+20 {
		dx, dy := unitToward(in.Position, center)
		in.Velocity = accelerateToward(in.Velocity, dx, dy, speed, in.Limits.Acceleration, dt)
		return
	}
	angVel := speed / radius
	curAngle := math.Atan2(in.Position.Y-center.Y, in.Position.X-center.X)
	newAngle := curAngle + angVel*dt
	newPos := Position3D{X: center.X + radius*math.Cos(newAngle), Y: center.Y + radius*math.Sin(newAngle), Z: in.Position.Z}
	in.Velocity.X = (newPos.X - in.Position.X) / dt
	in.Velocity.Y = (newPos.Y - in.Position.Y) / dt
}

func updateInterceptRam(in *InterceptorVehicle, dt float64, hostiles map[DroneID]*HostileVehicle, rnd *RandSource) *InterceptOutcome {
	target := targetOf(in, hostiles)
	if target == nil {
		return abortToReturning(in, FailureTargetLost)
	}
	steer(in, target, dt, 1.2*in.Limits.MaxSpeed)
	spec := MethodTable[MethodRAM]
	if in.Position.Distance3D(target.Position) <= spec.MaxDistance {
		return resolveAttempt(in, target, spec, rnd, FailureCollisionAvoided)
	}
	return nil
}

func updateInterceptGun(in *InterceptorVehicle, dt float64, hostiles map[DroneID]*HostileVehicle, rnd *RandSource) *InterceptOutcome {
	target := targetOf(in, hostiles)
	if target == nil {
		return abortToReturning(in, FailureTargetLost)
	}
	spec := MethodTable[MethodGun]
	dist := in.Position.Distance3D(target.Position)
	holdStation(in, target, dist, spec, dt)

	if dist >= spec.MinDistance && dist <= spec.MaxDistance {
		in.GunAttempts++
		prob := spec.BaseSuccessRate * dt * 2
		if target.IsEvading {
			prob *= 1 - spec.EvadePenalty
		}
		if rnd.Bool(prob) {
			return finishIntercept(in, target, ResultSuccess, "")
		}
		if in.GunAttempts >= spec.GunAttemptsCap {
			return finishIntercept(in, target, ResultMiss, FailureGunMissed)
		}
	}
	return nil
}

func updateInterceptNet(in *InterceptorVehicle, dt float64, hostiles map[DroneID]*HostileVehicle, rnd *RandSource) *InterceptOutcome {
	target := targetOf(in, hostiles)
	if target == nil {
		return abortToReturning(in, FailureTargetLost)
	}
	steer(in, target, dt, 0.8*in.Limits.MaxSpeed)
	spec := MethodTable[MethodNet]
	if in.Position.Distance3D(target.Position) <= spec.MaxDistance {
		return resolveAttempt(in, target, spec, rnd, FailureNetMissed)
	}
	return nil
}

func updateInterceptJam(in *InterceptorVehicle, dt float64, hostiles map[DroneID]*HostileVehicle, rnd *RandSource) *InterceptOutcome {
	target := targetOf(in, hostiles)
	if target == nil {
		return abortToReturning(in, FailureTargetLost)
	}
	spec := MethodTable[MethodJam]
	dist := in.Position.Distance3D(target.Position)
	holdStation(in, target, dist, spec, dt)

	if dist >= spec.MinDistance && dist <= spec.MaxDistance {
		in.JamDuration += time.Duration(dt * float64(time.Second))
	}

	if in.JamDuration >= spec.JamDurationReq {
		return resolveAttempt(in, target, spec, rnd, FailureJamFailed)
	}
	return nil
}

// resolveAttempt draws success for a method whose only gate is "reached
// the decision point" (RAM/NET/JAM), applying the evade penalty.
func resolveAttempt(in *InterceptorVehicle, target *HostileVehicle, spec MethodSpec, rnd *RandSource, missReason FailureReason) *InterceptOutcome {
	prob := spec.BaseSuccessRate
	if target.IsEvading {
		prob *= 1 - spec.EvadePenalty
	}
	if rnd.Bool(prob) {
		return finishIntercept(in, target, ResultSuccess, "")
	}
	return finishIntercept(in, target, ResultMiss, missReason)
}

func finishIntercept(in *InterceptorVehicle, target *HostileVehicle, result InterceptResult, reason FailureReason) *InterceptOutcome {
	out := &InterceptOutcome{InterceptorID: in.ID, TargetID: target.ID, Result: result, Reason: reason, Method: in.Method}
	if result == ResultSuccess {
		target.Neutralize()
	}
	in.State = StateReturning
	in.TargetID = nil
	return out
}

func updateReturning(in *InterceptorVehicle, dt float64) *InterceptOutcome {
	dx, dy := unitToward(in.Position, in.basePos)
	in.Velocity = accelerateToward(in.Velocity, dx, dy, 0.7*in.Limits.MaxSpeed, in.Limits.Acceleration, dt)
	in.Position = in.Position.Add(Position3D{in.Velocity.X * dt, in.Velocity.Y * dt, in.Velocity.ClimbRate * dt})

	if in.Position.Distance3D(in.basePos) < 20 {
		in.Position = in.basePos
		in.Velocity = Velocity3D{}
		in.State = StateIdle
		in.Method = MethodNone
		in.GunAttempts = 0
		in.JamDuration = 0
		in.Recon = ReconState{}
	}
	return nil
}

// steer computes a guidance-driven velocity toward target and applies it,
// then integrates position by dt. Guidance mode != PURE_PURSUIT replaces
// the straight-line velocity choice with the selected law's output.
func steer(in *InterceptorVehicle, target *HostileVehicle, dt, maxSpeed float64) {
	out := Guide(GuidanceInput{
		InterceptorPos:  in.Position,
		InterceptorVel:  in.Velocity,
		TargetPos:       target.Position,
		TargetVel:       target.Velocity,
		Dt:              dt,
		MaxSpeed:        maxSpeed,
		Acceleration:    in.Limits.Acceleration,
		MaxTurnRate:     in.Limits.TurnRate,
		MinClosingSpeed: 5,
		NavConstantMin:  2,
		NavConstantBase: 3,
		NavConstantMax:  6,
	}, &in.Guidance)
	in.Velocity = out.Velocity
	in.Position = in.Position.Add(Position3D{in.Velocity.X * dt, in.Velocity.Y * dt, in.Velocity.ClimbRate * dt})
}

// holdStation keeps the interceptor loitering within [spec.MinDistance,
// spec.MaxDistance] of target (GUN/JAM approach phases).
func holdStation(in *InterceptorVehicle, target *HostileVehicle, dist float64, spec MethodSpec, dt float64) {
	mid := (spec.MinDistance + spec.MaxDistance) / 2
	switch {
	case dist > spec.MaxDistance:
		steer(in, target, dt, 0.9*in.Limits.MaxSpeed)
	case dist < spec.MinDistance:
		dx, dy := unitToward(target.Position, in.Position)
		in.Velocity = accelerateToward(in.Velocity, dx, dy, 0.5*in.Limits.MaxSpeed, in.Limits.Acceleration, dt)
		in.Position = in.Position.Add(Position3D{in.Velocity.X * dt, in.Velocity.Y * dt, 0})
	default:
		// Loiter: gentle orbit around the midpoint radius.
		orbitAround(in, target.Position, mid, dt)
		in.Position = in.Position.Add(Position3D{in.Velocity.X * dt, in.Velocity.Y * dt, 0})
	}
}
