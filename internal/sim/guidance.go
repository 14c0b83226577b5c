package sim

import "math"

// GuidanceMode selects the guidance law an interceptor uses.
type GuidanceMode string

const (
	GuidancePurePursuit GuidanceMode = "PURE_PURSUIT"
	GuidancePN          GuidanceMode = "PN"
	GuidanceAPN         GuidanceMode = "APN"
)

// GuidanceState is the per-interceptor guidance memory. Shared fields
// (LOS history, closing speed, range) are always populated; APN-only
// fields are only meaningful when Mode == GuidanceAPN.
type GuidanceState struct {
	Mode GuidanceMode

	HasPrevLOS  bool
	PrevLOS     float64 // radians, horizontal line-of-sight angle
	PrevLOSVert float64 // radians, vertical line-of-sight angle
	LastLOSRate float64 // rad/s
	LastClosingSpeed float64
	LastCommandedAccel float64
	LastRange   float64

	// APN-only.
	AdaptiveN           float64
	LastTargetAccel     Velocity3D
	LastTargetVelocity  Velocity3D
	hasLastTargetVel    bool
}

// GuidanceInput bundles the common parameters every guidance law consumes.
type GuidanceInput struct {
	InterceptorPos Position3D
	InterceptorVel Velocity3D
	TargetPos      Position3D
	TargetVel      Velocity3D
	Dt             float64
	MaxSpeed       float64
	Acceleration   float64
	MaxTurnRate    float64 // rad/s
	MinClosingSpeed float64
	NavConstantMin  float64
	NavConstantBase float64
	NavConstantMax  float64
}

// GuidanceOutput is the common output shape every guidance law produces.
type GuidanceOutput struct {
	Velocity Velocity3D
}

// Guide dispatches to the configured guidance law and advances state.
func Guide(in GuidanceInput, st *GuidanceState) GuidanceOutput {
	switch st.Mode {
	case GuidancePN:
		return guidePN(in, st, false)
	case GuidanceAPN:
		return guidePN(in, st, true)
	default:
		return guidePurePursuit(in, st)
	}
}

const defaultLeadTime = 1.5

func guidePurePursuit(in GuidanceInput, st *GuidanceState) GuidanceOutput {
	lead := Position3D{
		X: in.TargetPos.X + in.TargetVel.X*defaultLeadTime,
		Y: in.TargetPos.Y + in.TargetVel.Y*defaultLeadTime,
		Z: in.TargetPos.Z + in.TargetVel.ClimbRate*defaultLeadTime,
	}
	dx, dy := unitToward(in.InterceptorPos, lead)
	vel := accelerateToward(in.InterceptorVel, dx, dy, in.MaxSpeed, in.Acceleration, in.Dt)

	altErr := lead.Z - in.InterceptorPos.Z
	vel.ClimbRate = Clamp(altErr*0.5, -15, 15)

	rng := in.InterceptorPos.Distance3D(in.TargetPos)
	st.LastRange = rng
	return GuidanceOutput{Velocity: vel}
}

// guidePN implements both PN and, when augmented is true, APN.
func guidePN(in GuidanceInput, st *GuidanceState, augmented bool) GuidanceOutput {
	dx := in.TargetPos.X - in.InterceptorPos.X
	dy := in.TargetPos.Y - in.InterceptorPos.Y
	dz := in.TargetPos.Z - in.InterceptorPos.Z
	rng := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if rng < 1e-6 {
		rng = 1e-6
	}

	lam := math.Atan2(dy, dx)
	horizRange := math.Hypot(dx, dy)
	lamVert := math.Atan2(dz, horizRange)

	var losRate float64
	if st.HasPrevLOS && in.Dt > 0 {
		losRate = NormalizeRadians(lam-st.PrevLOS) / in.Dt
		maxRate := in.MaxTurnRate / 2
		losRate = Clamp(losRate, -maxRate, maxRate)
	}

	relVelX := in.TargetVel.X - in.InterceptorVel.X
	relVelY := in.TargetVel.Y - in.InterceptorVel.Y
	relVelZ := in.TargetVel.ClimbRate - in.InterceptorVel.ClimbRate
	rx, ry, rz := dx/rng, dy/rng, dz/rng
	closingSpeed := -(relVelX*rx + relVelY*ry + relVelZ*rz)

	minClosing := math.Max(in.MinClosingSpeed*math.Min(2, rng/100), 0.5*in.MaxSpeed)
	closingSpeed = math.Max(minClosing, closingSpeed)

	navConstant := in.NavConstantBase
	if augmented {
		navConstant = adaptiveNavConstant(in, st, rng, closingSpeed)
	}

	accel := navConstant * closingSpeed * losRate

	if augmented {
		accel += augmentedAccelTerm(in, st, losRate, navConstant)
	}

	curSpeed := math.Max(10, in.InterceptorVel.Horizontal())
	turnRate := Clamp(accel/curSpeed, -in.MaxTurnRate, in.MaxTurnRate)

	curHeading := math.Atan2(in.InterceptorVel.Y, in.InterceptorVel.X)
	newHeading := curHeading + turnRate*in.Dt

	newHorizSpeed := in.InterceptorVel.Horizontal()
	if newHorizSpeed < in.MaxSpeed {
		newHorizSpeed = math.Min(in.MaxSpeed, newHorizSpeed+in.Acceleration*in.Dt)
	} else {
		newHorizSpeed = math.Max(in.MaxSpeed, newHorizSpeed-in.Acceleration*in.Dt)
	}

	vel := Velocity3D{
		X: math.Cos(newHeading) * newHorizSpeed,
		Y: math.Sin(newHeading) * newHorizSpeed,
	}

	altDiff := dz
	base := sign(altDiff) * math.Min(10, math.Abs(altDiff)*0.5)
	vertCorrection := navConstant * closingSpeed * (lamVert - st.PrevLOSVert) * boolToFloat(st.HasPrevLOS)
	vel.ClimbRate = Clamp(base+vertCorrection, -15, 15)

	st.HasPrevLOS = true
	st.PrevLOS = lam
	st.PrevLOSVert = lamVert
	st.LastLOSRate = losRate
	st.LastClosingSpeed = closingSpeed
	st.LastCommandedAccel = accel
	st.LastRange = rng

	return GuidanceOutput{Velocity: vel}
}

func adaptiveNavConstant(in GuidanceInput, st *GuidanceState, rng, closingSpeed float64) float64 {
	n := in.NavConstantBase

	switch {
	case rng < 50:
		n += 1.0
	case rng < 100:
		n += 0.5
	case rng < 150:
		n += 0.2
	}

	targetAccelMag := estimateTargetAccelMag(in, st)
	switch {
	case targetAccelMag > 5:
		n += 0.5
	case targetAccelMag > 2:
		n += 0.3
	}

	switch {
	case closingSpeed > 40:
		n -= 0.3
	case closingSpeed > 30:
		n -= 0.1
	}

	return Clamp(n, in.NavConstantMin, in.NavConstantMax)
}

// estimateTargetAccelMag estimates |target acceleration| from a first
// difference of target velocity with exponential smoothing (alpha=0.3),
// capped at 15 m/s^2, and records it in st.LastTargetAccel.
func estimateTargetAccelMag(in GuidanceInput, st *GuidanceState) float64 {
	const alpha = 0.3
	if !st.hasLastTargetVel || in.Dt <= 0 {
		st.LastTargetVelocity = in.TargetVel
		st.hasLastTargetVel = true
		return 0
	}

	instAccel := Velocity3D{
		X:         (in.TargetVel.X - st.LastTargetVelocity.X) / in.Dt,
		Y:         (in.TargetVel.Y - st.LastTargetVelocity.Y) / in.Dt,
		ClimbRate: (in.TargetVel.ClimbRate - st.LastTargetVelocity.ClimbRate) / in.Dt,
	}
	st.LastTargetAccel = Velocity3D{
		X:         alpha*instAccel.X + (1-alpha)*st.LastTargetAccel.X,
		Y:         alpha*instAccel.Y + (1-alpha)*st.LastTargetAccel.Y,
		ClimbRate: alpha*instAccel.ClimbRate + (1-alpha)*st.LastTargetAccel.ClimbRate,
	}
	st.LastTargetVelocity = in.TargetVel

	mag := math.Sqrt(st.LastTargetAccel.X*st.LastTargetAccel.X + st.LastTargetAccel.Y*st.LastTargetAccel.Y + st.LastTargetAccel.ClimbRate*st.LastTargetAccel.ClimbRate)
	return math.Min(mag, 15)
}

// augmentedAccelTerm adds the APN-specific normal-acceleration term:
// ((N-1)/2) * targetAccelWeight * |a_target_normal| * sign(losRate).
func augmentedAccelTerm(in GuidanceInput, st *GuidanceState, losRate, navConstant float64) float64 {
	const targetAccelWeight = 1.0
	accelMag := math.Sqrt(st.LastTargetAccel.X*st.LastTargetAccel.X + st.LastTargetAccel.Y*st.LastTargetAccel.Y)
	return ((navConstant - 1) / 2) * targetAccelWeight * accelMag * sign(losRate)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
