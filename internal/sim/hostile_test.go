package sim

import (
	"testing"

	"github.com/google/uuid"
)

func testHostileLimits() MotionLimits {
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

func TestNewHostileVehicleEvadeParity(t *testing.T) {
	var evenID, oddID DroneID
	evenID[0] = 2
	oddID[0] = 3

	even := NewHostileVehicle(evenID, Position3D{}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	odd := NewHostileVehicle(oddID, Position3D{}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)

	if even.evadeParity != 1 {
		t.Errorf("even id evadeParity = %v, want 1", even.evadeParity)
	}
	if odd.evadeParity != -1 {
		t.Errorf("odd id evadeParity = %v, want -1", odd.evadeParity)
	}
}

func TestUpdateHostileNormalMovesTowardBase(t *testing.T) {
	h := NewHostileVehicle(uuid.New(), Position3D{X: 1000, Y: 0, Z: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	base := Position3D{}
	rnd := NewRandSource(1)

	startDist := h.Position.Distance2D(base)
	for i := 0; i < 50; i++ {
		UpdateHostile(h, 0.5, base, nil, rnd)
	}
	endDist := h.Position.Distance2D(base)

	if endDist >= startDist {
		t.Errorf("hostile did not close on base: start=%v end=%v", startDist, endDist)
	}
}

func TestUpdateHostileTriggersEvadeWhenPursued(t *testing.T) {
	hostileID := uuid.New()
	h := NewHostileVehicle(hostileID, Position3D{X: 0, Y: 0, Z: 50}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)

	interceptorID := uuid.New()
	target := hostileID
	pursuer := &InterceptorVehicle{
		ID:       interceptorID,
		Position: Position3D{X: 50, Y: 0, Z: 50},
		State:    StatePursuing,
		TargetID: &target,
	}
	interceptors := map[InterceptorID]*InterceptorVehicle{interceptorID: pursuer}
	rnd := NewRandSource(5)

	UpdateHostile(h, 0.1, Position3D{}, interceptors, rnd)

	if h.Behavior != BehaviorEvade || !h.IsEvading {
		t.Errorf("hostile did not enter evade: behavior=%v evading=%v", h.Behavior, h.IsEvading)
	}
}

func TestUpdateHostileNeutralizedIsNoop(t *testing.T) {
	h := NewHostileVehicle(uuid.New(), Position3D{X: 10, Y: 10, Z: 50}, Velocity3D{X: 5, Y: 5}, BehaviorNormal, testHostileLimits(), LabelHostile)
	h.Neutralize()
	before := h.Position

	UpdateHostile(h, 1, Position3D{}, nil, NewRandSource(1))

	if h.Position != before {
		t.Errorf("neutralized hostile moved: before=%+v after=%+v", before, h.Position)
	}
}

func TestHostileNeutralizeIdempotent(t *testing.T) {
	h := NewHostileVehicle(uuid.New(), Position3D{}, Velocity3D{X: 10}, BehaviorNormal, testHostileLimits(), LabelHostile)
	h.Neutralize()
	h.Neutralize()

	if !h.IsNeutralized {
		t.Fatal("hostile not marked neutralized")
	}
	if h.Velocity != (Velocity3D{}) {
		t.Errorf("neutralized hostile velocity = %+v, want zero", h.Velocity)
	}
}

func TestUpdateHostileAltitudeFloor(t *testing.T) {
	h := NewHostileVehicle(uuid.New(), Position3D{X: 0, Y: 0, Z: 1}, Velocity3D{ClimbRate: -20}, BehaviorAttackRun, testHostileLimits(), LabelHostile)
	UpdateHostile(h, 1, Position3D{X: 1000, Y: 1000}, nil, NewRandSource(1))

	if h.Position.Z < 10 {
		t.Errorf("hostile altitude = %v, want floor at 10", h.Position.Z)
	}
}
