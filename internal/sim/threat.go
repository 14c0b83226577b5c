package sim

import "math"

// ThreatConfig holds the tunables for the static weighted-sum scorer and
// the optional dynamic (rate-of-change-augmented) scoring pass. The point
// values for existence/classification/distance/behavior/armed/EO/speed are
// fixed per the threat-scoring table; only the speed/motion-classification
// breakpoints (not pinned down by that table) and the dynamic-scoring
// weights are left configurable.
type ThreatConfig struct {
	// ApproachSpeedMid/High gate the speed bonus applied to an APPROACHING
	// track; ApproachClosingRatio/HoverSpeed classify a track's velocity
	// into APPROACHING/CIRCLING/HOVERING/DEPARTING/UNKNOWN.
	ApproachSpeedMid      float64
	ApproachSpeedHigh     float64
	ApproachClosingRatio  float64
	HoverSpeed            float64

	DynamicEnabled      bool
	ETAWeight           float64
	DerivativeWeight    float64
	TrajectoryWeight    float64
	PersistenceWeight   float64
	PersistenceMaxBonus float64
	DerivativeWindow    int // number of recent scores kept for the derivative term
}

// DefaultThreatConfig returns the static-scoring breakpoints plus disabled
// dynamic scoring (most callers opt in explicitly).
func DefaultThreatConfig() ThreatConfig {
	return ThreatConfig{
		ApproachSpeedMid:     15,
		ApproachSpeedHigh:    25,
		ApproachClosingRatio: 0.6,
		HoverSpeed:           3,

		DynamicEnabled:      false,
		ETAWeight:           1,
		DerivativeWeight:    1,
		TrajectoryWeight:    1,
		PersistenceWeight:   1,
		PersistenceMaxBonus: 10,
		DerivativeWindow:    3,
	}
}

// trackBehavior is the threat-scoring motion category, distinct from the
// hostile's own NORMAL/RECON/ATTACK_RUN/EVADE behavior state machine: this
// one is derived purely from velocity direction relative to the base.
type trackBehavior string

const (
	behaviorApproaching trackBehavior = "APPROACHING"
	behaviorCircling    trackBehavior = "CIRCLING"
	behaviorHovering    trackBehavior = "HOVERING"
	behaviorDeparting   trackBehavior = "DEPARTING"
	behaviorUnknown     trackBehavior = "UNKNOWN"
)

// classifyBehavior derives APPROACHING/CIRCLING/HOVERING/DEPARTING/UNKNOWN
// from a track's velocity relative to the base.
func classifyBehavior(t *FusedTrack, basePos Position3D, cfg ThreatConfig) trackBehavior {
	speed := math.Hypot(t.Velocity.X, t.Velocity.Y)
	if speed < cfg.HoverSpeed {
		return behaviorHovering
	}

	toBase := basePos.Sub(t.Position)
	rng := math.Hypot(toBase.X, toBase.Y)
	if rng < 1e-6 {
		return behaviorApproaching
	}
	closing := (t.Velocity.X*toBase.X + t.Velocity.Y*toBase.Y) / rng

	switch {
	case closing > 0 && closing >= cfg.ApproachClosingRatio*speed:
		return behaviorApproaching
	case closing < 0 && -closing >= cfg.ApproachClosingRatio*speed:
		return behaviorDeparting
	case speed-math.Abs(closing) >= cfg.ApproachClosingRatio*speed:
		return behaviorCircling
	default:
		return behaviorUnknown
	}
}

// behaviorPoints is the additive threat-score contribution for a motion
// category.
func behaviorPoints(b trackBehavior) float64 {
	switch b {
	case behaviorApproaching:
		return 25
	case behaviorCircling:
		return 15
	case behaviorHovering:
		return 12
	case behaviorDeparting:
		return -5
	default:
		return 8
	}
}

// existencePoints scores the existence-probability component.
func existencePoints(p float64) float64 {
	switch {
	case p > 0.9:
		return 35
	case p > 0.7:
		return 25
	case p > 0.5:
		return 12
	default:
		return 5
	}
}

// classificationPoints scores classification x confidence.
func classificationPoints(c ClassificationInfo) float64 {
	switch c.Classification {
	case LabelHostile:
		return 50 * c.Confidence
	case LabelUnknown:
		return 8
	case LabelCivil:
		return -40 * c.Confidence
	case LabelFriendly:
		return -60 * c.Confidence
	default:
		return 8
	}
}

// distancePoints scores proximity to the base.
func distancePoints(rng float64) float64 {
	switch {
	case rng < 80:
		return 25
	case rng < 150:
		return 18
	case rng < 250:
		return 10
	case rng < 400:
		return 5
	default:
		return 0
	}
}

// armedPoints scores the armed attribute, with a reduced bonus when armed
// status is unknown but the track is classified HOSTILE.
func armedPoints(c ClassificationInfo) float64 {
	if c.Armed == nil {
		if c.Classification == LabelHostile {
			return 10
		}
		return 0
	}
	if *c.Armed {
		return 20
	}
	return -5
}

// eoPoints scores the EO-sensor corroboration bonus/penalty.
func eoPoints(t *FusedTrack) float64 {
	switch {
	case t.Sensors.EO && t.Class.Classification == LabelHostile:
		return 10 * t.Class.Confidence
	case t.Sensors.EO && t.Class.Classification == LabelCivil:
		return -15 * t.Class.Confidence
	case !t.Sensors.EO && t.Class.Classification == LabelUnknown:
		return 5
	default:
		return 0
	}
}

// speedPoints rewards a fast APPROACHING track.
func speedPoints(speed float64, behavior trackBehavior, cfg ThreatConfig) float64 {
	if behavior != behaviorApproaching {
		return 0
	}
	switch {
	case speed > cfg.ApproachSpeedHigh:
		return 8
	case speed > cfg.ApproachSpeedMid:
		return 5
	default:
		return 0
	}
}

// evadingPoints scores the hostile's active-evasion flag.
func evadingPoints(t *FusedTrack) float64 {
	if t.IsEvading {
		return 5
	}
	return 0
}

// StaticThreatScore computes the additive weighted-sum threat score (0-100,
// rounded) and its derived level for a track, given the defender's base
// position for the distance/behavior terms.
func StaticThreatScore(t *FusedTrack, cfg ThreatConfig, basePos Position3D) (float64, ThreatLevel) {
	rng := basePos.Distance2D(t.Position)
	speed := math.Hypot(t.Velocity.X, t.Velocity.Y)
	behavior := classifyBehavior(t, basePos, cfg)

	score := existencePoints(t.ExistenceProb) +
		classificationPoints(t.Class) +
		distancePoints(rng) +
		behaviorPoints(behavior) +
		armedPoints(t.Class) +
		eoPoints(t) +
		speedPoints(speed, behavior, cfg) +
		evadingPoints(t)

	score = math.Round(Clamp(score, 0, 100))
	return score, LevelForScore(score)
}

// DynamicThreatScore layers ETA, score-derivative, trajectory-prediction,
// and track-persistence terms on top of the static score. It mutates
// t.threatHistory to track the rolling window used by the derivative term.
func DynamicThreatScore(t *FusedTrack, cfg ThreatConfig, basePos Position3D, now, createdAt float64) (float64, ThreatLevel) {
	base, _ := StaticThreatScore(t, cfg, basePos)
	if !cfg.DynamicEnabled {
		return base, LevelForScore(base)
	}

	t.threatHistory = append(t.threatHistory, base)
	if len(t.threatHistory) > cfg.DerivativeWindow {
		t.threatHistory = t.threatHistory[len(t.threatHistory)-cfg.DerivativeWindow:]
	}

	etaTerm := etaComponent(t, basePos) * 30               // ETA binned to 0-30 points
	derivTerm := Clamp(derivativeComponent(t.threatHistory)*10, -10, 10) // clamped to +-10
	trajTerm := trajectoryComponent(t, basePos)*20 - 5       // +15 to -5
	persistTerm := persistenceComponent(now-createdAt, cfg.PersistenceMaxBonus)

	score := math.Round(Clamp(base+etaTerm+derivTerm+trajTerm+persistTerm, 0, 100))
	return score, LevelForScore(score)
}

// etaComponent rewards tracks closing quickly on the base: 1 at <=30s ETA,
// decaying linearly to 0 at >=300s (or receding).
func etaComponent(t *FusedTrack, basePos Position3D) float64 {
	toBase := basePos.Sub(t.Position)
	rng := math.Hypot(toBase.X, toBase.Y)
	if rng < 1e-6 {
		return 1
	}
	closing := (t.Velocity.X*toBase.X + t.Velocity.Y*toBase.Y) / rng
	if closing <= 0 {
		return 0
	}
	eta := rng / closing
	return Clamp(1-(eta-30)/270, 0, 1)
}

// derivativeComponent rewards a rising score trend across the rolling
// window, normalized against a 20-point swing; falling trends clamp to 0.
func derivativeComponent(history []float64) float64 {
	if len(history) < 2 {
		return 0
	}
	delta := history[len(history)-1] - history[0]
	return Clamp(delta/20, 0, 1)
}

// trajectoryComponent projects the track's position 5s ahead and rewards
// trajectories that close on the base.
func trajectoryComponent(t *FusedTrack, basePos Position3D) float64 {
	const horizon = 5.0
	projected := Position3D{
		X: t.Position.X + t.Velocity.X*horizon,
		Y: t.Position.Y + t.Velocity.Y*horizon,
	}
	curRange := basePos.Distance2D(t.Position)
	projRange := basePos.Distance2D(projected)
	if curRange < 1e-6 {
		return 1
	}
	return Clamp((curRange-projRange)/curRange, 0, 1)
}

// persistenceComponent grants a small bonus once a track has been visible
// beyond a threshold, saturating at maxBonus by 120s of track age.
func persistenceComponent(age float64, maxBonus float64) float64 {
	const visibleThreshold = 10.0
	if age < visibleThreshold {
		return 0
	}
	return Clamp((age-visibleThreshold)/110, 0, 1) * maxBonus
}
