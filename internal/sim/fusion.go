package sim

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var trackNumberCounter uint32

// generateTrackNumber creates a military-style track display id, e.g.
// "TK-0001" (supplemented feature, grounded on the teacher's
// generateTrackNumber in simulation.go).
func generateTrackNumber() string {
	n := atomic.AddUint32(&trackNumberCounter, 1)
	return "TK-" + padTrackNumber(n)
}

func padTrackNumber(n uint32) string {
	s := itoa(int(n))
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// ClassificationInfo is the fused classification estimate for a track.
type ClassificationInfo struct {
	Classification GroundTruthLabel
	Confidence     float64
	Source         SensorKind
	Armed          *bool
	SizeClass      *SizeClass
	DroneType      *string
}

// SensorSeen tracks per-sensor detection state on a track.
type SensorSeen struct {
	Radar, Acoustic, EO         bool
	RadarTime, AcousticTime, EOTime time.Duration
}

func (s SensorSeen) count() int {
	n := 0
	if s.Radar {
		n++
	}
	if s.Acoustic {
		n++
	}
	if s.EO {
		n++
	}
	return n
}

// FusedTrack is a consolidated multi-sensor track.
type FusedTrack struct {
	ID           TrackID
	TrackNumber  string
	HostileID    *DroneID
	Position     Position3D
	PrevPosition Position3D
	Velocity     Velocity3D

	ExistenceProb float64
	CreatedAt     time.Duration
	LastUpdate    time.Duration

	Sensors SensorSeen
	Class   ClassificationInfo

	ThreatScore float64
	ThreatLevel ThreatLevel

	History        []Position3D
	Quality        float64
	MissedUpdates  int
	IsEvading      bool
	IsNeutralized  bool

	// Optional EKF extension.
	EKF *ekfEstimator

	threatHistory []float64 // ring of recent static scores, for dynamic scoring derivative
}

// Metadata returns a display-friendly snapshot, mirroring the teacher's
// CounterUASSystem/UASThreat GetMetadata pattern.
func (t *FusedTrack) Metadata() map[string]any {
	m := map[string]any{
		"track_number":    t.TrackNumber,
		"classification":  string(t.Class.Classification),
		"class_confidence": t.Class.Confidence,
		"existence_prob":  t.ExistenceProb,
		"threat_score":    t.ThreatScore,
		"threat_level":    string(t.ThreatLevel),
		"quality":         t.Quality,
		"missed_updates":  t.MissedUpdates,
		"sensors_seen":    t.Sensors.count(),
	}
	if t.HostileID != nil {
		m["hostile_id"] = t.HostileID.String()
	}
	return m
}

// DropReason is why a track was dropped from the fusion engine.
type DropReason string

const (
	DropLowExistence DropReason = "low_existence"
	DropTimeout      DropReason = "timeout"
	DropNeutralized  DropReason = "neutralized"
)

// DropEvent records a dropped track for the outbound event surface.
type DropEvent struct {
	TrackID       TrackID
	Reason        DropReason
	Lifetime      time.Duration
	FinalExistence float64
}

// FusionEngine implements : ingest, decay, and the mutators used by the
// kernel to keep neutralization/evasion in sync.
type FusionEngine struct {
	cfg           FusionConfig
	tracks        map[TrackID]*FusedTrack
	byHostile     map[DroneID]TrackID
	useEKF        bool
	threatCfg     ThreatConfig
}

// NewFusionEngine constructs a fusion engine. useEKF selects the EKF
// estimator variant in place of the default weighted-mean filter; both
// implement the same observable ingest/decay contract.
func NewFusionEngine(cfg FusionConfig, useEKF bool) *FusionEngine {
	return &FusionEngine{
		cfg:       cfg,
		tracks:    make(map[TrackID]*FusedTrack),
		byHostile: make(map[DroneID]TrackID),
		useEKF:    useEKF,
		threatCfg: DefaultThreatConfig(),
	}
}

// Tracks returns all current tracks.
func (f *FusionEngine) Tracks() map[TrackID]*FusedTrack {
	return f.tracks
}

// TrackByHostile returns the track mapped to a hostile id, if any.
func (f *FusionEngine) TrackByHostile(id DroneID) (*FusedTrack, bool) {
	tid, ok := f.byHostile[id]
	if !ok {
		return nil, false
	}
	t, ok := f.tracks[tid]
	return t, ok
}

// Reset clears all tracks.
func (f *FusionEngine) Reset() {
	f.tracks = make(map[TrackID]*FusedTrack)
	f.byHostile = make(map[DroneID]TrackID)
}

// Ingest matches obs to an existing track or creates a new one, then
// updates existence/position/classification. Idempotent per
// (track id, observation time) is the caller's responsibility to uphold by
// not re-delivering the same reading twice; ingest itself always applies
// the observation it is given.
func (f *FusionEngine) Ingest(obs SensorObservation, now time.Duration) (*FusedTrack, bool) {
	if obs.Metadata.IsFalseAlarm {
		// False alarms still create a track: they carry a
		// fresh non-matching id, so they never match an existing one.
	}

	track, created := f.match(obs)
	f.applyObservation(track, obs, now)
	return track, created
}

func (f *FusionEngine) match(obs SensorObservation) (*FusedTrack, bool) {
	if obs.HostileID != nil {
		if tid, ok := f.byHostile[*obs.HostileID]; ok {
			return f.tracks[tid], false
		}
	}

	var best *FusedTrack
	bestDist := math.MaxFloat64
	for _, t := range f.tracks {
		if obs.HostileID != nil && t.HostileID != nil && *t.HostileID != *obs.HostileID {
			continue
		}
		d, ok := f.matchDistance(t, obs)
		if !ok {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = t
		}
	}

	if best != nil && bestDist <= f.cfg.AssociationRangeGate {
		if obs.HostileID != nil {
			best.HostileID = obs.HostileID
			f.byHostile[*obs.HostileID] = best.ID
		}
		return best, false
	}

	return f.createTrack(obs), true
}

// matchDistance returns the association distance for (track, obs) using
// Euclidean distance when bearing+range are both present, or a scaled
// bearing difference otherwise.
func (f *FusionEngine) matchDistance(t *FusedTrack, obs SensorObservation) (float64, bool) {
	if obs.Range != nil && obs.Bearing != nil {
		p := polarToCartesian(obsOrigin(obs), *obs.Range, *obs.Bearing)
		return t.Position.Distance2D(p), true
	}
	if obs.Bearing != nil {
		trackBearing := obsOrigin(obs).Bearing(t.Position)
		diff := math.Abs(bearingDiff(trackBearing, *obs.Bearing))
		if diff > f.cfg.AssociationBearingGate {
			return 0, false
		}
		return diff * 10, true
	}
	return 0, false
}

// obsOrigin is the sensor origin an observation's range/bearing are
// relative to. Sensors do not currently report their own position on the
// observation, so fusion assumes world origin (base) as the common sensor
// frame — acceptable since every sensor in this kernel is base-colocated.
func obsOrigin(_ SensorObservation) Position3D {
	return Position3D{}
}

func bearingDiff(a, b float64) float64 {
	d := math.Mod(a-b+540, 360) - 180
	return d
}

func polarToCartesian(origin Position3D, rng, bearingDeg float64) Position3D {
	rad := bearingDeg * math.Pi / 180
	return Position3D{X: origin.X + rng*math.Cos(rad), Y: origin.Y + rng*math.Sin(rad), Z: origin.Z}
}

func (f *FusionEngine) createTrack(obs SensorObservation) *FusedTrack {
	var pos Position3D
	if obs.Range != nil && obs.Bearing != nil {
		pos = polarToCartesian(obsOrigin(obs), *obs.Range, *obs.Bearing)
		if obs.Altitude != nil {
			pos.Z = *obs.Altitude
		}
	}

	initExist := 0.3
	if obs.Metadata.IsFalseAlarm {
		initExist = 0.2
	}

	t := &FusedTrack{
		ID:            uuid.New(),
		TrackNumber:   generateTrackNumber(),
		Position:      pos,
		PrevPosition:  pos,
		ExistenceProb: Clamp(initExist, f.cfg.ExistenceMin, f.cfg.ExistenceMax),
		CreatedAt:     obs.Time,
		LastUpdate:    obs.Time,
		Class:         ClassificationInfo{Classification: LabelUnknown},
	}
	if obs.HostileID != nil {
		id := *obs.HostileID
		t.HostileID = &id
		f.byHostile[id] = t.ID
	}
	if f.useEKF {
		t.EKF = newEKFEstimator(pos)
	}
	f.tracks[t.ID] = t
	return t
}

func (f *FusionEngine) applyObservation(t *FusedTrack, obs SensorObservation, now time.Duration) {
	dt := (obs.Time - t.LastUpdate).Seconds()

	f.updateExistence(t, obs)
	if f.useEKF && t.EKF != nil {
		t.EKF.update(obs, dt)
		t.Position = t.EKF.position()
		t.Velocity = t.EKF.velocity()
	} else {
		f.updatePositionVelocity(t, obs, dt)
	}
	f.updateClassification(t, obs)
	f.updateSensorStatus(t, obs)
	f.updateQuality(t)

	t.PrevPosition = t.Position
	t.LastUpdate = obs.Time
	t.MissedUpdates = 0
	appendHistory(t, f.cfg.MaxHistory)

	score, level := StaticThreatScore(t, f.threatCfg, Position3D{})
	t.ThreatScore = score
	t.ThreatLevel = level
}

// updateExistence applies the  existence-probability update.
func (f *FusionEngine) updateExistence(t *FusedTrack, obs SensorObservation) {
	weight := FusionSensorWeight[obs.Sensor]
	rate := FusionSensorRate[obs.Sensor]
	delta := weight * (2*obs.Confidence - 1)

	if obs.Sensor == SensorEO && obs.Classification != nil && *obs.Classification == LabelHostile && obs.ClassConfidence != nil && *obs.ClassConfidence > 0.7 {
		delta += 0.2
	}

	// Synergy bonus uses the sensor count BEFORE this observation's sensor
	// is marked seen, reflecting "already seen by >=2/3 sensors".
	switch t.Sensors.count() {
	case 3:
		rate *= 1.3
	case 2:
		rate *= 1.2
	}

	t.ExistenceProb = Clamp(t.ExistenceProb+delta*rate, f.cfg.ExistenceMin, f.cfg.ExistenceMax)
}

func (f *FusionEngine) updatePositionVelocity(t *FusedTrack, obs SensorObservation, dt float64) {
	if obs.Range != nil && obs.Bearing != nil {
		observed := polarToCartesian(obsOrigin(obs), *obs.Range, *obs.Bearing)
		if obs.Altitude != nil {
			observed.Z = *obs.Altitude
		}
		w := f.cfg.SensorPositionWeight
		newPos := Position3D{
			X: (1-w)*t.Position.X + w*observed.X,
			Y: (1-w)*t.Position.Y + w*observed.Y,
			Z: (1-w)*t.Position.Z + w*observed.Z,
		}

		if dt > 0.05 {
			const alpha = 0.3
			vx := (newPos.X - t.Position.X) / dt
			vy := (newPos.Y - t.Position.Y) / dt
			t.Velocity.X = alpha*vx + (1-alpha)*t.Velocity.X
			t.Velocity.Y = alpha*vy + (1-alpha)*t.Velocity.Y
		}

		if obs.Sensor == SensorRadar && obs.Metadata.RadialVelocity != nil {
			radBearing := *obs.Bearing * math.Pi / 180
			vx := -(*obs.Metadata.RadialVelocity) * math.Sin(radBearing)
			vy := -(*obs.Metadata.RadialVelocity) * math.Cos(radBearing)
			t.Velocity.X = 0.3*vx + 0.7*t.Velocity.X
			t.Velocity.Y = 0.3*vy + 0.7*t.Velocity.Y
		}

		t.Position = newPos
		return
	}

	if obs.Bearing != nil {
		// Bearing-only (ACOUSTIC): rotate current track onto observed
		// bearing at current range, 30% blend.
		rng := Position3D{}.Distance2D(t.Position)
		if rng < 1e-6 {
			return
		}
		rotated := polarToCartesian(Position3D{}, rng, *obs.Bearing)
		const blend = 0.3
		t.Position.X = (1-blend)*t.Position.X + blend*rotated.X
		t.Position.Y = (1-blend)*t.Position.Y + blend*rotated.Y
	}
}

func (f *FusionEngine) updateClassification(t *FusedTrack, obs SensorObservation) {
	switch obs.Sensor {
	case SensorEO:
		if obs.Classification != nil {
			conf := 0.5
			if obs.ClassConfidence != nil {
				conf = *obs.ClassConfidence
			}
			t.Class = ClassificationInfo{
				Classification: NormalizeClassification(*obs.Classification),
				Confidence:     conf,
				Source:         SensorEO,
				Armed:          obs.Metadata.Armed,
				SizeClass:      obs.Metadata.SizeClass,
				DroneType:      obs.Metadata.DroneType,
			}
		}
	case SensorRadar:
		t.Class.Confidence = math.Min(0.95, t.Class.Confidence+0.05)
	case SensorAcoustic:
		// Acoustic never changes classification.
	}
}

func (f *FusionEngine) updateSensorStatus(t *FusedTrack, obs SensorObservation) {
	if t.HostileID == nil && obs.HostileID != nil {
		id := *obs.HostileID
		t.HostileID = &id
		f.byHostile[id] = t.ID
	}
	switch obs.Sensor {
	case SensorRadar:
		t.Sensors.Radar = true
		t.Sensors.RadarTime = obs.Time
	case SensorAcoustic:
		t.Sensors.Acoustic = true
		t.Sensors.AcousticTime = obs.Time
	case SensorEO:
		t.Sensors.EO = true
		t.Sensors.EOTime = obs.Time
	}
}

func (f *FusionEngine) updateQuality(t *FusedTrack) {
	sensorTerm := 0.2 * (float64(t.Sensors.count()) / 3)
	existTerm := 0.3 * t.ExistenceProb
	classTerm := 0.3 * t.Class.Confidence
	missedTerm := 0.2 / (1 + 0.1*float64(t.MissedUpdates))
	t.Quality = Clamp(sensorTerm+existTerm+classTerm+missedTerm, 0, 1)
}

func appendHistory(t *FusedTrack, max int) {
	t.History = append(t.History, t.Position)
	if len(t.History) > max {
		t.History = t.History[len(t.History)-max:]
	}
}

// Decay progresses existence and drops stale tracks.
func (f *FusionEngine) Decay(now time.Duration) ([]*FusedTrack, []DropEvent) {
	var updated []*FusedTrack
	var dropped []DropEvent

	for id, t := range f.tracks {
		staleness := now - t.LastUpdate
		dtSec := staleness.Seconds()
		if dtSec <= 0 {
			continue
		}

		t.ExistenceProb = Clamp(t.ExistenceProb-f.cfg.ExistenceDecayRate*dtSec, f.cfg.ExistenceMin, f.cfg.ExistenceMax)
		t.Position = t.Position.Add(Position3D{t.Velocity.X * dtSec, t.Velocity.Y * dtSec, t.Velocity.ClimbRate * dtSec})
		t.MissedUpdates++
		f.updateQuality(t)

		lastSeen := t.Sensors.RadarTime
		if t.Sensors.AcousticTime > lastSeen {
			lastSeen = t.Sensors.AcousticTime
		}
		if t.Sensors.EOTime > lastSeen {
			lastSeen = t.Sensors.EOTime
		}
		reason, drop := f.dropCheck(t, now-lastSeen)
		t.LastUpdate = now
		if drop {
			dropped = append(dropped, DropEvent{
				TrackID:        t.ID,
				Reason:         reason,
				Lifetime:       now - t.CreatedAt,
				FinalExistence: t.ExistenceProb,
			})
			delete(f.tracks, id)
			if t.HostileID != nil {
				delete(f.byHostile, *t.HostileID)
			}
			continue
		}
		updated = append(updated, t)
	}
	return updated, dropped
}

// dropCheck decides whether t should be dropped this Decay pass. staleness
// is the time elapsed since the track's most recent sensor observation
// (the latest of its per-sensor last-seen times).
func (f *FusionEngine) dropCheck(t *FusedTrack, staleness time.Duration) (DropReason, bool) {
	if t.IsNeutralized {
		return DropNeutralized, true
	}
	if t.ExistenceProb < f.cfg.DropExistenceThreshold {
		return DropLowExistence, true
	}
	if staleness > f.cfg.DropTimeout {
		return DropTimeout, true
	}
	return "", false
}

// SetTrackNeutralized marks the track for a hostile id as neutralized; the
// next Decay pass drops it.
func (f *FusionEngine) SetTrackNeutralized(hostileID DroneID, neutralized bool) {
	if t, ok := f.TrackByHostile(hostileID); ok {
		t.IsNeutralized = neutralized
	}
}

// SetTrackEvading mirrors a hostile's evasion flag onto its track.
func (f *FusionEngine) SetTrackEvading(hostileID DroneID, evading bool) {
	if t, ok := f.TrackByHostile(hostileID); ok {
		t.IsEvading = evading
	}
}
