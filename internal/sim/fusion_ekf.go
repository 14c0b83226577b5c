package sim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ekfEstimator is the alternative Kalman-filter track estimator,
// interchangeable with the weighted-mean blend behind FusionEngine's
// ingest/decay contract. State is [px,py,pz,vx,vy,vz,ax,ay], a constant-
// acceleration model in the horizontal plane (vertical rate is carried but
// not accelerated, matching the hostile motion model's altitude floor).
type ekfEstimator struct {
	x *mat.VecDense   // state, 8x1
	p *mat.SymDense   // covariance, 8x8

	predictionsSinceUpdate int
}

const ekfDim = 8

func newEKFEstimator(initial Position3D) *ekfEstimator {
	x := mat.NewVecDense(ekfDim, nil)
	x.SetVec(0, initial.X)
	x.SetVec(1, initial.Y)
	x.SetVec(2, initial.Z)

	diag := make([]float64, ekfDim)
	for i := range diag {
		diag[i] = 50
	}
	p := mat.NewSymDense(ekfDim, nil)
	for i, v := range diag {
		p.SetSym(i, i, v)
	}

	return &ekfEstimator{x: x, p: p}
}

func (e *ekfEstimator) position() Position3D {
	return Position3D{X: e.x.AtVec(0), Y: e.x.AtVec(1), Z: e.x.AtVec(2)}
}

func (e *ekfEstimator) velocity() Velocity3D {
	return Velocity3D{X: e.x.AtVec(3), Y: e.x.AtVec(4), ClimbRate: e.x.AtVec(5)}
}

// valid reports whether the filter's state is still trustworthy: too many
// predictions without a real update, or covariance blowing up, both make it
// false. FusionEngine does not consult it.
func (e *ekfEstimator) valid() bool {
	const maxPredictionCount = 10
	const maxDiagCovariance = 100.0
	if e.predictionsSinceUpdate > maxPredictionCount {
		return false
	}
	for i := 0; i < ekfDim; i++ {
		if e.p.At(i, i) > maxDiagCovariance {
			return false
		}
	}
	return true
}

// predict advances the constant-acceleration process model by dt with
// diagonal process noise q (accelNoise*dt on every state term).
func (e *ekfEstimator) predict(dt float64) {
	if dt <= 0 {
		return
	}
	f := stateTransition(dt)

	nx := mat.NewVecDense(ekfDim, nil)
	nx.MulVec(f, e.x)
	e.x = nx

	var fp mat.Dense
	fp.Mul(f, e.p)
	var fpft mat.Dense
	fpft.Mul(&fp, f.T())

	q := processNoise(dt)
	var npCov mat.Dense
	npCov.Add(&fpft, q)

	np := mat.NewSymDense(ekfDim, nil)
	for i := 0; i < ekfDim; i++ {
		for j := i; j < ekfDim; j++ {
			np.SetSym(i, j, npCov.At(i, j))
		}
	}
	e.p = np
	e.predictionsSinceUpdate++
}

func stateTransition(dt float64) *mat.Dense {
	f := mat.NewDense(ekfDim, ekfDim, nil)
	for i := 0; i < ekfDim; i++ {
		f.Set(i, i, 1)
	}
	// position += velocity*dt
	f.Set(0, 3, dt)
	f.Set(1, 4, dt)
	f.Set(2, 5, dt)
	// velocity (horizontal) += acceleration*dt
	f.Set(3, 6, dt)
	f.Set(4, 7, dt)
	// position += 0.5*a*dt^2 (horizontal only)
	f.Set(0, 6, 0.5*dt*dt)
	f.Set(1, 7, 0.5*dt*dt)
	return f
}

func processNoise(dt float64) *mat.Dense {
	const accelNoise = 2.0
	q := mat.NewDense(ekfDim, ekfDim, nil)
	for i := 0; i < ekfDim; i++ {
		q.Set(i, i, accelNoise*dt)
	}
	return q
}

// update applies a single sensor observation's nonlinear measurement model
// via the standard EKF correction step.
func (e *ekfEstimator) update(obs SensorObservation, dt float64) {
	e.predict(dt)

	switch {
	case obs.Range != nil && obs.Bearing != nil:
		e.updateRangeBearing(obs)
	case obs.Bearing != nil:
		e.updateBearingOnly(obs)
	default:
		return
	}
	e.predictionsSinceUpdate = 0
}

// updateRangeBearing handles RADAR/EO observations: measurement z=[range,
// bearing(rad)], nonlinear in state, linearized at the current estimate.
func (e *ekfEstimator) updateRangeBearing(obs SensorObservation) {
	px, py := e.x.AtVec(0), e.x.AtVec(1)
	dx, dy := px, py // sensor assumed at world origin, matching fusion's obsOrigin
	predRange := math.Hypot(dx, dy)
	if predRange < 1e-6 {
		predRange = 1e-6
	}
	predBearing := math.Atan2(dy, dx)

	z := mat.NewVecDense(2, []float64{*obs.Range, *obs.Bearing * math.Pi / 180})
	h := mat.NewVecDense(2, []float64{predRange, predBearing})

	hJac := mat.NewDense(2, ekfDim, nil)
	hJac.Set(0, 0, dx/predRange)
	hJac.Set(0, 1, dy/predRange)
	hJac.Set(1, 0, -dy/(predRange*predRange))
	hJac.Set(1, 1, dx/(predRange*predRange))

	rNoise := measurementNoise(obs)
	e.correct(z, h, hJac, rNoise, 2)
}

// updateBearingOnly handles ACOUSTIC observations: measurement z=[bearing].
func (e *ekfEstimator) updateBearingOnly(obs SensorObservation) {
	px, py := e.x.AtVec(0), e.x.AtVec(1)
	predRange := math.Hypot(px, py)
	if predRange < 1e-6 {
		predRange = 1e-6
	}
	predBearing := math.Atan2(py, px)

	z := mat.NewVecDense(1, []float64{*obs.Bearing * math.Pi / 180})
	h := mat.NewVecDense(1, []float64{predBearing})

	hJac := mat.NewDense(1, ekfDim, nil)
	hJac.Set(0, 0, -py/(predRange*predRange))
	hJac.Set(0, 1, px/(predRange*predRange))

	rNoise := measurementNoise(obs)
	e.correct(z, h, hJac, rNoise, 1)
}

// measurementNoise scales a base per-sensor covariance down as confidence
// rises, so confident observations pull the estimate harder.
func measurementNoise(obs SensorObservation) *mat.Dense {
	base := 25.0
	switch obs.Sensor {
	case SensorRadar:
		base = 10
	case SensorEO:
		base = 4
	case SensorAcoustic:
		base = 40
	}
	scale := 1.5 - obs.Confidence
	if scale < 0.2 {
		scale = 0.2
	}
	if obs.Bearing != nil && obs.Range == nil {
		r := mat.NewDense(1, 1, []float64{base * scale * (math.Pi / 180)})
		return r
	}
	r := mat.NewDense(2, 2, nil)
	r.Set(0, 0, base*scale)
	r.Set(1, 1, base*scale*(math.Pi/180))
	return r
}

// correct performs the generic EKF measurement-update arithmetic given the
// innovation components z (measurement), h (predicted measurement), and
// the measurement Jacobian hJac.
func (e *ekfEstimator) correct(z, h *mat.VecDense, hJac *mat.Dense, rNoise *mat.Dense, dim int) {
	var y mat.VecDense
	y.SubVec(z, h)
	if dim == 2 {
		// wrap bearing residual into [-pi,pi]
		y.SetVec(1, NormalizeRadians(y.AtVec(1)))
	} else {
		y.SetVec(0, NormalizeRadians(y.AtVec(0)))
	}

	var hp mat.Dense
	hp.Mul(hJac, e.p)
	var s mat.Dense
	s.Mul(&hp, hJac.T())
	s.Add(&s, rNoise)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return
	}

	var pht mat.Dense
	pht.Mul(e.p, hJac.T())
	var k mat.Dense
	k.Mul(&pht, &sInv)

	var dx mat.VecDense
	dx.MulVec(&k, &y)

	nx := mat.NewVecDense(ekfDim, nil)
	nx.AddVec(e.x, &dx)
	e.x = nx

	var kh mat.Dense
	kh.Mul(&k, hJac)
	ident := mat.NewDiagDense(ekfDim, onesOf(ekfDim))
	var ikh mat.Dense
	ikh.Sub(ident, &kh)
	var npCov mat.Dense
	npCov.Mul(&ikh, e.p)

	np := mat.NewSymDense(ekfDim, nil)
	for i := 0; i < ekfDim; i++ {
		for j := i; j < ekfDim; j++ {
			np.SetSym(i, j, npCov.At(i, j))
		}
	}
	e.p = np
}

func onesOf(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
