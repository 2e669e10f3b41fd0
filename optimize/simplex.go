package optimize

import (
	"math"
)

const (
	TINY        = 1e-10
	SMALL       = 1e-6
	SMALL_DELTA = 1.1
)

// DS is downhill simplex (Nelder-Mead) with a single restart after
// convergence.
type DS struct {
	BaseOptimizer
	delta      float64
	ftol       float64
	repeat     bool
	oldL       float64
	points     []Optimizable
	psum       []float64
	parameters []FloatParameters
	l          []float64
	newOpt     Optimizable
	newPar     FloatParameters
}

func NewDS() (ds *DS) {
	ds = &DS{
		delta: 0.1,
		ftol:  TINY,
	}
	ds.repPeriod = 10
	ds.method = "simplex"
	return
}

// SetDelta sets the initial simplex size.
func (ds *DS) SetDelta(delta float64) {
	ds.delta = delta
}

func (ds *DS) loss(opt Optimizable, par FloatParameters) float64 {
	if !par.InRange() {
		return math.Inf(+1)
	}
	return ds.evaluate(opt, par)
}

func (ds *DS) createSimplex(opt Optimizable, delta float64) {
	parameters := opt.GetFloatParameters()
	ds.points = make([]Optimizable, len(parameters)+1)
	ds.parameters = make([]FloatParameters, len(ds.points))
	ds.l = make([]float64, len(ds.points))
	ds.points[0] = opt
	ds.parameters[0] = parameters
	for i := 1; i < len(ds.points); i++ {
		point := opt.Copy()
		ds.points[i] = point
		ds.parameters[i] = point.GetFloatParameters()
	}
	for i := 0; i < len(parameters); i++ {
		parameter := ds.parameters[i+1][i]
		v := parameter.Get() + delta
		if !parameter.ValueInRange(v) {
			v = parameter.Get() - delta
		}
		parameter.Set(v)
	}
	for i := range ds.points {
		ds.l[i] = ds.loss(ds.points[i], ds.parameters[i])
	}
}

// amotry extrapolates by factor fac through the face of the simplex across from
// the high point, tries it, and replaces the high point if the new point is better.
func (ds *DS) amotry(ihi int, fac float64) float64 {
	if ds.newOpt == nil {
		ds.newOpt = ds.points[0].Copy()
		ds.newPar = ds.newOpt.GetFloatParameters()
	}
	ds.calcPsum()
	ndim := len(ds.newPar)
	fac1 := (1 - fac) / float64(ndim)
	fac2 := fac1 - fac
	for j := 0; j < ndim; j++ {
		ds.newPar[j].Set(ds.psum[j]*fac1 - ds.parameters[ihi][j].Get()*fac2)
	}
	l := ds.loss(ds.newOpt, ds.newPar)
	if l < ds.l[ihi] {
		ds.points[ihi], ds.newOpt = ds.newOpt, ds.points[ihi]
		ds.parameters[ihi], ds.newPar = ds.newPar, ds.parameters[ihi]
		ds.l[ihi] = l
	}
	return l
}

func (ds *DS) calcPsum() {
	ds.psum = make([]float64, len(ds.parameters[0]))
	for i := range ds.psum {
		for _, parameters := range ds.parameters {
			ds.psum[i] += parameters[i].Get()
		}
	}
}

func (ds *DS) Run(iterations int) {
	ds.init()
	if len(ds.BaseOptimizer.parameters) == 0 {
		ds.status = ErrNoParameters.Error()
		return
	}
	ds.repeat = false
	ds.newOpt = nil
	ds.createSimplex(ds.Optimizable, ds.delta)

	// Highest (worst), next-highest and lowest points
	var ihi, inhi, ilo int
	var lhi, lnhi, llo float64
	ds.PrintHeader(ds.parameters[0])
Iter:
	for ds.i = 1; ds.i <= iterations; ds.i++ {
		if ds.l[0] > ds.l[1] {
			ihi = 0
			inhi = 1
			ilo = 1
		} else {
			ihi = 1
			inhi = 0
			ilo = 0
		}
		lhi = ds.l[ihi]
		lnhi = ds.l[inhi]
		llo = ds.l[ilo]
		for i := 2; i < len(ds.points); i++ {
			if ds.l[i] <= llo {
				llo = ds.l[i]
				ilo = i
			}
			if ds.l[i] > lhi {
				lnhi = lhi
				inhi = ihi
				lhi = ds.l[i]
				ihi = i
			} else if ds.l[i] > lnhi {
				lnhi = ds.l[i]
				inhi = i
			}
		}
		if ds.i%ds.repPeriod == 0 {
			log.Debugf("%d: loss=%g (%g)", ds.i, llo, lhi-llo)
			ds.PrintLine(ds.parameters[ilo], llo)
		}
		rtol := 2 * math.Abs(lhi-llo) / (math.Abs(llo) + math.Abs(lhi) + TINY)
		if rtol < ds.ftol {
			if ds.repeat && math.Abs(ds.oldL-llo) < SMALL {
				ds.converged = true
				ds.status = "converged"
				break Iter
			} else {
				ds.repeat = true
				ds.oldL = llo
				log.Infof("converged. retrying")
				ds.createSimplex(ds.points[ilo], ds.delta)
				continue
			}
		}
		l := ds.amotry(ihi, -1)
		switch {
		case l <= llo:
			ds.amotry(ihi, 2)
		case l >= lnhi:
			lsave := lhi
			l := ds.amotry(ihi, 0.5)
			if l >= lsave {
				for i, point := range ds.points {
					if i != ilo {
						for j := range ds.parameters[i] {
							ds.parameters[i][j].Set(0.5 * (ds.parameters[i][j].Get() + ds.parameters[ilo][j].Get()))
						}
						ds.l[i] = ds.loss(point, ds.parameters[i])
					}
				}
			}
		}
		if ds.interrupted() {
			break Iter
		}
	}
	if !ds.converged && ds.status == "" {
		log.Warningf("Iterations exceeded (%d)", iterations)
		ds.status = "iteration limit"
	}

	ds.restoreBest()
	log.Info("Finished downhill simplex")
	ds.PrintFinal()
}
