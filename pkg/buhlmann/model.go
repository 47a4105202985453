// Package buhlmann implements the Bühlmann ZH-L16 tissue loading model with
// gradient factors. A Model tracks nitrogen and helium pressures in sixteen
// compartments and answers ceiling and no-decompression-limit queries.
//
// Models are not safe for concurrent use. Every what-if computation runs
// inside ResetAfter so that it leaves the live state untouched.
package buhlmann

import (
	"fmt"
	"math"

	"github.com/chrissnell/decoplanner/pkg/physics"
)

// WaterVapourPressure is the alveolar water vapour pressure in bar
const WaterVapourPressure = 0.0627

// MaxNoDecompressionLimit bounds the forward simulation in NoDecompressionLimit
const MaxNoDecompressionLimit = 999

// airNitrogen is the nitrogen fraction the diver is saturated with at the surface
const airNitrogen = 0.7902

// Model is a ZH-L16 tissue model with gradient factors
type Model struct {
	algorithm    Algorithm
	coefficients coefficientSet
	gfLow        float64
	gfHigh       float64
	env          physics.Environment

	nitrogen [Compartments]float64
	helium   [Compartments]float64

	// firstStop is the deepest gfLow ceiling reached so far, as an absolute
	// pressure. Gradient factors interpolate between it and the surface.
	firstStop float64
}

// New creates a model saturated at the surface of env. Gradient factors are
// fractions, e.g. 0.3 and 0.7.
func New(algorithm Algorithm, gfLow, gfHigh float64, env physics.Environment) *Model {
	m := &Model{
		algorithm:    algorithm,
		coefficients: coefficients(algorithm),
		gfLow:        gfLow,
		gfHigh:       gfHigh,
		env:          env,
	}
	m.Reset()
	return m
}

// Algorithm returns the coefficient set the model was built with
func (m *Model) Algorithm() Algorithm {
	return m.algorithm
}

// GradientFactors returns the configured low and high gradient factors
func (m *Model) GradientFactors() (low, high float64) {
	return m.gfLow, m.gfHigh
}

// Environment returns the environment used for depth conversions
func (m *Model) Environment() physics.Environment {
	return m.env
}

// Reset returns all compartments to surface saturation on air
func (m *Model) Reset() {
	inspired := (m.env.AtmosphericPressure() - WaterVapourPressure) * airNitrogen
	for i := 0; i < Compartments; i++ {
		m.nitrogen[i] = inspired
		m.helium[i] = 0
	}
	m.firstStop = 0
}

// AddFlat loads the tissues for minutes spent at a constant depth
func (m *Model) AddFlat(depth float64, gas physics.Gas, minutes float64) {
	m.AddDepthChange(depth, depth, gas, minutes)
}

// AddDepthChange loads the tissues for a linear change from startDepth to
// endDepth over the given number of minutes, using the Schreiner equation.
func (m *Model) AddDepthChange(startDepth, endDepth float64, gas physics.Gas, minutes float64) {
	if minutes <= 0 {
		return
	}

	startPressure := m.env.DepthToPressure(startDepth)
	rate := (m.env.DepthToPressure(endDepth) - startPressure) / minutes
	alveolar := startPressure - WaterVapourPressure

	for i := 0; i < Compartments; i++ {
		m.nitrogen[i] = schreiner(m.nitrogen[i], alveolar*gas.N2(), rate*gas.N2(), m.coefficients.nitrogen[i].halfTime, minutes)
		m.helium[i] = schreiner(m.helium[i], alveolar*gas.He, rate*gas.He, m.coefficients.helium[i].halfTime, minutes)
	}

	if p := m.toleratedPressure(m.gfLow); p > m.firstStop {
		m.firstStop = p
	}
}

// schreiner returns the compartment pressure after t minutes, starting from
// initial, breathing an inspired inert pressure that begins at inspired and
// changes by rate bar/min.
func schreiner(initial, inspired, rate, halfTime, t float64) float64 {
	k := math.Ln2 / halfTime
	return inspired + rate*(t-1/k) - (inspired-initial-rate/k)*math.Exp(-k*t)
}

// combined returns the total inert pressure and the helium/nitrogen weighted
// a and b coefficients of compartment i.
func (m *Model) combined(i int) (pressure, a, b float64) {
	n2, he := m.nitrogen[i], m.helium[i]
	pressure = n2 + he
	if pressure <= 0 {
		return 0, m.coefficients.nitrogen[i].a, m.coefficients.nitrogen[i].b
	}
	a = (m.coefficients.nitrogen[i].a*n2 + m.coefficients.helium[i].a*he) / pressure
	b = (m.coefficients.nitrogen[i].b*n2 + m.coefficients.helium[i].b*he) / pressure
	return pressure, a, b
}

// tolerated is the lowest ambient pressure at which a compartment loaded to
// pressure stays within gf of its M-value line.
func tolerated(pressure, a, b, gf float64) float64 {
	return (pressure - a*gf) / (gf/b + 1 - gf)
}

// toleratedPressure is the ceiling pressure across compartments for a fixed
// gradient factor.
func (m *Model) toleratedPressure(gf float64) float64 {
	ceiling := 0.0
	for i := 0; i < Compartments; i++ {
		pressure, a, b := m.combined(i)
		ceiling = math.Max(ceiling, tolerated(pressure, a, b, gf))
	}
	return ceiling
}

// interpolated solves for the ceiling pressure when the gradient factor varies
// linearly from gfHigh at the surface to gfLow at the first stop. The
// tolerance condition becomes a quadratic in ambient pressure.
func (m *Model) interpolated(pressure, a, b, surface float64) float64 {
	g1 := (m.gfLow - m.gfHigh) / (m.firstStop - surface)
	g0 := m.gfHigh - g1*surface
	c := 1/b - 1

	qa := g1 * c
	qb := 1 + g0*c + g1*a
	qc := g0*a - pressure

	disc := qb*qb - 4*qa*qc
	if disc < 0 || qb+math.Sqrt(disc) <= 0 {
		return tolerated(pressure, a, b, m.gfLow)
	}

	// Root of qa·p² + qb·p + qc where the tolerance first holds, in the form
	// that stays stable as qa approaches zero.
	p := -2 * qc / (qb + math.Sqrt(disc))
	if p > m.firstStop {
		return tolerated(pressure, a, b, m.gfLow)
	}
	return p
}

func (m *Model) ceilingPressure() float64 {
	surface := m.env.AtmosphericPressure()
	if m.firstStop <= surface {
		return m.toleratedPressure(m.gfHigh)
	}

	ceiling := 0.0
	for i := 0; i < Compartments; i++ {
		pressure, a, b := m.combined(i)
		ceiling = math.Max(ceiling, m.interpolated(pressure, a, b, surface))
	}
	return ceiling
}

// Ceiling returns the shallowest depth the diver may currently ascend to. Zero
// means a direct ascent to the surface is allowed.
func (m *Model) Ceiling() float64 {
	return m.env.PressureToDepth(m.ceilingPressure())
}

// NoDecompressionLimit returns how many whole minutes can be spent at depth on
// gas before a ceiling appears. The model state is left unchanged.
func (m *Model) NoDecompressionLimit(depth float64, gas physics.Gas) int {
	ndl := 0
	m.ResetAfter(func() bool {
		if m.Ceiling() > 0 {
			return false
		}
		for ndl < MaxNoDecompressionLimit {
			m.AddFlat(depth, gas, 1)
			if m.Ceiling() > 0 {
				break
			}
			ndl++
		}
		return false
	})
	return ndl
}

// ResetAfter runs fn against the current state and rolls the model back
// afterwards unless fn returns true. The rollback also happens if fn panics.
func (m *Model) ResetAfter(fn func() (keep bool)) {
	snapshot := m.Snapshot()
	keep := false
	defer func() {
		if !keep {
			m.Restore(snapshot)
		}
	}()
	keep = fn()
}

// Loadings returns the current nitrogen and helium pressures per compartment
func (m *Model) Loadings() (nitrogen, helium [Compartments]float64) {
	return m.nitrogen, m.helium
}

// ControllingCompartment returns the zero-based index of the compartment
// that sets the surfacing limit at gfHigh.
func (m *Model) ControllingCompartment() int {
	leading, highest := 0, math.Inf(-1)
	for i := 0; i < Compartments; i++ {
		pressure, a, b := m.combined(i)
		if p := tolerated(pressure, a, b, m.gfHigh); p > highest {
			leading, highest = i, p
		}
	}
	return leading
}

func (m *Model) String() string {
	return fmt.Sprintf("%v GF %.0f/%.0f", m.algorithm, m.gfLow*100, m.gfHigh*100)
}
