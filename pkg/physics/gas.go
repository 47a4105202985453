package physics

import (
	"fmt"
	"math"
)

// Surface densities in g/L at 1.01325 bar and 0°C
const (
	oxygenDensity   = 1.429
	nitrogenDensity = 1.2506
	heliumDensity   = 0.1786
)

// Gas is a breathing mix. Nitrogen makes up the remainder.
type Gas struct {
	O2 float64 `json:"o2" yaml:"o2"`
	He float64 `json:"he" yaml:"he"`
}

var (
	Air    = Gas{O2: 0.21}
	Oxygen = Gas{O2: 1.0}
)

// NewGas validates the fractions and returns the mix
func NewGas(o2, he float64) (Gas, error) {
	if o2 <= 0 || o2 > 1 {
		return Gas{}, fmt.Errorf("oxygen fraction %.3f out of range (0, 1]", o2)
	}
	if he < 0 || he > 1 {
		return Gas{}, fmt.Errorf("helium fraction %.3f out of range [0, 1]", he)
	}
	if o2+he > 1.0000001 {
		return Gas{}, fmt.Errorf("oxygen %.3f and helium %.3f exceed 100%%", o2, he)
	}
	return Gas{O2: o2, He: he}, nil
}

// MustGas is NewGas for compile-time constant mixes. It panics on bad input.
func MustGas(o2, he float64) Gas {
	g, err := NewGas(o2, he)
	if err != nil {
		panic(err)
	}
	return g
}

// N2 is the nitrogen fraction
func (g Gas) N2() float64 {
	n2 := 1 - g.O2 - g.He
	if n2 < 0 {
		return 0
	}
	return n2
}

// Inert is the combined nitrogen and helium fraction
func (g Gas) Inert() float64 {
	return g.N2() + g.He
}

// PPO2 returns the oxygen partial pressure at depth
func (g Gas) PPO2(depth float64, env Environment) float64 {
	return env.DepthToPressure(depth) * g.O2
}

// MOD is the maximum operating depth for the given oxygen partial pressure limit
func (g Gas) MOD(maxPPO2 float64, env Environment) float64 {
	return env.PressureToDepth(maxPPO2 / g.O2)
}

// MaxNarcoticDepth is the deepest point at which the equivalent narcotic depth
// stays within maxEND. Oxygen and nitrogen are both treated as narcotic.
func (g Gas) MaxNarcoticDepth(maxEND float64, env Environment) float64 {
	narcotic := g.O2 + g.N2()
	if narcotic <= 0 {
		return math.Inf(1)
	}
	return env.PressureToDepth(env.DepthToPressure(maxEND) / narcotic)
}

// END is the equivalent narcotic depth of this mix at depth
func (g Gas) END(depth float64, env Environment) float64 {
	return env.PressureToDepth(env.DepthToPressure(depth) * (g.O2 + g.N2()))
}

// Density returns the mix density in g/L at depth
func (g Gas) Density(depth float64, env Environment) float64 {
	surface := g.O2*oxygenDensity + g.N2()*nitrogenDensity + g.He*heliumDensity
	return surface * env.DepthToPressure(depth) / SeaLevelPressure
}

// String returns the conventional diver name of the mix
func (g Gas) String() string {
	o2 := int(math.Round(g.O2 * 100))
	he := int(math.Round(g.He * 100))
	switch {
	case he > 0:
		return fmt.Sprintf("Tx%d/%d", o2, he)
	case o2 == 21:
		return "Air"
	case o2 == 100:
		return "Oxygen"
	default:
		return fmt.Sprintf("EAN%d", o2)
	}
}
