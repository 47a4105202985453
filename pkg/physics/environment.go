// Package physics provides the pressure, gas and cylinder calculations used by
// the decompression planner. Depths are meters of water, pressures are bar
// (absolute) and gas volumes are liters at surface pressure.
package physics

import (
	"fmt"
	"math"
)

// Gravity is standard gravity in m/s²
const Gravity = 9.80665

// SeaLevelPressure is the standard atmospheric pressure at sea level in bar
const SeaLevelPressure = 1.01325

// Salinity selects the water density used for depth conversions
type Salinity int

const (
	Fresh Salinity = iota
	EN13319
	Salt
)

// Density returns the water density in kg/m³
func (s Salinity) Density() float64 {
	switch s {
	case Fresh:
		return 1000.0
	case EN13319:
		return 1020.0
	default:
		return 1030.0
	}
}

func (s Salinity) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case EN13319:
		return "en13319"
	default:
		return "salt"
	}
}

// ParseSalinity converts a configuration string into a Salinity
func ParseSalinity(s string) (Salinity, error) {
	switch s {
	case "fresh":
		return Fresh, nil
	case "en13319", "EN13319":
		return EN13319, nil
	case "salt", "":
		return Salt, nil
	}
	return Salt, fmt.Errorf("unknown salinity %q", s)
}

// Environment describes the body of water a dive takes place in
type Environment struct {
	Salinity Salinity
	Altitude float64 // meters above sea level
}

// SeaLevel is salt water at sea level
var SeaLevel = Environment{Salinity: Salt}

// AtmosphericPressure returns the surface pressure for the configured altitude
// using the international barometric formula.
func (e Environment) AtmosphericPressure() float64 {
	if e.Altitude <= 0 {
		return SeaLevelPressure
	}
	return SeaLevelPressure * math.Pow(1-2.25577e-5*e.Altitude, 5.25588)
}

// BarPerMeter is the hydrostatic pressure gradient of the water column
func (e Environment) BarPerMeter() float64 {
	return e.Salinity.Density() * Gravity / 100000.0
}

// MetersPerBar is the depth of water that adds one bar of pressure
func (e Environment) MetersPerBar() float64 {
	return 1 / e.BarPerMeter()
}

// DepthToPressure converts a depth to absolute ambient pressure
func (e Environment) DepthToPressure(depth float64) float64 {
	return e.AtmosphericPressure() + depth*e.BarPerMeter()
}

// PressureToDepth converts absolute ambient pressure to depth. Pressures at or
// below the surface map to zero.
func (e Environment) PressureToDepth(pressure float64) float64 {
	depth := (pressure - e.AtmosphericPressure()) * e.MetersPerBar()
	if depth < 0 {
		return 0
	}
	return depth
}
