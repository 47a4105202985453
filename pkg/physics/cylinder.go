package physics

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// Virial coefficients for the compressibility factor of each component gas,
// as terms of p, p² and p³ with p in bar.
var (
	oxygenVirial   = []float64{-7.18092073703e-04, +2.81852572808e-06, -1.50290620492e-09}
	nitrogenVirial = []float64{+2.19260353292e-04, +2.92844845532e-06, -2.07613482075e-09}
	heliumVirial   = []float64{+4.87320026468e-04, -8.83632921053e-08, +5.33304543646e-11}
)

// Compressibility returns the real-gas compressibility factor Z of the mix at
// the given pressure.
func (g Gas) Compressibility(pressure float64) float64 {
	powers := []float64{pressure, pressure * pressure, pressure * pressure * pressure}
	return 1 +
		g.O2*floats.Dot(oxygenVirial, powers) +
		g.N2()*floats.Dot(nitrogenVirial, powers) +
		g.He*floats.Dot(heliumVirial, powers)
}

// Cylinder is a tank filled with a gas. Two cylinders with the same gas and
// size are still distinct; ID is what plans use to track usage.
type Cylinder struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name,omitempty"`
	Gas         Gas       `json:"gas"`
	Pressure    float64   `json:"pressure"`     // fill pressure, bar
	WaterVolume float64   `json:"water_volume"` // liters
}

// NewCylinder creates a cylinder with a fresh identity
func NewCylinder(name string, gas Gas, pressure, waterVolume float64) Cylinder {
	return Cylinder{
		ID:          uuid.New(),
		Name:        name,
		Gas:         gas,
		Pressure:    pressure,
		WaterVolume: waterVolume,
	}
}

// Label returns the cylinder name, falling back to the gas name
func (c Cylinder) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Gas.String()
}

// VolumeAt returns the surface-equivalent gas volume held at the given
// cylinder pressure.
func (c Cylinder) VolumeAt(pressure float64) float64 {
	if pressure <= 0 {
		return 0
	}
	surface := SeaLevelPressure / c.Gas.Compressibility(SeaLevelPressure)
	return c.WaterVolume * (pressure / c.Gas.Compressibility(pressure)) / surface
}

// Capacity is the surface-equivalent volume of a full cylinder
func (c Cylinder) Capacity() float64 {
	return c.VolumeAt(c.Pressure)
}

// PressureForVolume returns the cylinder pressure at which the given surface
// volume remains. Volumes above capacity extrapolate beyond the fill pressure.
func (c Cylinder) PressureForVolume(liters float64) float64 {
	if liters <= 0 || c.WaterVolume <= 0 {
		return 0
	}

	low, high := 0.0, math.Max(c.Pressure, 1)
	for i := 0; i < 32 && c.VolumeAt(high) < liters; i++ {
		high *= 2
	}

	for i := 0; i < 100; i++ {
		mid := (low + high) / 2
		if c.VolumeAt(mid) < liters {
			low = mid
		} else {
			high = mid
		}
	}
	return (low + high) / 2
}
