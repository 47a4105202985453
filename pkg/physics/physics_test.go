package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthPressureRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
	}{
		{name: "salt at sea level", env: SeaLevel},
		{name: "fresh at altitude", env: Environment{Salinity: Fresh, Altitude: 1500}},
		{name: "en13319", env: Environment{Salinity: EN13319}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, depth := range []float64{0, 3, 10, 21.5, 40, 100} {
				p := tt.env.DepthToPressure(depth)
				assert.InDelta(t, depth, tt.env.PressureToDepth(p), 1e-9)
			}
		})
	}
}

func TestAtmosphericPressure(t *testing.T) {
	assert.Equal(t, SeaLevelPressure, SeaLevel.AtmosphericPressure())

	high := Environment{Salinity: Fresh, Altitude: 2000}
	// Roughly 0.795 bar at 2000m
	assert.InDelta(t, 0.795, high.AtmosphericPressure(), 0.005)
}

func TestPressureToDepthClampsAtSurface(t *testing.T) {
	assert.Equal(t, 0.0, SeaLevel.PressureToDepth(0.5))
}

func TestSaltWaterTenMeters(t *testing.T) {
	// 10m of salt water adds just over one bar
	assert.InDelta(t, 1.01, SeaLevel.DepthToPressure(10)-SeaLevelPressure, 0.001)
}

func TestNewGas(t *testing.T) {
	_, err := NewGas(0.21, 0.35)
	require.NoError(t, err)

	_, err = NewGas(0, 0)
	assert.Error(t, err)

	_, err = NewGas(0.5, 0.6)
	assert.Error(t, err)

	assert.Panics(t, func() { MustGas(1.2, 0) })
}

func TestGasFractions(t *testing.T) {
	tx := MustGas(0.18, 0.45)
	assert.InDelta(t, 0.37, tx.N2(), 1e-9)
	assert.InDelta(t, 0.82, tx.Inert(), 1e-9)
	assert.InDelta(t, 0.0, Oxygen.N2(), 1e-9)
}

func TestGasNames(t *testing.T) {
	assert.Equal(t, "Air", Air.String())
	assert.Equal(t, "Oxygen", Oxygen.String())
	assert.Equal(t, "EAN50", MustGas(0.5, 0).String())
	assert.Equal(t, "Tx18/45", MustGas(0.18, 0.45).String())
}

func TestMOD(t *testing.T) {
	env := Environment{Salinity: Salt}

	// EAN32 at 1.4 is the familiar ~33m
	assert.InDelta(t, 33.3, MustGas(0.32, 0).MOD(1.4, env), 0.3)
	// Oxygen at 1.6 is ~6m
	assert.InDelta(t, 5.8, Oxygen.MOD(1.6, env), 0.2)

	// the MOD gives exactly the limit
	mod := Air.MOD(1.4, env)
	assert.InDelta(t, 1.4, Air.PPO2(mod, env), 1e-9)
}

func TestNarcoticDepth(t *testing.T) {
	env := SeaLevel

	// Air is fully narcotic so END equals depth
	assert.InDelta(t, 30.0, Air.END(30, env), 1e-9)
	assert.InDelta(t, 30.0, Air.MaxNarcoticDepth(30, env), 1e-9)

	tx := MustGas(0.21, 0.35)
	assert.Less(t, tx.END(50, env), 50.0)
	assert.Greater(t, tx.MaxNarcoticDepth(30, env), 30.0)
	assert.InDelta(t, 30.0, tx.END(tx.MaxNarcoticDepth(30, env), env), 1e-9)
}

func TestDensity(t *testing.T) {
	env := SeaLevel
	airSurface := Air.Density(0, env)
	assert.InDelta(t, 1.29, airSurface, 0.01)

	// Density scales with ambient pressure
	assert.InDelta(t, airSurface*env.DepthToPressure(30)/SeaLevelPressure, Air.Density(30, env), 1e-9)

	// Helium makes a mix lighter
	assert.Less(t, MustGas(0.18, 0.45).Density(50, env), Air.Density(50, env))
}

func TestCompressibility(t *testing.T) {
	assert.InDelta(t, 1.0, Air.Compressibility(1.01325), 0.001)
	// Air is noticeably non-ideal at fill pressures
	assert.Greater(t, Air.Compressibility(232), 1.02)
	assert.Greater(t, Air.Compressibility(300), Air.Compressibility(232))
}

func TestCylinderCapacity(t *testing.T) {
	c := NewCylinder("back gas", Air, 232, 12)

	ideal := 12 * 232 / SeaLevelPressure
	assert.Less(t, c.Capacity(), ideal)
	assert.Greater(t, c.Capacity(), 0.8*ideal)

	// Low pressures behave nearly ideally
	assert.InDelta(t, 12*10/SeaLevelPressure, c.VolumeAt(10), 1.0)
	assert.Equal(t, 0.0, c.VolumeAt(0))
}

func TestPressureForVolume(t *testing.T) {
	c := NewCylinder("", MustGas(0.32, 0), 200, 11.1)

	for _, p := range []float64{5, 50, 120, 200} {
		v := c.VolumeAt(p)
		assert.InDelta(t, p, c.PressureForVolume(v), 1e-6)
	}

	assert.Equal(t, 0.0, c.PressureForVolume(-10))
	assert.InDelta(t, c.Pressure, c.PressureForVolume(c.Capacity()), 1e-6)

	// Extrapolates past the fill pressure
	assert.Greater(t, c.PressureForVolume(c.Capacity()*1.5), c.Pressure)
}

func TestCylinderIdentity(t *testing.T) {
	a := NewCylinder("stage", Air, 200, 11)
	b := NewCylinder("stage", Air, 200, 11)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "stage", a.Label())
	assert.Equal(t, "Air", Cylinder{Gas: Air}.Label())
}

func TestParseSalinity(t *testing.T) {
	s, err := ParseSalinity("fresh")
	require.NoError(t, err)
	assert.Equal(t, Fresh, s)

	s, err = ParseSalinity("")
	require.NoError(t, err)
	assert.Equal(t, Salt, s)

	_, err = ParseSalinity("brine")
	assert.Error(t, err)

	assert.False(t, math.IsNaN(Fresh.Density()))
}
