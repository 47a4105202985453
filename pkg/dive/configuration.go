// Package dive holds the records exchanged between the planner, the gas
// planner and the oxygen toxicity calculator: configuration, profile
// sections, segments and the resulting plan.
package dive

import (
	"errors"
	"fmt"

	"github.com/chrissnell/decoplanner/pkg/buhlmann"
	"github.com/chrissnell/decoplanner/pkg/physics"
)

// Configuration holds every planner setting. Depths are meters, rates are
// meters or liters per minute, gradient factors are fractions.
type Configuration struct {
	Algorithm                 buhlmann.Algorithm  `json:"algorithm"`
	GFLow                     float64             `json:"gf_low"`
	GFHigh                    float64             `json:"gf_high"`
	Environment               physics.Environment `json:"environment"`
	AscentRate                float64             `json:"ascent_rate"`
	DescentRate               float64             `json:"descent_rate"`
	SACRate                   float64             `json:"sac_rate"`
	SACRateOutOfAir           float64             `json:"sac_rate_out_of_air"`
	MaxPPO2                   float64             `json:"max_ppo2"`
	MaxPPO2Deco               float64             `json:"max_ppo2_deco"`
	MaxEND                    float64             `json:"max_end"`
	DecoStepSize              float64             `json:"deco_step_size"`
	LastDecoStopDepth         float64             `json:"last_deco_stop_depth"`
	ForceMinimalDecoStopTime  bool                `json:"force_minimal_deco_stop_time"`
	UseDecoGasBetweenSections bool                `json:"use_deco_gas_between_sections"`
	ContingencyDeeper         float64             `json:"contingency_deeper"`
	ContingencyLonger         int                 `json:"contingency_longer"`
}

// DefaultConfiguration returns the settings used when nothing is configured
func DefaultConfiguration() Configuration {
	return Configuration{
		Algorithm:                 buhlmann.ZHL16C,
		GFLow:                     0.3,
		GFHigh:                    0.7,
		Environment:               physics.SeaLevel,
		AscentRate:                5,
		DescentRate:               20,
		SACRate:                   20,
		SACRateOutOfAir:           40,
		MaxPPO2:                   1.4,
		MaxPPO2Deco:               1.6,
		MaxEND:                    30,
		DecoStepSize:              3,
		LastDecoStopDepth:         3,
		ForceMinimalDecoStopTime:  true,
		UseDecoGasBetweenSections: false,
		ContingencyDeeper:         3,
		ContingencyLonger:         3,
	}
}

// NewModel builds a fresh tissue model for this configuration
func (c Configuration) NewModel() *buhlmann.Model {
	return buhlmann.New(c.Algorithm, c.GFLow, c.GFHigh, c.Environment)
}

// MOD is the normal maximum operating depth of a gas
func (c Configuration) MOD(gas physics.Gas) float64 {
	return gas.MOD(c.MaxPPO2, c.Environment)
}

// DecoMOD is the maximum operating depth of a gas used for decompression
func (c Configuration) DecoMOD(gas physics.Gas) float64 {
	return gas.MOD(c.MaxPPO2Deco, c.Environment)
}

// ErrInvalidConfiguration is wrapped by every Validate failure
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Validate reports settings that would make planning meaningless or
// unbounded. The planner itself does not call it; adapters do before
// accepting input from users.
func (c Configuration) Validate() error {
	switch {
	case c.AscentRate <= 0:
		return fmt.Errorf("%w: ascent rate must be positive", ErrInvalidConfiguration)
	case c.DescentRate <= 0:
		return fmt.Errorf("%w: descent rate must be positive", ErrInvalidConfiguration)
	case c.GFLow <= 0 || c.GFHigh <= 0 || c.GFLow > c.GFHigh || c.GFHigh > 1.5:
		return fmt.Errorf("%w: gradient factors %.2f/%.2f", ErrInvalidConfiguration, c.GFLow, c.GFHigh)
	case c.DecoStepSize <= 0:
		return fmt.Errorf("%w: deco step size must be positive", ErrInvalidConfiguration)
	case c.LastDecoStopDepth < 0:
		return fmt.Errorf("%w: last deco stop depth must not be negative", ErrInvalidConfiguration)
	case c.SACRate < 0 || c.SACRateOutOfAir < 0:
		return fmt.Errorf("%w: SAC rates must not be negative", ErrInvalidConfiguration)
	case c.MaxPPO2 <= 0 || c.MaxPPO2Deco <= 0:
		return fmt.Errorf("%w: PPO2 limits must be positive", ErrInvalidConfiguration)
	case c.ContingencyDeeper < 0 || c.ContingencyLonger < 0:
		return fmt.Errorf("%w: contingency must not be negative", ErrInvalidConfiguration)
	}
	return nil
}
