// Package config turns plan requests and stored preferences into the
// planner's plain records. Plan requests come from YAML files or REST
// bodies; preferences live in a SQLite database.
package config

import (
	"errors"
	"fmt"

	"github.com/chrissnell/decoplanner/pkg/buhlmann"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/physics"
)

// ErrInvalidRequest is wrapped by every plan request validation failure
var ErrInvalidRequest = errors.New("invalid plan request")

// RequestProvider is a source of plan requests
type RequestProvider interface {
	LoadRequest() (*PlanRequestData, error)
}

// PlanRequestData describes one dive to plan
type PlanRequestData struct {
	Name      string         `json:"name,omitempty"`
	Settings  SettingsData   `json:"settings,omitempty"`
	Cylinders []CylinderData `json:"cylinders"`
	Profile   []SectionData  `json:"profile"`
	DecoGases []string       `json:"deco_gases,omitempty"`
}

// SettingsData overrides parts of the base configuration. Nil fields keep
// the base value.
type SettingsData struct {
	Algorithm                 *string  `json:"algorithm,omitempty"`
	GFLow                     *float64 `json:"gf_low,omitempty"`
	GFHigh                    *float64 `json:"gf_high,omitempty"`
	Salinity                  *string  `json:"salinity,omitempty"`
	Altitude                  *float64 `json:"altitude,omitempty"`
	AscentRate                *float64 `json:"ascent_rate,omitempty"`
	DescentRate               *float64 `json:"descent_rate,omitempty"`
	SACRate                   *float64 `json:"sac_rate,omitempty"`
	SACRateOutOfAir           *float64 `json:"sac_rate_out_of_air,omitempty"`
	MaxPPO2                   *float64 `json:"max_ppo2,omitempty"`
	MaxPPO2Deco               *float64 `json:"max_ppo2_deco,omitempty"`
	MaxEND                    *float64 `json:"max_end,omitempty"`
	DecoStepSize              *float64 `json:"deco_step_size,omitempty"`
	LastDecoStopDepth         *float64 `json:"last_deco_stop_depth,omitempty"`
	ForceMinimalDecoStopTime  *bool    `json:"force_minimal_deco_stop_time,omitempty"`
	UseDecoGasBetweenSections *bool    `json:"use_deco_gas_between_sections,omitempty"`
	ContingencyDeeper         *float64 `json:"contingency_deeper,omitempty"`
	ContingencyLonger         *int     `json:"contingency_longer,omitempty"`
}

// CylinderData is a named cylinder. Fractions are 0-1 and pressure is in bar.
type CylinderData struct {
	Name     string  `json:"name"`
	O2       float64 `json:"o2"`
	He       float64 `json:"he,omitempty"`
	Pressure float64 `json:"pressure"`
	Volume   float64 `json:"volume"`
}

// SectionData is one profile section referring to a cylinder by name
type SectionData struct {
	Depth    float64 `json:"depth"`
	Duration int     `json:"duration"`
	Cylinder string  `json:"cylinder"`
}

// PlanInput is a plan request resolved into planner records
type PlanInput struct {
	Name          string
	Configuration dive.Configuration
	Profile       dive.Profile
	DecoGases     []physics.Cylinder
}

// Apply overlays the settings onto cfg
func (s SettingsData) Apply(cfg dive.Configuration) (dive.Configuration, error) {
	if s.Algorithm != nil {
		algorithm, err := buhlmann.ParseAlgorithm(*s.Algorithm)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		cfg.Algorithm = algorithm
	}
	if s.Salinity != nil {
		salinity, err := physics.ParseSalinity(*s.Salinity)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		cfg.Environment.Salinity = salinity
	}

	setFloat(&cfg.GFLow, s.GFLow)
	setFloat(&cfg.GFHigh, s.GFHigh)
	setFloat(&cfg.Environment.Altitude, s.Altitude)
	setFloat(&cfg.AscentRate, s.AscentRate)
	setFloat(&cfg.DescentRate, s.DescentRate)
	setFloat(&cfg.SACRate, s.SACRate)
	setFloat(&cfg.SACRateOutOfAir, s.SACRateOutOfAir)
	setFloat(&cfg.MaxPPO2, s.MaxPPO2)
	setFloat(&cfg.MaxPPO2Deco, s.MaxPPO2Deco)
	setFloat(&cfg.MaxEND, s.MaxEND)
	setFloat(&cfg.DecoStepSize, s.DecoStepSize)
	setFloat(&cfg.LastDecoStopDepth, s.LastDecoStopDepth)
	setFloat(&cfg.ContingencyDeeper, s.ContingencyDeeper)
	if s.ContingencyLonger != nil {
		cfg.ContingencyLonger = *s.ContingencyLonger
	}
	if s.ForceMinimalDecoStopTime != nil {
		cfg.ForceMinimalDecoStopTime = *s.ForceMinimalDecoStopTime
	}
	if s.UseDecoGasBetweenSections != nil {
		cfg.UseDecoGasBetweenSections = *s.UseDecoGasBetweenSections
	}
	return cfg, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Resolve validates the request and builds planner input on top of base
func (r *PlanRequestData) Resolve(base dive.Configuration) (*PlanInput, error) {
	cfg, err := r.Settings.Apply(base)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	cylinders := make(map[string]physics.Cylinder, len(r.Cylinders))
	for _, c := range r.Cylinders {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: cylinder without a name", ErrInvalidRequest)
		}
		if _, dup := cylinders[c.Name]; dup {
			return nil, fmt.Errorf("%w: cylinder %q defined twice", ErrInvalidRequest, c.Name)
		}
		gas, err := physics.NewGas(c.O2, c.He)
		if err != nil {
			return nil, fmt.Errorf("%w: cylinder %q: %v", ErrInvalidRequest, c.Name, err)
		}
		if c.Pressure <= 0 || c.Volume <= 0 {
			return nil, fmt.Errorf("%w: cylinder %q needs a pressure and a volume", ErrInvalidRequest, c.Name)
		}
		cylinders[c.Name] = physics.NewCylinder(c.Name, gas, c.Pressure, c.Volume)
	}

	input := &PlanInput{Name: r.Name, Configuration: cfg}
	for i, s := range r.Profile {
		cylinder, ok := cylinders[s.Cylinder]
		if !ok {
			return nil, fmt.Errorf("%w: section %d uses unknown cylinder %q", ErrInvalidRequest, i+1, s.Cylinder)
		}
		if s.Depth < 0 || s.Duration < 0 {
			return nil, fmt.Errorf("%w: section %d has a negative depth or duration", ErrInvalidRequest, i+1)
		}
		input.Profile = append(input.Profile, dive.Section{Duration: s.Duration, Depth: s.Depth, Cylinder: cylinder})
	}

	for _, name := range r.DecoGases {
		cylinder, ok := cylinders[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown deco cylinder %q", ErrInvalidRequest, name)
		}
		input.DecoGases = append(input.DecoGases, cylinder)
	}
	return input, nil
}
