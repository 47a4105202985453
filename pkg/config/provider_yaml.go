package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider loads a plan request from a YAML file
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML plan request provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadRequest reads and converts the request file
func (y *YAMLProvider) LoadRequest() (*PlanRequestData, error) {
	data, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return ParseYAMLRequest(data)
}

// ParseYAMLRequest converts a YAML document into a plan request
func ParseYAMLRequest(data []byte) (*PlanRequestData, error) {
	var req PlanRequestYAML
	if err := yaml.UnmarshalStrict(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	out := &PlanRequestData{
		Name: req.Name,
		Settings: SettingsData{
			Algorithm:                 req.Settings.Algorithm,
			GFLow:                     percent(req.Settings.GFLow),
			GFHigh:                    percent(req.Settings.GFHigh),
			Salinity:                  req.Settings.Salinity,
			Altitude:                  req.Settings.Altitude,
			AscentRate:                req.Settings.AscentRate,
			DescentRate:               req.Settings.DescentRate,
			SACRate:                   req.Settings.SACRate,
			SACRateOutOfAir:           req.Settings.SACRateOutOfAir,
			MaxPPO2:                   req.Settings.MaxPPO2,
			MaxPPO2Deco:               req.Settings.MaxPPO2Deco,
			MaxEND:                    req.Settings.MaxEND,
			DecoStepSize:              req.Settings.DecoStepSize,
			LastDecoStopDepth:         req.Settings.LastDecoStopDepth,
			ForceMinimalDecoStopTime:  req.Settings.ForceMinimalDecoStopTime,
			UseDecoGasBetweenSections: req.Settings.UseDecoGasBetweenSections,
			ContingencyDeeper:         req.Settings.ContingencyDeeper,
			ContingencyLonger:         req.Settings.ContingencyLonger,
		},
		Cylinders: make([]CylinderData, len(req.Cylinders)),
		Profile:   make([]SectionData, len(req.Profile)),
		DecoGases: req.DecoGases,
	}

	for i, c := range req.Cylinders {
		out.Cylinders[i] = CylinderData{
			Name:     c.Name,
			O2:       c.O2 / 100,
			He:       c.He / 100,
			Pressure: c.Pressure,
			Volume:   c.Volume,
		}
	}
	for i, s := range req.Profile {
		out.Profile[i] = SectionData{
			Depth:    s.Depth,
			Duration: s.Time,
			Cylinder: s.Cylinder,
		}
	}
	return out, nil
}

// percent converts a YAML percentage into a fraction
func percent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v / 100
	return &f
}

// PlanRequestYAML is the file layout. Gas fractions and gradient factors are
// written as percentages, the way divers talk about them.
type PlanRequestYAML struct {
	Name      string         `yaml:"name,omitempty"`
	Settings  SettingsYAML   `yaml:"settings,omitempty"`
	Cylinders []CylinderYAML `yaml:"cylinders"`
	Profile   []SectionYAML  `yaml:"profile"`
	DecoGases []string       `yaml:"deco_gases,omitempty"`
}

type SettingsYAML struct {
	Algorithm                 *string  `yaml:"algorithm,omitempty"`
	GFLow                     *float64 `yaml:"gf_low,omitempty"`
	GFHigh                    *float64 `yaml:"gf_high,omitempty"`
	Salinity                  *string  `yaml:"salinity,omitempty"`
	Altitude                  *float64 `yaml:"altitude,omitempty"`
	AscentRate                *float64 `yaml:"ascent_rate,omitempty"`
	DescentRate               *float64 `yaml:"descent_rate,omitempty"`
	SACRate                   *float64 `yaml:"sac_rate,omitempty"`
	SACRateOutOfAir           *float64 `yaml:"sac_rate_out_of_air,omitempty"`
	MaxPPO2                   *float64 `yaml:"max_ppo2,omitempty"`
	MaxPPO2Deco               *float64 `yaml:"max_ppo2_deco,omitempty"`
	MaxEND                    *float64 `yaml:"max_end,omitempty"`
	DecoStepSize              *float64 `yaml:"deco_step_size,omitempty"`
	LastDecoStopDepth         *float64 `yaml:"last_deco_stop_depth,omitempty"`
	ForceMinimalDecoStopTime  *bool    `yaml:"force_minimal_deco_stop_time,omitempty"`
	UseDecoGasBetweenSections *bool    `yaml:"use_deco_gas_between_sections,omitempty"`
	ContingencyDeeper         *float64 `yaml:"contingency_deeper,omitempty"`
	ContingencyLonger         *int     `yaml:"contingency_longer,omitempty"`
}

type CylinderYAML struct {
	Name     string  `yaml:"name"`
	O2       float64 `yaml:"o2"`
	He       float64 `yaml:"he,omitempty"`
	Pressure float64 `yaml:"pressure"`
	Volume   float64 `yaml:"volume"`
}

type SectionYAML struct {
	Depth    float64 `yaml:"depth"`
	Time     int     `yaml:"time"`
	Cylinder string  `yaml:"cylinder"`
}
