package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/chrissnell/decoplanner/pkg/buhlmann"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/physics"
)

// ErrWrongKind is returned when a preference is read with a different type
// than it was stored with.
var ErrWrongKind = errors.New("preference stored with a different type")

// Kind is the type a preference was stored as
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
)

// Change is published to watchers whenever a preference is written
type Change struct {
	Key   string `json:"key"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// PreferenceStore persists named, typed preferences. Getters return def when
// the key has never been set.
type PreferenceStore interface {
	GetString(ctx context.Context, key, def string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetInt(ctx context.Context, key string, def int) (int, error)
	SetInt(ctx context.Context, key string, value int) error
	GetFloat(ctx context.Context, key string, def float64) (float64, error)
	SetFloat(ctx context.Context, key string, value float64) error
	GetBool(ctx context.Context, key string, def bool) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error

	// All returns every stored preference
	All(ctx context.Context) ([]Change, error)

	// Watch streams every write until ctx is done, then closes the channel
	Watch(ctx context.Context) <-chan Change

	Close() error
}

// Preference keys for the planner configuration
const (
	KeyAlgorithm                 = "algorithm"
	KeyGFLow                     = "gf_low"
	KeyGFHigh                    = "gf_high"
	KeySalinity                  = "salinity"
	KeyAltitude                  = "altitude"
	KeyAscentRate                = "ascent_rate"
	KeyDescentRate               = "descent_rate"
	KeySACRate                   = "sac_rate"
	KeySACRateOutOfAir           = "sac_rate_out_of_air"
	KeyMaxPPO2                   = "max_ppo2"
	KeyMaxPPO2Deco               = "max_ppo2_deco"
	KeyMaxEND                    = "max_end"
	KeyDecoStepSize              = "deco_step_size"
	KeyLastDecoStopDepth         = "last_deco_stop_depth"
	KeyForceMinimalDecoStopTime  = "force_minimal_deco_stop_time"
	KeyUseDecoGasBetweenSections = "use_deco_gas_between_sections"
	KeyContingencyDeeper         = "contingency_deeper"
	KeyContingencyLonger         = "contingency_longer"
)

type floatPreference struct {
	key   string
	field func(*dive.Configuration) *float64
}

var floatPreferences = []floatPreference{
	{KeyGFLow, func(c *dive.Configuration) *float64 { return &c.GFLow }},
	{KeyGFHigh, func(c *dive.Configuration) *float64 { return &c.GFHigh }},
	{KeyAltitude, func(c *dive.Configuration) *float64 { return &c.Environment.Altitude }},
	{KeyAscentRate, func(c *dive.Configuration) *float64 { return &c.AscentRate }},
	{KeyDescentRate, func(c *dive.Configuration) *float64 { return &c.DescentRate }},
	{KeySACRate, func(c *dive.Configuration) *float64 { return &c.SACRate }},
	{KeySACRateOutOfAir, func(c *dive.Configuration) *float64 { return &c.SACRateOutOfAir }},
	{KeyMaxPPO2, func(c *dive.Configuration) *float64 { return &c.MaxPPO2 }},
	{KeyMaxPPO2Deco, func(c *dive.Configuration) *float64 { return &c.MaxPPO2Deco }},
	{KeyMaxEND, func(c *dive.Configuration) *float64 { return &c.MaxEND }},
	{KeyDecoStepSize, func(c *dive.Configuration) *float64 { return &c.DecoStepSize }},
	{KeyLastDecoStopDepth, func(c *dive.Configuration) *float64 { return &c.LastDecoStopDepth }},
	{KeyContingencyDeeper, func(c *dive.Configuration) *float64 { return &c.ContingencyDeeper }},
}

// LoadConfiguration reads the planner configuration from store, falling back
// to the defaults for anything not stored.
func LoadConfiguration(ctx context.Context, store PreferenceStore) (dive.Configuration, error) {
	cfg := dive.DefaultConfiguration()

	name, err := store.GetString(ctx, KeyAlgorithm, cfg.Algorithm.String())
	if err != nil {
		return cfg, err
	}
	if cfg.Algorithm, err = buhlmann.ParseAlgorithm(name); err != nil {
		return cfg, fmt.Errorf("preference %s: %w", KeyAlgorithm, err)
	}

	salinity, err := store.GetString(ctx, KeySalinity, cfg.Environment.Salinity.String())
	if err != nil {
		return cfg, err
	}
	if cfg.Environment.Salinity, err = physics.ParseSalinity(salinity); err != nil {
		return cfg, fmt.Errorf("preference %s: %w", KeySalinity, err)
	}

	for _, p := range floatPreferences {
		field := p.field(&cfg)
		if *field, err = store.GetFloat(ctx, p.key, *field); err != nil {
			return cfg, err
		}
	}

	if cfg.ContingencyLonger, err = store.GetInt(ctx, KeyContingencyLonger, cfg.ContingencyLonger); err != nil {
		return cfg, err
	}
	if cfg.ForceMinimalDecoStopTime, err = store.GetBool(ctx, KeyForceMinimalDecoStopTime, cfg.ForceMinimalDecoStopTime); err != nil {
		return cfg, err
	}
	if cfg.UseDecoGasBetweenSections, err = store.GetBool(ctx, KeyUseDecoGasBetweenSections, cfg.UseDecoGasBetweenSections); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfiguration writes every configuration field to store
func SaveConfiguration(ctx context.Context, store PreferenceStore, cfg dive.Configuration) error {
	if err := store.SetString(ctx, KeyAlgorithm, cfg.Algorithm.String()); err != nil {
		return err
	}
	if err := store.SetString(ctx, KeySalinity, cfg.Environment.Salinity.String()); err != nil {
		return err
	}
	for _, p := range floatPreferences {
		if err := store.SetFloat(ctx, p.key, *p.field(&cfg)); err != nil {
			return err
		}
	}
	if err := store.SetInt(ctx, KeyContingencyLonger, cfg.ContingencyLonger); err != nil {
		return err
	}
	if err := store.SetBool(ctx, KeyForceMinimalDecoStopTime, cfg.ForceMinimalDecoStopTime); err != nil {
		return err
	}
	return store.SetBool(ctx, KeyUseDecoGasBetweenSections, cfg.UseDecoGasBetweenSections)
}

// KindOf returns the kind a known configuration key is stored as
func KindOf(key string) (Kind, bool) {
	switch key {
	case KeyAlgorithm, KeySalinity:
		return KindString, true
	case KeyContingencyLonger:
		return KindInt, true
	case KeyForceMinimalDecoStopTime, KeyUseDecoGasBetweenSections:
		return KindBool, true
	}
	for _, p := range floatPreferences {
		if p.key == key {
			return KindFloat, true
		}
	}
	return "", false
}

// ValidateString checks a value for one of the string preferences
func ValidateString(key, value string) error {
	var err error
	switch key {
	case KeyAlgorithm:
		_, err = buhlmann.ParseAlgorithm(value)
	case KeySalinity:
		_, err = physics.ParseSalinity(value)
	default:
		return fmt.Errorf("%s is not a string preference", key)
	}
	if err != nil {
		return fmt.Errorf("preference %s: %w", key, err)
	}
	return nil
}

// ConfigurationValue formats the value cfg holds for a preference key
func ConfigurationValue(cfg dive.Configuration, key string) (string, error) {
	switch key {
	case KeyAlgorithm:
		return cfg.Algorithm.String(), nil
	case KeySalinity:
		return cfg.Environment.Salinity.String(), nil
	case KeyContingencyLonger:
		return strconv.Itoa(cfg.ContingencyLonger), nil
	case KeyForceMinimalDecoStopTime:
		return strconv.FormatBool(cfg.ForceMinimalDecoStopTime), nil
	case KeyUseDecoGasBetweenSections:
		return strconv.FormatBool(cfg.UseDecoGasBetweenSections), nil
	}
	for _, p := range floatPreferences {
		if p.key == key {
			return strconv.FormatFloat(*p.field(&cfg), 'g', -1, 64), nil
		}
	}
	return "", fmt.Errorf("unknown preference %q", key)
}
