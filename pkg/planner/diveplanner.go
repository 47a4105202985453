package planner

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/oxtox"
	"github.com/chrissnell/decoplanner/pkg/physics"
	"go.uber.org/zap"
)

var (
	// ErrNotEnoughTimeToReachDepth means a deeper section is shorter than the
	// descent to its depth.
	ErrNotEnoughTimeToReachDepth = errors.New("not enough time to reach depth")

	// ErrNotEnoughTimeToDecompress means a shallower section is shorter than
	// the ascent and stops needed to get there.
	ErrNotEnoughTimeToDecompress = errors.New("not enough time to decompress")
)

// SectionError ties a planning failure to the profile section that caused it
type SectionError struct {
	Index   int
	Section dive.Section
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %d (%g m for %d min): %v", e.Index+1, e.Section.Depth, e.Section.Duration, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// DivePlanner turns profiles into plans for one configuration
type DivePlanner struct {
	cfg    dive.Configuration
	logger *zap.SugaredLogger
}

// Option configures a DivePlanner
type Option func(*DivePlanner)

// WithLogger sets the logger used for debug output while planning
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *DivePlanner) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDivePlanner creates a DivePlanner
func NewDivePlanner(cfg dive.Configuration, opts ...Option) *DivePlanner {
	d := &DivePlanner{
		cfg:    cfg,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ComputeDivePlan plans a profile with a throwaway DivePlanner
func ComputeDivePlan(cfg dive.Configuration, profile dive.Profile, decoGases []physics.Cylinder) (*dive.Plan, error) {
	return NewDivePlanner(cfg).Plan(profile, decoGases)
}

// Plan walks the profile section by section, inserting descents, ascents and
// decompression stops, and finishes with an ascent to the surface. Every
// segment added for a section carries the time to surface from its end.
func (d *DivePlanner) Plan(profile dive.Profile, decoGases []physics.Cylinder) (*dive.Plan, error) {
	if len(profile) == 0 {
		return &dive.Plan{
			Configuration:      d.cfg,
			AlternativeAscents: map[int][]dive.Segment{},
		}, nil
	}

	p := NewDecompressionPlanner(d.cfg, decoGases, d.logger)
	p.SetAnnotating(true)

	for i, section := range profile {
		var err error
		switch {
		case section.Depth > p.Depth():
			err = d.descend(p, section)
		case section.Depth < p.Depth():
			err = d.ascend(p, section)
		default:
			d.flat(p, section.Cylinder, section.Duration)
		}
		if err != nil {
			return nil, &SectionError{Index: i, Section: section, Err: err}
		}
		d.logger.Debugw("planned section", "section", i+1, "depth", section.Depth,
			"runtime", p.Runtime(), "ceiling", p.Model().Ceiling(),
			"controlling", p.Model().ControllingCompartment()+1)
	}

	p.SetAnnotating(false)
	p.CalculateDecompression(0)

	segments := p.Segments()
	env := d.cfg.Environment
	return &dive.Plan{
		Segments:           segments,
		AlternativeAscents: p.AlternativeAscents(),
		DecoGases:          append([]physics.Cylinder(nil), decoGases...),
		BottomGases:        profile.Cylinders(),
		Configuration:      d.cfg,
		TotalCNS:           oxtox.CalculateCNS(segments, env),
		TotalOTU:           oxtox.CalculateOTU(segments, env),
	}, nil
}

func (d *DivePlanner) flat(p *DecompressionPlanner, cylinder physics.Cylinder, minutes int) {
	if minutes <= 0 {
		return
	}
	p.AddFlat(cylinder, minutes, false)
}

func (d *DivePlanner) descend(p *DecompressionPlanner, section dive.Section) error {
	// TODO: decide whether descent time should round up; floor keeps a 20 m
	// drop at 20 m/min down to one minute.
	minutes := int(math.Floor((section.Depth - p.Depth()) / d.cfg.DescentRate))
	if minutes < 1 {
		minutes = 1
	}
	remaining := section.Duration - minutes
	if remaining < 0 {
		return fmt.Errorf("%w: descent takes %d min", ErrNotEnoughTimeToReachDepth, minutes)
	}

	p.AddDepthChangePerMinute(p.Depth(), section.Depth, section.Cylinder, minutes, false)
	d.flat(p, section.Cylinder, remaining)
	return nil
}

func (d *DivePlanner) ascend(p *DecompressionPlanner, section dive.Section) error {
	start := p.Runtime()
	if !d.cfg.UseDecoGasBetweenSections {
		p.RestrictDecoGases([]physics.Cylinder{section.Cylinder})
	}
	p.CalculateDecompression(section.Depth)
	p.RestrictDecoGases(nil)

	elapsed := p.Runtime() - start
	remaining := section.Duration - elapsed
	if remaining < 0 {
		return fmt.Errorf("%w: ascent and stops take %d min", ErrNotEnoughTimeToDecompress, elapsed)
	}
	d.flat(p, section.Cylinder, remaining)
	return nil
}

// NoDecompressionLimits returns the no-decompression limit for gas at each
// depth, starting from saturation at the surface every time.
func NoDecompressionLimits(cfg dive.Configuration, gas physics.Gas, depths []float64) []int {
	limits := make([]int, len(depths))
	model := cfg.NewModel()
	for i, depth := range depths {
		limits[i] = model.NoDecompressionLimit(depth, gas)
	}
	return limits
}
