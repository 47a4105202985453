// Package planner turns a dive profile into a decompression schedule. The
// DecompressionPlanner owns a tissue model and appends segments minute by
// minute; the DivePlanner drives it section by section and assembles the
// final dive.Plan.
package planner

import (
	"math"

	"github.com/chrissnell/decoplanner/pkg/buhlmann"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/physics"
	"go.uber.org/zap"
)

// maxStopMinutes bounds a single decompression calculation. A schedule that
// long only comes out of a nonsensical profile, and the diver is then sent
// straight up rather than looping forever.
const maxStopMinutes = 100 * 60

// DecompressionPlanner accumulates segments while keeping a tissue model in
// step with them.
type DecompressionPlanner struct {
	cfg    dive.Configuration
	model  *buhlmann.Model
	logger *zap.SugaredLogger

	segments   []dive.Segment
	depth      float64
	runtime    int
	cylinder   physics.Cylinder
	decoGases  []physics.Cylinder
	restricted []physics.Cylinder

	alternativeAscents map[int][]dive.Segment

	// annotating adds the time to surface to every new segment; estimating is
	// set while that time is being worked out.
	annotating bool
	estimating bool
}

// NewDecompressionPlanner creates a planner at the surface with a fresh model.
// A nil logger disables logging.
func NewDecompressionPlanner(cfg dive.Configuration, decoGases []physics.Cylinder, logger *zap.SugaredLogger) *DecompressionPlanner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DecompressionPlanner{
		cfg:                cfg,
		model:              cfg.NewModel(),
		logger:             logger,
		decoGases:          append([]physics.Cylinder(nil), decoGases...),
		alternativeAscents: make(map[int][]dive.Segment),
	}
}

// Model exposes the tissue model, mainly for inspection
func (p *DecompressionPlanner) Model() *buhlmann.Model {
	return p.model
}

// Segments returns the segments added so far
func (p *DecompressionPlanner) Segments() []dive.Segment {
	return p.segments
}

// Depth is the current depth
func (p *DecompressionPlanner) Depth() float64 {
	return p.depth
}

// Runtime is the current runtime in minutes
func (p *DecompressionPlanner) Runtime() int {
	return p.runtime
}

// Cylinder is the cylinder currently breathed from
func (p *DecompressionPlanner) Cylinder() physics.Cylinder {
	return p.cylinder
}

// AddDecoGas registers a cylinder as a candidate for decompression stops
func (p *DecompressionPlanner) AddDecoGas(c physics.Cylinder) {
	p.decoGases = append(p.decoGases, c)
}

// DecoGases returns a copy of the registered decompression cylinders
func (p *DecompressionPlanner) DecoGases() []physics.Cylinder {
	return append([]physics.Cylinder(nil), p.decoGases...)
}

// SetDecoGases replaces the registered decompression cylinders
func (p *DecompressionPlanner) SetDecoGases(cylinders []physics.Cylinder) {
	p.decoGases = append([]physics.Cylinder(nil), cylinders...)
}

// RestrictDecoGases limits the stops of CalculateDecompression to the given
// cylinders until it is called again with nil. Time to surface estimates keep
// using every registered cylinder.
func (p *DecompressionPlanner) RestrictDecoGases(cylinders []physics.Cylinder) {
	if cylinders == nil {
		p.restricted = nil
		return
	}
	p.restricted = append([]physics.Cylinder{}, cylinders...)
}

func (p *DecompressionPlanner) stopGases() []physics.Cylinder {
	if p.restricted != nil && !p.estimating {
		return p.restricted
	}
	return p.decoGases
}

// AlternativeAscents returns the direct-to-surface schedules recorded by
// CalculateTimeToSurface, keyed by the runtime they start at.
func (p *DecompressionPlanner) AlternativeAscents() map[int][]dive.Segment {
	return p.alternativeAscents
}

func (p *DecompressionPlanner) addSegment(from, to float64, cylinder physics.Cylinder, minutes int, deco bool) {
	p.model.AddDepthChange(from, to, cylinder.Gas, float64(minutes))
	p.segments = append(p.segments, dive.Segment{
		StartMinute:     p.runtime,
		Duration:        minutes,
		StartDepth:      from,
		EndDepth:        to,
		Cylinder:        cylinder,
		Ceiling:         p.model.Ceiling(),
		IsDecompression: deco,
	})
	p.runtime += minutes
	p.depth = to
	p.cylinder = cylinder

	if p.annotating && !p.estimating {
		p.AnnotateLast(p.CalculateTimeToSurface())
	}
}

// SetAnnotating switches per-segment time to surface annotation on or off.
// Each annotated segment also leaves an alternative ascent behind.
func (p *DecompressionPlanner) SetAnnotating(on bool) {
	p.annotating = on
}

// AddDepthChangePerMinute travels from startDepth to endDepth in the given
// number of minutes, adding one segment per minute.
func (p *DecompressionPlanner) AddDepthChangePerMinute(startDepth, endDepth float64, cylinder physics.Cylinder, minutes int, deco bool) {
	if minutes <= 0 {
		return
	}
	step := (endDepth - startDepth) / float64(minutes)
	for i := 0; i < minutes; i++ {
		from := startDepth + step*float64(i)
		to := startDepth + step*float64(i+1)
		if i == minutes-1 {
			to = endDepth
		}
		p.addSegment(from, to, cylinder, 1, deco)
	}
}

// AddFlat stays at the current depth for the given number of minutes
func (p *DecompressionPlanner) AddFlat(cylinder physics.Cylinder, minutes int, deco bool) {
	if minutes <= 0 {
		return
	}
	p.addSegment(p.depth, p.depth, cylinder, minutes, deco)
}

// AnnotateLast sets the time to surface on the most recent segment
func (p *DecompressionPlanner) AnnotateLast(tts int) {
	if len(p.segments) == 0 {
		return
	}
	last := len(p.segments) - 1
	p.segments[last] = p.segments[last].WithTTS(tts)
}

// nextStop returns the stop depth the current ceiling requires, on the deco
// step grid and no shallower than the last stop. Zero means no stop.
func (p *DecompressionPlanner) nextStop() float64 {
	ceiling := p.model.Ceiling()
	if ceiling <= 0 {
		return 0
	}
	stop := math.Ceil(ceiling/p.cfg.DecoStepSize) * p.cfg.DecoStepSize
	if stop < p.cfg.LastDecoStopDepth {
		stop = p.cfg.LastDecoStopDepth
	}
	return stop
}

func (p *DecompressionPlanner) ascend(target float64, deco bool) {
	minutes := int(math.Ceil((p.depth - target) / p.cfg.AscentRate))
	if minutes < 1 {
		minutes = 1
	}
	p.AddDepthChangePerMinute(p.depth, target, p.cylinder, minutes, deco)
}

func (p *DecompressionPlanner) usable(gas physics.Gas, depth float64) bool {
	mod := math.Round(p.cfg.DecoMOD(gas))
	narcotic := math.Round(gas.MaxNarcoticDepth(p.cfg.MaxEND, p.cfg.Environment))
	return depth <= mod && depth <= narcotic
}

// bestDecoGas picks the registered cylinder with the lowest inert fraction
// that may be breathed at depth. The current cylinder wins ties and is the
// fallback when nothing qualifies.
func (p *DecompressionPlanner) bestDecoGas(depth float64) physics.Cylinder {
	best := p.cylinder
	for _, c := range p.stopGases() {
		if c.ID == best.ID || !p.usable(c.Gas, depth) {
			continue
		}
		if c.Gas.Inert() < best.Gas.Inert() {
			best = c
		}
	}
	return best
}

func (p *DecompressionPlanner) stopMinute() {
	cylinder := p.bestDecoGas(p.depth)
	if cylinder.ID != p.cylinder.ID {
		p.logger.Debugw("gas switch", "runtime", p.runtime, "depth", p.depth,
			"from", p.cylinder.Label(), "to", cylinder.Label())
	}
	p.addSegment(p.depth, p.depth, cylinder, 1, true)
}

func (p *DecompressionPlanner) lastIsStop() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1].IsDecompressionStop()
}

// CalculateDecompression ascends to toDepth, stopping while the ceiling is
// still below it. Stops sit on the deco step grid, last whole minutes and use
// the best registered deco gas for their depth.
func (p *DecompressionPlanner) CalculateDecompression(toDepth float64) {
	stopMinutes := 0
	for p.depth > toDepth {
		if p.model.Ceiling() <= toDepth || stopMinutes >= maxStopMinutes {
			p.ascend(toDepth, false)
			return
		}

		// the ceiling lies below toDepth, so the grid stop does too
		stop := p.nextStop()

		if p.depth > stop {
			p.ascend(stop, p.lastIsStop())
			if p.cfg.ForceMinimalDecoStopTime && p.nextStop() < p.depth {
				p.stopMinute()
				stopMinutes++
			}
			continue
		}

		p.stopMinute()
		stopMinutes++
	}
}

// CalculateTimeToSurface returns how long a direct ascent with all required
// stops would take from the current state. The schedule is recorded as an
// alternative ascent; the live plan is left untouched.
func (p *DecompressionPlanner) CalculateTimeToSurface() int {
	tts := 0
	estimating := p.estimating
	p.estimating = true
	defer func() { p.estimating = estimating }()

	p.ResetAfter(func() bool {
		start, from := len(p.segments), p.runtime
		p.CalculateDecompression(0)
		tts = p.runtime - from
		p.alternativeAscents[from] = append([]dive.Segment(nil), p.segments[start:]...)
		return false
	})
	return tts
}

// ResetAfter runs fn and then restores the planner and its model to the state
// they had before, unless fn returns true. Alternative ascents recorded by fn
// are kept either way.
func (p *DecompressionPlanner) ResetAfter(fn func() (keep bool)) {
	count, depth, runtime, cylinder := len(p.segments), p.depth, p.runtime, p.cylinder
	decoGases := p.decoGases

	p.model.ResetAfter(func() bool {
		keep := false
		defer func() {
			if !keep {
				p.segments = p.segments[:count]
				p.depth, p.runtime, p.cylinder = depth, runtime, cylinder
				p.decoGases = decoGases
			}
		}()
		keep = fn()
		return keep
	})
}
