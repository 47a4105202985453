package dive

import (
	"github.com/chrissnell/decoplanner/pkg/physics"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Plan is the result of planning a profile
type Plan struct {
	Segments []Segment `json:"segments"`

	// AlternativeAscents maps a runtime minute to the full ascent schedule the
	// diver would follow when heading straight for the surface at that minute.
	AlternativeAscents map[int][]Segment `json:"alternative_ascents,omitempty"`

	DecoGases     []physics.Cylinder `json:"deco_gases"`
	BottomGases   []physics.Cylinder `json:"bottom_gases"`
	Configuration Configuration      `json:"configuration"`
	TotalCNS      float64            `json:"total_cns"`
	TotalOTU      float64            `json:"total_otu"`
}

// IsEmpty is true for a plan produced from an empty profile
func (p *Plan) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Compacted returns the segments with adjacent compatible segments merged
func (p *Plan) Compacted() []Segment {
	return Compact(p.Segments)
}

// Runtime is the total dive time in minutes
func (p *Plan) Runtime() int {
	if p.IsEmpty() {
		return 0
	}
	return p.Segments[len(p.Segments)-1].End()
}

// FirstDecoMinute returns the runtime minute of the first decompression
// segment. ok is false for a no-decompression dive.
func (p *Plan) FirstDecoMinute() (minute int, ok bool) {
	for _, s := range p.Segments {
		if s.IsDecompression {
			return s.StartMinute, true
		}
	}
	return 0, false
}

// DeepestCeiling is the deepest ceiling seen at the end of any segment
func (p *Plan) DeepestCeiling() float64 {
	deepest := 0.0
	for _, s := range p.Segments {
		if s.Ceiling > deepest {
			deepest = s.Ceiling
		}
	}
	return deepest
}

// DecoStops returns the compacted decompression stops
func (p *Plan) DecoStops() []Segment {
	var stops []Segment
	for _, s := range p.Compacted() {
		if s.IsDecompressionStop() {
			stops = append(stops, s)
		}
	}
	return stops
}

// TotalDecoMinutes is the time spent on decompression stops
func (p *Plan) TotalDecoMinutes() int {
	total := 0
	for _, s := range p.Segments {
		if s.IsDecompressionStop() {
			total += s.Duration
		}
	}
	return total
}

// MaxDepth is the deepest point of the plan
func (p *Plan) MaxDepth() float64 {
	deepest := 0.0
	for _, s := range p.Segments {
		if d := s.MaxDepth(); d > deepest {
			deepest = d
		}
	}
	return deepest
}

// AverageDepth is the time-weighted mean depth of the dive
func (p *Plan) AverageDepth() float64 {
	if p.Runtime() == 0 {
		return 0
	}
	depths := make([]float64, 0, len(p.Segments))
	weights := make([]float64, 0, len(p.Segments))
	for _, s := range p.Segments {
		depths = append(depths, s.AverageDepth())
		weights = append(weights, float64(s.Duration))
	}
	return stat.Mean(depths, weights)
}

// MaxGasDensity returns, per cylinder, the highest gas density in g/L that the
// diver breathes from it.
func (p *Plan) MaxGasDensity() map[uuid.UUID]float64 {
	densities := make(map[uuid.UUID]float64)
	env := p.Configuration.Environment
	for _, s := range p.Segments {
		d := s.Cylinder.Gas.Density(s.MaxDepth(), env)
		if d > densities[s.Cylinder.ID] {
			densities[s.Cylinder.ID] = d
		}
	}
	return densities
}

// Cylinders returns every distinct cylinder breathed from in the plan, in
// order of first use.
func (p *Plan) Cylinders() []physics.Cylinder {
	seen := make(map[uuid.UUID]bool)
	var cylinders []physics.Cylinder
	for _, s := range p.Segments {
		if !seen[s.Cylinder.ID] {
			seen[s.Cylinder.ID] = true
			cylinders = append(cylinders, s.Cylinder)
		}
	}
	return cylinders
}
