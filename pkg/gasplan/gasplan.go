// Package gasplan works out how much gas each cylinder must hold for a plan:
// the normal consumption plus a reserve sized for the worst point in the
// dive to lose a buddy's gas and head straight for the surface.
package gasplan

import (
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/physics"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// CylinderGas is the requirement for one cylinder, in surface liters
type CylinderGas struct {
	Cylinder physics.Cylinder `json:"cylinder"`
	Normal   float64          `json:"normal"`
	Extra    float64          `json:"extra"`
}

// Total is the normal plus the extra requirement
func (c CylinderGas) Total() float64 {
	return c.Normal + c.Extra
}

// PressureAfterNormal is the cylinder pressure left after normal consumption.
// It is negative when the cylinder cannot cover it.
func (c CylinderGas) PressureAfterNormal() float64 {
	return remaining(c.Cylinder, c.Normal)
}

// PressureAfterWorstCase is the pressure left after the worst-case
// consumption. ok is false when the cylinder cannot deliver that much gas.
func (c CylinderGas) PressureAfterWorstCase() (pressure float64, ok bool) {
	p := remaining(c.Cylinder, c.Total())
	return p, p >= 0
}

// Sufficient reports whether the cylinder holds the worst-case requirement
func (c CylinderGas) Sufficient() bool {
	return c.Total() <= c.Cylinder.Capacity()
}

func remaining(c physics.Cylinder, liters float64) float64 {
	left := c.Capacity() - liters
	if left < 0 {
		return -c.PressureForVolume(-left)
	}
	return c.PressureForVolume(left)
}

// GasPlan lists the requirement of every cylinder used by a plan, in order of
// first use.
type GasPlan struct {
	Cylinders []CylinderGas `json:"cylinders"`
}

// TotalNormal sums the normal requirement over all cylinders
func (g *GasPlan) TotalNormal() float64 {
	values := make([]float64, len(g.Cylinders))
	for i, c := range g.Cylinders {
		values[i] = c.Normal
	}
	return floats.Sum(values)
}

// TotalExtra sums the reserve over all cylinders
func (g *GasPlan) TotalExtra() float64 {
	values := make([]float64, len(g.Cylinders))
	for i, c := range g.Cylinders {
		values[i] = c.Extra
	}
	return floats.Sum(values)
}

// Sufficient reports whether every cylinder covers its worst case
func (g *GasPlan) Sufficient() bool {
	for _, c := range g.Cylinders {
		if !c.Sufficient() {
			return false
		}
	}
	return true
}

// Find returns the requirement for a cylinder ID
func (g *GasPlan) Find(id uuid.UUID) (CylinderGas, bool) {
	for _, c := range g.Cylinders {
		if c.Cylinder.ID == id {
			return c, true
		}
	}
	return CylinderGas{}, false
}

// FindPotentialWorstCaseTtsPoints returns the segments whose end is a
// candidate for the worst place to run into trouble. A segment is dropped
// when another one ends at least as deep with at least as long a time to
// surface; between two identical points the later one is kept.
func FindPotentialWorstCaseTtsPoints(plan *dive.Plan) []dive.Segment {
	var annotated []dive.Segment
	for _, s := range plan.Segments {
		if s.HasTTS() {
			annotated = append(annotated, s)
		}
	}

	var candidates []dive.Segment
	for i, s := range annotated {
		dominated := false
		for j, t := range annotated {
			if i == j || t.EndDepth < s.EndDepth || t.TTS() < s.TTS() {
				continue
			}
			if t.EndDepth > s.EndDepth || t.TTS() > s.TTS() || j > i {
				dominated = true
				break
			}
		}
		if !dominated {
			candidates = append(candidates, s)
		}
	}
	return candidates
}

// consumption accumulates surface liters per cylinder in order of first use
type consumption struct {
	order  []physics.Cylinder
	liters map[uuid.UUID]float64
}

func newConsumption() *consumption {
	return &consumption{liters: make(map[uuid.UUID]float64)}
}

func (c *consumption) add(segments []dive.Segment, sac float64, env physics.Environment) {
	for _, s := range segments {
		id := s.Cylinder.ID
		if _, seen := c.liters[id]; !seen {
			c.order = append(c.order, s.Cylinder)
		}
		c.liters[id] += env.DepthToPressure(s.AverageDepth()) * sac * float64(s.Duration)
	}
}

// Calculate returns the gas plan for a dive plan. The normal requirement
// comes from the plan itself at the normal SAC rate. For every worst-case
// candidate the diver breathes normally up to that point and then follows
// the recorded direct ascent at the out-of-air SAC rate; the extra is what
// that needs beyond the normal requirement, taking the largest value per
// cylinder over all candidates.
func Calculate(plan *dive.Plan) *GasPlan {
	if plan.IsEmpty() {
		return &GasPlan{}
	}

	cfg := plan.Configuration
	env := cfg.Environment

	baseline := newConsumption()
	baseline.add(plan.Compacted(), cfg.SACRate, env)

	extra := make(map[uuid.UUID]float64)
	for _, candidate := range FindPotentialWorstCaseTtsPoints(plan) {
		ascent, ok := plan.AlternativeAscents[candidate.End()]
		if !ok {
			continue
		}

		emergency := newConsumption()
		emergency.add(segmentsUntil(plan.Segments, candidate.End()), cfg.SACRate, env)
		emergency.add(ascent, cfg.SACRateOutOfAir, env)

		for _, cylinder := range emergency.order {
			needed := emergency.liters[cylinder.ID] - baseline.liters[cylinder.ID]
			if needed > extra[cylinder.ID] {
				extra[cylinder.ID] = needed
			}
			if _, seen := baseline.liters[cylinder.ID]; !seen {
				baseline.order = append(baseline.order, cylinder)
				baseline.liters[cylinder.ID] = 0
			}
		}
	}

	gp := &GasPlan{Cylinders: make([]CylinderGas, 0, len(baseline.order))}
	for _, cylinder := range baseline.order {
		gp.Cylinders = append(gp.Cylinders, CylinderGas{
			Cylinder: cylinder,
			Normal:   baseline.liters[cylinder.ID],
			Extra:    extra[cylinder.ID],
		})
	}
	return gp
}

func segmentsUntil(segments []dive.Segment, minute int) []dive.Segment {
	var until []dive.Segment
	for _, s := range segments {
		if s.End() > minute {
			break
		}
		until = append(until, s)
	}
	return until
}
