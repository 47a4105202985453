package dive

import (
	"github.com/chrissnell/decoplanner/pkg/physics"
	"github.com/google/uuid"
)

// Section is one level of a user profile: reach Depth and stay there until
// Duration minutes have passed since the previous section ended. Travel and
// decompression time count against Duration.
type Section struct {
	Duration int              `json:"duration"`
	Depth    float64          `json:"depth"`
	Cylinder physics.Cylinder `json:"cylinder"`
}

// Profile is the ordered list of sections of a dive
type Profile []Section

// MaxDepth returns the deepest section depth
func (p Profile) MaxDepth() float64 {
	deepest := 0.0
	for _, s := range p {
		if s.Depth > deepest {
			deepest = s.Depth
		}
	}
	return deepest
}

// Cylinders returns each distinct cylinder used by the profile, in order of
// first use.
func (p Profile) Cylinders() []physics.Cylinder {
	seen := make(map[uuid.UUID]bool)
	var cylinders []physics.Cylinder
	for _, s := range p {
		if !seen[s.Cylinder.ID] {
			seen[s.Cylinder.ID] = true
			cylinders = append(cylinders, s.Cylinder)
		}
	}
	return cylinders
}

// Contingency returns the "deeper and longer" variant of the profile: every
// section at the maximum depth goes deeper by the given meters and lasts
// longer by the given minutes.
func (p Profile) Contingency(deeper float64, longer int) Profile {
	deepest := p.MaxDepth()
	out := make(Profile, len(p))
	for i, s := range p {
		if s.Depth == deepest {
			s.Depth += deeper
			s.Duration += longer
		}
		out[i] = s
	}
	return out
}
