package dive

import (
	"math"

	"github.com/chrissnell/decoplanner/pkg/physics"
)

// SegmentType classifies a segment by its depth change
type SegmentType int

const (
	Flat SegmentType = iota
	Descent
	Ascent
)

func (t SegmentType) String() string {
	switch t {
	case Descent:
		return "descent"
	case Ascent:
		return "ascent"
	default:
		return "flat"
	}
}

// Segment is one piece of a dive schedule. StartMinute and Duration are whole
// minutes of runtime.
type Segment struct {
	StartMinute     int              `json:"start_minute"`
	Duration        int              `json:"duration"`
	StartDepth      float64          `json:"start_depth"`
	EndDepth        float64          `json:"end_depth"`
	Cylinder        physics.Cylinder `json:"cylinder"`
	Ceiling         float64          `json:"ceiling"`
	IsDecompression bool             `json:"is_decompression"`

	// TTSAfter is the time to surface at the end of the segment, set by the
	// dive planner once the segment is in place.
	TTSAfter *int `json:"tts_after,omitempty"`
}

// End is the runtime minute at which the segment finishes
func (s Segment) End() int {
	return s.StartMinute + s.Duration
}

// AverageDepth is the mean depth over a linear segment
func (s Segment) AverageDepth() float64 {
	return (s.StartDepth + s.EndDepth) / 2
}

// MaxDepth is the deeper of the two end points
func (s Segment) MaxDepth() float64 {
	return math.Max(s.StartDepth, s.EndDepth)
}

// Type derives the segment type from its end points
func (s Segment) Type() SegmentType {
	switch {
	case s.EndDepth > s.StartDepth:
		return Descent
	case s.EndDepth < s.StartDepth:
		return Ascent
	default:
		return Flat
	}
}

// Speed is the travel rate in meters per minute
func (s Segment) Speed() float64 {
	if s.Duration == 0 {
		return 0
	}
	return math.Abs(s.EndDepth-s.StartDepth) / float64(s.Duration)
}

// IsDecompressionStop is true for a flat segment spent on decompression
func (s Segment) IsDecompressionStop() bool {
	return s.IsDecompression && s.Type() == Flat
}

// HasTTS reports whether the time to surface annotation is set
func (s Segment) HasTTS() bool {
	return s.TTSAfter != nil
}

// TTS returns the time to surface annotation, zero if unset
func (s Segment) TTS() int {
	if s.TTSAfter == nil {
		return 0
	}
	return *s.TTSAfter
}

// WithTTS returns a copy of the segment annotated with a time to surface
func (s Segment) WithTTS(minutes int) Segment {
	s.TTSAfter = &minutes
	return s
}

func (s Segment) mergesWith(next Segment) bool {
	return s.Type() == next.Type() &&
		s.Cylinder.ID == next.Cylinder.ID &&
		s.IsDecompression == next.IsDecompression &&
		s.EndDepth == next.StartDepth &&
		s.End() == next.StartMinute
}

// Compact merges runs of adjacent segments that share type, cylinder and
// decompression flag into single segments. Applying it twice gives the same
// result as applying it once.
func Compact(segments []Segment) []Segment {
	if len(segments) == 0 {
		return nil
	}

	compacted := make([]Segment, 0, len(segments))
	current := segments[0]
	for _, next := range segments[1:] {
		if current.mergesWith(next) {
			current.Duration += next.Duration
			current.EndDepth = next.EndDepth
			current.Ceiling = next.Ceiling
			current.TTSAfter = next.TTSAfter
			continue
		}
		compacted = append(compacted, current)
		current = next
	}
	return append(compacted, current)
}
