// Package oxtox integrates oxygen toxicity exposure over a dive: CNS
// percentage from the NOAA single-exposure limits and pulmonary OTU.
package oxtox

import (
	"math"

	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/physics"
)

// Threshold is the PPO2 in bar below which no exposure accumulates
const Threshold = 0.5

// Log-linear fits of the NOAA exposure limit, ln(limit minutes) = slope·ppo2 + intercept.
// The first piece runs through (0.6 bar, 720 min) and (1.5 bar, 120 min); the
// second through (1.5 bar, 120 min) and (1.6 bar, 45 min).
const (
	cnsBreakPoint = 1.5

	cnsLowSlope      = -1.9908438547
	cnsLowIntercept  = 7.7737575248
	cnsHighSlope     = -9.8082925301
	cnsHighIntercept = 19.4999305380
)

// otuExponent is the -5/6 power law of the Bardin-Lambertsen curve, as 0.83
const otuExponent = 0.83

// CNSLimit returns the NOAA single-exposure time limit in minutes for a PPO2.
// It is infinite at or below the threshold.
func CNSLimit(ppo2 float64) float64 {
	switch {
	case ppo2 <= Threshold:
		return math.Inf(1)
	case ppo2 <= cnsBreakPoint:
		return math.Exp(cnsLowSlope*ppo2 + cnsLowIntercept)
	default:
		return math.Exp(cnsHighSlope*ppo2 + cnsHighIntercept)
	}
}

func ppo2Range(s dive.Segment, env physics.Environment) (start, end float64) {
	o2 := s.Cylinder.Gas.O2
	return env.DepthToPressure(s.StartDepth) * o2, env.DepthToPressure(s.EndDepth) * o2
}

// SegmentCNS returns the CNS percentage accumulated over one segment
func SegmentCNS(s dive.Segment, env physics.Environment) float64 {
	ppo2 := env.DepthToPressure(s.AverageDepth()) * s.Cylinder.Gas.O2
	if ppo2 <= Threshold || s.Duration <= 0 {
		return 0
	}
	return float64(s.Duration) / CNSLimit(ppo2) * 100
}

// CalculateCNS sums the CNS percentage over all segments
func CalculateCNS(segments []dive.Segment, env physics.Environment) float64 {
	total := 0.0
	for _, s := range segments {
		total += SegmentCNS(s, env)
	}
	return total
}

// SegmentOTU returns the oxygen tolerance units accumulated over one
// segment. The portion of a travel segment spent below the threshold does
// not count.
func SegmentOTU(s dive.Segment, env physics.Environment) float64 {
	start, end := ppo2Range(s, env)
	if (start <= Threshold && end <= Threshold) || s.Duration <= 0 {
		return 0
	}

	minutes := float64(s.Duration)
	low, high := math.Min(start, end), math.Max(start, end)
	if low < Threshold {
		minutes *= (high - Threshold) / (high - low)
		low = Threshold
	}

	pm := low + high - 1.0
	return minutes * math.Pow(pm, otuExponent)
}

// CalculateOTU sums the OTU over all segments
func CalculateOTU(segments []dive.Segment, env physics.Environment) float64 {
	total := 0.0
	for _, s := range segments {
		total += SegmentOTU(s, env)
	}
	return total
}
