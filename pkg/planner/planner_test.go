package planner

import (
	"errors"
	"math"
	"testing"

	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backGas() physics.Cylinder {
	return physics.NewCylinder("back gas", physics.Air, 232, 12)
}

// assertContinuous checks that the segments form one unbroken schedule from
// the surface back to the surface.
func assertContinuous(t *testing.T, plan *dive.Plan) {
	t.Helper()
	require.NotEmpty(t, plan.Segments)

	assert.Equal(t, 0, plan.Segments[0].StartMinute)
	assert.Equal(t, 0.0, plan.Segments[0].StartDepth)
	for i := 1; i < len(plan.Segments); i++ {
		prev, s := plan.Segments[i-1], plan.Segments[i]
		assert.Equal(t, prev.End(), s.StartMinute, "segment %d starts late", i)
		assert.InDelta(t, prev.EndDepth, s.StartDepth, 1e-9, "segment %d jumps in depth", i)
		assert.Greater(t, s.Duration, 0)
	}
	assert.Equal(t, 0.0, plan.Segments[len(plan.Segments)-1].EndDepth)
}

func TestEmptyProfile(t *testing.T) {
	plan, err := ComputeDivePlan(dive.DefaultConfiguration(), nil, nil)
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
	assert.Equal(t, 0.0, plan.TotalCNS)
	assert.Equal(t, 0.0, plan.TotalOTU)
	assert.Equal(t, 0, plan.Runtime())
}

func TestNoDecompressionDive(t *testing.T) {
	air := backGas()
	plan, err := ComputeDivePlan(dive.DefaultConfiguration(), dive.Profile{{Duration: 10, Depth: 16, Cylinder: air}}, nil)
	require.NoError(t, err)

	assertContinuous(t, plan)
	assert.Empty(t, plan.DecoStops())
	_, deco := plan.FirstDecoMinute()
	assert.False(t, deco)

	// one minute down, nine at depth, 16 m at 5 m/min up
	assert.Equal(t, 14, plan.Runtime())
	compacted := plan.Compacted()
	require.Len(t, compacted, 3)
	assert.Equal(t, 4, compacted[2].Duration)
	assert.Equal(t, 4, compacted[1].TTS())
}

func TestSixteenMetersFortyFiveMinutes(t *testing.T) {
	air := backGas()
	plan, err := ComputeDivePlan(dive.DefaultConfiguration(), dive.Profile{{Duration: 45, Depth: 16, Cylinder: air}}, nil)
	require.NoError(t, err)

	assertContinuous(t, plan)
	stops := plan.DecoStops()
	require.Len(t, stops, 1)
	assert.Equal(t, 3.0, stops[0].StartDepth)
	assert.Equal(t, 1, stops[0].Duration)
	assert.Equal(t, 50, plan.Runtime())

	first, ok := plan.FirstDecoMinute()
	require.True(t, ok)
	assert.Equal(t, 48, first)

	assert.Equal(t, 16.0, plan.MaxDepth())
	assert.Len(t, plan.BottomGases, 1)
	assert.Greater(t, plan.TotalCNS, 0.0)
}

func TestDecompressionWithDecoGases(t *testing.T) {
	air := backGas()
	ean50 := physics.NewCylinder("ean50", physics.MustGas(0.5, 0), 207, 7)
	oxygen := physics.NewCylinder("oxygen", physics.Oxygen, 200, 7)

	cfg := dive.DefaultConfiguration()
	plan, err := ComputeDivePlan(cfg, dive.Profile{{Duration: 25, Depth: 40, Cylinder: air}}, []physics.Cylinder{ean50, oxygen})
	require.NoError(t, err)
	assertContinuous(t, plan)

	stops := plan.DecoStops()
	require.NotEmpty(t, stops)
	for _, stop := range stops {
		assert.Zero(t, math.Mod(stop.StartDepth, cfg.DecoStepSize), "stop at %.1f m is off the grid", stop.StartDepth)
		assert.GreaterOrEqual(t, stop.StartDepth, cfg.LastDecoStopDepth)

		// every stop gas is breathable where it is used
		assert.LessOrEqual(t, stop.StartDepth, math.Round(cfg.DecoMOD(stop.Cylinder.Gas)))
		switch {
		case stop.StartDepth <= 6:
			assert.Equal(t, oxygen.ID, stop.Cylinder.ID, "stop at %.0f m", stop.StartDepth)
		case stop.StartDepth <= 21:
			assert.Equal(t, ean50.ID, stop.Cylinder.ID, "stop at %.0f m", stop.StartDepth)
		}
	}
	assert.Greater(t, plan.TotalCNS, 0.0)
	assert.Greater(t, plan.TotalOTU, 0.0)
	assert.Len(t, plan.Cylinders(), 3)

	// the time to surface predicted at the end of the bottom phase is what
	// the final ascent actually takes
	var bottom dive.Segment
	for _, s := range plan.Segments {
		if s.End() == 25 {
			bottom = s
		}
	}
	require.True(t, bottom.HasTTS())
	assert.Equal(t, plan.Runtime()-25, bottom.TTS())
}

func TestAlternativeAscentsMatchTTS(t *testing.T) {
	air := backGas()
	ean50 := physics.NewCylinder("ean50", physics.MustGas(0.5, 0), 207, 7)
	profile := dive.Profile{
		{Duration: 20, Depth: 30, Cylinder: air},
		{Duration: 20, Depth: 15, Cylinder: air},
	}

	plan, err := ComputeDivePlan(dive.DefaultConfiguration(), profile, []physics.Cylinder{ean50})
	require.NoError(t, err)
	assertContinuous(t, plan)

	annotated := 0
	for _, s := range plan.Segments {
		if !s.HasTTS() {
			continue
		}
		annotated++
		ascent, ok := plan.AlternativeAscents[s.End()]
		require.True(t, ok, "no alternative ascent at minute %d", s.End())

		total := 0
		for _, a := range ascent {
			total += a.Duration
		}
		assert.Equal(t, s.TTS(), total)
		if len(ascent) > 0 {
			assert.Equal(t, s.End(), ascent[0].StartMinute)
			assert.Equal(t, 0.0, ascent[len(ascent)-1].EndDepth)
		}
	}
	assert.GreaterOrEqual(t, annotated, 4)
}

func TestEverySectionSegmentCarriesTTS(t *testing.T) {
	air := backGas()
	ean50 := physics.NewCylinder("ean50", physics.MustGas(0.5, 0), 207, 7)
	profile := dive.Profile{
		{Duration: 30, Depth: 45, Cylinder: air},
		{Duration: 40, Depth: 9, Cylinder: air},
	}

	plan, err := ComputeDivePlan(dive.DefaultConfiguration(), profile, []physics.Cylinder{ean50})
	require.NoError(t, err)
	assertContinuous(t, plan)

	sectionsEnd := 70
	decoGasOffered := false
	for _, s := range plan.Segments {
		if s.End() > sectionsEnd {
			assert.False(t, s.HasTTS(), "final ascent segment at minute %d", s.StartMinute)
			continue
		}
		require.True(t, s.HasTTS(), "segment at minute %d", s.StartMinute)
		ascent, ok := plan.AlternativeAscents[s.End()]
		require.True(t, ok, "no alternative ascent at minute %d", s.End())

		// between the sections the stops stay on back gas, but an aborted
		// dive may still use the deco gas
		if s.StartMinute >= 30 {
			for _, a := range ascent {
				if a.Cylinder.ID == ean50.ID {
					decoGasOffered = true
				}
			}
		}
	}
	assert.True(t, decoGasOffered)
}

func TestDecoGasRestrictedBetweenSections(t *testing.T) {
	ean50 := physics.NewCylinder("ean50", physics.MustGas(0.5, 0), 207, 7)

	tests := []struct {
		name    string
		between bool
	}{
		{name: "restricted", between: false},
		{name: "unrestricted", between: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			air := backGas()
			cfg := dive.DefaultConfiguration()
			cfg.UseDecoGasBetweenSections = tt.between

			profile := dive.Profile{
				{Duration: 30, Depth: 45, Cylinder: air},
				{Duration: 40, Depth: 9, Cylinder: air},
			}
			plan, err := ComputeDivePlan(cfg, profile, []physics.Cylinder{ean50})
			require.NoError(t, err)
			assertContinuous(t, plan)

			usedBeforeLevel := false
			for _, s := range plan.Segments {
				if s.EndDepth == 9 && s.Type() == dive.Flat && !s.IsDecompression {
					break
				}
				if s.Cylinder.ID == ean50.ID {
					usedBeforeLevel = true
				}
			}
			assert.Equal(t, tt.between, usedBeforeLevel)

			// the final ascent may always switch
			last := plan.Segments[len(plan.Segments)-1]
			assert.Equal(t, ean50.ID, last.Cylinder.ID)
		})
	}
}

func TestDecompressionEndsWhenCeilingAllowsTarget(t *testing.T) {
	tests := []struct {
		name    string
		toDepth float64
	}{
		{name: "off the step grid", toDepth: 10},
		{name: "above the last stop", toDepth: 2},
		{name: "surface", toDepth: 0},
	}

	for _, tt := range tests {
		for bottom := 15; bottom <= 35; bottom += 5 {
			air := backGas()
			cfg := dive.DefaultConfiguration()
			cfg.ForceMinimalDecoStopTime = false

			p := NewDecompressionPlanner(cfg, nil, nil)
			p.AddDepthChangePerMinute(0, 40, air, 2, false)
			p.AddFlat(air, bottom, false)
			p.CalculateDecompression(tt.toDepth)

			assert.Equal(t, tt.toDepth, p.Depth(), "%s, bottom %d", tt.name, bottom)
			segments := p.Segments()
			for i, s := range segments {
				if !s.IsDecompressionStop() {
					continue
				}
				require.Greater(t, i, 0)
				assert.Greater(t, segments[i-1].Ceiling, tt.toDepth,
					"%s, bottom %d: stop at %.0f m minute %d", tt.name, bottom, s.StartDepth, s.StartMinute)
			}
		}
	}

	// 40 m for 20 min needs stops, but the 3 m stop is not held for a 2 m target
	air := backGas()
	cfg := dive.DefaultConfiguration()
	cfg.ForceMinimalDecoStopTime = false
	toSurface := NewDecompressionPlanner(cfg, nil, nil)
	toTwo := NewDecompressionPlanner(cfg, nil, nil)
	for _, p := range []*DecompressionPlanner{toSurface, toTwo} {
		p.AddDepthChangePerMinute(0, 40, air, 2, false)
		p.AddFlat(air, 20, false)
	}
	toSurface.CalculateDecompression(0)
	toTwo.CalculateDecompression(2)
	assert.NotEmpty(t, stopsOf(toSurface.Segments()))
	assert.Less(t, toTwo.Runtime(), toSurface.Runtime())
}

func stopsOf(segments []dive.Segment) []dive.Segment {
	var stops []dive.Segment
	for _, s := range segments {
		if s.IsDecompressionStop() {
			stops = append(stops, s)
		}
	}
	return stops
}

func TestNotEnoughTimeToReachDepth(t *testing.T) {
	air := backGas()
	_, err := ComputeDivePlan(dive.DefaultConfiguration(), dive.Profile{{Duration: 1, Depth: 60, Cylinder: air}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEnoughTimeToReachDepth))

	var sectionErr *SectionError
	require.True(t, errors.As(err, &sectionErr))
	assert.Equal(t, 0, sectionErr.Index)
	assert.Equal(t, 60.0, sectionErr.Section.Depth)
}

func TestNotEnoughTimeToDecompress(t *testing.T) {
	air := backGas()
	profile := dive.Profile{
		{Duration: 40, Depth: 40, Cylinder: air},
		{Duration: 1, Depth: 5, Cylinder: air},
	}
	_, err := ComputeDivePlan(dive.DefaultConfiguration(), profile, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEnoughTimeToDecompress))
	assert.False(t, errors.Is(err, ErrNotEnoughTimeToReachDepth))

	var sectionErr *SectionError
	require.True(t, errors.As(err, &sectionErr))
	assert.Equal(t, 1, sectionErr.Index)
	assert.Contains(t, err.Error(), "section 2")
}

func TestDescentRoundsDown(t *testing.T) {
	air := backGas()
	cfg := dive.DefaultConfiguration()

	// 30 m at 20 m/min is one minute, not two
	plan, err := ComputeDivePlan(cfg, dive.Profile{{Duration: 1, Depth: 30, Cylinder: air}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30.0, plan.Segments[0].EndDepth)
	assert.Equal(t, 1, plan.Segments[0].Duration)
	assert.Equal(t, 1, plan.Segments[1].StartMinute)
}

func TestPlannerResetAfter(t *testing.T) {
	air := backGas()
	p := NewDecompressionPlanner(dive.DefaultConfiguration(), nil, nil)
	p.AddDepthChangePerMinute(0, 30, air, 2, false)
	p.AddFlat(air, 20, false)

	before := p.Model().Snapshot()
	count, runtime := len(p.Segments()), p.Runtime()

	p.ResetAfter(func() bool {
		p.CalculateDecompression(0)
		assert.Equal(t, 0.0, p.Depth())
		return false
	})
	assert.Equal(t, before, p.Model().Snapshot())
	assert.Len(t, p.Segments(), count)
	assert.Equal(t, runtime, p.Runtime())
	assert.Equal(t, 30.0, p.Depth())

	tts := p.CalculateTimeToSurface()
	assert.Greater(t, tts, 0)
	assert.Len(t, p.Segments(), count)

	p.ResetAfter(func() bool {
		p.CalculateDecompression(0)
		return true
	})
	assert.Equal(t, 0.0, p.Depth())
	assert.Equal(t, runtime+tts, p.Runtime())
}

func TestDecoGasRegistry(t *testing.T) {
	ean50 := physics.NewCylinder("ean50", physics.MustGas(0.5, 0), 207, 7)
	oxygen := physics.NewCylinder("oxygen", physics.Oxygen, 200, 7)

	p := NewDecompressionPlanner(dive.DefaultConfiguration(), []physics.Cylinder{ean50}, nil)
	p.AddDecoGas(oxygen)
	require.Len(t, p.DecoGases(), 2)

	gases := p.DecoGases()
	gases[0] = oxygen
	assert.Equal(t, ean50.ID, p.DecoGases()[0].ID, "DecoGases returns a copy")

	p.SetDecoGases(nil)
	assert.Empty(t, p.DecoGases())
}

func TestBestDecoGas(t *testing.T) {
	air := backGas()
	ean50 := physics.NewCylinder("ean50", physics.MustGas(0.5, 0), 207, 7)
	oxygen := physics.NewCylinder("oxygen", physics.Oxygen, 200, 7)
	tx := physics.NewCylinder("tx21/35", physics.MustGas(0.21, 0.35), 200, 11)

	p := NewDecompressionPlanner(dive.DefaultConfiguration(), []physics.Cylinder{tx, oxygen, ean50}, nil)
	p.AddFlat(air, 1, false)

	tests := []struct {
		depth float64
		want  physics.Cylinder
	}{
		{depth: 40, want: air},
		{depth: 21, want: ean50},
		{depth: 9, want: ean50},
		{depth: 6, want: oxygen},
		{depth: 3, want: oxygen},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want.ID, p.bestDecoGas(tt.depth).ID, "depth %.0f", tt.depth)
	}
}

func TestNoDecompressionLimits(t *testing.T) {
	cfg := dive.DefaultConfiguration()
	depths := []float64{12, 18, 24, 30, 40}
	limits := NoDecompressionLimits(cfg, physics.Air, depths)
	require.Len(t, limits, len(depths))

	for i := 1; i < len(limits); i++ {
		assert.LessOrEqual(t, limits[i], limits[i-1])
	}
	assert.Equal(t, cfg.NewModel().NoDecompressionLimit(30, physics.Air), limits[3])
}
