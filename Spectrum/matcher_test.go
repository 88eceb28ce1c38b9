package Spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func peaksAt(freqs ...float64) []Peak {
	peaks := make([]Peak, len(freqs))
	for i, f := range freqs {
		peaks[i] = Peak{Bin: Bin{Frequency: f, Magnitude: 10}, Position: i}
	}
	return peaks
}

func TestMatch_AllTargetsHit(t *testing.T) {
	ts := NewTargetSet([]float64{1000, 3000, 4000}, 100, 3)

	d := ts.Match(peaksAt(995, 2990, 4010))
	assert.True(t, d.Unlocked)
	assert.Equal(t, 3, d.MatchedCount)
	assert.Len(t, d.Matches, 3)
	assert.Equal(t, 1000.0, d.Matches[0].Target.Frequency)
	assert.InDelta(t, -5.0, d.Matches[0].Offset, 1e-12)
	assert.Equal(t, 2, d.Matches[2].TargetIndex)
}

func TestMatch_OneTargetMissed(t *testing.T) {
	ts := NewTargetSet([]float64{1000, 3000, 4000}, 100, 3)

	d := ts.Match(peaksAt(995, 2500, 4010))
	assert.False(t, d.Unlocked)
	assert.Equal(t, 2, d.MatchedCount)
}

func TestMatch_ToleranceIsInclusive(t *testing.T) {
	ts := NewTargetSet([]float64{1000}, 100, 1)
	assert.True(t, ts.Match(peaksAt(1100)).Unlocked)
	assert.True(t, ts.Match(peaksAt(900)).Unlocked)
	assert.False(t, ts.Match(peaksAt(1100.5)).Unlocked)
}

func TestMatch_PeakModeCountsClusteredPeaks(t *testing.T) {
	ts := NewTargetSet([]float64{1000, 3000, 4000}, 100, 3)
	peaks := peaksAt(990, 1000, 1010)

	d := ts.Match(peaks)
	assert.True(t, d.Unlocked, "peak mode counts every matching peak")
	assert.Equal(t, 3, d.MatchedCount)

	ts.Mode = MatchDistinctTargets
	d = ts.Match(peaks)
	assert.False(t, d.Unlocked, "distinct mode needs three different targets")
	assert.Equal(t, 1, d.MatchedCount)
	assert.Len(t, d.Matches, 3)
}

func TestMatch_DistinctModeAllTargets(t *testing.T) {
	ts := NewTargetSet([]float64{1000, 3000, 4000}, 100, 3)
	ts.Mode = MatchDistinctTargets
	assert.True(t, ts.Match(peaksAt(995, 2990, 4010)).Unlocked)
}

func TestMatch_PerTargetTolerance(t *testing.T) {
	ts := TargetSet{
		Targets:   []Target{{Frequency: 1000, Tolerance: 10}, {Frequency: 2000, Tolerance: 200}},
		Threshold: 2,
	}
	assert.False(t, ts.Match(peaksAt(1050, 2150)).Unlocked)
	assert.True(t, ts.Match(peaksAt(1005, 2150)).Unlocked)
}

func TestMatch_NearestTargetReported(t *testing.T) {
	ts := NewTargetSet([]float64{1000, 1150}, 100, 1)
	d := ts.Match(peaksAt(1090))
	assert.Equal(t, 1, d.Matches[0].TargetIndex)
}

func TestMatch_SilentPeaksNeverMatch(t *testing.T) {
	ts := NewTargetSet([]float64{0, 100, 200}, 100, 1)
	peaks := []Peak{
		{Bin: Bin{Frequency: 0}},
		{Bin: Bin{Frequency: 100}},
		{Bin: Bin{Frequency: 200}},
	}
	d := ts.Match(peaks)
	assert.False(t, d.Unlocked)
	assert.Zero(t, d.MatchedCount)
	assert.Empty(t, d.Matches)
}

func TestTargetSet_Validate(t *testing.T) {
	assert.NoError(t, NewTargetSet([]float64{1000}, 0, 1).Validate())
	assert.ErrorIs(t, NewTargetSet(nil, 100, 1).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, NewTargetSet([]float64{1000}, -1, 1).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, NewTargetSet([]float64{1000}, 100, 0).Validate(), ErrInvalidConfig)

	ts := NewTargetSet([]float64{1000}, 100, 1)
	ts.Mode = "majority"
	assert.ErrorIs(t, ts.Validate(), ErrInvalidConfig)
}
