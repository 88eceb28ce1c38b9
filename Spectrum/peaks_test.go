package Spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binsOf(mags ...float64) []Bin {
	bins := make([]Bin, len(mags))
	for i, m := range mags {
		bins[i] = Bin{Frequency: float64(i) * 100, Magnitude: m}
	}
	return bins
}

func TestTopPeaks_OrderedByMagnitude(t *testing.T) {
	peaks := TopPeaks(binsOf(1, 5, 2, 9, 3), 3)
	require.Len(t, peaks, 3)

	assert.Equal(t, 9.0, peaks[0].Magnitude)
	assert.Equal(t, 300.0, peaks[0].Frequency)
	assert.Equal(t, 3, peaks[0].Position)

	assert.Equal(t, 5.0, peaks[1].Magnitude)
	assert.Equal(t, 100.0, peaks[1].Frequency)

	assert.Equal(t, 3.0, peaks[2].Magnitude)
	assert.Equal(t, 400.0, peaks[2].Frequency)

	assert.InDelta(t, 100.0, peaks[0].Percent, 1e-12)
	assert.InDelta(t, 5.0/9*100, peaks[1].Percent, 1e-12)
}

func TestTopPeaks_TiesKeepLowerFrequencyFirst(t *testing.T) {
	peaks := TopPeaks(binsOf(2, 7, 7, 1, 7), 3)
	require.Len(t, peaks, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{peaks[0].Position, peaks[1].Position, peaks[2].Position})
}

func TestTopPeaks_FewerBinsThanK(t *testing.T) {
	assert.Len(t, TopPeaks(binsOf(1, 2), 4), 2)
	assert.Nil(t, TopPeaks(nil, 3))
	assert.Nil(t, TopPeaks(binsOf(1, 2), 0))
}

func TestTopPeaks_AllZeroHasZeroPercent(t *testing.T) {
	peaks := TopPeaks(binsOf(0, 0, 0, 0), 3)
	require.Len(t, peaks, 3)
	for _, p := range peaks {
		assert.Zero(t, p.Magnitude)
		assert.Zero(t, p.Percent)
		assert.False(t, math.IsNaN(p.Percent))
	}
}
