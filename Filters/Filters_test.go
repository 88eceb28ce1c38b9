package Filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sine(freq, amp, fs float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return out
}

func TestButterworthHighpass_RemovesDC(t *testing.T) {
	f := NewButterworthHighpass(2, 8000, 20)

	block := make([]float64, 8000)
	for i := range block {
		block[i] = 2.5
	}
	f.ProcessBlock(block)

	assert.InDelta(t, 0, block[len(block)-1], 0.01)
}

func TestButterworthHighpass_PassesTone(t *testing.T) {
	f := NewButterworthHighpass(4, 8000, 20)

	block := sine(1000, 1, 8000, 8000)
	for i := range block {
		block[i] += 2.5
	}
	f.ProcessBlock(block)

	peak := 0.0
	for _, v := range block[7200:] {
		peak = math.Max(peak, math.Abs(v))
	}
	assert.InDelta(t, 1.0, peak, 0.02)
}

func TestButterworthHighpass_Reset(t *testing.T) {
	f := NewButterworthHighpass(2, 8000, 20)
	first := f.Process(1)
	f.Process(1)
	f.Reset()
	assert.Equal(t, first, f.Process(1))
}

func TestButterworthHighpass_OddOrderPanics(t *testing.T) {
	assert.Panics(t, func() { NewButterworthHighpass(3, 8000, 20) })
}

func TestToneLevels(t *testing.T) {
	// 800 个样本正好包含整数个周期
	samples := sine(1000, 0.5, 8000, 800)
	for i, v := range sine(3000, 0.25, 8000, 800) {
		samples[i] += v
	}

	levels := ToneLevels(samples, 8000, []float64{1000, 2000, 3000})
	assert.InDelta(t, 0.5, levels[0], 1e-6)
	assert.InDelta(t, 0, levels[1], 1e-6)
	assert.InDelta(t, 0.25, levels[2], 1e-6)
}

func TestToneBank_ReusedAcrossFrames(t *testing.T) {
	bank := NewToneBank(8000, []float64{1000, 3000})
	tone := sine(1000, 0.5, 8000, 800)

	first := bank.Levels(tone)
	again := bank.Levels(tone)
	assert.InDeltaSlice(t, first, again, 1e-12)
	assert.InDelta(t, 0.5, again[0], 1e-6)

	// 上一帧的状态不能带到静音帧
	silent := bank.Levels(make([]float64, 800))
	assert.Equal(t, []float64{0, 0}, silent)
}

func TestToneLevels_Empty(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, ToneLevels(nil, 8000, []float64{1000, 2000}))
}
