package tonelock

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonelock/Spectrum"
)

func TestParseTones(t *testing.T) {
	tones, err := ParseTones("1000:4, 2000:2,3000")
	require.NoError(t, err)
	assert.Equal(t, []Tone{
		{Frequency: 1000, Amplitude: 4},
		{Frequency: 2000, Amplitude: 2},
		{Frequency: 3000, Amplitude: 1},
	}, tones)

	for _, bad := range []string{"", " , ", "abc", "1000:x", "-5:1"} {
		_, err := ParseTones(bad)
		assert.Error(t, err, bad)
	}
}

func TestGenerateKey_Normalized(t *testing.T) {
	signal := GenerateKey([]Tone{{1000, 4}, {2000, 2}, {3000, 1}}, 44100, time.Second)
	require.Len(t, signal, 44100)

	peak := 0.0
	for _, v := range signal {
		peak = math.Max(peak, math.Abs(v))
	}
	assert.InDelta(t, 1.0, peak, 1e-12)
	assert.Zero(t, signal[0])
}

func TestGenerateKey_Silent(t *testing.T) {
	signal := GenerateKey(nil, 8000, 10*time.Millisecond)
	assert.Len(t, signal, 80)
	for _, v := range signal {
		assert.Zero(t, v)
	}
}

func TestGenerateSweep(t *testing.T) {
	signal := GenerateSweep(100, 2000, 8000, 500*time.Millisecond)
	require.Len(t, signal, 4000)
	for _, v := range signal {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}

func TestApplyEffects(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	clean := GenerateKey(KeyTones([]float64{1000}), 8000, time.Second)

	// 高信噪比时几乎不变
	out := ApplyEffects(clean, 8000, ChannelEffects{SNRdB: 80}, rng)
	require.Len(t, out, len(clean))
	for i := range clean {
		assert.InDelta(t, clean[i], out[i], 1e-2)
	}

	// 原信号不被修改
	faded := ApplyEffects(clean, 8000, ChannelEffects{SNRdB: 80, FadeRate: 1, FadeDepth: 1}, rng)
	assert.InDelta(t, 1.0, maxAbs(clean), 1e-12)
	assert.Less(t, maxAbs(faded[1800:2200]), 0.1) // 衰落谷底 (sin 相位 π/2 处)

	silent := make([]float64, 100)
	assert.Equal(t, silent, ApplyEffects(silent, 8000, ChannelEffects{SNRdB: 0}, rng))
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// 生成的钥匙音写成 WAV 再读回，应当能在任意帧上解锁
func TestKeyRoundTrip_Unlocks(t *testing.T) {
	cfg := DefaultConfig()
	path := filepath.Join(t.TempDir(), "key.wav")
	signal := GenerateKey(KeyTones(cfg.Unlock.Targets), cfg.Audio.SampleRate, 500*time.Millisecond)
	require.NoError(t, WriteWavFile(path, cfg.Audio.SampleRate, signal))

	src, err := NewWavSource(path, cfg, nil)
	require.NoError(t, err)

	ac, err := cfg.AnalysisConfig()
	require.NoError(t, err)
	analyzer, err := Spectrum.NewAnalyzer(ac)
	require.NoError(t, err)

	for _, i := range []int{0, src.FrameCount() / 2, src.FrameCount() - 1} {
		res, err := analyzer.Analyze(src.Frame(i))
		require.NoError(t, err)
		assert.True(t, res.Decision.Unlocked, "frame %d: %+v", i, res.Peaks)
	}
}
