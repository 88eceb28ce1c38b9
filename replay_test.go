package tonelock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReplayConfig() *Config {
	cfg := DefaultConfig()
	cfg.Audio.SampleRate = 8000
	cfg.Analysis.FFTSize = 8
	cfg.Replay.HopSize = 4
	cfg.Replay.Realtime = false
	return cfg
}

func TestSampleSource_Frames(t *testing.T) {
	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = float64(i)
	}
	src := NewSampleSource(samples, testReplayConfig())

	assert.Equal(t, 4, src.FrameCount()) // 起点 0, 4, 8, 12
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, src.Frame(0))
	assert.Equal(t, []float64{12, 13, 14, 15, 16, 17, 18, 19}, src.Frame(3))
	assert.Equal(t, []float64{16, 17, 18, 19, 0, 0, 0, 0}, src.Frame(4))
	assert.Equal(t, time.Millisecond, src.FrameTime(2))
}

func TestSampleSource_ShortFile(t *testing.T) {
	src := NewSampleSource([]float64{1, 2, 3}, testReplayConfig())
	assert.Equal(t, 1, src.FrameCount())
	assert.Equal(t, []float64{1, 2, 3, 0, 0, 0, 0, 0}, src.Frame(0))

	assert.Equal(t, 0, NewSampleSource(nil, testReplayConfig()).FrameCount())
}

func TestWavSource_RunPublishesEveryFrame(t *testing.T) {
	src := NewSampleSource(make([]float64, 20), testReplayConfig())
	slot := NewFrameSlot()

	require.NoError(t, src.Run(context.Background(), slot))
	assert.Equal(t, uint64(4), slot.Seq())
	require.NoError(t, src.Close())
}

func TestWavSource_RealtimePacing(t *testing.T) {
	cfg := testReplayConfig()
	cfg.Replay.Realtime = true
	cfg.Replay.HopSize = 40 // 5ms
	src := NewSampleSource(make([]float64, 8+40*4), cfg)

	start := time.Now()
	require.NoError(t, src.Run(context.Background(), NewFrameSlot()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWavSource_RunCancelled(t *testing.T) {
	cfg := testReplayConfig()
	cfg.Replay.Realtime = true
	cfg.Replay.HopSize = 8000 // 每帧 1 秒
	src := NewSampleSource(make([]float64, 8000*10), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, src.Run(ctx, NewFrameSlot()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewWavSource_UsesFileSampleRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteWavFile(path, 16000, make([]float64, 1600)))

	cfg := DefaultConfig()
	cfg.Analysis.FFTSize = 512
	src, err := NewWavSource(path, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 16000, src.SampleRate)
	assert.Equal(t, 320, src.HopSize)
	assert.Equal(t, (1600-512)/320+1, src.FrameCount())
}
