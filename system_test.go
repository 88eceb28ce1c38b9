package tonelock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonelock/Spectrum"
)

// fakeSource 依次发布预先准备的帧，然后返回 err
// block 为 true 时发布完继续阻塞到 ctx 取消
type fakeSource struct {
	frames [][]float64
	err    error
	block  bool
	closed atomic.Bool
}

func (f *fakeSource) Run(ctx context.Context, slot *FrameSlot) error {
	for _, fr := range f.frames {
		slot.Publish(fr)
	}
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.err
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

func testSystemConfig() *Config {
	cfg := DefaultConfig()
	cfg.Analysis.PollInterval = 5 * time.Millisecond
	return cfg
}

func keyFrame(cfg *Config) []float64 {
	signal := GenerateKey(KeyTones(cfg.Unlock.Targets), cfg.Audio.SampleRate, time.Second)
	return signal[:cfg.Analysis.FFTSize]
}

func TestLockSystem_ProcessesFinalFrame(t *testing.T) {
	cfg := testSystemConfig()
	src := &fakeSource{frames: [][]float64{
		make([]float64, cfg.Analysis.FFTSize),
		keyFrame(cfg),
	}}

	system, err := NewLockSystem(cfg, src, nil)
	require.NoError(t, err)

	var last *Spectrum.Result
	var lastSeq uint64
	system.OnResult = func(seq uint64, res *Spectrum.Result) {
		lastSeq, last = seq, res
	}

	require.NoError(t, system.Run(context.Background()))
	require.NotNil(t, last)
	assert.Equal(t, uint64(2), lastSeq)
	assert.True(t, last.Decision.Unlocked)
	assert.Equal(t, 3, last.Decision.MatchedCount)

	st := system.Stats()
	assert.GreaterOrEqual(t, st.Frames, uint64(1))
	assert.Equal(t, uint64(1), st.Unlocks)
	assert.Zero(t, st.Failed)
	assert.True(t, src.closed.Load())
}

func TestLockSystem_SourceError(t *testing.T) {
	cfg := testSystemConfig()
	boom := errors.New("boom")
	src := &fakeSource{err: boom}

	system, err := NewLockSystem(cfg, src, nil)
	require.NoError(t, err)

	err = system.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, src.closed.Load())
}

func TestLockSystem_StopsOnCancel(t *testing.T) {
	cfg := testSystemConfig()
	src := &fakeSource{frames: [][]float64{keyFrame(cfg)}, block: true}

	system, err := NewLockSystem(cfg, src, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	system.OnResult = func(uint64, *Spectrum.Result) { calls.Add(1) }

	require.NoError(t, system.Run(ctx))
	// 同一帧只分析一次
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), system.Stats().Frames)
}

func TestLockSystem_SkipsFailedFrames(t *testing.T) {
	cfg := testSystemConfig()
	src := &fakeSource{frames: [][]float64{{1, 2, 3}}}

	system, err := NewLockSystem(cfg, src, nil)
	require.NoError(t, err)
	system.OnResult = func(uint64, *Spectrum.Result) {
		t.Error("no result expected for a malformed frame")
	}

	require.NoError(t, system.Run(context.Background()))
	assert.Equal(t, uint64(1), system.Stats().Failed)
	assert.Zero(t, system.Stats().Frames)
}

func TestLockSystem_WritesTrace(t *testing.T) {
	cfg := testSystemConfig()
	src := &fakeSource{frames: [][]float64{keyFrame(cfg)}}

	system, err := NewLockSystem(cfg, src, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trace.csv")
	tracer, err := NewCsvDecisionTracer(path)
	require.NoError(t, err)
	system.SetTracer(tracer)

	require.NoError(t, system.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Time,Frame,Peaks,Matched,Unlocked", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",3,1"), lines[1])
}

func TestNewLockSystem_InvalidConfig(t *testing.T) {
	cfg := testSystemConfig()
	cfg.Unlock.Targets = nil
	_, err := NewLockSystem(cfg, &fakeSource{}, nil)
	assert.ErrorIs(t, err, Spectrum.ErrInvalidConfig)
}
