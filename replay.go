package tonelock

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// WavSource 把 WAV 文件切成重叠的定长帧，按 hop 间隔依次发布
// 文件读完后 Run 返回 nil，系统据此处理完最后一帧后退出
type WavSource struct {
	SampleRate int
	FrameSize  int
	HopSize    int
	Realtime   bool // true 时每个 hop 等待 hop/fs 秒，模拟实时输入

	samples []float64
	logger  *slog.Logger
}

// NewWavSource 读取整个文件，并把 cfg.Audio.SampleRate 改为文件的采样率
func NewWavSource(filename string, cfg *Config, logger *slog.Logger) (*WavSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r, err := NewWavReader(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// 回放模式以文件的采样率为准
	if r.SampleRate != cfg.Audio.SampleRate {
		logger.Info("using file sample rate", "file", filename, "sample_rate", r.SampleRate, "configured", cfg.Audio.SampleRate)
		cfg.Audio.SampleRate = r.SampleRate
	}
	samples, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	src := NewSampleSource(samples, cfg)
	src.logger = logger.With("component", "replay", "file", filename)
	src.logger.Info("replay loaded", "duration", r.Duration(), "frames", src.FrameCount())
	return src, nil
}

// NewSampleSource 直接从内存中的样本构造输入源
func NewSampleSource(samples []float64, cfg *Config) *WavSource {
	return &WavSource{
		SampleRate: cfg.Audio.SampleRate,
		FrameSize:  cfg.Analysis.FFTSize,
		HopSize:    cfg.HopSize(),
		Realtime:   cfg.Replay.Realtime,
		samples:    samples,
		logger:     slog.Default(),
	}
}

// FrameCount 文件能切出的帧数，不足一帧的文件补零后算作一帧
func (w *WavSource) FrameCount() int {
	if len(w.samples) == 0 {
		return 0
	}
	if len(w.samples) <= w.FrameSize {
		return 1
	}
	return (len(w.samples)-w.FrameSize)/w.HopSize + 1
}

// Frame 返回第 i 帧 (起点 i*HopSize)，越界部分补零
func (w *WavSource) Frame(i int) []float64 {
	frame := make([]float64, w.FrameSize)
	start := i * w.HopSize
	if start < len(w.samples) {
		copy(frame, w.samples[start:])
	}
	return frame
}

// FrameTime 第 i 帧起点对应的时间
func (w *WavSource) FrameTime(i int) time.Duration {
	return time.Duration(i*w.HopSize) * time.Second / time.Duration(w.SampleRate)
}

// Run 依次发布所有帧
func (w *WavSource) Run(ctx context.Context, slot *FrameSlot) error {
	var tick <-chan time.Time
	if w.Realtime {
		ticker := time.NewTicker(w.FrameTime(1))
		defer ticker.Stop()
		tick = ticker.C
	}

	count := w.FrameCount()
	for i := 0; i < count; i++ {
		slot.Publish(w.Frame(i))
		if tick == nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
	w.logger.Debug("replay finished", "frames", count)
	return nil
}

// Close 释放样本
func (w *WavSource) Close() error {
	w.samples = nil
	return nil
}
