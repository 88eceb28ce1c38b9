package tonelock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tonelock/Spectrum"
)

// FrameSource 帧生产者: 实时音频、串口或文件回放
// Run 把帧发布到 slot，直到 ctx 取消 (返回 nil)、数据耗尽 (返回 nil) 或出错
type FrameSource interface {
	Run(ctx context.Context, slot *FrameSlot) error
	Close() error
}

// Stats 运行统计
type Stats struct {
	Frames  uint64 // 成功分析的帧数
	Failed  uint64 // 分析失败被跳过的帧数
	Unlocks uint64 // 从锁定变为解锁的次数
}

// LockSystem 管理门锁检测的生命周期
// 生产者写 FrameSlot，消费者按固定周期取最新帧分析，两者互不阻塞
type LockSystem struct {
	cfg      *Config
	analyzer *Spectrum.Analyzer
	slot     *FrameSlot
	source   FrameSource
	tracer   DecisionTracer
	logger   *slog.Logger

	// OnResult 每分析完一帧回调一次，在消费者 goroutine 中执行
	OnResult func(seq uint64, res *Spectrum.Result)

	lastSeq  uint64
	unlocked bool

	frames  atomic.Uint64
	failed  atomic.Uint64
	unlocks atomic.Uint64
}

// NewLockSystem 创建系统实例，source 在 Run 结束时被关闭
func NewLockSystem(cfg *Config, source FrameSource, logger *slog.Logger) (*LockSystem, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ac, err := cfg.AnalysisConfig()
	if err != nil {
		return nil, err
	}
	analyzer, err := Spectrum.NewAnalyzer(ac)
	if err != nil {
		return nil, err
	}
	if cfg.Analysis.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be positive", Spectrum.ErrInvalidConfig)
	}

	return &LockSystem{
		cfg:      cfg,
		analyzer: analyzer,
		slot:     NewFrameSlot(),
		source:   source,
		tracer:   NoOpTracer{},
		logger:   logger.With("component", "system"),
	}, nil
}

// SetTracer 设置判定记录器，nil 表示不记录
func (s *LockSystem) SetTracer(t DecisionTracer) {
	if t == nil {
		t = NoOpTracer{}
	}
	s.tracer = t
}

// Analyzer 返回系统使用的分析器
func (s *LockSystem) Analyzer() *Spectrum.Analyzer {
	return s.analyzer
}

// Stats 返回当前统计
func (s *LockSystem) Stats() Stats {
	return Stats{
		Frames:  s.frames.Load(),
		Failed:  s.failed.Load(),
		Unlocks: s.unlocks.Load(),
	}
}

// Run 启动生产者和分析循环，阻塞到 ctx 取消、输入源结束或输入源出错
func (s *LockSystem) Run(ctx context.Context) error {
	defer func() {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("closing source", "error", err)
		}
		if err := s.tracer.Close(); err != nil {
			s.logger.Warn("closing tracer", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	sourceDone := make(chan struct{})

	g.Go(func() error {
		defer close(sourceDone)
		if err := s.source.Run(gctx, s.slot); err != nil {
			return fmt.Errorf("frame source: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.Analysis.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sourceDone:
				// 输入源结束，处理最后一帧后退出
				s.step()
				return nil
			case <-ticker.C:
				s.step()
			}
		}
	})

	err := g.Wait()
	st := s.Stats()
	s.logger.Info("system stopped", "frames", st.Frames, "failed", st.Failed, "unlocks", st.Unlocks)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// step 分析一次当前帧；帧没有变化时不重复分析
func (s *LockSystem) step() {
	frame, seq, ok := s.slot.Latest()
	if !ok || seq == s.lastSeq {
		return
	}
	s.lastSeq = seq

	res, err := s.analyzer.Analyze(frame)
	if err != nil {
		s.failed.Add(1)
		s.logger.Warn("analysis failed, skipping frame", "seq", seq, "error", err)
		return
	}
	s.frames.Add(1)

	if res.Decision.Unlocked != s.unlocked {
		s.unlocked = res.Decision.Unlocked
		if s.unlocked {
			s.unlocks.Add(1)
			s.logger.Info("door unlocked", "seq", seq, "matched", res.Decision.MatchedCount)
		} else {
			s.logger.Info("door locked", "seq", seq, "matched", res.Decision.MatchedCount)
		}
	}
	s.logger.Debug("frame analyzed", "seq", seq, "peaks", len(res.Peaks), "matched", res.Decision.MatchedCount)

	s.tracer.Record(time.Now(), seq, res)
	if s.OnResult != nil {
		s.OnResult(seq, res)
	}
}
