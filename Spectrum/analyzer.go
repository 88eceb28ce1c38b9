package Spectrum

import (
	"fmt"
)

// Config 单帧分析所需的全部参数
type Config struct {
	SampleRate int     // 采样率 fs
	FFTSize    int     // 帧长 n_fft，也是窗长度，不要求是 2 的幂
	BandLow    float64 // 关注频带下限 (Hz)
	BandHigh   float64 // 关注频带上限 (Hz)
	Resolution int     // 压缩频谱点数 D
	TopK       int     // 峰值个数 K
	Smoothing  int     // 滑动平均宽度
	Rounding   Rounding
	Engine     string // 变换引擎名，见 EngineCooleyTukey 等
	Targets    TargetSet
}

// DefaultConfig 门锁检测的默认参数:
// 44.1kHz / 2048 点，0-6000Hz 压缩为 61 点，取前 3 个峰值，
// 目标 1000/3000/4000Hz ±100Hz，3 个命中即开锁
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		FFTSize:    2048,
		BandLow:    0,
		BandHigh:   6000,
		Resolution: 61,
		TopK:       3,
		Smoothing:  DefaultSmoothing,
		Rounding:   RoundNearest,
		Engine:     EngineCooleyTukey,
		Targets:    NewTargetSet([]float64{1000, 3000, 4000}, 100, 3),
	}
}

// SegmentLength 补零后的变换长度
func (c Config) SegmentLength() int {
	return NextPowerOfTwo(c.FFTSize)
}

// BinWidth 变换的频率分辨率 (Hz)
func (c Config) BinWidth() float64 {
	return float64(c.SampleRate) / float64(c.SegmentLength())
}

// Validate 检查参数，并确认频带内至少有一个频点
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	case c.FFTSize <= 0:
		return fmt.Errorf("%w: fft size must be positive, got %d", ErrInvalidConfig, c.FFTSize)
	case c.BandLow < 0 || c.BandHigh < c.BandLow:
		return fmt.Errorf("%w: bad band [%.2f, %.2f] Hz", ErrInvalidConfig, c.BandLow, c.BandHigh)
	case c.Resolution < 1:
		return fmt.Errorf("%w: resolution must be >= 1, got %d", ErrInvalidConfig, c.Resolution)
	case c.TopK < 1:
		return fmt.Errorf("%w: top k must be >= 1, got %d", ErrInvalidConfig, c.TopK)
	case c.Smoothing < 0:
		return fmt.Errorf("%w: smoothing width must be >= 0, got %d", ErrInvalidConfig, c.Smoothing)
	}

	switch c.Engine {
	case "", EngineCooleyTukey, EngineGoDSP, EngineGonum:
	default:
		return fmt.Errorf("%w: unknown fft engine %q", ErrInvalidConfig, c.Engine)
	}

	switch c.Rounding {
	case "", RoundNearest, RoundTruncate:
	default:
		return fmt.Errorf("%w: unknown rounding %q", ErrInvalidConfig, c.Rounding)
	}

	// 频带内第一个频点 ceil(low/width) 必须不超过 high 和 Nyquist
	n := c.SegmentLength()
	width := c.BinWidth()
	first := int(c.BandLow / width)
	if BinFrequency(first, n, float64(c.SampleRate)) < c.BandLow {
		first++
	}
	if first > n/2 || BinFrequency(first, n, float64(c.SampleRate)) > c.BandHigh {
		return fmt.Errorf("%w: band [%.2f, %.2f] Hz", ErrEmptyBand, c.BandLow, c.BandHigh)
	}

	return c.Targets.Validate()
}

func (c Config) reduceOptions() ReduceOptions {
	return ReduceOptions{
		SampleRate: float64(c.SampleRate),
		BandLow:    c.BandLow,
		BandHigh:   c.BandHigh,
		Resolution: c.Resolution,
		Smoothing:  c.Smoothing,
		Rounding:   c.Rounding,
	}
}

// Result 单帧分析结果，由展示层消费，不跨帧保存
type Result struct {
	Reduced  []Bin    `json:"reduced"`
	Peaks    []Peak   `json:"peaks"`
	Decision Decision `json:"decision"`
}

// MaxMagnitude 压缩频谱中的最大幅度
func (r *Result) MaxMagnitude() float64 {
	top := 0.0
	for _, b := range r.Reduced {
		if b.Magnitude > top {
			top = b.Magnitude
		}
	}
	return top
}

// Analyzer 持有窗系数、变换引擎和目标配置，创建后只读
type Analyzer struct {
	cfg    Config
	window []float64
	engine Engine
}

// NewAnalyzer 校验配置并预先计算汉宁窗
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:    cfg,
		window: HannWindow(cfg.FFTSize),
		engine: engine,
	}, nil
}

// Config 返回分析器的配置
func (a *Analyzer) Config() Config {
	return a.cfg
}

// EngineName 当前使用的变换引擎
func (a *Analyzer) EngineName() string {
	return a.engine.Name()
}

// Analyze 加窗补零 -> FFT -> 压缩频谱 -> 取峰值 -> 目标匹配
// 帧长度必须等于 FFTSize，残帧由调用方处理
func (a *Analyzer) Analyze(frame []float64) (*Result, error) {
	if len(frame) != a.cfg.FFTSize {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrFrameLength, len(frame), a.cfg.FFTSize)
	}

	segment, err := Preprocess(frame, a.window)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	coeffs, err := a.engine.Transform(segment)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	reduced, err := Reduce(coeffs, a.cfg.reduceOptions())
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}

	peaks := TopPeaks(reduced, a.cfg.TopK)

	return &Result{
		Reduced:  reduced,
		Peaks:    peaks,
		Decision: a.cfg.Targets.Match(peaks),
	}, nil
}

// Analyze 一次性分析: 用 cfg 创建 Analyzer 并处理一帧，fs 覆盖 cfg.SampleRate
func Analyze(frame []float64, fs int, cfg Config) (*Result, error) {
	cfg.SampleRate = fs
	a, err := NewAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	return a.Analyze(frame)
}
