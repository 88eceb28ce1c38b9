package tonelock

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tonelock/Spectrum"
)

// 串口数据编码
const (
	EncodingInt16 = "int16" // 小端 int16 / 32768，每次读 FFTSize 字节
	EncodingADC12 = "adc12" // 大端 16 位 ADC 值 (0-adcMax) 映射到 0-adcVolts 伏
)

// Config 结构体用于集中管理门锁检测的所有可调参数
type Config struct {
	// --- 音频输入 (AudioCapture) ---
	Audio struct {
		SampleRate int    `yaml:"sampleRate"` // 采样率 fs (Hz)
		DeviceName string `yaml:"deviceName"` // 设备名关键字，空表示系统默认设备
		RecordFile string `yaml:"recordFile"` // 非空时把采集到的音频录制为 WAV
	} `yaml:"audio"`

	// --- 串口输入 (SerialSource) ---
	Serial struct {
		Port        string        `yaml:"port"`
		BaudRate    int           `yaml:"baudRate"`
		ReadTimeout time.Duration `yaml:"readTimeout"`
		Encoding    string        `yaml:"encoding"` // int16 | adc12
		ADCMax      float64       `yaml:"adcMax"`   // ADC 满量程读数 (12 位为 4095)
		ADCVolts    float64       `yaml:"adcVolts"` // ADC 满量程电压
		Highpass    float64       `yaml:"highpass"` // 高通截止频率 (Hz)，0 关闭；adc12 模式建议 20 去直流
	} `yaml:"serial"`

	// --- 文件回放 (WavSource) ---
	Replay struct {
		File     string `yaml:"file"`
		HopSize  int    `yaml:"hopSize"`  // 相邻两帧的起点间隔 (样本数)，0 表示 fs/50
		Realtime bool   `yaml:"realtime"` // 按真实时间节奏回放
	} `yaml:"replay"`

	// --- 频谱分析 (Spectrum.Analyzer) ---
	Analysis struct {
		FFTSize      int           `yaml:"fftSize"`      // 帧长 n_fft
		BandLow      float64       `yaml:"bandLow"`      // 关注频带下限 (Hz)
		BandHigh     float64       `yaml:"bandHigh"`     // 关注频带上限 (Hz)
		Resolution   int           `yaml:"resolution"`   // 压缩频谱柱数
		TopK         int           `yaml:"topK"`         // 峰值个数
		Smoothing    int           `yaml:"smoothing"`    // 滑动平均宽度
		Rounding     string        `yaml:"rounding"`     // nearest | truncate
		Engine       string        `yaml:"engine"`       // cooley-tukey | go-dsp | gonum
		PollInterval time.Duration `yaml:"pollInterval"` // 分析周期
	} `yaml:"analysis"`

	// --- 开锁条件 (Spectrum.TargetSet) ---
	Unlock struct {
		Targets      []float64          `yaml:"targets"`             // 目标频率 (Hz)
		Tolerance    float64            `yaml:"tolerance"`           // 默认容差 (Hz)
		Overrides    map[string]float64 `yaml:"overrides,omitempty"` // 单个目标的容差，键为目标频率，如 "4000": 150
		Threshold    int                `yaml:"threshold"`           // 最少命中数
		Mode         string             `yaml:"mode"`                // peaks | distinct
		MinMagnitude float64            `yaml:"minMagnitude"`        // 不超过此幅度的峰值不参与匹配
	} `yaml:"unlock"`

	// --- 输出 ---
	Output struct {
		LogLevel string `yaml:"logLevel"` // debug | info | warn | error
		Table    bool   `yaml:"table"`    // 在终端打印峰值表
		Snapshot string `yaml:"snapshot"` // 非空时每帧把频谱柱状图写为 PNG
		Trace    string `yaml:"trace"`    // 非空时把每帧判定写入 CSV
	} `yaml:"output"`
}

// DefaultConfig 返回门锁检测的默认配置
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Audio.SampleRate = 44100

	cfg.Serial.Port = "COM3"
	cfg.Serial.BaudRate = 115200
	cfg.Serial.ReadTimeout = time.Second
	cfg.Serial.Encoding = EncodingInt16
	cfg.Serial.ADCMax = 4095
	cfg.Serial.ADCVolts = 5

	cfg.Replay.Realtime = true

	cfg.Analysis.FFTSize = 2048
	cfg.Analysis.BandLow = 0
	cfg.Analysis.BandHigh = 6000
	cfg.Analysis.Resolution = 61
	cfg.Analysis.TopK = 3
	cfg.Analysis.Smoothing = Spectrum.DefaultSmoothing
	cfg.Analysis.Rounding = string(Spectrum.RoundNearest)
	cfg.Analysis.Engine = Spectrum.EngineCooleyTukey
	cfg.Analysis.PollInterval = 100 * time.Millisecond

	cfg.Unlock.Targets = []float64{1000, 3000, 4000}
	cfg.Unlock.Tolerance = 100
	cfg.Unlock.Threshold = 3
	cfg.Unlock.Mode = string(Spectrum.MatchPeaks)

	cfg.Output.LogLevel = "info"
	cfg.Output.Table = true

	return cfg
}

// presets 对应几种常用的显示/检测组合
var presets = map[string]func(*Config){
	// 门锁: 0-6000Hz, 61 柱, 前 3 个峰值
	"unlock": func(c *Config) {
		c.Analysis.BandLow, c.Analysis.BandHigh = 0, 6000
		c.Analysis.Resolution, c.Analysis.TopK = 61, 3
		c.Analysis.PollInterval = 100 * time.Millisecond
	},
	// 实时监视: 60-6000Hz, 100 柱, 前 4 个峰值
	"monitor": func(c *Config) {
		c.Analysis.BandLow, c.Analysis.BandHigh = 60, 6000
		c.Analysis.Resolution, c.Analysis.TopK = 100, 4
		c.Analysis.PollInterval = 50 * time.Millisecond
	},
	// 宽带: 0-20000Hz, 200 柱, 前 4 个峰值
	"wideband": func(c *Config) {
		c.Analysis.BandLow, c.Analysis.BandHigh = 0, 20000
		c.Analysis.Resolution, c.Analysis.TopK = 200, 4
		c.Analysis.PollInterval = 20 * time.Millisecond
	},
	// 文件回放: 全频带, 50 柱, 前 4 个峰值
	"replay": func(c *Config) {
		c.Analysis.BandLow, c.Analysis.BandHigh = 0, float64(c.Audio.SampleRate)/2
		c.Analysis.Resolution, c.Analysis.TopK = 50, 4
		c.Analysis.PollInterval = 20 * time.Millisecond
	},
}

// PresetNames 返回所有预设名 (排序后)
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset 用预设覆盖分析参数
func (c *Config) ApplyPreset(name string) error {
	fn, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", Spectrum.ErrInvalidConfig, name)
	}
	fn(c)
	return nil
}

// LoadConfig 读取 YAML 配置文件，未出现的字段保持默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal 以 YAML 输出当前配置
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate 检查输入源和分析参数
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: audio sample rate must be positive", Spectrum.ErrInvalidConfig)
	}
	switch c.Serial.Encoding {
	case EncodingInt16, EncodingADC12:
	default:
		return fmt.Errorf("%w: unknown serial encoding %q", Spectrum.ErrInvalidConfig, c.Serial.Encoding)
	}
	if c.Serial.ADCMax <= 0 {
		return fmt.Errorf("%w: adcMax must be positive", Spectrum.ErrInvalidConfig)
	}
	if c.Serial.Highpass < 0 || c.Serial.Highpass >= float64(c.Audio.SampleRate)/2 {
		return fmt.Errorf("%w: serial highpass must be in [0, fs/2)", Spectrum.ErrInvalidConfig)
	}
	if c.Replay.HopSize < 0 {
		return fmt.Errorf("%w: hop size must not be negative", Spectrum.ErrInvalidConfig)
	}
	if c.Analysis.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", Spectrum.ErrInvalidConfig)
	}

	ac, err := c.AnalysisConfig()
	if err != nil {
		return err
	}
	return ac.Validate()
}

// TargetSet 把开锁配置转换为 Spectrum.TargetSet
func (c *Config) TargetSet() (Spectrum.TargetSet, error) {
	ts := Spectrum.NewTargetSet(c.Unlock.Targets, c.Unlock.Tolerance, c.Unlock.Threshold)
	ts.Mode = Spectrum.MatchMode(c.Unlock.Mode)
	ts.MinMagnitude = c.Unlock.MinMagnitude

	for key, tol := range c.Unlock.Overrides {
		freq, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
		if err != nil {
			return ts, fmt.Errorf("%w: bad tolerance override key %q", Spectrum.ErrInvalidConfig, key)
		}
		found := false
		for i := range ts.Targets {
			if ts.Targets[i].Frequency == freq {
				ts.Targets[i].Tolerance = tol
				found = true
			}
		}
		if !found {
			return ts, fmt.Errorf("%w: tolerance override for unknown target %g Hz", Spectrum.ErrInvalidConfig, freq)
		}
	}
	return ts, nil
}

// AnalysisConfig 生成核心分析参数，采样率取自 Audio.SampleRate
func (c *Config) AnalysisConfig() (Spectrum.Config, error) {
	ts, err := c.TargetSet()
	if err != nil {
		return Spectrum.Config{}, err
	}
	return Spectrum.Config{
		SampleRate: c.Audio.SampleRate,
		FFTSize:    c.Analysis.FFTSize,
		BandLow:    c.Analysis.BandLow,
		BandHigh:   c.Analysis.BandHigh,
		Resolution: c.Analysis.Resolution,
		TopK:       c.Analysis.TopK,
		Smoothing:  c.Analysis.Smoothing,
		Rounding:   Spectrum.Rounding(c.Analysis.Rounding),
		Engine:     c.Analysis.Engine,
		Targets:    ts,
	}, nil
}

// HopSize 回放时相邻帧的间隔
func (c *Config) HopSize() int {
	if c.Replay.HopSize > 0 {
		return c.Replay.HopSize
	}
	hop := c.Audio.SampleRate / 50
	if hop < 1 {
		hop = 1
	}
	return hop
}
