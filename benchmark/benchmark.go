package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"tonelock"
	"tonelock/Spectrum"
)

// ============================================================================
// 1. 测试用例 (Test Cases)
// ============================================================================

type TestCase struct {
	Name      string
	Tones     []tonelock.Tone
	SNR       float64
	FadeRate  float64
	FadeDepth float64
	WantOpen  bool // true: 钥匙音，应当解锁；false: 干扰音，不应解锁
}

func testCases(targets []float64) []TestCase {
	key := tonelock.KeyTones(targets)
	// 干扰: 只有两个目标频率 + 一个偏离的频率
	decoy := []tonelock.Tone{
		{Frequency: targets[0], Amplitude: 1},
		{Frequency: targets[1], Amplitude: 1},
		{Frequency: 2500, Amplitude: 1},
	}
	// 不等幅钥匙音
	uneven := make([]tonelock.Tone, len(key))
	for i, t := range key {
		uneven[i] = tonelock.Tone{Frequency: t.Frequency, Amplitude: float64(len(key) - i)}
	}

	return []TestCase{
		{Name: "Level 1 (Clean)", Tones: key, SNR: 40, WantOpen: true},
		{Name: "Level 2 (Noise)", Tones: key, SNR: 10, WantOpen: true},
		{Name: "Level 2 (Fading)", Tones: key, SNR: 20, FadeRate: 0.5, FadeDepth: 0.8, WantOpen: true},
		{Name: "Level 2 (Uneven)", Tones: uneven, SNR: 20, WantOpen: true},
		{Name: "Level 3 (Hard)", Tones: key, SNR: 0, FadeRate: 1.0, FadeDepth: 0.8, WantOpen: true},
		{Name: "Decoy", Tones: decoy, SNR: 20, WantOpen: false},
		{Name: "Noise only", Tones: nil, SNR: 0, WantOpen: false},
	}
}

// ============================================================================
// 2. 基准测试套件 (Benchmark Harness)
// ============================================================================

// unlockRate 逐帧分析信号，返回解锁帧的百分比
func unlockRate(cfg *tonelock.Config, analyzer *Spectrum.Analyzer, signal []float64) (float64, error) {
	src := tonelock.NewSampleSource(signal, cfg)
	count := src.FrameCount()
	if count == 0 {
		return 0, nil
	}
	unlocked := 0
	for i := 0; i < count; i++ {
		res, err := analyzer.Analyze(src.Frame(i))
		if err != nil {
			return 0, err
		}
		if res.Decision.Unlocked {
			unlocked++
		}
	}
	return float64(unlocked) / float64(count) * 100, nil
}

func noise(n int, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * 0.1
	}
	return out
}

func RunBenchmark(cfg *tonelock.Config, duration time.Duration, seed int64) error {
	ac, err := cfg.AnalysisConfig()
	if err != nil {
		return err
	}
	analyzer, err := Spectrum.NewAnalyzer(ac)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(seed))
	fs := cfg.Audio.SampleRate

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tSNR(dB)\tFadeRate\tFadeDepth\tUNLOCK(%)\tTIME(ms)\tSTATUS")
	fmt.Fprintln(w, "-----\t-------\t--------\t---------\t---------\t--------\t------")

	for _, tc := range testCases(cfg.Unlock.Targets) {
		var signal []float64
		if len(tc.Tones) == 0 {
			signal = noise(int(duration.Seconds()*float64(fs)), rng)
		} else {
			clean := tonelock.GenerateKey(tc.Tones, fs, duration)
			signal = tonelock.ApplyEffects(clean, fs, tonelock.ChannelEffects{
				SNRdB:     tc.SNR,
				FadeRate:  tc.FadeRate,
				FadeDepth: tc.FadeDepth,
			}, rng)
		}

		start := time.Now()
		rate, err := unlockRate(cfg, analyzer, signal)
		if err != nil {
			return fmt.Errorf("%s: %w", tc.Name, err)
		}
		elapsed := time.Since(start)

		// 钥匙音 90% 以上的帧解锁算通过，干扰音不允许任何一帧解锁
		status := "PASS"
		if (tc.WantOpen && rate < 90) || (!tc.WantOpen && rate > 0) {
			status = "FAIL"
		}

		fmt.Fprintf(w, "%s\t%.1f\t%.2f\t%.2f\t%.1f%%\t%d\t%s\n",
			tc.Name, tc.SNR, tc.FadeRate, tc.FadeDepth, rate, elapsed.Milliseconds(), status)
	}
	return w.Flush()
}

// ============================================================================
// Main Entry
// ============================================================================

func main() {
	engine := flag.String("engine", Spectrum.EngineCooleyTukey, "FFT engine (cooley-tukey, go-dsp, gonum)")
	duration := flag.Duration("duration", 2*time.Second, "signal length per test case")
	seed := flag.Int64("seed", time.Now().UnixNano(), "noise seed")
	flag.Parse()

	cfg := tonelock.DefaultConfig()
	cfg.Analysis.Engine = *engine

	fmt.Println("Starting Tone Lock Benchmark Suite...")
	fmt.Println("========================================")

	if err := RunBenchmark(cfg, *duration, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "benchmark failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nBenchmark Complete.")
}
