package tonelock

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Tone 钥匙音中的一个正弦分量
type Tone struct {
	Frequency float64 // Hz
	Amplitude float64 // 相对幅度，归一化前
}

// KeyTones 为每个目标频率生成等幅分量
func KeyTones(targets []float64) []Tone {
	tones := make([]Tone, len(targets))
	for i, f := range targets {
		tones[i] = Tone{Frequency: f, Amplitude: 1}
	}
	return tones
}

// ParseTones 解析 "1000:4,2000:2,3000" 形式的分量列表，省略幅度时为 1
func ParseTones(list string) ([]Tone, error) {
	var tones []Tone
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		freqStr, ampStr, hasAmp := strings.Cut(part, ":")
		freq, err := strconv.ParseFloat(freqStr, 64)
		if err != nil || freq <= 0 {
			return nil, fmt.Errorf("bad tone frequency %q", part)
		}
		amp := 1.0
		if hasAmp {
			amp, err = strconv.ParseFloat(ampStr, 64)
			if err != nil {
				return nil, fmt.Errorf("bad tone amplitude %q", part)
			}
		}
		tones = append(tones, Tone{Frequency: freq, Amplitude: amp})
	}
	if len(tones) == 0 {
		return nil, fmt.Errorf("no tones in %q", list)
	}
	return tones, nil
}

// GenerateKey 叠加多个正弦分量，并归一化到峰值 1 (防止写 WAV 时削波)
func GenerateKey(tones []Tone, sampleRate int, duration time.Duration) []float64 {
	n := int(duration.Seconds() * float64(sampleRate))
	signal := make([]float64, n)
	for _, tone := range tones {
		omega := 2 * math.Pi * tone.Frequency / float64(sampleRate)
		for i := range signal {
			signal[i] += tone.Amplitude * math.Sin(omega*float64(i))
		}
	}
	return normalize(signal)
}

// GenerateSweep 线性扫频: sin(2π (f0 + (f1-f0) t/T) t)
func GenerateSweep(startFreq, endFreq float64, sampleRate int, duration time.Duration) []float64 {
	total := duration.Seconds()
	n := int(total * float64(sampleRate))
	signal := make([]float64, n)
	for i := range signal {
		t := float64(i) / float64(sampleRate)
		signal[i] = math.Sin(2 * math.Pi * (startFreq + (endFreq-startFreq)*t/total) * t)
	}
	return signal
}

func normalize(signal []float64) []float64 {
	peak := 0.0
	for _, v := range signal {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 {
		return signal
	}
	for i := range signal {
		signal[i] /= peak
	}
	return signal
}

// ChannelEffects 模拟信道: 白噪声与慢衰落
type ChannelEffects struct {
	SNRdB     float64 // 信噪比
	FadeRate  float64 // 衰落频率 (Hz)，例如 0.5Hz
	FadeDepth float64 // 衰落深度 (0.0 - 1.0)
}

// ApplyEffects 按信号平均功率加入高斯白噪声和幅度衰落
func ApplyEffects(signal []float64, sampleRate int, fx ChannelEffects, rng *rand.Rand) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	var energy float64
	for _, s := range signal {
		energy += s * s
	}
	if energy == 0 || len(signal) == 0 {
		return out // 全是静音，没法加 SNR
	}

	pSignal := energy / float64(len(signal))
	noiseScale := math.Sqrt(pSignal / math.Pow(10, fx.SNRdB/10.0))

	phase := 0.0
	phaseInc := 2.0 * math.Pi * fx.FadeRate / float64(sampleRate)
	for i := range out {
		if fx.FadeDepth > 0 {
			out[i] *= 1.0 - fx.FadeDepth*(0.5+0.5*math.Sin(phase))
			phase += phaseInc
		}
		out[i] += rng.NormFloat64() * noiseScale
	}
	return out
}
