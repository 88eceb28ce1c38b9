package Filters

import "math"

// ToneBank 一组 Goertzel 谐振器，每个目标频率一个，按帧复用
type ToneBank struct {
	freqs  []float64
	coeffs []float64
	q1, q2 []float64
}

// NewToneBank 为 freqs 中的每个频率预先计算 2cos(2πf/fs)
func NewToneBank(sampleRate float64, freqs []float64) *ToneBank {
	b := &ToneBank{
		freqs:  append([]float64(nil), freqs...),
		coeffs: make([]float64, len(freqs)),
		q1:     make([]float64, len(freqs)),
		q2:     make([]float64, len(freqs)),
	}
	for i, f := range freqs {
		b.coeffs[i] = 2 * math.Cos(2*math.Pi*f/sampleRate)
	}
	return b
}

// Reset 清零所有谐振器，开始新的一帧
func (b *ToneBank) Reset() {
	clear(b.q1)
	clear(b.q2)
}

// Levels 对一帧求各频率的近似正弦幅度 2|X|/N，调用前自动 Reset
func (b *ToneBank) Levels(frame []float64) []float64 {
	b.Reset()
	levels := make([]float64, len(b.freqs))
	if len(frame) == 0 {
		return levels
	}
	for i, c := range b.coeffs {
		q1, q2 := 0.0, 0.0
		for _, s := range frame {
			q1, q2 = c*q1-q2+s, q1
		}
		b.q1[i], b.q2[i] = q1, q2

		// |X|^2 = q1^2 + q2^2 - c*q1*q2
		power := q1*q1 + q2*q2 - c*q1*q2
		levels[i] = 2 * math.Sqrt(math.Max(power, 0)) / float64(len(frame))
	}
	return levels
}

// ToneLevels 一次性计算 samples 在各频率上的幅度
func ToneLevels(samples []float64, sampleRate float64, freqs []float64) []float64 {
	return NewToneBank(sampleRate, freqs).Levels(samples)
}
