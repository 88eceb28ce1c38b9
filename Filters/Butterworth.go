package Filters

import "math"

// BiquadFilter 表示一个二阶 IIR 滤波器节
// 用于级联实现高阶滤波器
type BiquadFilter struct {
	// 系数 (a 为分子，b 为分母)
	a0, a1, a2, b1, b2 float64
	// 状态 (延迟线)
	z1, z2 float64
}

// Process 处理单个采样点 (转置直接 II 型)
func (f *BiquadFilter) Process(in float64) float64 {
	out := in*f.a0 + f.z1
	f.z1 = in*f.a1 - out*f.b1 + f.z2
	f.z2 = in*f.a2 - out*f.b2
	return out
}

// ButterworthFilter 表示一个由多个 Biquad 节级联组成的巴特沃斯滤波器
type ButterworthFilter struct {
	sections []*BiquadFilter
}

// NewButterworthHighpass 创建 N 阶巴特沃斯高通滤波器，用于去掉 ADC 读数的直流偏置
// order: 滤波器阶数 (必须是正偶数)
// sampleRate: 采样率 (Hz)
// cutoffFreq: 截止频率 (Hz)
func NewButterworthHighpass(order int, sampleRate, cutoffFreq float64) *ButterworthFilter {
	if order <= 0 || order%2 != 0 {
		panic("Butterworth filter order must be a positive even number")
	}

	// 如果 cutoffFreq 接近 sampleRate/2，系数会失去精度
	if cutoffFreq >= sampleRate*0.499 {
		cutoffFreq = sampleRate * 0.499
	}

	w0 := 2.0 * math.Pi * cutoffFreq / sampleRate
	cosW := math.Cos(w0)
	sinW := math.Sin(w0)

	sections := make([]*BiquadFilter, order/2)
	for i := range sections {
		// 每节的 Q 值由模拟原型极点角度决定，低 Q 的节放在前面
		poleIdx := (order/2 - 1) - i
		theta := math.Pi * (2.0*float64(poleIdx) + 1.0) / (2.0 * float64(order))
		q := 1.0 / (2.0 * math.Sin(theta))

		alpha := sinW / (2.0 * q)
		norm := 1.0 + alpha

		sections[i] = &BiquadFilter{
			a0: (1.0 + cosW) / 2.0 / norm,
			a1: -(1.0 + cosW) / norm,
			a2: (1.0 + cosW) / 2.0 / norm,
			b1: -2.0 * cosW / norm,
			b2: (1.0 - alpha) / norm,
		}
	}

	return &ButterworthFilter{sections: sections}
}

// Process 处理单个采样点，通过所有级联节
func (f *ButterworthFilter) Process(in float64) float64 {
	out := in
	for _, s := range f.sections {
		out = s.Process(out)
	}
	return out
}

// ProcessBlock 原地滤波一整块数据，滤波器状态跨块保留
func (f *ButterworthFilter) ProcessBlock(samples []float64) {
	for i, s := range samples {
		samples[i] = f.Process(s)
	}
}

// Reset 清空所有节的延迟线
func (f *ButterworthFilter) Reset() {
	for _, s := range f.sections {
		s.z1, s.z2 = 0, 0
	}
}
