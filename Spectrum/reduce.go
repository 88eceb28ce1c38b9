package Spectrum

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Bin 一个频点: 频率 (Hz) 与幅度
type Bin struct {
	Frequency float64 `json:"frequency"`
	Magnitude float64 `json:"magnitude"`
}

// Rounding 抽取时目标位置到下标的取整方式
type Rounding string

const (
	RoundNearest  Rounding = "nearest"  // 四舍五入到最近的下标
	RoundTruncate Rounding = "truncate" // 向下取整，与 linspace(..., dtype=int) 一致
)

// DefaultSmoothing 滑动平均窗口宽度
const DefaultSmoothing = 5

// ReduceOptions 频谱压缩参数
type ReduceOptions struct {
	SampleRate float64
	BandLow    float64 // 频带下限 (Hz, 含)
	BandHigh   float64 // 频带上限 (Hz, 含)
	Resolution int     // 输出点数 D
	Smoothing  int     // 滑动平均宽度，<= 1 表示不平滑
	Rounding   Rounding
}

// Magnitudes 取前 N/2+1 个频点 (0 Hz 到 Nyquist) 的模
func Magnitudes(coeffs []complex128) []float64 {
	if len(coeffs) == 0 {
		return nil
	}
	count := len(coeffs)/2 + 1
	if count > len(coeffs) {
		count = len(coeffs)
	}
	mags := make([]float64, count)
	for i := 0; i < count; i++ {
		mags[i] = cmplx.Abs(coeffs[i])
	}
	return mags
}

// Smooth 居中滑动平均，same 模式: 输出长度不变，越界样本按 0 处理
// 与 np.convolve(values, ones(width)/width, mode='same') 一致
func Smooth(values []float64, width int) []float64 {
	out := make([]float64, len(values))
	if width <= 1 {
		copy(out, values)
		return out
	}

	lead := (width - 1) / 2
	for i := range values {
		hi := i + lead
		lo := hi - (width - 1)
		if lo < 0 {
			lo = 0
		}
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(width)
	}
	return out
}

// BinFrequency 第 k 个频点的频率 k*fs/N
func BinFrequency(k, n int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(n)
}

// BandLimit 只保留频率落在 [low, high] 内的频点
func BandLimit(bins []Bin, low, high float64) ([]Bin, error) {
	out := make([]Bin, 0, len(bins))
	for _, b := range bins {
		if b.Frequency >= low && b.Frequency <= high {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: [%.2f, %.2f] Hz", ErrEmptyBand, low, high)
	}
	return out, nil
}

// DecimationIndices 在 [0, count-1] 上均匀选取 resolution 个下标
// resolution 大于 count 时允许重复下标
func DecimationIndices(count, resolution int, rounding Rounding) []int {
	if count <= 0 || resolution <= 0 {
		return nil
	}
	idx := make([]int, resolution)
	if resolution == 1 {
		return idx
	}

	last := count - 1
	step := float64(last) / float64(resolution-1)
	for i := range idx {
		pos := float64(i) * step
		if i == resolution-1 {
			pos = float64(last)
		}

		var k int
		if rounding == RoundTruncate {
			k = int(pos)
		} else {
			k = int(math.Round(pos))
		}
		if k > last {
			k = last
		}
		idx[i] = k
	}
	return idx
}

// Decimate 把频带内的频点抽取为固定的 resolution 个点
func Decimate(bins []Bin, resolution int, rounding Rounding) ([]Bin, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: resolution must be positive, got %d", ErrInvalidConfig, resolution)
	}
	if len(bins) == 0 {
		return nil, ErrEmptyBand
	}

	indices := DecimationIndices(len(bins), resolution, rounding)
	out := make([]Bin, len(indices))
	for i, k := range indices {
		out[i] = bins[k]
	}
	return out, nil
}

// Reduce 幅度 -> 平滑 -> 限带 -> 抽取
// coeffs 是长度为 N 的完整变换结果
func Reduce(coeffs []complex128, opts ReduceOptions) ([]Bin, error) {
	if len(coeffs) == 0 {
		return nil, ErrEmptyFrame
	}

	smoothed := Smooth(Magnitudes(coeffs), opts.Smoothing)

	bins := make([]Bin, len(smoothed))
	for k, mag := range smoothed {
		bins[k] = Bin{
			Frequency: BinFrequency(k, len(coeffs), opts.SampleRate),
			Magnitude: mag,
		}
	}

	band, err := BandLimit(bins, opts.BandLow, opts.BandHigh)
	if err != nil {
		return nil, err
	}
	return Decimate(band, opts.Resolution, opts.Rounding)
}
