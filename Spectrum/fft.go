package Spectrum

import (
	"fmt"
	"math"
)

// Plan 保存某一长度 N 的旋转因子表 e^(-2πi k/N), k = 0..N/2-1
// 创建后只读，可以在多个 goroutine 之间共享
type Plan struct {
	n       int
	twiddle []complex128
}

// NewPlan 为长度 n 创建变换计划，n 必须是 2 的幂
func NewPlan(n int) (*Plan, error) {
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: fft length %d is not a power of 2", ErrInvalidInput, n)
	}

	p := &Plan{
		n:       n,
		twiddle: make([]complex128, n/2),
	}
	for k := range p.twiddle {
		angle := -2 * math.Pi * float64(k) / float64(n)
		p.twiddle[k] = complex(math.Cos(angle), math.Sin(angle))
	}
	return p, nil
}

// Len 返回计划对应的变换长度
func (p *Plan) Len() int {
	return p.n
}

// Transform 执行基 2 按时间抽取 (DIT) Cooley-Tukey FFT
// 结果写入新分配的输出缓冲区，输入不会被修改
func (p *Plan) Transform(x []complex128) ([]complex128, error) {
	if len(x) != p.n {
		return nil, fmt.Errorf("%w: got %d samples, plan expects %d", ErrInvalidInput, len(x), p.n)
	}
	out := make([]complex128, p.n)
	p.ditfft(x, out, p.n, 1)
	return out, nil
}

// ditfft 递归地按步长访问输入 (偶数下标/奇数下标)，
// 结果写入 out[0:n]，不做任何切片拷贝
func (p *Plan) ditfft(in, out []complex128, n, stride int) {
	if n == 1 {
		out[0] = in[0]
		return
	}

	half := n / 2
	p.ditfft(in, out[:half], half, 2*stride)         // 偶数下标
	p.ditfft(in[stride:], out[half:], half, 2*stride) // 奇数下标

	// 子长度 n 的旋转因子 W_n^k = W_N^(k*N/n)
	step := p.n / n
	for k := 0; k < half; k++ {
		t := p.twiddle[k*step] * out[k+half]
		e := out[k]
		out[k] = e + t
		out[k+half] = e - t
	}
}

// FFT 计算复数序列的离散傅里叶变换
// len(x) <= 1 时原样返回 (拷贝)，长度不是 2 的幂时返回 ErrInvalidInput
func FFT(x []complex128) ([]complex128, error) {
	if len(x) <= 1 {
		out := make([]complex128, len(x))
		copy(out, x)
		return out, nil
	}
	p, err := NewPlan(len(x))
	if err != nil {
		return nil, err
	}
	return p.Transform(x)
}

// FFTReal 计算实数序列的离散傅里叶变换
func FFTReal(x []float64) ([]complex128, error) {
	return FFT(toComplex(x))
}

func toComplex(x []float64) []complex128 {
	c := make([]complex128, len(x))
	for i, v := range x {
		c[i] = complex(v, 0)
	}
	return c
}
