package Spectrum

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// HannWindow 返回 n 点对称汉宁窗
// 公式: 0.5 * (1 - cos(2*PI*i / (n-1)))
func HannWindow(n int) []float64 {
	if n <= 0 {
		return nil
	}
	return window.Hann(n)
}

// IsPowerOfTwo 判断 n 是否为 2 的正整数次幂 (1 也算)
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo 返回 >= n 的最小 2 的幂
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Preprocess 加窗并补零到 2 的幂
// 原始样本 (加窗后) 占据前缀，尾部全部为 0；已经是 2 的幂时不补零
func Preprocess(frame, coeffs []float64) ([]float64, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	if len(frame) != len(coeffs) {
		return nil, fmt.Errorf("%w: frame has %d samples, window has %d", ErrWindowMismatch, len(frame), len(coeffs))
	}

	segment := make([]float64, NextPowerOfTwo(len(frame)))
	for i, v := range frame {
		segment[i] = v * coeffs[i]
	}
	return segment, nil
}
