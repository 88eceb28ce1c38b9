package Spectrum

import (
	"fmt"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// 可选的变换引擎
const (
	EngineCooleyTukey = "cooley-tukey" // 自带的基 2 实现 (默认)
	EngineGoDSP       = "go-dsp"       // github.com/mjibson/go-dsp/fft
	EngineGonum       = "gonum"        // gonum.org/v1/gonum/dsp/fourier
)

// Engine 把填充后的实数段变换为 N 个复数频点
// 所有实现都要求 N 是 2 的幂，这样切换引擎不会改变输入约束
type Engine interface {
	Name() string
	Transform(segment []float64) ([]complex128, error)
}

// NewEngine 按名字创建引擎，空字符串表示默认引擎
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EngineCooleyTukey:
		return &cooleyTukeyEngine{}, nil
	case EngineGoDSP:
		return goDSPEngine{}, nil
	case EngineGonum:
		return gonumEngine{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown fft engine %q", ErrInvalidConfig, name)
	}
}

// cooleyTukeyEngine 按长度缓存 Plan
type cooleyTukeyEngine struct {
	plans sync.Map // int -> *Plan
}

func (e *cooleyTukeyEngine) Name() string { return EngineCooleyTukey }

func (e *cooleyTukeyEngine) Transform(segment []float64) ([]complex128, error) {
	n := len(segment)
	if n <= 1 {
		return FFTReal(segment)
	}
	if cached, ok := e.plans.Load(n); ok {
		return cached.(*Plan).Transform(toComplex(segment))
	}
	p, err := NewPlan(n)
	if err != nil {
		return nil, err
	}
	e.plans.Store(n, p)
	return p.Transform(toComplex(segment))
}

type goDSPEngine struct{}

func (goDSPEngine) Name() string { return EngineGoDSP }

func (goDSPEngine) Transform(segment []float64) ([]complex128, error) {
	if len(segment) > 1 && !IsPowerOfTwo(len(segment)) {
		return nil, fmt.Errorf("%w: fft length %d is not a power of 2", ErrInvalidInput, len(segment))
	}
	return fft.FFTReal(segment), nil
}

type gonumEngine struct{}

func (gonumEngine) Name() string { return EngineGonum }

func (gonumEngine) Transform(segment []float64) ([]complex128, error) {
	n := len(segment)
	if n <= 1 {
		return FFTReal(segment)
	}
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: fft length %d is not a power of 2", ErrInvalidInput, n)
	}
	// CmplxFFT 内部有工作缓冲区，不能并发复用，每次调用单独创建
	return fourier.NewCmplxFFT(n).Coefficients(nil, toComplex(segment)), nil
}
