package Spectrum

import "errors"

// 核心流水线的前置条件错误，调用方用 errors.Is 判断
var (
	// ErrInvalidInput 变换长度不是 2 的幂
	ErrInvalidInput = errors.New("invalid input")
	// ErrWindowMismatch 帧长度与窗系数长度不一致
	ErrWindowMismatch = errors.New("window length mismatch")
	// ErrEmptyFrame 输入帧为空
	ErrEmptyFrame = errors.New("empty frame")
	// ErrFrameLength 帧长度与配置的 FFTSize 不一致 (残帧必须由调用方补齐或丢弃)
	ErrFrameLength = errors.New("frame length mismatch")
	// ErrEmptyBand 频带内没有任何频点
	ErrEmptyBand = errors.New("no bins inside band")
	// ErrInvalidConfig 配置参数非法
	ErrInvalidConfig = errors.New("invalid config")
)
