package tonelock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// AudioCapture 管理单声道实时音频采集，按 FFTSize 拼帧后发布到 FrameSlot
type AudioCapture struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	SampleRate int
	FrameSize  int

	// OnSamples 可选，收到原始数据时回调 (例如录音)，在驱动线程中执行
	OnSamples func(samples []float32)

	mu        sync.Mutex
	assembler *FrameAssembler
	logger    *slog.Logger
}

// NewAudioCapture 创建新的音频捕获实例
// targetDeviceName 非空时选择名字包含该关键字的第一个采集设备
func NewAudioCapture(sampleRate, frameSize int, targetDeviceName string, logger *slog.Logger) (*AudioCapture, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init malgo context: %w", err)
	}

	ac := &AudioCapture{
		ctx:        ctx,
		SampleRate: sampleRate,
		FrameSize:  frameSize,
		logger:     logger.With("component", "audio"),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(frameSize)
	deviceConfig.Alsa.NoMMap = 1

	if targetDeviceName != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(targetDeviceName)) {
					deviceConfig.Capture.DeviceID = info.ID.Pointer()
					ac.logger.Info("selected audio device", "name", info.Name())
					break
				}
			}
		}
	}

	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		if len(pInputSamples) == 0 {
			return
		}
		samples := unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), int(framecount))
		ac.handleSamples(samples)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to init device: %w", err)
	}
	ac.device = device

	ac.logger.Info("audio device initialized", "sample_rate", device.SampleRate(), "frame_size", frameSize)
	return ac, nil
}

func (ac *AudioCapture) handleSamples(samples []float32) {
	if ac.OnSamples != nil {
		ac.OnSamples(samples)
	}
	ac.mu.Lock()
	if ac.assembler != nil {
		ac.assembler.Write(samples)
	}
	ac.mu.Unlock()
}

// Run 启动采集并阻塞到 ctx 取消，返回前停止设备
func (ac *AudioCapture) Run(ctx context.Context, slot *FrameSlot) error {
	if ac.device == nil {
		return fmt.Errorf("device not initialized")
	}

	ac.mu.Lock()
	ac.assembler = NewFrameAssembler(ac.FrameSize, slot)
	ac.mu.Unlock()

	if err := ac.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	ac.logger.Info("capture started")

	<-ctx.Done()

	if err := ac.device.Stop(); err != nil {
		ac.logger.Warn("stopping capture", "error", err)
	}
	return nil
}

// Close 停止音频捕获并释放资源
func (ac *AudioCapture) Close() error {
	if ac.device != nil {
		ac.device.Uninit()
		ac.device = nil
	}
	if ac.ctx != nil {
		_ = ac.ctx.Uninit()
		ac.ctx.Free()
		ac.ctx = nil
	}
	return nil
}

// PlaySamples 通过默认 (或指定) 播放设备播放单声道样本，播放完或 ctx 取消时返回
func PlaySamples(ctx context.Context, sampleRate int, samples []float32, targetDeviceName string) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to init malgo context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if targetDeviceName != "" {
		if infos, err := mctx.Devices(malgo.Playback); err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(targetDeviceName)) {
					deviceConfig.Playback.DeviceID = info.ID.Pointer()
					break
				}
			}
		}
	}

	var (
		mu   sync.Mutex
		pos  int
		done = make(chan struct{})
		once sync.Once
	)
	onSendFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		if len(pOutputSample) == 0 {
			return
		}
		out := unsafe.Slice((*float32)(unsafe.Pointer(&pOutputSample[0])), int(framecount))

		mu.Lock()
		n := copy(out, samples[pos:])
		pos += n
		finished := pos >= len(samples)
		mu.Unlock()

		// 不足部分填静音
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		if finished {
			once.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSendFrames,
	})
	if err != nil {
		return fmt.Errorf("failed to init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	return device.Stop()
}
