package tonelock

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"

	"tonelock/Filters"
)

// ErrShortRead 串口在超时前没有读满一帧，该帧被丢弃
var ErrShortRead = errors.New("short serial read")

// SerialPort 定义串口操作接口，方便测试 Mock
type SerialPort interface {
	io.ReadWriteCloser
}

// SerialSource 从串口读取采样帧
type SerialSource struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	Encoding    string
	FrameSize   int
	ADCMax      float64
	ADCVolts    float64

	// highpass 非空时对每帧做高通滤波，去掉 ADC 直流偏置，状态跨帧保留
	highpass *Filters.ButterworthFilter

	conn    SerialPort
	dropped atomic.Uint64
	logger  *slog.Logger
}

// NewSerialSource 按配置创建串口输入源 (尚未打开)
func NewSerialSource(cfg *Config, logger *slog.Logger) *SerialSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SerialSource{
		Port:        cfg.Serial.Port,
		BaudRate:    cfg.Serial.BaudRate,
		ReadTimeout: cfg.Serial.ReadTimeout,
		Encoding:    cfg.Serial.Encoding,
		FrameSize:   cfg.Analysis.FFTSize,
		ADCMax:      cfg.Serial.ADCMax,
		ADCVolts:    cfg.Serial.ADCVolts,
		logger:      logger.With("component", "serial", "port", cfg.Serial.Port),
	}
	if cfg.Serial.Highpass > 0 {
		s.highpass = Filters.NewButterworthHighpass(2, float64(cfg.Audio.SampleRate), cfg.Serial.Highpass)
	}
	return s
}

// Open 打开串口连接
func (s *SerialSource) Open() error {
	config := &serial.Config{
		Name:        s.Port,
		Baud:        s.BaudRate,
		ReadTimeout: s.ReadTimeout,
	}
	p, err := serial.OpenPort(config)
	if err != nil {
		return fmt.Errorf("opening serial port %s: %w", s.Port, err)
	}
	s.conn = p
	s.logger.Info("serial port opened", "baud", s.BaudRate, "encoding", s.Encoding)
	return nil
}

// Close 关闭串口连接
func (s *SerialSource) Close() error {
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Dropped 因读不满而丢弃的帧数
func (s *SerialSource) Dropped() uint64 {
	return s.dropped.Load()
}

// frameBytes 一帧需要读取的字节数
func (s *SerialSource) frameBytes() int {
	if s.Encoding == EncodingADC12 {
		return s.FrameSize * 2
	}
	// int16 模式每次读 FrameSize 字节，得到 FrameSize/2 个样本，其余补零
	return s.FrameSize
}

// ReadFrame 读取并解码一帧，读不满时返回 ErrShortRead
// 串口超时后 Read 可能返回 (0, nil) (Windows)，按超时处理，已读到的残帧丢弃
func (s *SerialSource) ReadFrame(ctx context.Context) ([]float64, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("connection not open")
	}

	raw := make([]byte, s.frameBytes())
	n := 0
	for n < len(raw) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := s.conn.Read(raw[n:])
		n += m
		if n == len(raw) {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, len(raw))
			}
			return nil, err
		}
		if m == 0 {
			return nil, fmt.Errorf("%w: timeout after %d of %d bytes", ErrShortRead, n, len(raw))
		}
	}

	var frame []float64
	if s.Encoding == EncodingADC12 {
		frame = DecodeADCFrame(raw, s.ADCMax, s.ADCVolts)
	} else {
		frame = DecodeInt16Frame(raw, s.FrameSize)
	}
	if s.highpass != nil {
		s.highpass.ProcessBlock(frame)
	}
	return frame, nil
}

// Run 循环读取串口并发布到 FrameSlot，直到 ctx 取消或串口出错
func (s *SerialSource) Run(ctx context.Context, slot *FrameSlot) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := s.ReadFrame(ctx)
		switch {
		case err == nil:
			slot.Publish(frame)
		case errors.Is(err, ErrShortRead):
			s.dropped.Add(1)
			s.logger.Debug("dropping partial frame", "error", err)
		default:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading serial frame: %w", err)
		}
	}
}

// DecodeInt16Frame 小端 int16 归一化到 [-1, 1)，不足 frameSize 的部分补零
func DecodeInt16Frame(raw []byte, frameSize int) []float64 {
	frame := make([]float64, frameSize)
	for i := 0; i+1 < len(raw) && i/2 < frameSize; i += 2 {
		val := int16(binary.LittleEndian.Uint16(raw[i : i+2]))
		frame[i/2] = float64(val) / 32768.0
	}
	return frame
}

// DecodeADCFrame 大端 16 位 ADC 读数线性映射为电压: v / adcMax * volts
func DecodeADCFrame(raw []byte, adcMax, volts float64) []float64 {
	frame := make([]float64, len(raw)/2)
	for i := range frame {
		v := binary.BigEndian.Uint16(raw[2*i : 2*i+2])
		frame[i] = float64(v) / adcMax * volts
	}
	return frame
}
