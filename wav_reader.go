package tonelock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrInvalidWav 不是可解析的 16 位 PCM WAV 文件
var ErrInvalidWav = errors.New("invalid wav file")

// WavReader 简单的 WAV 文件读取器 (仅支持 16-bit PCM，多声道只取第一个声道)
type WavReader struct {
	file       *os.File
	SampleRate int
	Channels   int
	DataSize   int
	dataStart  int64
	consumed   int
}

// NewWavReader 打开文件并定位到 data 块
func NewWavReader(filename string) (*WavReader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &WavReader{file: f}
	if err := r.parseHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return r, nil
}

func (r *WavReader) parseHeader() error {
	riffHeader := make([]byte, 12)
	if _, err := io.ReadFull(r.file, riffHeader); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWav, err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWav)
	}

	var bitsPerSample, format int
	foundFmt := false
	foundData := false

	for !(foundFmt && foundData) {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(r.file, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		// Pad byte if chunk size is odd
		padding := chunkSize % 2

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return fmt.Errorf("%w: fmt chunk too small", ErrInvalidWav)
			}
			fmtData := make([]byte, chunkSize)
			if _, err := io.ReadFull(r.file, fmtData); err != nil {
				return err
			}
			if _, err := r.file.Seek(padding, io.SeekCurrent); err != nil {
				return err
			}
			format = int(binary.LittleEndian.Uint16(fmtData[0:2]))
			r.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			r.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
			foundFmt = true

		case "data":
			r.DataSize = int(chunkSize)
			pos, err := r.file.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			r.dataStart = pos
			foundData = true
			if foundFmt {
				break
			}
			// fmt 块在 data 之后，先跳过数据
			if _, err := r.file.Seek(chunkSize+padding, io.SeekCurrent); err != nil {
				return err
			}

		default:
			// Skip unknown chunk
			if _, err := r.file.Seek(chunkSize+padding, io.SeekCurrent); err != nil {
				return err
			}
		}
	}

	if !foundFmt || !foundData {
		return fmt.Errorf("%w: missing fmt or data chunk", ErrInvalidWav)
	}
	// 1 = PCM, 0xFFFE = WAVE_FORMAT_EXTENSIBLE
	if format != 1 && format != 0xFFFE {
		return fmt.Errorf("%w: unsupported format tag %d", ErrInvalidWav, format)
	}
	if bitsPerSample != 16 {
		return fmt.Errorf("%w: only 16-bit wav supported, got %d", ErrInvalidWav, bitsPerSample)
	}
	if r.Channels < 1 {
		return fmt.Errorf("%w: no channels", ErrInvalidWav)
	}

	_, err := r.file.Seek(r.dataStart, io.SeekStart)
	return err
}

// Frames 每个声道的样本总数
func (r *WavReader) Frames() int {
	return r.DataSize / (2 * r.Channels)
}

// Duration 音频时长
func (r *WavReader) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}
	return time.Duration(r.Frames()) * time.Second / time.Duration(r.SampleRate)
}

// ReadSamples 读取最多 count 个样本 (每个声道) 并转换为 float32
// 数据读完时返回 io.EOF
func (r *WavReader) ReadSamples(count int) ([]float32, error) {
	remaining := r.Frames() - r.consumed
	if remaining <= 0 {
		return nil, io.EOF
	}
	if count > remaining {
		count = remaining
	}

	frameBytes := 2 * r.Channels
	buf := make([]byte, count*frameBytes)
	n, err := io.ReadFull(r.file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	numFrames := n / frameBytes
	r.consumed += numFrames
	out := make([]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		// 只取第一个声道
		offset := i * frameBytes
		val := int16(binary.LittleEndian.Uint16(buf[offset : offset+2]))
		// 归一化到 -1.0 ~ 1.0
		out[i] = float32(val) / 32768.0
	}
	if numFrames == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// ReadAll 读取剩余全部样本
func (r *WavReader) ReadAll() ([]float64, error) {
	out := make([]float64, 0, r.Frames()-r.consumed)
	for {
		chunk, err := r.ReadSamples(4096)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		for _, v := range chunk {
			out = append(out, float64(v))
		}
	}
}

func (r *WavReader) Close() error {
	return r.file.Close()
}
