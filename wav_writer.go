package tonelock

import (
	"encoding/binary"
	"io"
	"os"
	"sync"
)

// WavWriter 单声道 16-bit PCM WAV 写入器
// 录音时由音频驱动线程调用 WriteSamples，所以写入加锁
type WavWriter struct {
	mu         sync.Mutex
	file       *os.File
	sampleRate int
	dataSize   int
}

// NewWavWriter 创建新的 WAV 写入器
func NewWavWriter(filename string, sampleRate int) (*WavWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	// 写入占位符头 (44字节)，Close 时回写正确的大小
	if _, err := f.Write(wavHeader(sampleRate, 0)); err != nil {
		f.Close()
		return nil, err
	}

	return &WavWriter{
		file:       f,
		sampleRate: sampleRate,
	}, nil
}

// WriteSamples 写入音频采样数据 (float32, -1.0 ~ 1.0，超出部分限幅)
func (w *WavWriter) WriteSamples(samples []float32) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(toPCM16(float64(s))))
	}
	return w.write(buf)
}

// WriteFloat64 写入 float64 样本
func (w *WavWriter) WriteFloat64(samples []float64) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(toPCM16(s)))
	}
	return w.write(buf)
}

func (w *WavWriter) write(buf []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(buf)
	w.dataSize += n
	return err
}

// Close 回写 WAV 头并关闭文件
func (w *WavWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		w.file.Close()
		return err
	}
	if _, err := w.file.Write(wavHeader(w.sampleRate, w.dataSize)); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// WriteWavFile 一次性写出单声道 WAV 文件
func WriteWavFile(filename string, sampleRate int, samples []float64) error {
	w, err := NewWavWriter(filename, sampleRate)
	if err != nil {
		return err
	}
	if err := w.WriteFloat64(samples); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func toPCM16(s float64) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	return int16(s * 32767)
}

// wavHeader 生成 44 字节的 RIFF/WAVE 头 (PCM, 单声道, 16 位)
func wavHeader(sampleRate, dataSize int) []byte {
	header := make([]byte, 44)

	// RIFF header
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+dataSize))
	copy(header[8:], "WAVE")

	// fmt chunk
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)                   // Subchunk1Size (16 for PCM)
	binary.LittleEndian.PutUint16(header[20:], 1)                    // AudioFormat (1 for PCM)
	binary.LittleEndian.PutUint16(header[22:], 1)                    // NumChannels
	binary.LittleEndian.PutUint32(header[24:], uint32(sampleRate))   // SampleRate
	binary.LittleEndian.PutUint32(header[28:], uint32(sampleRate*2)) // ByteRate
	binary.LittleEndian.PutUint16(header[32:], 2)                    // BlockAlign
	binary.LittleEndian.PutUint16(header[34:], 16)                   // BitsPerSample

	// data chunk
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataSize))
	return header
}
