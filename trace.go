package tonelock

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"tonelock/Spectrum"
)

// DecisionTracer 定义判定记录接口
// 系统只依赖这个接口，不依赖具体的文件操作；只记录当前帧的峰值与判定，不保存频谱
type DecisionTracer interface {
	Record(at time.Time, seq uint64, res *Spectrum.Result)
	Close() error
}

// CsvDecisionTracer 把每帧判定写成一行 CSV
type CsvDecisionTracer struct {
	file   *os.File
	writer *bufio.Writer
}

// NewCsvDecisionTracer 创建 CSV 记录器并写入表头
func NewCsvDecisionTracer(filename string) (*CsvDecisionTracer, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("Time,Frame,Peaks,Matched,Unlocked\n"); err != nil {
		f.Close()
		return nil, err
	}

	return &CsvDecisionTracer{
		file:   f,
		writer: w,
	}, nil
}

// Record 记录单帧判定，峰值格式为 "频率:幅度" 并以空格分隔
func (d *CsvDecisionTracer) Record(at time.Time, seq uint64, res *Spectrum.Result) {
	peaks := make([]string, len(res.Peaks))
	for i, p := range res.Peaks {
		peaks[i] = fmt.Sprintf("%.2f:%.4f", p.Frequency, p.Magnitude)
	}
	unlocked := 0
	if res.Decision.Unlocked {
		unlocked = 1
	}
	fmt.Fprintf(d.writer, "%s,%d,%s,%d,%d\n",
		at.Format(time.RFC3339Nano), seq, strings.Join(peaks, " "), res.Decision.MatchedCount, unlocked)
}

// Close 刷新缓冲区并关闭文件
func (d *CsvDecisionTracer) Close() error {
	if err := d.writer.Flush(); err != nil {
		d.file.Close()
		return err
	}
	return d.file.Close()
}

// NoOpTracer 是一个空实现，不记录时使用，
// 避免在系统循环里写大量的 if tracer != nil
type NoOpTracer struct{}

func (NoOpTracer) Record(time.Time, uint64, *Spectrum.Result) {}
func (NoOpTracer) Close() error                              { return nil }
