package tonelock

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"tonelock/Spectrum"
)

// ConsolePresenter 在终端打印每帧的峰值表和门锁状态
type ConsolePresenter struct {
	out       io.Writer
	clear     bool // 每帧前清屏，实时模式下原地刷新
	threshold int

	unlocked *color.Color
	locked   *color.Color
	header   *color.Color
}

// NewConsolePresenter 创建终端展示器
func NewConsolePresenter(out io.Writer, threshold int, clear bool) *ConsolePresenter {
	return &ConsolePresenter{
		out:       out,
		clear:     clear,
		threshold: threshold,
		unlocked:  color.New(color.FgGreen, color.Bold),
		locked:    color.New(color.FgRed, color.Bold),
		header:    color.New(color.FgCyan),
	}
}

// FormatFrequency 以 SI 前缀显示频率，例如 "1.00 kHz"
func FormatFrequency(hz float64) string {
	fract, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%0.2f %sHz", fract, suffix)
}

// Show 打印一帧结果
func (p *ConsolePresenter) Show(seq uint64, res *Spectrum.Result) {
	if p.clear {
		fmt.Fprint(p.out, "\033[2J\033[H")
	}

	p.header.Fprintf(p.out, "Frame %s\n", humanize.Comma(int64(seq)))

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFrequency\tAmplitude\t% of max")
	for i, pk := range res.Peaks {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.1f%%\n", i+1, FormatFrequency(pk.Frequency), pk.Magnitude, pk.Percent)
	}
	tw.Flush()

	if res.Decision.Unlocked {
		p.unlocked.Fprintf(p.out, "Door Unlocked")
	} else {
		p.locked.Fprintf(p.out, "Door Locked")
	}
	fmt.Fprintf(p.out, " (%d/%d matched)\n", res.Decision.MatchedCount, p.threshold)
}

// ShowLevels 打印各目标频率上的 Goertzel 幅度
func (p *ConsolePresenter) ShowLevels(targets []Spectrum.Target, levels []float64) {
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Target\tTolerance\tLevel")
	for i, t := range targets {
		if i >= len(levels) {
			break
		}
		fmt.Fprintf(tw, "%s\t±%s\t%.4f\n", FormatFrequency(t.Frequency), FormatFrequency(t.Tolerance), levels[i])
	}
	tw.Flush()
}
