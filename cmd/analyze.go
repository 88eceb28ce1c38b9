package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tonelock"
	"tonelock/Filters"
	"tonelock/Render"
	"tonelock/Spectrum"
)

var (
	analyzeOffset time.Duration
	analyzePNG    string
	analyzeAll    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Analyze one frame (or every frame) of a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().DurationVar(&analyzeOffset, "offset", 0, "start of the analyzed frame")
	analyzeCmd.Flags().StringVar(&analyzePNG, "png", "", "save the spectrum bar chart to this PNG")
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "analyze every hop and report the unlocked intervals")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	src, err := tonelock.NewWavSource(args[0], appCfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	ac, err := appCfg.AnalysisConfig()
	if err != nil {
		return err
	}
	analyzer, err := Spectrum.NewAnalyzer(ac)
	if err != nil {
		return err
	}

	if analyzeAll {
		return analyzeFrames(src, analyzer)
	}

	index := int(analyzeOffset.Seconds()*float64(appCfg.Audio.SampleRate)) / src.HopSize
	if index >= src.FrameCount() {
		return fmt.Errorf("offset %s is past the end of %s", analyzeOffset, args[0])
	}
	frame := src.Frame(index)
	res, err := analyzer.Analyze(frame)
	if err != nil {
		return err
	}

	presenter := tonelock.NewConsolePresenter(os.Stdout, appCfg.Unlock.Threshold, false)
	presenter.Show(uint64(index+1), res)

	freqs := make([]float64, len(ac.Targets.Targets))
	for i, t := range ac.Targets.Targets {
		freqs[i] = t.Frequency
	}
	presenter.ShowLevels(ac.Targets.Targets, Filters.NewToneBank(float64(ac.SampleRate), freqs).Levels(frame))

	if analyzePNG != "" {
		chart, err := Render.NewBarChart(Render.ChartConfig{})
		if err != nil {
			return err
		}
		img, err := chart.Draw(res, ac.Targets.Targets)
		if err != nil {
			return err
		}
		if err := Render.SavePNG(img, analyzePNG); err != nil {
			return err
		}
		logger.Info("chart saved", "file", analyzePNG)
	}
	return nil
}

// analyzeFrames 逐帧分析整个文件，输出解锁区间
func analyzeFrames(src *tonelock.WavSource, analyzer *Spectrum.Analyzer) error {
	count := src.FrameCount()
	unlocked := make([]bool, count)
	for i := range unlocked {
		res, err := analyzer.Analyze(src.Frame(i))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		unlocked[i] = res.Decision.Unlocked
	}

	opened := 0
	for _, u := range unlocked {
		if u {
			opened++
		}
	}
	for _, iv := range unlockIntervals(unlocked, src.FrameTime) {
		if iv.ToEnd {
			fmt.Printf("unlocked %s - end\n", iv.Start)
		} else {
			fmt.Printf("unlocked %s - %s\n", iv.Start, iv.End)
		}
	}
	fmt.Printf("%d of %d frames unlocked\n", opened, count)
	return nil
}

// unlockInterval 连续开锁的一段，End 是第一个重新上锁的帧的时间
type unlockInterval struct {
	Start time.Duration
	End   time.Duration
	ToEnd bool // 一直开到文件结尾
}

// unlockIntervals 把逐帧判定合并为连续区间
func unlockIntervals(unlocked []bool, frameTime func(int) time.Duration) []unlockInterval {
	var (
		out  []unlockInterval
		cur  unlockInterval
		open bool
	)
	for i, u := range unlocked {
		switch {
		case u && !open:
			cur, open = unlockInterval{Start: frameTime(i)}, true
		case !u && open:
			cur.End = frameTime(i)
			out = append(out, cur)
			open = false
		}
	}
	if open {
		cur.ToEnd = true
		out = append(out, cur)
	}
	return out
}
