package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonelock"
	"tonelock/Render"
	"tonelock/Spectrum"
)

var (
	deviceName string
	recordFile string
	serialPort string
	encoding   string
	traceFile  string
	snapshot   string
	noTable    bool
	fastReplay bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Detect the key from the sound card",
	Args:  cobra.NoArgs,
	RunE:  runListen,
}

var serialCmd = &cobra.Command{
	Use:   "serial",
	Short: "Detect the key from samples streamed over a serial port",
	Args:  cobra.NoArgs,
	RunE:  runSerial,
}

var replayCmd = &cobra.Command{
	Use:   "replay <file.wav>",
	Short: "Run the detector over a recorded WAV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	for _, c := range []*cobra.Command{listenCmd, serialCmd, replayCmd} {
		c.Flags().StringVar(&traceFile, "trace", "", "write per-frame decisions to this CSV file")
		c.Flags().StringVar(&snapshot, "png", "", "redraw the spectrum bar chart into this PNG every frame")
		c.Flags().BoolVar(&noTable, "quiet", false, "do not print the peak table")
		rootCmd.AddCommand(c)
	}

	listenCmd.Flags().StringVar(&deviceName, "device", os.Getenv("TONELOCK_DEVICE"), "capture device name keyword")
	listenCmd.Flags().StringVar(&recordFile, "record", "", "also record the captured audio to this WAV file")

	serialCmd.Flags().StringVar(&serialPort, "port", os.Getenv("TONELOCK_SERIAL_PORT"), "serial port (default from config)")
	serialCmd.Flags().StringVar(&encoding, "encoding", "", "sample encoding: int16 or adc12 (default from config)")

	replayCmd.Flags().BoolVar(&fastReplay, "fast", false, "publish frames as fast as possible instead of in real time")
}

// applyOutputFlags 命令行输出参数覆盖配置
func applyOutputFlags() {
	if traceFile != "" {
		appCfg.Output.Trace = traceFile
	}
	if snapshot != "" {
		appCfg.Output.Snapshot = snapshot
	}
	if noTable {
		appCfg.Output.Table = false
	}
}

func runListen(cmd *cobra.Command, args []string) error {
	applyOutputFlags()
	if deviceName != "" {
		appCfg.Audio.DeviceName = deviceName
	}
	if recordFile != "" {
		appCfg.Audio.RecordFile = recordFile
	}

	capture, err := tonelock.NewAudioCapture(appCfg.Audio.SampleRate, appCfg.Analysis.FFTSize, appCfg.Audio.DeviceName, logger)
	if err != nil {
		return err
	}

	if appCfg.Audio.RecordFile != "" {
		writer, err := tonelock.NewWavWriter(appCfg.Audio.RecordFile, appCfg.Audio.SampleRate)
		if err != nil {
			capture.Close()
			return fmt.Errorf("creating recording: %w", err)
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("saving recording", "error", err)
				return
			}
			logger.Info("recording saved", "file", appCfg.Audio.RecordFile)
		}()
		capture.OnSamples = func(samples []float32) {
			if err := writer.WriteSamples(samples); err != nil {
				logger.Warn("recording write failed", "error", err)
			}
		}
	}

	return runSystem(cmd.Context(), capture, true)
}

func runSerial(cmd *cobra.Command, args []string) error {
	applyOutputFlags()
	if serialPort != "" {
		appCfg.Serial.Port = serialPort
	}
	if encoding != "" {
		appCfg.Serial.Encoding = encoding
		if err := appCfg.Validate(); err != nil {
			return err
		}
	}

	src := tonelock.NewSerialSource(appCfg, logger)
	if err := src.Open(); err != nil {
		return err
	}
	defer func() {
		if n := src.Dropped(); n > 0 {
			logger.Info("partial serial frames dropped", "count", n)
		}
	}()

	return runSystem(cmd.Context(), src, true)
}

func runReplay(cmd *cobra.Command, args []string) error {
	applyOutputFlags()
	appCfg.Replay.File = args[0]
	if fastReplay {
		appCfg.Replay.Realtime = false
	}

	src, err := tonelock.NewWavSource(appCfg.Replay.File, appCfg, logger)
	if err != nil {
		return err
	}
	return runSystem(cmd.Context(), src, false)
}

// runSystem 组装 LockSystem 和输出，阻塞到输入结束或收到中断信号
func runSystem(ctx context.Context, src tonelock.FrameSource, clear bool) error {
	system, err := tonelock.NewLockSystem(appCfg, src, logger)
	if err != nil {
		src.Close()
		return err
	}

	if appCfg.Output.Trace != "" {
		tracer, err := tonelock.NewCsvDecisionTracer(appCfg.Output.Trace)
		if err != nil {
			src.Close()
			return fmt.Errorf("creating trace: %w", err)
		}
		system.SetTracer(tracer)
	}

	var handlers []func(uint64, *Spectrum.Result)

	if appCfg.Output.Table {
		presenter := tonelock.NewConsolePresenter(os.Stdout, appCfg.Unlock.Threshold, clear)
		handlers = append(handlers, presenter.Show)
	}

	if appCfg.Output.Snapshot != "" {
		chart, err := Render.NewBarChart(Render.ChartConfig{})
		if err != nil {
			src.Close()
			return err
		}
		targets := system.Analyzer().Config().Targets.Targets
		handlers = append(handlers, func(seq uint64, res *Spectrum.Result) {
			img, err := chart.Draw(res, targets)
			if err == nil {
				err = Render.SavePNG(img, appCfg.Output.Snapshot)
			}
			if err != nil {
				logger.Warn("snapshot failed", "seq", seq, "error", err)
			}
		})
	}

	system.OnResult = func(seq uint64, res *Spectrum.Result) {
		for _, h := range handlers {
			h(seq, res)
		}
	}

	logger.Info("detector running",
		"engine", system.Analyzer().EngineName(),
		"fft_size", appCfg.Analysis.FFTSize,
		"targets", appCfg.Unlock.Targets,
		"threshold", appCfg.Unlock.Threshold)
	return system.Run(ctx)
}
