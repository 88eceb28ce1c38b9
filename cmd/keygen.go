package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"tonelock"
)

var (
	keyTones    string
	keyDuration time.Duration
	keySweep    string
	keySNR      float64
	keyDevice   string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen <out.wav>",
	Short: "Write a key tone (or a test sweep) to a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeygen,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the key tone through the sound card",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

func init() {
	for _, c := range []*cobra.Command{keygenCmd, playCmd} {
		c.Flags().StringVar(&keyTones, "tones", "", "tone list as freq[:amp],... (default: the unlock targets)")
		c.Flags().DurationVar(&keyDuration, "duration", 2*time.Second, "signal length")
		c.Flags().Float64Var(&keySNR, "snr", 0, "add white noise at this SNR in dB (omit for a clean key)")
		rootCmd.AddCommand(c)
	}
	keygenCmd.Flags().StringVar(&keySweep, "sweep", "", "write a linear sweep start:end (Hz) instead of the key")
	playCmd.Flags().StringVar(&keyDevice, "device", "", "playback device name keyword")
}

// buildKey 按命令行参数生成信号，noisy 为 true 时按 keySNR 加白噪声 (0dB 也有效)
func buildKey(noisy bool) ([]float64, error) {
	fs := appCfg.Audio.SampleRate

	var signal []float64
	if keySweep != "" {
		var f0, f1 float64
		if _, err := fmt.Sscanf(keySweep, "%g:%g", &f0, &f1); err != nil {
			return nil, fmt.Errorf("bad sweep %q: %w", keySweep, err)
		}
		signal = tonelock.GenerateSweep(f0, f1, fs, keyDuration)
	} else {
		tones := tonelock.KeyTones(appCfg.Unlock.Targets)
		if keyTones != "" {
			var err error
			if tones, err = tonelock.ParseTones(keyTones); err != nil {
				return nil, err
			}
		}
		signal = tonelock.GenerateKey(tones, fs, keyDuration)
	}

	if noisy {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		signal = tonelock.ApplyEffects(signal, fs, tonelock.ChannelEffects{SNRdB: keySNR}, rng)
	}
	return signal, nil
}

func runKeygen(cmd *cobra.Command, args []string) error {
	signal, err := buildKey(cmd.Flags().Changed("snr"))
	if err != nil {
		return err
	}
	if err := tonelock.WriteWavFile(args[0], appCfg.Audio.SampleRate, signal); err != nil {
		return err
	}
	logger.Info("key written", "file", args[0], "samples", len(signal), "sample_rate", appCfg.Audio.SampleRate)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	signal, err := buildKey(cmd.Flags().Changed("snr"))
	if err != nil {
		return err
	}
	out := make([]float32, len(signal))
	for i, v := range signal {
		out[i] = float32(v)
	}
	logger.Info("playing key", "duration", keyDuration)
	return tonelock.PlaySamples(cmd.Context(), appCfg.Audio.SampleRate, out, keyDevice)
}
