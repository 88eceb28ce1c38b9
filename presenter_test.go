package tonelock

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"tonelock/Spectrum"
)

func TestFormatFrequency(t *testing.T) {
	assert.Equal(t, "1.00 kHz", FormatFrequency(1000))
	assert.Equal(t, "990.53 Hz", FormatFrequency(990.527))
	assert.Equal(t, "22.05 kHz", FormatFrequency(22050))
}

func TestConsolePresenter_Show(t *testing.T) {
	peaks := []Spectrum.Peak{
		{Bin: Spectrum.Bin{Frequency: 1000, Magnitude: 8}, Position: 10, Percent: 100},
		{Bin: Spectrum.Bin{Frequency: 3000, Magnitude: 4}, Position: 30, Percent: 50},
	}
	res := &Spectrum.Result{
		Peaks:    peaks,
		Decision: Spectrum.Decision{Unlocked: false, MatchedCount: 2},
	}

	var buf bytes.Buffer
	NewConsolePresenter(&buf, 3, false).Show(1234, res)
	out := buf.String()

	assert.Contains(t, out, "Frame 1,234")
	assert.Contains(t, out, "1.00 kHz")
	assert.Contains(t, out, "3.00 kHz")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Door Locked")
	assert.Contains(t, out, "(2/3 matched)")
	assert.NotContains(t, out, "\033[2J")

	buf.Reset()
	res.Decision = Spectrum.Decision{Unlocked: true, MatchedCount: 3}
	NewConsolePresenter(&buf, 3, true).Show(1, res)
	assert.Contains(t, buf.String(), "\033[2J")
	assert.Contains(t, buf.String(), "Door Unlocked")
}

func TestConsolePresenter_ShowLevels(t *testing.T) {
	var buf bytes.Buffer
	targets := []Spectrum.Target{{Frequency: 1000, Tolerance: 100}, {Frequency: 4000, Tolerance: 150}}
	NewConsolePresenter(&buf, 3, false).ShowLevels(targets, []float64{0.5, 0.01})

	out := buf.String()
	assert.Contains(t, out, "±100.00 Hz")
	assert.Contains(t, out, "4.00 kHz")
	assert.Contains(t, out, "0.5000")
}
