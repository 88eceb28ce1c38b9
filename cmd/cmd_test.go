package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonelock"
)

func TestUnlockIntervals(t *testing.T) {
	frameTime := func(i int) time.Duration { return time.Duration(i) * 20 * time.Millisecond }
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	tests := []struct {
		name     string
		unlocked []bool
		want     []unlockInterval
	}{
		{"empty", nil, nil},
		{"never", []bool{false, false, false}, nil},
		{"whole file", []bool{true, true}, []unlockInterval{{Start: 0, ToEnd: true}}},
		{"closed interval", []bool{false, true, true, false}, []unlockInterval{{Start: ms(20), End: ms(60)}}},
		{"two intervals", []bool{true, false, false, true, true},
			[]unlockInterval{{Start: 0, End: ms(20)}, {Start: ms(60), ToEnd: true}}},
		{"single frame", []bool{false, true, false}, []unlockInterval{{Start: ms(20), End: ms(40)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unlockIntervals(tt.unlocked, frameTime))
		})
	}
}

func withKeyFlags(t *testing.T) {
	t.Helper()
	oldCfg, oldTones, oldSweep, oldSNR, oldDur := appCfg, keyTones, keySweep, keySNR, keyDuration
	t.Cleanup(func() {
		appCfg, keyTones, keySweep, keySNR, keyDuration = oldCfg, oldTones, oldSweep, oldSNR, oldDur
	})

	cfg := tonelock.DefaultConfig()
	cfg.Audio.SampleRate = 8000
	appCfg = cfg
	keyTones, keySweep = "", ""
	keyDuration = 100 * time.Millisecond
}

func TestBuildKey_ZeroSNRAddsNoise(t *testing.T) {
	withKeyFlags(t)
	keySNR = 0

	clean, err := buildKey(false)
	require.NoError(t, err)
	assert.Equal(t, tonelock.GenerateKey(tonelock.KeyTones(appCfg.Unlock.Targets), 8000, keyDuration), clean)

	noisy, err := buildKey(true)
	require.NoError(t, err)
	require.Len(t, noisy, len(clean))
	assert.NotEqual(t, clean, noisy)
}

func TestBuildKey_Sweep(t *testing.T) {
	withKeyFlags(t)
	keySweep = "100:2000"

	signal, err := buildKey(false)
	require.NoError(t, err)
	assert.Len(t, signal, 800)

	keySweep = "100-2000"
	_, err = buildKey(false)
	assert.Error(t, err)
}
