package Spectrum

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 1000: 1024, 2048: 2048, 2049: 4096, 3000: 4096}
	for in, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(in), "NextPowerOfTwo(%d)", in)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, IsPowerOfTwo(1))
	assert.True(t, IsPowerOfTwo(2048))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(-4))
	assert.False(t, IsPowerOfTwo(3000))
}

func TestHannWindow(t *testing.T) {
	w := HannWindow(9)
	require.Len(t, w, 9)
	assert.InDelta(t, 0.0, w[0], 1e-12)
	assert.InDelta(t, 0.0, w[8], 1e-12)
	assert.InDelta(t, 1.0, w[4], 1e-12)
	for i := range w {
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-12, "window must be symmetric")
	}
	assert.Nil(t, HannWindow(0))
}

func TestPreprocess_PadsToPowerOfTwo(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, n := range []int{1, 5, 1000, 2048, 3000} {
		frame := make([]float64, n)
		for i := range frame {
			frame[i] = rng.Float64()*2 - 1
		}
		w := HannWindow(n)

		seg, err := Preprocess(frame, w)
		require.NoError(t, err)
		require.Len(t, seg, NextPowerOfTwo(n))

		for i := 0; i < n; i++ {
			assert.Equal(t, frame[i]*w[i], seg[i], "prefix sample %d", i)
		}
		for i := n; i < len(seg); i++ {
			assert.Zero(t, seg[i], "padding sample %d", i)
		}
	}
}

func TestPreprocess_Errors(t *testing.T) {
	_, err := Preprocess(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = Preprocess(make([]float64, 8), make([]float64, 7))
	assert.ErrorIs(t, err, ErrWindowMismatch)
}
