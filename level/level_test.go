package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundaries(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	assert.Equal(t, Set{0}, s)

	s, err = New(2)
	require.NoError(t, err)
	assert.Equal(t, Set{0, 255}, s)

	s, err = New(3)
	require.NoError(t, err)
	assert.Equal(t, Set{0, 128, 255}, s)
}

func TestNewStrictlyIncreasing(t *testing.T) {
	for k := 2; k <= MaxCount; k++ {
		s, err := New(k)
		require.NoError(t, err)
		require.Len(t, s, k)
		assert.Equal(t, uint8(0), s[0])
		assert.Equal(t, uint8(255), s[k-1])
		for i := 1; i < k; i++ {
			require.Less(t, s[i-1], s[i], "k=%d i=%d", k, i)
		}
	}
}

func TestNewInvalid(t *testing.T) {
	for _, k := range []int{0, -1, MaxCount + 1} {
		_, err := New(k)
		assert.ErrorIs(t, err, ErrInvalidParameter, "k=%d", k)
	}
}

func TestQuantize(t *testing.T) {
	s, err := New(3) // 0, 128, 255
	require.NoError(t, err)

	cases := []struct {
		v    float64
		want uint8
	}{
		{-20, 0},
		{0, 0},
		{63.9, 0},
		{64, 0}, // tie goes low
		{64.1, 128},
		{128, 128},
		{191.5, 128}, // tie goes low
		{191.6, 255},
		{255, 255},
		{300, 255},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.Quantize(tc.v), "v=%v", tc.v)
	}

	two, _ := New(2)
	assert.Equal(t, uint8(0), two.Quantize(127.5))
	assert.Equal(t, uint8(255), two.Quantize(200))
	assert.Equal(t, uint8(0), two.Quantize(100))

	one, _ := New(1)
	assert.Equal(t, uint8(0), one.Quantize(255))
}

func TestContains(t *testing.T) {
	s, _ := New(5)
	for _, v := range s {
		assert.True(t, s.Contains(v))
	}
	assert.False(t, s.Contains(1))
	assert.False(t, s.Contains(254))
}

func TestGap(t *testing.T) {
	s, _ := New(3) // 0, 128, 255
	assert.Equal(t, 128.0, s.Gap(0, true))
	assert.Equal(t, 128.0, s.Gap(0, false))
	assert.Equal(t, 128.0, s.Gap(50, true))
	assert.Equal(t, 127.0, s.Gap(128, true))
	assert.Equal(t, 128.0, s.Gap(128, false))
	assert.Equal(t, 127.0, s.Gap(255, true))
	assert.Equal(t, 127.0, s.Gap(255, false))

	one, _ := New(1)
	assert.Equal(t, 0.0, one.Gap(10, true))
}

func TestPerturbKeepsLevels(t *testing.T) {
	for _, k := range []int{2, 3, 7, 44, 100, 256} {
		s, _ := New(k)
		for _, l := range s {
			for _, u := range []float64{-0.4999, -0.25, 0, 0.25, 0.5} {
				require.Equal(t, l, s.Perturb(float64(l), u), "k=%d l=%d u=%v", k, l, u)
			}
		}
	}
}

func TestPerturbMovesBetweenLevels(t *testing.T) {
	s, _ := New(2)
	assert.Equal(t, uint8(0), s.Perturb(100, -0.2))
	assert.Equal(t, uint8(255), s.Perturb(100, 0.2))
}

func TestNewRGB(t *testing.T) {
	rgb, err := NewRGB(Counts{R: 2, G: 3, B: 1})
	require.NoError(t, err)
	assert.Equal(t, Set{0, 255}, rgb[0])
	assert.Equal(t, Set{0, 128, 255}, rgb[1])
	assert.Equal(t, Set{0}, rgb[2])

	_, err = NewRGB(Counts{R: 2, G: 0, B: 2})
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "green")
}
