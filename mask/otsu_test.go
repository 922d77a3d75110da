package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtsuThreshold(t *testing.T) {
	t.Parallel()

	bimodal := [256]int{}
	bimodal[20] = 2500
	bimodal[255] = 37500

	spread := [256]int{}
	spread[10], spread[12], spread[200], spread[210] = 30, 20, 25, 25

	constant := [256]int{}
	constant[128] = 100

	tests := []struct {
		name string
		hist [256]int
		want uint8
	}{
		{name: "bimodal takes first maximum", hist: bimodal, want: 20},
		{name: "two clusters", hist: spread, want: 12},
		{name: "constant image", hist: constant, want: 0},
		{name: "empty histogram", hist: [256]int{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, OtsuThreshold(tt.hist))
		})
	}
}

func TestThreshold_InvertedPolarity(t *testing.T) {
	t.Parallel()

	img := solidRGB(t, 10, 10, 255)
	fillRect(img, 2, 2, 5, 5, 20)

	m, level := Threshold(img, ThresholdOptions{Auto: true})
	assert.Equal(t, uint8(20), level)
	assert.True(t, m.Equal(squareMask(10, 10, 2, 2, 5, 5)))
}

func TestThreshold_FixedLevel(t *testing.T) {
	t.Parallel()

	img := solidRGB(t, 3, 1, 0)
	fillRect(img, 0, 0, 1, 1, 240)
	fillRect(img, 1, 0, 2, 1, 250)
	fillRect(img, 2, 0, 3, 1, 252)

	m, level := Threshold(img, ThresholdOptions{Level: 250})
	assert.Equal(t, uint8(250), level)
	assert.Equal(t, []uint8{255, 255, 0}, m.Pix)
}

func TestThreshold_Deterministic(t *testing.T) {
	t.Parallel()

	img := solidRGB(t, 64, 48, 230)
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 37) % 251)
	}

	first, l1 := Threshold(img, ThresholdOptions{Auto: true})
	second, l2 := Threshold(img, ThresholdOptions{Auto: true})
	assert.Equal(t, l1, l2)
	assert.True(t, first.Equal(second))
}
