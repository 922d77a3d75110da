package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_UniformMasksUnchanged(t *testing.T) {
	t.Parallel()

	empty := NewBinaryMask(17, 9)
	assert.True(t, empty.Equal(Close(empty, DefaultStructuringElement)))

	full := NewBinaryMask(17, 9)
	for i := range full.Pix {
		full.Pix[i] = Foreground
	}
	assert.True(t, full.Equal(Close(full, DefaultStructuringElement)))
}

func TestClose_PreservesRectangles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mask *BinaryMask
	}{
		{name: "centered square", mask: squareMask(200, 200, 75, 75, 125, 125)},
		{name: "touching corner", mask: squareMask(40, 30, 0, 0, 12, 9)},
		{name: "single pixel", mask: squareMask(21, 21, 10, 10, 11, 11)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.mask.Equal(Close(tt.mask, DefaultStructuringElement)))
		})
	}
}

func TestClose_FillsHolesAndGaps(t *testing.T) {
	t.Parallel()

	m := squareMask(30, 30, 5, 5, 25, 25)
	m.Pix[15*30+15] = Background
	m.Pix[16*30+15] = Background
	closed := Close(m, DefaultStructuringElement)
	assert.Equal(t, Foreground, closed.At(15, 15))
	assert.Equal(t, Foreground, closed.At(15, 16))

	gap := squareMask(30, 30, 0, 10, 10, 21)
	for y := 10; y < 21; y++ {
		for x := 12; x < 22; x++ {
			gap.Pix[y*30+x] = Foreground
		}
	}
	closed = Close(gap, DefaultStructuringElement)
	assert.Equal(t, Foreground, closed.At(10, 15))
	assert.Equal(t, Foreground, closed.At(11, 15))
}

func TestClose_IsExtensive(t *testing.T) {
	t.Parallel()

	m := NewBinaryMask(40, 40)
	for i := range m.Pix {
		if (i*7919)%13 == 0 {
			m.Pix[i] = Foreground
		}
	}
	closed := Close(m, DefaultStructuringElement)
	for i, v := range m.Pix {
		if v == Foreground {
			require.Equal(t, Foreground, closed.Pix[i], "pixel %d lost by closing", i)
		}
	}
}

func TestDilateErode(t *testing.T) {
	t.Parallel()

	se, err := NewStructuringElement(3)
	require.NoError(t, err)

	dot := squareMask(5, 5, 2, 2, 3, 3)
	assert.True(t, squareMask(5, 5, 1, 1, 4, 4).Equal(Dilate(dot, se)))
	assert.Zero(t, Erode(dot, se).Count())
}

func TestNewStructuringElement(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -3, 4} {
		_, err := NewStructuringElement(size)
		assert.Error(t, err, "size %d", size)
	}
	se, err := NewStructuringElement(1)
	require.NoError(t, err)
	m := squareMask(4, 4, 1, 1, 2, 2)
	assert.True(t, m.Equal(Close(m, se)))
}
