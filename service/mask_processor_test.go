package service

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareMask(w, h, x0, y0, x1, y1 int) *mask.BinaryMask {
	m := mask.NewBinaryMask(w, h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Pix[y*w+x] = mask.Foreground
		}
	}
	return m
}

func TestMaskProcessor_BoundingBox(t *testing.T) {
	mp := NewMaskProcessor()

	assert.Equal(t, model.BBox{X: 3, Y: 4, Width: 5, Height: 2}, mp.BoundingBox(squareMask(10, 10, 3, 4, 8, 6)))
	assert.Equal(t, model.BBox{}, mp.BoundingBox(mask.NewBinaryMask(10, 10)))

	m := squareMask(10, 10, 0, 0, 1, 1)
	m.Pix[99] = mask.Foreground
	assert.Equal(t, model.BBox{X: 0, Y: 0, Width: 10, Height: 10}, mp.BoundingBox(m))
}

func TestMaskProcessor_EncodeRoundTrip(t *testing.T) {
	mp := NewMaskProcessor()
	m := squareMask(6, 4, 1, 1, 4, 3)

	encoded, err := mp.EncodeBase64(m)
	require.NoError(t, err)
	data, err := mp.DecodeBase64(encoded)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "mask must be a single-channel PNG, got %T", img)
	assert.Equal(t, m.Pix, gray.Pix)

	_, err = mp.DecodeBase64("%%%")
	assert.Error(t, err)
}

func TestMaskProcessor_BuildResult(t *testing.T) {
	mp := NewMaskProcessor()
	res := &mask.Result{
		Mask:            squareMask(10, 10, 0, 0, 5, 5),
		Strategy:        mask.StrategyAuto,
		Status:          mask.StatusDegraded,
		Trace:           []mask.State{mask.StateStart, mask.StateDone},
		Threshold:       12,
		ForegroundRatio: 0.25,
		SegmentationErr: errors.New("segmentation failure: too few samples"),
	}

	out, err := mp.BuildResult("abc", res)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.MD5)
	assert.Equal(t, 10, out.Width)
	assert.Equal(t, "auto", out.Strategy)
	assert.Equal(t, "degraded", out.Status)
	assert.Equal(t, 12, out.Threshold)
	assert.Equal(t, 0.25, out.ForegroundRatio)
	assert.Equal(t, []string{"start", "done"}, out.Trace)
	assert.Equal(t, model.BBox{Width: 5, Height: 5}, out.BoundingBox)
	assert.Contains(t, out.Degradation, "too few samples")
	assert.NotEmpty(t, out.Mask)
}
