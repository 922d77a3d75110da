package mask

import "testing"

func solidRGB(t *testing.T, w, h int, v uint8) *RasterImage {
	t.Helper()
	img, err := NewRasterImage(w, h, 3)
	if err != nil {
		t.Fatalf("new raster: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// fillRect 填充 [x0,x1) x [y0,y1) 区域
func fillRect(img *RasterImage, x0, y0, x1, y1 int, v uint8) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := (y*img.Width + x) * img.Channels
			for c := 0; c < min(img.Channels, 3); c++ {
				img.Pix[i+c] = v
			}
		}
	}
}

func squareMask(w, h, x0, y0, x1, y1 int) *BinaryMask {
	m := NewBinaryMask(w, h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Pix[y*w+x] = Foreground
		}
	}
	return m
}
