package mask

import "fmt"

// ExtractAlpha 直接使用 alpha 通道生成掩码：alpha > 0 即为前景，不做形态学处理
func ExtractAlpha(img *RasterImage) (*BinaryMask, error) {
	if img.Channels != 4 {
		return nil, fmt.Errorf("alpha mask needs 4 channels, got %d", img.Channels)
	}
	m := NewBinaryMask(img.Width, img.Height)
	for p := range m.Pix {
		if img.Pix[p*4+3] > 0 {
			m.Pix[p] = Foreground
		}
	}
	return m, nil
}
