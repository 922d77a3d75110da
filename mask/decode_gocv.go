//go:build gocv

package mask

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// decode 使用 OpenCV 以 IMReadUnchanged 读取，保留原始通道数
func decode(path string) (*RasterImage, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		return nil, errors.New("opencv could not decode image")
	}
	defer src.Close()

	channels := src.Channels()
	var target gocv.MatType
	switch channels {
	case 1:
		target = gocv.MatTypeCV8UC1
	case 3:
		target = gocv.MatTypeCV8UC3
	case 4:
		target = gocv.MatTypeCV8UC4
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	mat := src
	if src.Type() != target {
		converted := gocv.NewMat()
		defer converted.Close()
		scale := float32(1)
		if src.Type()&7 == gocv.MatTypeCV16U {
			scale = 1.0 / 257
		}
		src.ConvertToWithParams(&converted, target, scale, 0)
		mat = converted
	}

	img, err := NewRasterImage(mat.Cols(), mat.Rows(), channels)
	if err != nil {
		return nil, err
	}
	data := mat.ToBytes()
	if len(data) != len(img.Pix) {
		return nil, fmt.Errorf("unexpected pixel buffer size %d", len(data))
	}
	copy(img.Pix, data)

	// BGR(A) -> RGB(A)
	if channels >= 3 {
		for i := 0; i < len(img.Pix); i += channels {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}
