//go:build !gocv

package mask

import (
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func decode(path string) (*RasterImage, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}
