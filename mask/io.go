package mask

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Load 读取并解码图片，失败统一返回 *DecodeError
func Load(path string) (*RasterImage, error) {
	img, err := decode(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if img.Width == 0 || img.Height == 0 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("empty image %dx%d", img.Width, img.Height)}
	}
	return img, nil
}

// Save 把掩码写成单通道图片，格式由扩展名决定
func Save(path string, m *BinaryMask) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create mask directory: %w", err)
	}
	if err := imaging.Save(m.ToGray(), path); err != nil {
		return fmt.Errorf("write mask %s: %w", path, err)
	}
	return nil
}
