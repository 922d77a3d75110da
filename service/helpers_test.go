package service

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// darkSquare 白底黑方块，方块为 [x0,x1) x [y0,y1)
func darkSquare(w, h, x0, y0, x1, y1 int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				c = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writeImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Upload.UploadDir = t.TempDir()
	cfg.Upload.OutputDir = t.TempDir()
	return cfg
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*model.MaskResult
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*model.MaskResult)}
}

func (c *memoryCache) GetMaskResult(_ context.Context, key string) (*model.MaskResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.entries[key], nil
}

func (c *memoryCache) SetMaskResult(_ context.Context, key string, result *model.MaskResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
	return nil
}

func failingSegmenter() mask.Segmenter {
	return mask.SegmenterFunc(func(*mask.RasterImage, mask.Rect, int) (*mask.BinaryMask, error) {
		return nil, mask.ErrSegmentationFailure
	})
}
