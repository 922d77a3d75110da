package service

import (
	"image"
	"image/draw"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/utils"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

// GrabCutService 图割阶段：大图先缩小再分割，掩码还原到原始尺寸
type GrabCutService struct {
	maxDimension int
}

func NewGrabCutService(cfg *config.GrabCutConfig) *GrabCutService {
	return &GrabCutService{maxDimension: cfg.MaxDimension}
}

// Segment 实现 mask.Segmenter
func (s *GrabCutService) Segment(img *mask.RasterImage, rect mask.Rect, iterations int) (*mask.BinaryMask, error) {
	startTime := time.Now()
	width, height := img.Width, img.Height

	// 智能缩放
	scaled, scale := s.smartResize(img)
	scaledRect := rect
	if scale != 1.0 {
		scaledRect = scaleRect(rect, scale, scaled.Width, scaled.Height)
	}

	m, err := mask.GrabCut(scaled, scaledRect, iterations)
	if err != nil {
		return nil, err
	}

	// 还原到原始尺寸
	if scale != 1.0 {
		m = upscaleMask(m, width, height)
	}

	utils.Logger.Debug("graph cut finished",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("scale", scale),
		zap.Int("iterations", iterations),
		zap.Duration("duration", time.Since(startTime)))
	return m, nil
}

// smartResize 最长边超过 maxDimension 时等比缩小
func (s *GrabCutService) smartResize(img *mask.RasterImage) (*mask.RasterImage, float64) {
	maxDim := max(img.Width, img.Height)
	if s.maxDimension <= 0 || maxDim <= s.maxDimension {
		return img, 1.0
	}

	scale := float64(s.maxDimension) / float64(maxDim)
	newWidth := max(1, int(float64(img.Width)*scale))
	newHeight := max(1, int(float64(img.Height)*scale))

	resized := resize.Resize(uint(newWidth), uint(newHeight), img.ToImage(), resize.Bilinear)
	return mask.FromImage(resized).RGB(), scale
}

func scaleRect(r mask.Rect, scale float64, width, height int) mask.Rect {
	scaled := mask.Rect{
		X: int(float64(r.X) * scale),
		Y: int(float64(r.Y) * scale),
		W: max(1, int(float64(r.W)*scale)),
		H: max(1, int(float64(r.H)*scale)),
	}
	return scaled.Clamp(width, height)
}

// upscaleMask 双线性插值放大后按 127 重新二值化
func upscaleMask(m *mask.BinaryMask, width, height int) *mask.BinaryMask {
	resized := resize.Resize(uint(width), uint(height), m.ToGray(), resize.Bilinear)
	return mask.MaskFromGray(toGray(resized), 127)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	g := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
	return g
}
