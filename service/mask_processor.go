package service

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/TIANLI0/ClothMask/mask"
	"github.com/TIANLI0/ClothMask/model"
	"github.com/disintegration/imaging"
)

// MaskProcessor 负责掩码的编码与统计
type MaskProcessor struct{}

func NewMaskProcessor() *MaskProcessor {
	return &MaskProcessor{}
}

// EncodePNG 编码为单通道 PNG
func (mp *MaskProcessor) EncodePNG(m *mask.BinaryMask) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, m.ToGray(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 将掩码编码为Base64字符串
func (mp *MaskProcessor) EncodeBase64(m *mask.BinaryMask) (string, error) {
	data, err := mp.EncodePNG(m)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeBase64 还原缓存中的 PNG 字节
func (mp *MaskProcessor) DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode cached mask: %w", err)
	}
	return data, nil
}

// BoundingBox 前景像素的外接矩形，没有前景时为零值
func (mp *MaskProcessor) BoundingBox(m *mask.BinaryMask) model.BBox {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != mask.Foreground {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return model.BBox{}
	}
	return model.BBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// BuildResult 把流水线结果整理成响应结构
func (mp *MaskProcessor) BuildResult(md5 string, res *mask.Result) (*model.MaskResult, error) {
	encoded, err := mp.EncodeBase64(res.Mask)
	if err != nil {
		return nil, err
	}
	trace := make([]string, len(res.Trace))
	for i, s := range res.Trace {
		trace[i] = string(s)
	}
	out := &model.MaskResult{
		MD5:             md5,
		Width:           res.Mask.Width,
		Height:          res.Mask.Height,
		Strategy:        string(res.Strategy),
		Status:          string(res.Status),
		Threshold:       res.Threshold,
		ForegroundRatio: res.ForegroundRatio,
		BoundingBox:     mp.BoundingBox(res.Mask),
		Mask:            encoded,
		Trace:           trace,
	}
	if res.SegmentationErr != nil {
		out.Degradation = res.SegmentationErr.Error()
	}
	return out, nil
}
