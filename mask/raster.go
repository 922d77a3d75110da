package mask

import (
	"fmt"
	"image"
	"image/color"
)

// RasterImage 解码后的像素缓冲，按行存储，通道交错排列（RGB / RGBA）
type RasterImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRasterImage 创建全零的图像缓冲
func NewRasterImage(width, height, channels int) (*RasterImage, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	switch channels {
	case 1, 3, 4:
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	return &RasterImage{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// FromImage 将 image.Image 转换为 RasterImage，通道数由颜色模型推断
func FromImage(img image.Image) *RasterImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	channels := channelCount(img)
	r := &RasterImage{Width: w, Height: h, Channels: channels, Pix: make([]uint8, w*h*channels)}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			copy(r.Pix[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return r
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			copy(r.Pix[y*w*4:(y+1)*w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
		}
		return r
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			switch channels {
			case 1:
				r.Pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
				i++
			case 3:
				cr, cg, cb, _ := c.RGBA()
				r.Pix[i] = uint8(cr >> 8)
				r.Pix[i+1] = uint8(cg >> 8)
				r.Pix[i+2] = uint8(cb >> 8)
				i += 3
			case 4:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				r.Pix[i] = n.R
				r.Pix[i+1] = n.G
				r.Pix[i+2] = n.B
				r.Pix[i+3] = n.A
				i += 4
			}
		}
	}
	return r
}

func channelCount(img image.Image) int {
	switch src := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return 4
	case *image.RGBA, *image.RGBA64:
		// png 解码器对不带 alpha 的真彩图返回 RGBA，全不透明时按三通道处理
		if src.(interface{ Opaque() bool }).Opaque() {
			return 3
		}
		return 4
	case *image.Paletted:
		for _, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	default:
		return 3
	}
}

// ToImage 转回标准库图像类型，便于编码或缩放
func (r *RasterImage) ToImage() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	switch r.Channels {
	case 1:
		g := image.NewGray(rect)
		copy(g.Pix, r.Pix)
		return g
	case 4:
		n := image.NewNRGBA(rect)
		copy(n.Pix, r.Pix)
		return n
	default:
		n := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(r.Pix); i, j = i+3, j+4 {
			n.Pix[j] = r.Pix[i]
			n.Pix[j+1] = r.Pix[i+1]
			n.Pix[j+2] = r.Pix[i+2]
			n.Pix[j+3] = 0xff
		}
		return n
	}
}

// RGB 返回去掉 alpha 的三通道副本，灰度图会被复制到三个通道
func (r *RasterImage) RGB() *RasterImage {
	if r.Channels == 3 {
		return r
	}
	out := &RasterImage{Width: r.Width, Height: r.Height, Channels: 3, Pix: make([]uint8, r.Width*r.Height*3)}
	n := r.Width * r.Height
	for p := 0; p < n; p++ {
		if r.Channels == 1 {
			v := r.Pix[p]
			out.Pix[p*3], out.Pix[p*3+1], out.Pix[p*3+2] = v, v, v
			continue
		}
		copy(out.Pix[p*3:p*3+3], r.Pix[p*4:p*4+3])
	}
	return out
}

// Luma 计算单通道亮度，权重 0.299/0.587/0.114，定点取整
func (r *RasterImage) Luma() []uint8 {
	n := r.Width * r.Height
	if r.Channels == 1 {
		out := make([]uint8, n)
		copy(out, r.Pix)
		return out
	}
	out := make([]uint8, n)
	for p := 0; p < n; p++ {
		i := p * r.Channels
		red, green, blue := uint32(r.Pix[i]), uint32(r.Pix[i+1]), uint32(r.Pix[i+2])
		out[p] = uint8((red*4899 + green*9617 + blue*1868 + 8192) >> 14)
	}
	return out
}

// BinaryMask 单通道二值掩码，像素只取 0 或 255
type BinaryMask struct {
	Width  int
	Height int
	Pix    []uint8
}

const (
	Background uint8 = 0
	Foreground uint8 = 255
)

func NewBinaryMask(width, height int) *BinaryMask {
	return &BinaryMask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// MaskFromGray 以 level 为界二值化灰度图（大于 level 为前景）
func MaskFromGray(g *image.Gray, level uint8) *BinaryMask {
	b := g.Bounds()
	m := NewBinaryMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+m.Width]
		for x, v := range row {
			if v > level {
				m.Pix[y*m.Width+x] = Foreground
			}
		}
	}
	return m
}

func (m *BinaryMask) Area() int {
	return m.Width * m.Height
}

// Count 前景像素数量
func (m *BinaryMask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != Background {
			n++
		}
	}
	return n
}

// Ratio 前景像素占比，空掩码返回 0
func (m *BinaryMask) Ratio() float64 {
	area := m.Area()
	if area == 0 {
		return 0
	}
	return float64(m.Count()) / float64(area)
}

func (m *BinaryMask) Clone() *BinaryMask {
	c := NewBinaryMask(m.Width, m.Height)
	copy(c.Pix, m.Pix)
	return c
}

func (m *BinaryMask) Equal(o *BinaryMask) bool {
	if o == nil || m.Width != o.Width || m.Height != o.Height {
		return false
	}
	for i, v := range m.Pix {
		if o.Pix[i] != v {
			return false
		}
	}
	return true
}

func (m *BinaryMask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

func (m *BinaryMask) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(g.Pix, m.Pix)
	return g
}

// Bounds 前景像素的外接矩形，没有前景时返回空矩形
func (m *BinaryMask) Bounds() image.Rectangle {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v == Background {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
