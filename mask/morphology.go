package mask

import "fmt"

// StructuringElement 全 1 方形结构元素，锚点在中心
type StructuringElement struct {
	Size int
}

// DefaultStructuringElement 5x5
var DefaultStructuringElement = StructuringElement{Size: 5}

func NewStructuringElement(size int) (StructuringElement, error) {
	if size < 1 || size%2 == 0 {
		return StructuringElement{}, fmt.Errorf("structuring element size must be a positive odd number, got %d", size)
	}
	return StructuringElement{Size: size}, nil
}

// Close 闭运算：先膨胀后腐蚀，填补小孔洞、平滑锯齿边缘
func Close(m *BinaryMask, se StructuringElement) *BinaryMask {
	return Erode(Dilate(m, se), se)
}

// Dilate 膨胀，图像外的像素不参与计算
func Dilate(m *BinaryMask, se StructuringElement) *BinaryMask {
	return morph(m, se, func(a, b uint8) uint8 { return max(a, b) })
}

// Erode 腐蚀，图像外的像素不参与计算
func Erode(m *BinaryMask, se StructuringElement) *BinaryMask {
	return morph(m, se, func(a, b uint8) uint8 { return min(a, b) })
}

// morph 矩形核可分离：先按行再按列
func morph(m *BinaryMask, se StructuringElement, pick func(a, b uint8) uint8) *BinaryMask {
	r := se.Size / 2
	out := m.Clone()
	if r == 0 || m.Area() == 0 {
		return out
	}
	w, h := m.Width, m.Height

	rows := NewBinaryMask(w, h)
	for y := 0; y < h; y++ {
		src := m.Pix[y*w : (y+1)*w]
		dst := rows.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			v := src[x]
			for k := max(0, x-r); k <= min(w-1, x+r); k++ {
				v = pick(v, src[k])
			}
			dst[x] = v
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			v := rows.Pix[y*w+x]
			for k := max(0, y-r); k <= min(h-1, y+r); k++ {
				v = pick(v, rows.Pix[k*w+x])
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}
