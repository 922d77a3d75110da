package mask

// Histogram 256 级亮度直方图
func Histogram(luma []uint8) [256]int {
	var hist [256]int
	for _, v := range luma {
		hist[v]++
	}
	return hist
}

// OtsuThreshold 返回类间方差最大的分割灰度 T，暗类为 [0, T]。
// 只取第一个最大值；任一侧权重为零的分割被跳过，因此常量图返回 0。
func OtsuThreshold(hist [256]int) uint8 {
	total := 0
	sum := 0.0
	for i, n := range hist {
		total += n
		sum += float64(i) * float64(n)
	}
	if total == 0 {
		return 0
	}

	var (
		wB, sumB float64
		best     uint8
		maxSigma float64
		totalF   = float64(total)
	)
	for i, n := range hist {
		wB += float64(n)
		sumB += float64(i) * float64(n)
		wF := totalF - wB
		if wB == 0 || wF == 0 {
			continue
		}
		q1, q2 := wB/totalF, wF/totalF
		mB := sumB / wB
		mF := (sum - sumB) / wF
		sigma := q1 * q2 * (mB - mF) * (mB - mF)
		if sigma > maxSigma {
			maxSigma = sigma
			best = uint8(i)
		}
	}
	return best
}

// ThresholdOptions 阈值化参数；Auto 为 false 时使用固定的 Level
type ThresholdOptions struct {
	Auto  bool
	Level uint8
}

// Threshold 转灰度后反相二值化：亮度 <= T 的像素为前景（浅色背景、深色主体）。
// 返回掩码和实际使用的阈值。
func Threshold(img *RasterImage, opts ThresholdOptions) (*BinaryMask, uint8) {
	luma := img.Luma()
	level := opts.Level
	if opts.Auto {
		level = OtsuThreshold(Histogram(luma))
	}
	return Binarize(luma, img.Width, img.Height, level), level
}

// Binarize 反相二值化
func Binarize(luma []uint8, width, height int, level uint8) *BinaryMask {
	m := NewBinaryMask(width, height)
	for i, v := range luma {
		if v <= level {
			m.Pix[i] = Foreground
		}
	}
	return m
}
