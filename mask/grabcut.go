package mask

import (
	"math"
	"math/rand/v2"
)

const (
	// DefaultIterations 图割迭代次数
	DefaultIterations = 5
	// DefaultRectMargin 种子矩形距图像边缘的距离
	DefaultRectMargin = 5

	grabCutGamma  = 50.0
	grabCutLambda = 9 * grabCutGamma
)

// PixelLabel 图割过程中的像素标签
type PixelLabel uint8

const (
	LabelDefiniteBackground PixelLabel = iota
	LabelDefiniteForeground
	LabelProbableBackground
	LabelProbableForeground
)

func (l PixelLabel) isBackground() bool {
	return l == LabelDefiniteBackground || l == LabelProbableBackground
}

func (l PixelLabel) isProbable() bool {
	return l == LabelProbableBackground || l == LabelProbableForeground
}

// Rect 种子矩形 (x, y, w, h)
type Rect struct {
	X, Y, W, H int
}

// SeedRect 四周各内缩 margin 像素，宽高至少为 1，再裁剪到图像范围内
func SeedRect(width, height, margin int) Rect {
	r := Rect{X: margin, Y: margin, W: max(1, width-2*margin), H: max(1, height-2*margin)}
	return r.Clamp(width, height)
}

// Clamp 与图像范围求交
func (r Rect) Clamp(width, height int) Rect {
	x0 := min(max(r.X, 0), width)
	y0 := min(max(r.Y, 0), height)
	x1 := min(max(r.X+r.W, 0), width)
	y1 := min(max(r.Y+r.H, 0), height)
	return Rect{X: x0, Y: y0, W: max(0, x1-x0), H: max(0, y1-y0)}
}

func (r Rect) Empty() bool {
	return r.W < 1 || r.H < 1
}

func (r Rect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// GrabCut 以矩形为种子迭代求解前景：矩形内为可能前景、矩形外为确定背景，
// 每轮重新估计两类颜色模型并用最小割更新可能标签。
// 样本不足或模型退化时返回 ErrSegmentationFailure。
func GrabCut(img *RasterImage, rect Rect, iterations int) (*BinaryMask, error) {
	w, h := img.Width, img.Height
	if w*h == 0 {
		return nil, segmentationErrorf("empty image")
	}
	rect = rect.Clamp(w, h)
	if rect.Empty() {
		return nil, segmentationErrorf("seed rectangle is empty for %dx%d image", w, h)
	}

	gc := newGrabCut(img.RGB(), rect)
	if err := gc.initModels(); err != nil {
		return nil, err
	}
	for i := 0; i < iterations; i++ {
		gc.assignComponents()
		if err := gc.learnModels(); err != nil {
			return nil, err
		}
		if err := gc.cut(); err != nil {
			return nil, err
		}
	}
	return gc.collapse(), nil
}

type grabCut struct {
	w, h   int
	colors []color3
	labels []PixelLabel
	comp   []int

	bgd, fgd *ColorModel

	left, upleft, up, upright []float64
}

func newGrabCut(rgb *RasterImage, rect Rect) *grabCut {
	w, h := rgb.Width, rgb.Height
	n := w * h
	gc := &grabCut{
		w:      w,
		h:      h,
		colors: make([]color3, n),
		labels: make([]PixelLabel, n),
		comp:   make([]int, n),
	}
	for p := 0; p < n; p++ {
		gc.colors[p] = color3{float64(rgb.Pix[p*3]), float64(rgb.Pix[p*3+1]), float64(rgb.Pix[p*3+2])}
		if rect.contains(p%w, p/w) {
			gc.labels[p] = LabelProbableForeground
		}
	}
	gc.smoothnessWeights()
	return gc
}

func (gc *grabCut) initModels() error {
	var bgdSamples, fgdSamples []color3
	for p, l := range gc.labels {
		if l.isBackground() {
			bgdSamples = append(bgdSamples, gc.colors[p])
		} else {
			fgdSamples = append(fgdSamples, gc.colors[p])
		}
	}
	rng := rand.New(rand.NewPCG(0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9))
	var err error
	if gc.bgd, err = initColorModel(bgdSamples, rng); err != nil {
		return err
	}
	if gc.fgd, err = initColorModel(fgdSamples, rng); err != nil {
		return err
	}
	return nil
}

func (gc *grabCut) assignComponents() {
	for p, c := range gc.colors {
		if gc.labels[p].isBackground() {
			gc.comp[p] = gc.bgd.whichComponent(c)
		} else {
			gc.comp[p] = gc.fgd.whichComponent(c)
		}
	}
}

func (gc *grabCut) learnModels() error {
	var bgd, fgd gmmLearner
	for p, c := range gc.colors {
		if gc.labels[p].isBackground() {
			bgd.add(gc.comp[p], c)
		} else {
			fgd.add(gc.comp[p], c)
		}
	}
	var err error
	if gc.bgd, err = bgd.build(); err != nil {
		return err
	}
	if gc.fgd, err = fgd.build(); err != nil {
		return err
	}
	return nil
}

// smoothnessWeights 8 邻域平滑项，beta 取颜色差平方均值的倒数的一半
func (gc *grabCut) smoothnessWeights() {
	w, h := gc.w, gc.h
	var beta float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			c := gc.colors[p]
			if x > 0 {
				beta += sqDist(c, gc.colors[p-1])
			}
			if y > 0 && x > 0 {
				beta += sqDist(c, gc.colors[p-w-1])
			}
			if y > 0 {
				beta += sqDist(c, gc.colors[p-w])
			}
			if y > 0 && x < w-1 {
				beta += sqDist(c, gc.colors[p-w+1])
			}
		}
	}
	pairs := float64(4*w*h - 3*w - 3*h + 2)
	if beta <= epsilon || pairs <= 0 {
		beta = 0
	} else {
		beta = 1 / (2 * beta / pairs)
	}

	n := w * h
	gc.left = make([]float64, n)
	gc.upleft = make([]float64, n)
	gc.up = make([]float64, n)
	gc.upright = make([]float64, n)
	diag := grabCutGamma / math.Sqrt2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			c := gc.colors[p]
			if x > 0 {
				gc.left[p] = grabCutGamma * math.Exp(-beta*sqDist(c, gc.colors[p-1]))
			}
			if y > 0 && x > 0 {
				gc.upleft[p] = diag * math.Exp(-beta*sqDist(c, gc.colors[p-w-1]))
			}
			if y > 0 {
				gc.up[p] = grabCutGamma * math.Exp(-beta*sqDist(c, gc.colors[p-w]))
			}
			if y > 0 && x < w-1 {
				gc.upright[p] = diag * math.Exp(-beta*sqDist(c, gc.colors[p-w+1]))
			}
		}
	}
}

func dataCost(m *ColorModel, c color3) float64 {
	return -math.Log(max(m.Likelihood(c), math.SmallestNonzeroFloat64))
}

// cut 构图并求最小割，只更新可能前景/可能背景像素
func (gc *grabCut) cut() error {
	w, h := gc.w, gc.h
	n := w * h
	g := newCutGraph(n, 12*n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := y*w + x
			var fromSource, toSink float64
			switch gc.labels[p] {
			case LabelDefiniteBackground:
				toSink = grabCutLambda
			case LabelDefiniteForeground:
				fromSource = grabCutLambda
			default:
				c := gc.colors[p]
				fromSource = dataCost(gc.bgd, c)
				toSink = dataCost(gc.fgd, c)
				if math.IsNaN(fromSource) || math.IsNaN(toSink) {
					return segmentationErrorf("non-finite data cost at pixel (%d,%d)", x, y)
				}
			}
			g.addTermWeights(p, fromSource, toSink)

			if x > 0 {
				g.addEdges(p, p-1, gc.left[p], gc.left[p])
			}
			if y > 0 && x > 0 {
				g.addEdges(p, p-w-1, gc.upleft[p], gc.upleft[p])
			}
			if y > 0 {
				g.addEdges(p, p-w, gc.up[p], gc.up[p])
			}
			if y > 0 && x < w-1 {
				g.addEdges(p, p-w+1, gc.upright[p], gc.upright[p])
			}
		}
	}

	if flow := g.maxFlow(); math.IsNaN(flow) || math.IsInf(flow, 0) {
		return segmentationErrorf("max-flow did not converge (flow=%g)", flow)
	}

	for p, l := range gc.labels {
		if !l.isProbable() {
			continue
		}
		if g.inSourceSegment(p) {
			gc.labels[p] = LabelProbableForeground
		} else {
			gc.labels[p] = LabelProbableBackground
		}
	}
	return nil
}

func (gc *grabCut) collapse() *BinaryMask {
	m := NewBinaryMask(gc.w, gc.h)
	for p, l := range gc.labels {
		if !l.isBackground() {
			m.Pix[p] = Foreground
		}
	}
	return m
}
