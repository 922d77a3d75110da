package mask

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	gmmComponents = 5
	kmeansIters   = 10
	// 协方差接近奇异时加到对角线上的白噪声
	covarianceNoise = 0.01
	epsilon         = 2.220446049250313e-16
)

type color3 = [3]float64

type gaussian struct {
	weight float64
	mean   color3
	inv    [9]float64
	scale  float64 // 1/sqrt(det)
}

func (g *gaussian) density(c color3) float64 {
	if g.weight <= 0 {
		return 0
	}
	d0, d1, d2 := c[0]-g.mean[0], c[1]-g.mean[1], c[2]-g.mean[2]
	mult := d0*(d0*g.inv[0]+d1*g.inv[3]+d2*g.inv[6]) +
		d1*(d0*g.inv[1]+d1*g.inv[4]+d2*g.inv[7]) +
		d2*(d0*g.inv[2]+d1*g.inv[5]+d2*g.inv[8])
	return g.scale * math.Exp(-0.5*mult)
}

// ColorModel 单个类别（前景或背景）的颜色分布：5 个全协方差高斯分量的混合。
// 只在一次 GrabCut 调用内使用。
type ColorModel struct {
	comps [gmmComponents]gaussian
}

// Likelihood 混合密度（省略常数因子）
func (m *ColorModel) Likelihood(c color3) float64 {
	var p float64
	for i := range m.comps {
		p += m.comps[i].weight * m.comps[i].density(c)
	}
	return p
}

// whichComponent 返回密度最大的分量
func (m *ColorModel) whichComponent(c color3) int {
	best, bestP := 0, 0.0
	for i := range m.comps {
		if p := m.comps[i].density(c); p > bestP {
			best, bestP = i, p
		}
	}
	return best
}

// gmmLearner 按分量累计一阶、二阶矩
type gmmLearner struct {
	sums   [gmmComponents]color3
	prods  [gmmComponents][9]float64
	counts [gmmComponents]int
	total  int
}

func (l *gmmLearner) add(k int, c color3) {
	for i := 0; i < 3; i++ {
		l.sums[k][i] += c[i]
		for j := 0; j < 3; j++ {
			l.prods[k][i*3+j] += c[i] * c[j]
		}
	}
	l.counts[k]++
	l.total++
}

func (l *gmmLearner) build() (*ColorModel, error) {
	if l.total == 0 {
		return nil, segmentationErrorf("no samples to fit color model")
	}
	m := &ColorModel{}
	for k := 0; k < gmmComponents; k++ {
		n := l.counts[k]
		if n == 0 {
			continue
		}
		g := &m.comps[k]
		g.weight = float64(n) / float64(l.total)
		for i := 0; i < 3; i++ {
			g.mean[i] = l.sums[k][i] / float64(n)
		}
		cov := make([]float64, 9)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[i*3+j] = l.prods[k][i*3+j]/float64(n) - g.mean[i]*g.mean[j]
			}
		}
		sym := mat.NewSymDense(3, cov)
		det := mat.Det(sym)
		if det <= epsilon {
			for i := 0; i < 3; i++ {
				sym.SetSym(i, i, sym.At(i, i)+covarianceNoise)
			}
			det = mat.Det(sym)
		}
		if det <= epsilon || math.IsNaN(det) {
			return nil, segmentationErrorf("singular covariance in component %d (det=%g)", k, det)
		}
		var inv mat.Dense
		if err := inv.Inverse(sym); err != nil {
			return nil, segmentationErrorf("invert covariance of component %d: %v", k, err)
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				g.inv[i*3+j] = inv.At(i, j)
			}
		}
		g.scale = 1 / math.Sqrt(det)
	}
	return m, nil
}

// initColorModel 用 k-means++ 聚类的结果初始化混合模型
func initColorModel(samples []color3, rng *rand.Rand) (*ColorModel, error) {
	if len(samples) < gmmComponents {
		return nil, segmentationErrorf("%d samples are not enough for %d components", len(samples), gmmComponents)
	}
	labels := kmeans(samples, gmmComponents, kmeansIters, rng)
	var l gmmLearner
	for i, c := range samples {
		l.add(labels[i], c)
	}
	return l.build()
}

func sqDist(a, b color3) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}

func kmeans(samples []color3, k, iters int, rng *rand.Rand) []int {
	n := len(samples)
	centers := make([]color3, 0, k)
	centers = append(centers, samples[rng.IntN(n)])

	dist := make([]float64, n)
	for i, s := range samples {
		dist[i] = sqDist(s, centers[0])
	}
	for len(centers) < k {
		var sum float64
		for _, d := range dist {
			sum += d
		}
		next := rng.IntN(n)
		if sum > 0 {
			target := rng.Float64() * sum
			for i, d := range dist {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		}
		c := samples[next]
		centers = append(centers, c)
		for i, s := range samples {
			dist[i] = min(dist[i], sqDist(s, c))
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for it := 0; it < iters; it++ {
		changed := false
		for i, s := range samples {
			best, bestD := 0, math.Inf(1)
			for j, c := range centers {
				if d := sqDist(s, c); d < bestD {
					best, bestD = j, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		var sums [gmmComponents]color3
		var counts [gmmComponents]int
		for i, s := range samples {
			j := labels[i]
			sums[j][0] += s[0]
			sums[j][1] += s[1]
			sums[j][2] += s[2]
			counts[j]++
		}
		for j := range centers {
			if counts[j] == 0 {
				continue
			}
			n := float64(counts[j])
			centers[j] = color3{sums[j][0] / n, sums[j][1] / n, sums[j][2] / n}
		}
	}
	return labels
}
