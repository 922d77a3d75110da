package mask

// DefaultMinAreaRatio 合格的服装掩码至少覆盖画面的 0.1%
const DefaultMinAreaRatio = 0.001

// QualityGate 根据前景占比决定是否需要升级到图割
type QualityGate struct {
	MinAreaRatio float64
}

// Verdict 质量检查结果
type Verdict struct {
	Ratio    float64
	Accepted bool
}

// Evaluate 面积为 0 或占比低于阈值时拒绝
func (g QualityGate) Evaluate(m *BinaryMask) Verdict {
	area := m.Area()
	if area == 0 {
		return Verdict{}
	}
	ratio := float64(m.Count()) / float64(area)
	return Verdict{Ratio: ratio, Accepted: ratio >= g.MinAreaRatio}
}
