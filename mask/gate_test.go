package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityGate_Evaluate(t *testing.T) {
	t.Parallel()

	gate := QualityGate{MinAreaRatio: DefaultMinAreaRatio}
	tests := []struct {
		name      string
		mask      *BinaryMask
		wantRatio float64
		accepted  bool
	}{
		{name: "zero area", mask: NewBinaryMask(0, 0), wantRatio: 0, accepted: false},
		{name: "empty mask", mask: NewBinaryMask(100, 100), wantRatio: 0, accepted: false},
		{name: "below ratio", mask: squareMask(100, 100, 0, 0, 1, 9), wantRatio: 0.0009, accepted: false},
		{name: "exactly at ratio", mask: squareMask(100, 100, 0, 0, 1, 10), wantRatio: 0.001, accepted: true},
		{name: "garment sized", mask: squareMask(200, 200, 75, 75, 125, 125), wantRatio: 0.0625, accepted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := gate.Evaluate(tt.mask)
			assert.InDelta(t, tt.wantRatio, v.Ratio, 1e-12)
			assert.Equal(t, tt.accepted, v.Accepted)
		})
	}
}
