package analysis

import (
	"math"

	"liveplot/internal/source"
)

// RMS returns the root mean square of block, normalized so that a full-scale
// square wave reads 1.0.
func RMS(block source.Block) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, v := range block {
		s := float64(v) / DefaultAmplitudeRange
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(block)))
}

// Peak returns the largest absolute sample of block, normalized to 0-1.
func Peak(block source.Block) float64 {
	var peak float64
	for _, v := range block {
		a := math.Abs(float64(v)) / DefaultAmplitudeRange
		if a > peak {
			peak = a
		}
	}
	return peak
}
