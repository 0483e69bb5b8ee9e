package seglabel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulate(t *testing.T) {
	sum := []float64{1, 2, 3}
	accumulate(sum, []float64{0.5, 0, 4})
	assert.Equal(t, []float64{1.5, 2, 7}, sum)
}

func TestArgmaxLabels(t *testing.T) {
	// per-pixel summed stacks of 3 classes over 4 pixels
	sums := [][]float64{
		{5, 1, 0, 2},
		{2, 1, 3, 2},
		{7, 0, 3, 1},
	}
	pred := argmaxLabels(sums)
	// pixel 0: [5,2,7] -> class 2; ties resolve to the lowest band index
	assert.Equal(t, []uint8{2, 0, 1, 0}, pred)
}

func TestArgmaxSingleBand(t *testing.T) {
	pred := argmaxLabels([][]float64{{0.1, 0.9}})
	assert.Equal(t, []uint8{0, 0}, pred)
}
