package ml

import (
	"gonum.org/v1/gonum/stat"
)

// BatchNormEpsilon is added to the standard deviation before dividing.
const BatchNormEpsilon = 1e-4

// BatchNorm returns A with every row shifted to zero mean and divided by
// (std + BatchNormEpsilon), using population statistics over the batch.
// No running statistics are kept; evaluation uses the same formula.
func BatchNorm(a *Matrix) *Matrix {
	out := NewMatrix(a.rows, a.cols)
	for i := 0; i < a.rows; i++ {
		row := a.data[i*a.cols : (i+1)*a.cols]
		mean, std := stat.PopMeanStdDev(row, nil)
		dst := out.data[i*out.cols : (i+1)*out.cols]
		for j, v := range row {
			dst[j] = (v - mean) / (std + BatchNormEpsilon)
		}
	}
	return out
}
