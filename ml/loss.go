package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ClipEpsilon bounds predictions away from 0 and 1 before taking logs.
const ClipEpsilon = 1e-10

// CrossEntropy returns -(1/m)·Σ Y⊙log(clip(AL)).
func CrossEntropy(al, y *Matrix) float64 {
	if !al.SameShape(y) {
		panic(shapeError("cross entropy: AL [%d, %d], Y [%d, %d]", al.rows, al.cols, y.rows, y.cols))
	}
	sum := 0.0
	for i, p := range al.data {
		p = math.Min(math.Max(p, ClipEpsilon), 1-ClipEpsilon)
		sum += y.data[i] * math.Log(p)
	}
	return -sum / float64(al.cols)
}

// L2Penalty is (learningRate/2)·Σ‖W‖² over all layers. It is only added to
// the recorded cost; the update applies its own decay term.
func L2Penalty(params Parameters, learningRate float64) float64 {
	total := 0.0
	for _, l := range params {
		total += floats.Dot(l.W.data, l.W.data)
	}
	return learningRate / 2 * total
}

// Accuracy is the fraction of columns whose argmax in AL matches Y.
func Accuracy(al, y *Matrix) float64 {
	if !al.SameShape(y) {
		panic(shapeError("accuracy: AL [%d, %d], Y [%d, %d]", al.rows, al.cols, y.rows, y.cols))
	}
	if al.cols == 0 {
		return 0
	}
	pred := make([]float64, al.rows)
	want := make([]float64, y.rows)
	correct := 0
	for j := 0; j < al.cols; j++ {
		pred = al.Col(pred, j)
		want = y.Col(want, j)
		if floats.MaxIdx(pred) == floats.MaxIdx(want) {
			correct++
		}
	}
	return float64(correct) / float64(al.cols)
}

// Evaluate scores params on a labelled set without touching them.
func Evaluate(x, y *Matrix, params Parameters, batchNorm bool) float64 {
	al, _ := Forward(x, params, batchNorm)
	return Accuracy(al, y)
}

// Predict classifies one sample and returns the winning class probability.
// Networks trained with batch normalization cannot score a lone sample.
func Predict(sample []float64, params Parameters, batchNorm bool) (int, float64, error) {
	if batchNorm && len(params) > 1 {
		return 0, 0, ErrSingleSampleBatchNorm
	}
	x := NewMatrixFromSlice(len(sample), 1, sample)
	al, _ := Forward(x, params, false)
	probs := al.Col(nil, 0)
	idx := floats.MaxIdx(probs)
	return idx, probs[idx], nil
}
