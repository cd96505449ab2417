package ml

import (
	"fmt"
)

// Forward runs [LINEAR -> RELU] for every hidden layer and LINEAR -> SOFTMAX
// for the last one. With batchNorm set, each hidden activation is
// standardized across the batch before it feeds the next layer.
//
// X is (features x samples). AL is (classes x samples).
func Forward(x *Matrix, params Parameters, batchNorm bool) (*Matrix, []LayerCache) {
	if len(params) == 0 {
		panic(shapeError("forward: no layers"))
	}

	caches := make([]LayerCache, 0, len(params))
	a := x
	last := len(params) - 1
	for l := 0; l < last; l++ {
		var cache LayerCache
		a, cache = LinearActivationForward(a, params[l].W, params[l].B, ActRelu)
		if batchNorm {
			a = BatchNorm(a)
		}
		caches = append(caches, cache)
	}

	al, cache := LinearActivationForward(a, params[last].W, params[last].B, ActSoftmax)
	caches = append(caches, cache)

	mustShape("forward: AL", al, params[last].W.rows, x.cols)
	return al, caches
}

// GradientSet holds the calculated gradients for one layer
type GradientSet struct {
	DW *Matrix
	DB *Matrix
}

// Backward walks the caches in reverse. The output gradient is
// dAL = -(Y/AL - (1-Y)/(1-AL)), pushed through the softmax backward
// surrogate at the last layer and ReLU everywhere else.
//
// Batch normalization is not differentiated: the gradient reaching a
// normalized layer is applied to its ReLU as is.
func Backward(al, y *Matrix, caches []LayerCache) []GradientSet {
	if !al.SameShape(y) {
		panic(shapeError("backward: AL [%d, %d], Y [%d, %d]", al.rows, al.cols, y.rows, y.cols))
	}
	if len(caches) == 0 {
		panic(shapeError("backward: no caches"))
	}

	dAL := NewMatrix(al.rows, al.cols)
	for i, p := range al.data {
		t := y.data[i]
		dAL.data[i] = -(t/p - (1-t)/(1-p))
	}

	grads := make([]GradientSet, len(caches))
	last := len(caches) - 1

	dA, dW, dB := LinearActivationBackward(dAL, caches[last], ActSoftmax)
	grads[last] = GradientSet{DW: dW, DB: dB}

	for l := last - 1; l >= 0; l-- {
		dA, dW, dB = LinearActivationBackward(dA, caches[l], ActRelu)
		grads[l] = GradientSet{DW: dW, DB: dB}
	}
	return grads
}

// String prints the layer layout, e.g. "784-20(relu)-10(softmax)".
func (p Parameters) String() string {
	if len(p) == 0 {
		return "<empty>"
	}
	s := fmt.Sprintf("%d", p[0].W.cols)
	for i, l := range p {
		act := ActRelu
		if i == len(p)-1 {
			act = ActSoftmax
		}
		s += fmt.Sprintf("-%d(%s)", l.W.rows, act)
	}
	return s
}
