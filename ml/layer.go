package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	ActRelu ActivationType = iota
	ActSoftmax
)

// -------- TYPE DEFINITIONS -------- //
type ActivationType int

// LinearCache keeps the operands of W·A_prev + b for the backward step.
type LinearCache struct {
	APrev *Matrix
	W     *Matrix
	B     *Matrix
}

// LayerCache is what one forward layer hands to its backward step:
// the linear operands and the pre-activation Z.
type LayerCache struct {
	Linear LinearCache
	Z      *Matrix
}

func (a ActivationType) String() string {
	switch a {
	case ActRelu:
		return "relu"
	case ActSoftmax:
		return "softmax"
	}
	return "unknown"
}

// -------- ACTIVATIONS -------- //

// ReluForward returns max(0, Z) and caches Z.
func ReluForward(z *Matrix) (*Matrix, *Matrix) {
	a := z.Clone()
	for i, v := range a.data {
		if v < 0 {
			a.data[i] = 0
		}
	}
	return a, z
}

// ReluBackward returns a copy of dA with every entry zeroed where Z <= 0.
// Z == 0 is zeroed too.
func ReluBackward(dA, z *Matrix) *Matrix {
	if !dA.SameShape(z) {
		panic(shapeError("relu backward: dA [%d, %d], Z [%d, %d]", dA.rows, dA.cols, z.rows, z.cols))
	}
	dZ := dA.Clone()
	for i, v := range z.data {
		if v <= 0 {
			dZ.data[i] = 0
		}
	}
	return dZ
}

// SoftmaxForward normalizes each column of Z to exp(z)/sum(exp(z)).
// Logits are not shifted by their maximum, so very large values overflow to
// +Inf and produce NaN probabilities.
func SoftmaxForward(z *Matrix) (*Matrix, *Matrix) {
	return softmaxColumns(z), z
}

// SoftmaxBackward recomputes A from Z and returns dA ⊙ A ⊙ (1-A).
func SoftmaxBackward(dA, z *Matrix) *Matrix {
	if !dA.SameShape(z) {
		panic(shapeError("softmax backward: dA [%d, %d], Z [%d, %d]", dA.rows, dA.cols, z.rows, z.cols))
	}
	a := softmaxColumns(z)
	dZ := NewMatrix(z.rows, z.cols)
	for i, p := range a.data {
		dZ.data[i] = dA.data[i] * p * (1 - p)
	}
	return dZ
}

func softmaxColumns(z *Matrix) *Matrix {
	a := NewMatrix(z.rows, z.cols)
	for j := 0; j < z.cols; j++ {
		sum := 0.0
		for i := 0; i < z.rows; i++ {
			e := math.Exp(z.data[i*z.cols+j])
			a.data[i*a.cols+j] = e
			sum += e
		}
		for i := 0; i < z.rows; i++ {
			a.data[i*a.cols+j] /= sum
		}
	}
	return a
}

// -------- LINEAR -------- //

// LinearForward computes Z = W·A_prev + b, broadcasting b over the samples.
func LinearForward(aPrev, w, b *Matrix) (*Matrix, LinearCache) {
	if w.cols != aPrev.rows {
		panic(shapeError("linear forward: W [%d, %d], A_prev [%d, %d]", w.rows, w.cols, aPrev.rows, aPrev.cols))
	}
	mustShape("linear forward: bias", b, w.rows, 1)

	z := NewMatrix(w.rows, aPrev.cols)
	MatMul(w.dense, aPrev.dense, z)
	for i := 0; i < z.rows; i++ {
		bias := b.data[i]
		row := z.data[i*z.cols : (i+1)*z.cols]
		for j := range row {
			row[j] += bias
		}
	}
	mustShape("linear forward: Z", z, w.rows, aPrev.cols)
	return z, LinearCache{APrev: aPrev, W: w, B: b}
}

// LinearBackward returns dA_prev = Wᵀ·dZ, dW = dZ·A_prevᵀ/m and
// db = rowsum(dZ)/m, m being the number of samples.
func LinearBackward(dZ *Matrix, cache LinearCache) (dAPrev, dW, dB *Matrix) {
	aPrev, w, b := cache.APrev, cache.W, cache.B
	mustShape("linear backward: dZ", dZ, w.rows, aPrev.cols)
	scale := 1.0 / float64(aPrev.cols)

	dAPrev = NewMatrix(w.cols, dZ.cols)
	MatMul(w.dense.T(), dZ.dense, dAPrev)

	dW = NewMatrix(dZ.rows, aPrev.rows)
	MatMul(dZ.dense, aPrev.dense.T(), dW)
	dW.dense.Scale(scale, dW.dense)

	dB = NewMatrix(dZ.rows, 1)
	for i := 0; i < dZ.rows; i++ {
		dB.data[i] = floats.Sum(dZ.data[i*dZ.cols:(i+1)*dZ.cols]) * scale
	}

	mustShape("linear backward: dA_prev", dAPrev, aPrev.rows, aPrev.cols)
	mustShape("linear backward: dW", dW, w.rows, w.cols)
	mustShape("linear backward: db", dB, b.rows, b.cols)
	return dAPrev, dW, dB
}

// LinearActivationForward runs the linear step followed by act.
func LinearActivationForward(aPrev, w, b *Matrix, act ActivationType) (*Matrix, LayerCache) {
	z, linear := LinearForward(aPrev, w, b)

	var a *Matrix
	switch act {
	case ActRelu:
		a, z = ReluForward(z)
	case ActSoftmax:
		a, z = SoftmaxForward(z)
	default:
		panic("Unknown activation type")
	}
	return a, LayerCache{Linear: linear, Z: z}
}

// LinearActivationBackward undoes act, then the linear step.
func LinearActivationBackward(dA *Matrix, cache LayerCache, act ActivationType) (dAPrev, dW, dB *Matrix) {
	var dZ *Matrix
	switch act {
	case ActRelu:
		dZ = ReluBackward(dA, cache.Z)
	case ActSoftmax:
		dZ = SoftmaxBackward(dA, cache.Z)
	default:
		panic("Unknown activation type")
	}
	return LinearBackward(dZ, cache.Linear)
}
