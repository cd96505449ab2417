package ml

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

func TestReluRoundTrip(t *testing.T) {
	z := matrixOf(t, [][]float64{
		{-1.5, 0, 2.25},
		{3, -0.0001, 0.5},
	})
	a, cache := ReluForward(z)
	assert.Equal(t, []float64{0, 0, 2.25, 3, 0, 0.5}, a.Data())

	ones := NewMatrix(2, 3)
	for i := range ones.data {
		ones.data[i] = 1
	}
	dZ := ReluBackward(ones, cache)
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 1}, dZ.Data())

	// inputs stay untouched
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, ones.Data())
	assert.Equal(t, -1.5, z.At(0, 0))
}

func TestReluBackward_KeepsValues(t *testing.T) {
	z := matrixOf(t, [][]float64{{1, -1}, {-2, 2}})
	dA := matrixOf(t, [][]float64{{0.3, 0.7}, {-4, -0.25}})
	dZ := ReluBackward(dA, z)
	assert.Equal(t, []float64{0.3, 0, 0, -0.25}, dZ.Data())
}

func TestSoftmaxForward_ColumnsSumToOne(t *testing.T) {
	z := matrixOf(t, [][]float64{
		{1, -2, 0, 10},
		{2, 0, 0, -10},
		{3, 2, 0, 0},
	})
	a, cache := SoftmaxForward(z)
	assert.Same(t, z, cache)
	for j := 0; j < a.Cols(); j++ {
		sum := 0.0
		for i := 0; i < a.Rows(); i++ {
			sum += a.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "column %d", j)
	}
	assert.InDelta(t, 1.0/3, a.At(1, 2), 1e-15)
}

func TestSoftmaxForward_OverflowIsNotShifted(t *testing.T) {
	a, _ := SoftmaxForward(matrixOf(t, [][]float64{{1000}, {0}}))
	assert.True(t, math.IsNaN(a.At(0, 0)))
}

func TestSoftmaxBackward(t *testing.T) {
	z := matrixOf(t, [][]float64{{0}, {math.Log(3)}})
	dA := matrixOf(t, [][]float64{{2}, {-1}})
	dZ := SoftmaxBackward(dA, z)
	// A = [0.25, 0.75]
	assert.InDelta(t, 2*0.25*0.75, dZ.At(0, 0), 1e-15)
	assert.InDelta(t, -1*0.75*0.25, dZ.At(1, 0), 1e-15)
}

func TestLinearForward(t *testing.T) {
	w := matrixOf(t, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	b := matrixOf(t, [][]float64{{0.5}, {-1}, {0}})
	aPrev := matrixOf(t, [][]float64{{1, 0}, {0, 1}})

	z, cache := LinearForward(aPrev, w, b)
	require.Equal(t, 3, z.Rows())
	require.Equal(t, 2, z.Cols())
	assert.Equal(t, []float64{1.5, 2.5, 2, 3, 5, 6}, z.Data())
	assert.Same(t, aPrev, cache.APrev)
	assert.Same(t, w, cache.W)
	assert.Same(t, b, cache.B)
}

func TestLinearForward_ShapeMismatch(t *testing.T) {
	w := NewMatrix(3, 2)
	requireShapePanic(t, func() { LinearForward(NewMatrix(4, 5), w, NewMatrix(3, 1)) })
	requireShapePanic(t, func() { LinearForward(NewMatrix(2, 5), w, NewMatrix(2, 1)) })
}

func TestLinearBackward_ShapeMismatch(t *testing.T) {
	cache := LinearCache{APrev: NewMatrix(2, 4), W: NewMatrix(3, 2), B: NewMatrix(3, 1)}
	requireShapePanic(t, func() { LinearBackward(NewMatrix(3, 5), cache) })
}

// With loss f = Σ G⊙(W·A + b), ∂f/∂W = G·Aᵀ and ∂f/∂A = Wᵀ·G.
func TestLinearBackward_MatchesFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 11))
	w := NewMatrix(3, 4)
	w.RandomizeUniform(1, rng)
	b := NewMatrix(3, 1)
	b.RandomizeUniform(1, rng)
	aPrev := NewMatrix(4, 5)
	aPrev.RandomizeUniform(1, rng)
	g := NewMatrix(3, 5)
	g.RandomizeUniform(1, rng)

	_, cache := LinearForward(aPrev, w, b)
	dAPrev, dW, dB := LinearBackward(g, cache)
	m := float64(aPrev.Cols())

	loss := func(w, a *Matrix) float64 {
		z, _ := LinearForward(a, w, b)
		sum := 0.0
		for i, v := range z.data {
			sum += g.data[i] * v
		}
		return sum
	}
	settings := &fd.Settings{Formula: fd.Central}

	numW := fd.Gradient(nil, func(x []float64) float64 {
		return loss(NewMatrixFromSlice(3, 4, x), aPrev)
	}, append([]float64(nil), w.data...), settings)
	for i := range numW {
		assert.InDelta(t, numW[i]/m, dW.data[i], 1e-6, "dW[%d]", i)
	}

	numA := fd.Gradient(nil, func(x []float64) float64 {
		return loss(w, NewMatrixFromSlice(4, 5, x))
	}, append([]float64(nil), aPrev.data...), settings)
	for i := range numA {
		assert.InDelta(t, numA[i], dAPrev.data[i], 1e-6, "dA_prev[%d]", i)
	}

	for i := 0; i < g.Rows(); i++ {
		want := 0.0
		for j := 0; j < g.Cols(); j++ {
			want += g.At(i, j)
		}
		assert.InDelta(t, want/m, dB.At(i, 0), 1e-12)
	}
}
