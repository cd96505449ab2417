package ml

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// LayerSpec lists layer widths, input width first. len(spec)-1 weighted layers.
type LayerSpec []int

// LayerParams holds the weights and bias of one dense layer.
// W is (units_out, units_in), B is (units_out, 1).
type LayerParams struct {
	W *Matrix
	B *Matrix
}

// Parameters is indexed by layer, 0 being the first hidden layer.
type Parameters []LayerParams

func (s LayerSpec) Validate() error {
	if len(s) < 2 {
		return shapeError("layer spec needs at least 2 widths, got %d", len(s))
	}
	for i, n := range s {
		if n <= 0 {
			return shapeError("layer spec entry %d is %d", i, n)
		}
	}
	return nil
}

// InitParameters draws every weight uniformly from [-1/sqrt(n), 1/sqrt(n)],
// n being the layer's output width, and zeroes every bias.
func InitParameters(spec LayerSpec, rng *rand.Rand) (Parameters, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	params := make(Parameters, len(spec)-1)
	for i := 1; i < len(spec); i++ {
		w := NewMatrix(spec[i], spec[i-1])
		w.RandomizeUniform(1/math.Sqrt(float64(spec[i])), rng)
		params[i-1] = LayerParams{
			W: w,
			B: NewMatrix(spec[i], 1),
		}
	}

	if err := params.Validate(spec); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks every layer against spec.
func (p Parameters) Validate(spec LayerSpec) error {
	if len(p) != len(spec)-1 {
		return shapeError("%d layers for a spec of %d widths", len(p), len(spec))
	}
	for i, l := range p {
		if l.W.rows != spec[i+1] || l.W.cols != spec[i] {
			return shapeError("layer %d weights [%d, %d], want [%d, %d]", i, l.W.rows, l.W.cols, spec[i+1], spec[i])
		}
		if l.B.rows != spec[i+1] || l.B.cols != 1 {
			return shapeError("layer %d bias [%d, %d], want [%d, 1]", i, l.B.rows, l.B.cols, spec[i+1])
		}
	}
	return nil
}

// Spec recovers the layer widths from the weight shapes.
func (p Parameters) Spec() LayerSpec {
	if len(p) == 0 {
		return nil
	}
	spec := LayerSpec{p[0].W.cols}
	for _, l := range p {
		spec = append(spec, l.W.rows)
	}
	return spec
}

func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for i, l := range p {
		out[i] = LayerParams{W: l.W.Clone(), B: l.B.Clone()}
	}
	return out
}

// WeightDiff sums a.W - b.W over every weight of every layer.
func WeightDiff(a, b Parameters) (float64, error) {
	if len(a) != len(b) {
		return 0, shapeError("%d layers against %d", len(a), len(b))
	}
	total := 0.0
	for i := range a {
		if !a[i].W.SameShape(b[i].W) {
			return 0, shapeError("layer %d weights [%d, %d] against [%d, %d]", i, a[i].W.rows, a[i].W.cols, b[i].W.rows, b[i].W.cols)
		}
		total += floats.Sum(a[i].W.data) - floats.Sum(b[i].W.data)
	}
	return total, nil
}
