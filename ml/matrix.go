package ml

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Matrix represents a dense matrix with a flat data slice for performance.
// The engine stores samples as columns: a batch is (features x samples).
type Matrix struct {
	rows, cols int
	data       []float64
	dense      *mat.Dense
}

// -------- CONSTRUCTORS ------- //
func NewMatrix(rows, cols int) *Matrix {
	data := make([]float64, rows*cols)
	return &Matrix{
		rows:  rows,
		cols:  cols,
		data:  data,
		dense: mat.NewDense(rows, cols, data),
	}
}

// NewMatrixFromSlice wraps data (row-major) without copying.
func NewMatrixFromSlice(rows, cols int, data []float64) *Matrix {
	if len(data) != rows*cols {
		panic(shapeError("slice length %d for [%d, %d]", len(data), rows, cols))
	}

	return &Matrix{
		rows:  rows,
		cols:  cols,
		data:  data,
		dense: mat.NewDense(rows, cols, data),
	}
}

// FromSamples builds a (features x samples) matrix where column j is samples[j].
func FromSamples(samples [][]float64) (*Matrix, error) {
	if len(samples) == 0 {
		return nil, shapeError("no samples")
	}
	rows, cols := len(samples[0]), len(samples)
	if rows == 0 {
		return nil, shapeError("sample 0 is empty")
	}
	m := NewMatrix(rows, cols)
	for j, s := range samples {
		if len(s) != rows {
			return nil, shapeError("sample %d has %d values, want %d", j, len(s), rows)
		}
		for i, v := range s {
			m.data[i*cols+j] = v
		}
	}
	return m, nil
}

// ------- MATRIX METHODS ------ //
func (m *Matrix) Rows() int         { return m.rows }
func (m *Matrix) Cols() int         { return m.cols }
func (m *Matrix) Dims() (int, int)  { return m.rows, m.cols }
func (m *Matrix) Dense() *mat.Dense { return m.dense }

// Data exposes the row-major backing slice.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// Col copies column j into dst, allocating when dst is nil.
func (m *Matrix) Col(dst []float64, j int) []float64 {
	return mat.Col(dst, j, m.dense)
}

func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// Columns returns a copy holding the given columns in order.
func (m *Matrix) Columns(idx []int) *Matrix {
	out := NewMatrix(m.rows, len(idx))
	for k, j := range idx {
		for i := 0; i < m.rows; i++ {
			out.data[i*out.cols+k] = m.data[i*m.cols+j]
		}
	}
	return out
}

// RandomizeUniform fills m with independent draws from [-limit, limit].
func (m *Matrix) RandomizeUniform(limit float64, rng *rand.Rand) {
	for i := range m.data {
		m.data[i] = (rng.Float64()*2 - 1) * limit
	}
}

func (m *Matrix) Reset() {
	for i := range m.data {
		m.data[i] = 0.0
	}
}

// SameShape reports whether m and b have identical dimensions.
func (m *Matrix) SameShape(b *Matrix) bool {
	return m.rows == b.rows && m.cols == b.cols
}

// ------ UTILITY FUNCTIONS ------
func MatMul(a, b mat.Matrix, out *Matrix) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br || out.rows != ar || out.cols != bc {
		panic(shapeError("matmul: [%d, %d] x [%d, %d] into [%d, %d]", ar, ac, br, bc, out.rows, out.cols))
	}
	out.dense.Mul(a, b)
}
