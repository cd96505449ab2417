package ml

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func matrixOf(t testing.TB, rows [][]float64) *Matrix {
	t.Helper()
	m := NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		require.Len(t, r, m.cols)
		for j, v := range r {
			m.Set(i, j, v)
		}
	}
	return m
}

// requireShapePanic runs fn and checks it panics with ErrShapeMismatch.
func requireShapePanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.Is(err, ErrShapeMismatch), "got %v", err)
	}()
	fn()
}
