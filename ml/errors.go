package ml

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShapeMismatch is the root of every dimension error raised by the engine.
// Forward, backward and update steps panic with an error wrapping it; the
// constructors return it.
var ErrShapeMismatch = errors.New("shape mismatch")

// ErrSingleSampleBatchNorm is returned when a lone sample would be batch
// normalized: its statistics over one column zero every hidden activation.
var ErrSingleSampleBatchNorm = errors.New("batch normalization needs more than one sample")

func shapeError(format string, args ...any) error {
	return errors.Wrap(ErrShapeMismatch, fmt.Sprintf(format, args...))
}

// mustShape panics when m is not rows x cols.
func mustShape(op string, m *Matrix, rows, cols int) {
	if m.rows != rows || m.cols != cols {
		panic(shapeError("%s: got [%d, %d], want [%d, %d]", op, m.rows, m.cols, rows, cols))
	}
}
