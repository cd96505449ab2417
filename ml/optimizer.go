package ml

import (
	"gonum.org/v1/gonum/floats"
)

// Optimizer is the only component allowed to write Parameters.
type Optimizer interface {
	Update(params Parameters, grads []GradientSet)
}

// SGDOptimizer is plain gradient descent. With L2 set the weight step becomes
// lr·(dW + lr·W); biases are never decayed.
type SGDOptimizer struct {
	LearningRate float64
	L2           bool
}

func NewOptimizer(cfg TrainingConfig) Optimizer {
	return &SGDOptimizer{LearningRate: cfg.LearningRate, L2: cfg.L2}
}

func (opt *SGDOptimizer) Update(params Parameters, grads []GradientSet) {
	if len(grads) != len(params) {
		panic(shapeError("update: %d gradient sets for %d layers", len(grads), len(params)))
	}
	lr := opt.LearningRate
	for i := range params {
		layer := params[i]
		mustShape("update: dW", grads[i].DW, layer.W.rows, layer.W.cols)
		mustShape("update: db", grads[i].DB, layer.B.rows, layer.B.cols)

		if opt.L2 {
			floats.Scale(1-lr*lr, layer.W.data)
		}
		floats.AddScaled(layer.W.data, -lr, grads[i].DW.data)
		floats.AddScaled(layer.B.data, -lr, grads[i].DB.data)
	}
}
