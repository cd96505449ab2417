package ml

import "time"

// BatchEvent is emitted every CostEvery mini-batches with the recorded cost.
type BatchEvent struct {
	Epoch   int
	Batch   int // batches processed since the start of the run
	Cost    float64
	Elapsed time.Duration
}

// EpochEvent is emitted after each epoch's validation pass.
type EpochEvent struct {
	Epoch       int
	Batches     int
	ValAccuracy float64
	Converged   bool
	Elapsed     time.Duration
}

// Observer receives training checkpoints. It must not modify parameters.
type Observer interface {
	OnBatch(BatchEvent)
	OnEpoch(EpochEvent)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Batch func(BatchEvent)
	Epoch func(EpochEvent)
}

func (o ObserverFuncs) OnBatch(e BatchEvent) {
	if o.Batch != nil {
		o.Batch(e)
	}
}

func (o ObserverFuncs) OnEpoch(e EpochEvent) {
	if o.Epoch != nil {
		o.Epoch(e)
	}
}

type nopObserver struct{}

func (nopObserver) OnBatch(BatchEvent) {}
func (nopObserver) OnEpoch(EpochEvent) {}
