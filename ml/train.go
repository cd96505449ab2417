package ml

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
)

const (
	// HoldoutFraction of the samples goes to training, the rest to validation.
	HoldoutFraction = 0.8
	// ConvergenceThreshold is the smallest epoch-over-epoch validation gain
	// that keeps training going.
	ConvergenceThreshold = 1e-8
	// DefaultCostEvery is how many mini-batches pass between cost samples.
	DefaultCostEvery = 100
)

const (
	StateInit TrainState = iota
	StateRunning
	StateConverged
	StateExhausted
)

type TrainState int

func (s TrainState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

type TrainingConfig struct {
	Layers       LayerSpec
	LearningRate float64
	Epochs       int // upper bound on passes over the training split
	BatchSize    int
	BatchNorm    bool
	L2           bool
	CostEvery    int // zero means DefaultCostEvery
	Seed         uint64
}

// Validate checks the config against the data it is about to train on.
func (cfg *TrainingConfig) Validate(x, y *Matrix) error {
	if err := cfg.Layers.Validate(); err != nil {
		return err
	}
	if cfg.LearningRate <= 0 {
		return errors.Errorf("learning rate must be > 0 (got %g)", cfg.LearningRate)
	}
	if cfg.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", cfg.Epochs)
	}
	if cfg.BatchSize <= 0 {
		return errors.Errorf("batch size must be > 0 (got %d)", cfg.BatchSize)
	}
	if cfg.CostEvery < 0 {
		return errors.Errorf("cost interval must be >= 0 (got %d)", cfg.CostEvery)
	}
	if x.cols != y.cols {
		return shapeError("%d feature columns, %d label columns", x.cols, y.cols)
	}
	if in := cfg.Layers[0]; in != x.rows {
		return shapeError("input width %d, features have %d rows", in, x.rows)
	}
	if out := cfg.Layers[len(cfg.Layers)-1]; out != y.rows {
		return shapeError("output width %d, labels have %d rows", out, y.rows)
	}
	if trainSize(x.cols) >= x.cols {
		return errors.Errorf("%d samples leave no validation split", x.cols)
	}
	return nil
}

// TrainingState is the mutable record of one run.
type TrainingState struct {
	State        TrainState
	Epoch        int
	Batches      int
	Costs        []float64
	ValAccuracy  float64
	PrevAccuracy float64
}

// Result is what a run hands back to the caller.
type Result struct {
	Params        Parameters
	Costs         []float64
	TrainAccuracy float64
	ValAccuracy   float64
	Epochs        int
	Batches       int
	State         TrainState
	Elapsed       time.Duration
}

// Batch is one mini-batch, samples as columns.
type Batch struct {
	X *Matrix
	Y *Matrix
}

type TrainOption func(*trainer)

func WithObserver(o Observer) TrainOption {
	return func(t *trainer) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithRand replaces the generator seeded from TrainingConfig.Seed.
func WithRand(rng *rand.Rand) TrainOption {
	return func(t *trainer) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// EarlyStopper tracks validation accuracy across epochs.
type EarlyStopper struct {
	prev float64
}

// Step records acc and reports whether training should stop: the gain over
// the previous epoch (0 before the first) is below ConvergenceThreshold.
// A drop in accuracy also stops.
func (s *EarlyStopper) Step(acc float64) bool {
	stop := acc-s.prev < ConvergenceThreshold
	s.prev = acc
	return stop
}

func (s *EarlyStopper) Previous() float64 { return s.prev }

type trainer struct {
	cfg      TrainingConfig
	rng      *rand.Rand
	observer Observer
	opt      Optimizer
	// validate scores the current parameters once per epoch.
	validate func(Parameters) float64
}

// Train fits a network to (X, Y): 80/20 holdout split, mini-batch gradient
// descent for at most cfg.Epochs epochs, stopping early once validation
// accuracy stops improving.
func Train(x, y *Matrix, cfg TrainingConfig, opts ...TrainOption) (*Result, error) {
	if err := cfg.Validate(x, y); err != nil {
		return nil, errors.Wrap(err, "invalid training config")
	}
	t := newTrainer(cfg, opts...)

	xTrain, yTrain, xVal, yVal := SplitHoldout(x, y, t.rng)
	batches := MakeBatches(xTrain, yTrain, cfg.BatchSize)
	params, err := InitParameters(cfg.Layers, t.rng)
	if err != nil {
		return nil, err
	}
	t.validate = func(p Parameters) float64 {
		return Evaluate(xVal, yVal, p, cfg.BatchNorm)
	}

	start := time.Now()
	state := t.run(params, batches, start)

	return &Result{
		Params:        params,
		Costs:         state.Costs,
		TrainAccuracy: Evaluate(x, y, params, cfg.BatchNorm),
		ValAccuracy:   Evaluate(xVal, yVal, params, cfg.BatchNorm),
		Epochs:        state.Epoch,
		Batches:       state.Batches,
		State:         state.State,
		Elapsed:       time.Since(start),
	}, nil
}

func newTrainer(cfg TrainingConfig, opts ...TrainOption) *trainer {
	if cfg.CostEvery == 0 {
		cfg.CostEvery = DefaultCostEvery
	}
	t := &trainer{
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
		observer: nopObserver{},
		opt:      NewOptimizer(cfg),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// run drives the state machine from RUNNING to CONVERGED or EXHAUSTED.
// params are updated in place.
func (t *trainer) run(params Parameters, batches []Batch, start time.Time) TrainingState {
	state := TrainingState{State: StateRunning}
	var stopper EarlyStopper

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		state.Epoch = epoch

		for _, b := range batches {
			al, caches := Forward(b.X, params, t.cfg.BatchNorm)
			grads := Backward(al, b.Y, caches)
			t.opt.Update(params, grads)
			state.Batches++

			if state.Batches%t.cfg.CostEvery == 0 {
				cost := CrossEntropy(al, b.Y)
				if t.cfg.L2 {
					cost += L2Penalty(params, t.cfg.LearningRate)
				}
				state.Costs = append(state.Costs, cost)
				t.observer.OnBatch(BatchEvent{
					Epoch:   epoch,
					Batch:   state.Batches,
					Cost:    cost,
					Elapsed: time.Since(start),
				})
			}
		}

		state.PrevAccuracy = stopper.Previous()
		state.ValAccuracy = t.validate(params)
		converged := stopper.Step(state.ValAccuracy)
		t.observer.OnEpoch(EpochEvent{
			Epoch:       epoch,
			Batches:     state.Batches,
			ValAccuracy: state.ValAccuracy,
			Converged:   converged,
			Elapsed:     time.Since(start),
		})
		if converged {
			state.State = StateConverged
			return state
		}
	}

	state.State = StateExhausted
	return state
}

func trainSize(n int) int {
	return int(math.Ceil(HoldoutFraction * float64(n)))
}

// SplitHoldout permutes the sample columns and returns the first
// ceil(0.8·n) as the training split, the rest as validation.
func SplitHoldout(x, y *Matrix, rng *rand.Rand) (xTrain, yTrain, xVal, yVal *Matrix) {
	if x.cols != y.cols {
		panic(shapeError("holdout: %d feature columns, %d label columns", x.cols, y.cols))
	}
	perm := rng.Perm(x.cols)
	cut := trainSize(x.cols)
	return x.Columns(perm[:cut]), y.Columns(perm[:cut]), x.Columns(perm[cut:]), y.Columns(perm[cut:])
}

// MakeBatches cuts contiguous mini-batches of size columns; the last one may
// be shorter.
func MakeBatches(x, y *Matrix, size int) []Batch {
	if x.cols != y.cols {
		panic(shapeError("batches: %d feature columns, %d label columns", x.cols, y.cols))
	}
	n := x.cols
	batches := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		batches = append(batches, Batch{
			X: x.Columns(NewIndexRange(start, end)),
			Y: y.Columns(NewIndexRange(start, end)),
		})
	}
	return batches
}

// ------ DATA HANDLING HELPERS ------
func NewIndexRange(start, end int) []int {
	indices := make([]int, end-start)
	for i := range indices {
		indices[i] = start + i
	}
	return indices
}
