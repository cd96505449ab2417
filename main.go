package main

import (
	"flag"
	"io"
	"log"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/b0tShaman/neuro-mlp/config"
	"github.com/b0tShaman/neuro-mlp/data"
	"github.com/b0tShaman/neuro-mlp/ml"
)

// -------- MAIN -------- //
func main() {
	cfgPath := flag.String("config", "configs/mnist.yaml", "Path to YAML config")
	trainCSV := flag.String("train", "", "Override training CSV")
	testCSV := flag.String("test", "", "Override test CSV")
	epochs := flag.Int("epochs", 0, "Maximum number of epochs")
	batchSize := flag.Int("batch-size", 0, "Mini-batch size")
	lr := flag.Float64("lr", 0, "Learning rate")
	batchNorm := flag.Bool("batchnorm", false, "Normalize hidden activations per batch")
	l2 := flag.Bool("l2", false, "Apply L2 weight decay")
	seed := flag.Uint64("seed", 0, "PRNG seed")
	predict := flag.String("predict", "", "Classify this image after training")
	compareRuns := flag.Bool("compare", false, "Train baseline, batchnorm and L2 variants and compare them")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	o := config.Overrides{
		TrainCSV:     *trainCSV,
		TestCSV:      *testCSV,
		LearningRate: *lr,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "batchnorm":
			o.BatchNorm = batchNorm
		case "l2":
			o.L2 = l2
		case "seed":
			o.Seed = seed
		}
	})
	cfg.ApplyOverrides(o)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if *compareRuns {
		err = compare(cfg, logger)
	} else {
		err = run(cfg, *predict, logger)
	}
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

func run(cfg *config.Config, predictPath string, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	// 1. Load Data
	logger.Printf("loading %s", cfg.TrainCSV)
	x, y, err := loadSet(cfg.TrainCSV, cfg)
	if err != nil {
		return err
	}
	logger.Printf("loaded dataset: %d samples, %d input features", x.Cols(), x.Rows())

	// 2. Configure & Train
	res, err := train(x, y, cfg, logger)
	if err != nil {
		return err
	}

	// 3. Test Accuracy
	if cfg.TestCSV != "" {
		xTest, yTest, err := loadSet(cfg.TestCSV, cfg)
		if err != nil {
			return err
		}
		logger.Printf("test_acc=%.4f (%d samples)", ml.Evaluate(xTest, yTest, res.Params, cfg.BatchNorm), xTest.Cols())
	}

	// 4. Img Inference
	if predictPath != "" {
		side := int(math.Sqrt(float64(cfg.Layers[0])))
		if side*side != cfg.Layers[0] {
			return errors.Errorf("input width %d is not a square image", cfg.Layers[0])
		}
		class, conf, err := ml.InferenceImg(res.Params, cfg.BatchNorm, predictPath, side, side, data.ConvertImage)
		if err != nil {
			return errors.Wrapf(err, "predict %s", predictPath)
		}
		logger.Printf("predicted class %d for %s (confidence %.2f%%)", class, predictPath, conf*100)
	}
	return nil
}

// compare trains the same network three ways (plain, batch normalized, L2
// decayed) from the same seed and reports each model's accuracies and time,
// then the summed weight difference between the plain and L2 models.
func compare(cfg *config.Config, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	x, y, err := loadSet(cfg.TrainCSV, cfg)
	if err != nil {
		return err
	}
	var xTest, yTest *ml.Matrix
	if cfg.TestCSV != "" {
		if xTest, yTest, err = loadSet(cfg.TestCSV, cfg); err != nil {
			return err
		}
	}

	variants := []struct {
		name      string
		batchNorm bool
		l2        bool
	}{
		{"baseline", false, false},
		{"batchnorm", true, false},
		{"l2", false, true},
	}
	models := make(map[string]ml.Parameters, len(variants))

	for _, v := range variants {
		vc := *cfg
		vc.BatchNorm, vc.L2 = v.batchNorm, v.l2

		res, err := train(x, y, &vc, logger)
		if err != nil {
			return errors.Wrapf(err, "%s run", v.name)
		}
		models[v.name] = res.Params

		testAcc := math.NaN()
		if xTest != nil {
			testAcc = ml.Evaluate(xTest, yTest, res.Params, vc.BatchNorm)
		}
		logger.Printf("result %s | train_acc=%.4f val_acc=%.4f test_acc=%.4f | time=%v",
			v.name, res.TrainAccuracy, res.ValAccuracy, testAcc, res.Elapsed)
	}

	diff, err := ml.WeightDiff(models["baseline"], models["l2"])
	if err != nil {
		return err
	}
	logger.Printf("summed weight difference baseline - l2: %g", diff)
	return nil
}

func train(x, y *ml.Matrix, cfg *config.Config, logger *log.Logger) (*ml.Result, error) {
	trainCfg := ml.TrainingConfig{
		Layers:       cfg.Layers,
		LearningRate: cfg.LearningRate,
		Epochs:       cfg.Epochs,
		BatchSize:    cfg.BatchSize,
		BatchNorm:    cfg.BatchNorm,
		L2:           cfg.L2,
		CostEvery:    cfg.CostEvery,
		Seed:         cfg.Seed,
	}
	logger.Printf("training %v lr=%g batch=%d batchnorm=%t l2=%t", ml.LayerSpec(cfg.Layers), cfg.LearningRate, cfg.BatchSize, cfg.BatchNorm, cfg.L2)

	res, err := ml.Train(x, y, trainCfg, ml.WithObserver(progressLogger(logger)))
	if err != nil {
		return nil, err
	}
	logger.Printf("training %s after %d epochs and %d batches | train_acc=%.4f val_acc=%.4f | time=%v",
		res.State, res.Epochs, res.Batches, res.TrainAccuracy, res.ValAccuracy, res.Elapsed)
	return res, nil
}

// loadSet reads a CSV and returns normalized features and one-hot labels,
// samples as columns.
func loadSet(path string, cfg *config.Config) (*ml.Matrix, *ml.Matrix, error) {
	samples, labels, err := data.LoadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	data.NormalizePixels(samples, cfg.PixelMax)

	oneHot, err := data.OneHot(labels, cfg.Layers[len(cfg.Layers)-1])
	if err != nil {
		return nil, nil, errors.Wrapf(err, "encode labels of %s", path)
	}

	x, err := ml.FromSamples(samples)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "features of %s", path)
	}
	y, err := ml.FromSamples(oneHot)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "labels of %s", path)
	}
	return x, y, nil
}

func progressLogger(logger *log.Logger) ml.Observer {
	return ml.ObserverFuncs{
		Batch: func(e ml.BatchEvent) {
			logger.Printf("epoch %d | batch %d | cost %.6f | time %v", e.Epoch, e.Batch, e.Cost, e.Elapsed)
		},
		Epoch: func(e ml.EpochEvent) {
			logger.Printf("epoch %d done | val_acc %.4f | converged %t", e.Epoch, e.ValAccuracy, e.Converged)
		},
	}
}
