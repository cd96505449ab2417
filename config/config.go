package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	TrainCSV     string  `yaml:"train_csv"`
	TestCSV      string  `yaml:"test_csv"`
	Layers       []int   `yaml:"layers"`
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	BatchNorm    bool    `yaml:"batchnorm"`
	L2           bool    `yaml:"l2"`
	CostEvery    int     `yaml:"cost_every"`
	Seed         uint64  `yaml:"seed"`
	PixelMax     float64 `yaml:"pixel_max"`
}

// Overrides captures CLI supplied values. Zero values and nil pointers are
// left alone.
type Overrides struct {
	TrainCSV     string
	TestCSV      string
	LearningRate float64
	Epochs       int
	BatchSize    int
	BatchNorm    *bool
	L2           *bool
	Seed         *uint64
}

// Default returns the MNIST setup: 784-20-7-5-10, lr 0.009, batches of 100.
func Default() *Config {
	return &Config{
		Layers:       []int{784, 20, 7, 5, 10},
		LearningRate: 0.009,
		Epochs:       100,
		BatchSize:    100,
		CostEvery:    100,
		PixelMax:     255,
	}
}

// Load reads a Config from YAML. Keys missing from the file keep their
// Default values. Validation is left to the caller so command line
// overrides can fill in what the file omits.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, rejecting unknown keys.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.TrainCSV != "" {
		c.TrainCSV = o.TrainCSV
	}
	if o.TestCSV != "" {
		c.TestCSV = o.TestCSV
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.BatchNorm != nil {
		c.BatchNorm = *o.BatchNorm
	}
	if o.L2 != nil {
		c.L2 = *o.L2
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.TrainCSV == "" {
		return errors.New("train_csv must be set")
	}
	if len(c.Layers) < 2 {
		return errors.Errorf("layers needs an input and an output width (got %v)", c.Layers)
	}
	for i, n := range c.Layers {
		if n <= 0 {
			return errors.Errorf("layers[%d] must be > 0 (got %d)", i, n)
		}
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.PixelMax <= 0 {
		return errors.Errorf("pixel_max must be > 0 (got %g)", c.PixelMax)
	}
	if c.CostEvery <= 0 {
		return errors.Errorf("cost_every must be > 0 (got %d)", c.CostEvery)
	}
	return nil
}
