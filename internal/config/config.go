// Package config loads KAN run configuration from YAML.
//
// A run file describes the model topology, the data to fit, and the trainer
// and parallelism settings:
//
//	model:
//	  inputs: 1
//	  widths: [4, 1]
//	  seed: 42
//	data:
//	  function: square
//	  samples: 256
//	  validation: 0.2
//	train:
//	  epochs: 200
//	  lr: 0.05
//	  shuffle: true
//	  skip_domain_errors: true
//	parallel:
//	  enabled: false
//
// Omitted fields keep the values from Default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/kan/internal/parallel"
	"github.com/born-ml/kan/internal/train"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Model describes the network topology.
type Model struct {
	Inputs int   `yaml:"inputs"` // Number of input features
	Widths []int `yaml:"widths"` // Nodes per layer, last must be 1
	Seed   int64 `yaml:"seed"`   // Control point initialization seed
}

// Data selects the training data: a CSV file when CSV is set, otherwise a
// synthetic function sampled on [0, InputScale).
type Data struct {
	CSV        string  `yaml:"csv"`
	Function   string  `yaml:"function"`
	Samples    int     `yaml:"samples"`
	InputScale float64 `yaml:"input_scale"`
	Seed       int64   `yaml:"seed"`
	Validation float64 `yaml:"validation"` // Fraction held out for evaluation, in [0, 1)
}

// Run is a complete training run.
type Run struct {
	Model    Model           `yaml:"model"`
	Data     Data            `yaml:"data"`
	Train    train.Config    `yaml:"train"`
	Parallel parallel.Config `yaml:"parallel"`
}

// Default returns the configuration used for omitted fields.
func Default() Run {
	return Run{
		Model: Model{
			Inputs: 1,
			Widths: []int{4, 1},
			Seed:   1,
		},
		Data: Data{
			Function:   "square",
			Samples:    256,
			InputScale: 1,
			Seed:       1,
			Validation: 0.2,
		},
		Train:    train.DefaultConfig(),
		Parallel: parallel.Sequential(),
	}
}

// Parse decodes a YAML run over Default. Unknown keys are rejected.
func Parse(r io.Reader) (Run, error) {
	run := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&run); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Load reads and parses a run file.
func Load(path string) (Run, error) {
	//nolint:gosec // G304: config path is user input by design
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("config: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Marshal encodes the run as YAML.
func (r Run) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Validate checks the run for settings the engine would reject later.
func (r Run) Validate() error {
	if r.Model.Inputs < 1 {
		return fmt.Errorf("%w: model.inputs must be at least 1, got %d", ErrInvalid, r.Model.Inputs)
	}
	if len(r.Model.Widths) == 0 || r.Model.Widths[len(r.Model.Widths)-1] != 1 {
		return fmt.Errorf("%w: model.widths must end in 1, got %v", ErrInvalid, r.Model.Widths)
	}
	for i, w := range r.Model.Widths {
		if w < 1 {
			return fmt.Errorf("%w: model.widths[%d] must be at least 1, got %d", ErrInvalid, i, w)
		}
	}
	if r.Data.CSV == "" && r.Data.Function == "" {
		return fmt.Errorf("%w: data needs a csv path or a function", ErrInvalid)
	}
	if r.Data.Validation < 0 || r.Data.Validation >= 1 {
		return fmt.Errorf("%w: data.validation must be in [0, 1), got %v", ErrInvalid, r.Data.Validation)
	}
	if r.Data.InputScale < 0 || r.Data.InputScale > 1 {
		return fmt.Errorf("%w: data.input_scale must be in [0, 1], got %v", ErrInvalid, r.Data.InputScale)
	}
	if r.Parallel.NumWorkers < 0 || r.Parallel.MinChunkSize < 0 {
		return fmt.Errorf("%w: parallel sizes must not be negative", ErrInvalid)
	}
	if err := r.Train.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
