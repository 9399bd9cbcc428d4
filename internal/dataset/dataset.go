// Package dataset provides regression datasets for training KAN models:
// synthetic target functions on the unit cube and CSV loading.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"

	"github.com/born-ml/kan/internal/linalg"
)

// Common errors.
var (
	ErrUnknownFunction = errors.New("unknown target function")
	ErrEmpty           = errors.New("dataset is empty")
	ErrInconsistentRow = errors.New("inconsistent row length")
)

// Dataset holds regression samples: row i of Samples maps to Targets[i].
type Dataset struct {
	Samples linalg.Matrix
	Targets linalg.Vector
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Targets)
}

// NumFeatures returns the number of features per sample, 0 when empty.
func (d *Dataset) NumFeatures() int {
	if len(d.Samples) == 0 {
		return 0
	}
	return len(d.Samples[0])
}

// Split splits the dataset into train and validation sets.
//
// The first (1 - validationRatio) of the samples form the training set.
func (d *Dataset) Split(validationRatio float64) (*Dataset, *Dataset) {
	splitIdx := int(float64(d.Len()) * (1.0 - validationRatio))
	splitIdx = min(max(splitIdx, 0), d.Len())

	return &Dataset{
			Samples: d.Samples[:splitIdx],
			Targets: d.Targets[:splitIdx],
		}, &Dataset{
			Samples: d.Samples[splitIdx:],
			Targets: d.Targets[splitIdx:],
		}
}

// Shuffle permutes samples and targets together.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	rng.Shuffle(d.Len(), func(i, j int) {
		d.Samples[i], d.Samples[j] = d.Samples[j], d.Samples[i]
		d.Targets[i], d.Targets[j] = d.Targets[j], d.Targets[i]
	})
}

// Func is a target function over a feature vector.
type Func func(x linalg.Vector) float64

var functions = map[string]Func{
	// mean of squares
	"square": func(x linalg.Vector) float64 {
		var s float64
		for _, v := range x {
			s += v * v
		}
		return s / float64(len(x))
	},
	// one period of a sine over the feature mean, mapped into [0, 1]
	"sine": func(x linalg.Vector) float64 {
		return 0.5 + 0.5*math.Sin(2*math.Pi*x.Sum()/float64(len(x)))
	},
	"product": func(x linalg.Vector) float64 {
		p := 1.0
		for _, v := range x {
			p *= v
		}
		return p
	},
	"mean": func(x linalg.Vector) float64 {
		return x.Sum() / float64(len(x))
	},
}

// Functions returns the names of the built-in target functions.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in target function with the given name.
func Lookup(name string) (Func, error) {
	f, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownFunction, name, Functions())
	}
	return f, nil
}

// SyntheticConfig describes a generated dataset.
type SyntheticConfig struct {
	Function   string  // Name of a built-in function (default: "square")
	Samples    int     // Number of samples (default: 256)
	Features   int     // Features per sample (default: 1)
	InputScale float64 // Features are drawn uniformly from [0, InputScale) (default: 1)
}

// Synthetic generates samples with features drawn from rng.
func Synthetic(cfg SyntheticConfig, rng *rand.Rand) (*Dataset, error) {
	if cfg.Function == "" {
		cfg.Function = "square"
	}
	if cfg.Samples == 0 {
		cfg.Samples = 256
	}
	if cfg.Features == 0 {
		cfg.Features = 1
	}
	if cfg.InputScale == 0 {
		cfg.InputScale = 1
	}
	if cfg.Samples < 0 || cfg.Features < 0 || cfg.InputScale < 0 || cfg.InputScale > 1 {
		return nil, fmt.Errorf("dataset: invalid synthetic config %+v", cfg)
	}

	f, err := Lookup(cfg.Function)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		Samples: make(linalg.Matrix, cfg.Samples),
		Targets: make(linalg.Vector, cfg.Samples),
	}
	for i := range d.Samples {
		d.Samples[i] = linalg.Random(cfg.Features, rng).Scale(cfg.InputScale)
		d.Targets[i] = f(d.Samples[i])
	}
	return d, nil
}

// ReadCSV reads one sample per record: feature columns followed by the
// target. A first record in which no field parses as a number is treated as
// a header and skipped.
func ReadCSV(r io.Reader) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) > 0 && isHeader(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	d := &Dataset{
		Samples: make(linalg.Matrix, len(records)),
		Targets: make(linalg.Vector, len(records)),
	}
	width := len(records[0])
	if width < 2 {
		return nil, fmt.Errorf("%w: need at least one feature and a target, got %d columns", ErrInconsistentRow, width)
	}
	for i, record := range records {
		if len(record) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInconsistentRow, i+1, len(record), width)
		}
		values, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		d.Samples[i] = values[:width-1]
		d.Targets[i] = values[width-1]
	}
	return d, nil
}

// LoadCSV reads a dataset from a CSV file.
func LoadCSV(path string) (*Dataset, error) {
	//nolint:gosec // G304: dataset path is user input by design
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// WriteCSV writes the dataset with a header row x0..xN-1,y.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, d.NumFeatures()+1)
	for i := 0; i < d.NumFeatures(); i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := cw.Write(append(header, "y")); err != nil {
		return err
	}
	for i, x := range d.Samples {
		record := make([]string, 0, len(x)+1)
		for _, v := range x {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		record = append(record, strconv.FormatFloat(d.Targets[i], 'g', -1, 64))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (linalg.Vector, error) {
	values := make(linalg.Vector, len(record))
	for j, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j+1, err)
		}
		values[j] = v
	}
	return values, nil
}
