// Package train runs epoch-based gradient descent over a KAN network.
package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"k8s.io/klog/v2"

	"github.com/born-ml/kan/internal/kan"
	"github.com/born-ml/kan/internal/linalg"
)

// ErrNoSamples is returned when Fit is called with an empty dataset or when
// every sample of an epoch was skipped.
var ErrNoSamples = errors.New("train: no usable samples")

// Config holds trainer settings.
type Config struct {
	Epochs           int     `yaml:"epochs"`             // Number of passes over the data (default: 100)
	LR               float64 `yaml:"lr"`                 // Learning rate (default: 0.01)
	Decay            float64 `yaml:"decay"`              // Per-epoch LR multiplier (default: 1, range: (0, 1])
	Shuffle          bool    `yaml:"shuffle"`            // Shuffle sample order each epoch
	Seed             int64   `yaml:"seed"`               // Shuffle seed
	TargetLoss       float64 `yaml:"target_loss"`        // Stop once the epoch loss is at or below this (0 disables)
	SkipDomainErrors bool    `yaml:"skip_domain_errors"` // Skip samples that leave a spline's [0, 1] domain
	ResetMemoEvery   int     `yaml:"reset_memo_every"`   // Clear basis memos every N epochs (0 disables)
}

// DefaultConfig returns the trainer defaults.
func DefaultConfig() Config {
	return Config{
		Epochs: 100,
		LR:     0.01,
		Decay:  1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Epochs == 0 {
		c.Epochs = d.Epochs
	}
	if c.LR == 0 {
		c.LR = d.LR
	}
	if c.Decay == 0 {
		c.Decay = d.Decay
	}
	return c
}

// Validate reports invalid settings.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.Epochs < 0 {
		return fmt.Errorf("train: epochs must not be negative, got %d", c.Epochs)
	}
	if !(c.LR > 0) {
		return fmt.Errorf("train: %w: %v", kan.ErrInvalidLearningRate, c.LR)
	}
	if !(c.Decay > 0 && c.Decay <= 1) {
		return fmt.Errorf("train: decay must be in (0, 1], got %v", c.Decay)
	}
	if c.ResetMemoEvery < 0 {
		return fmt.Errorf("train: reset_memo_every must not be negative, got %d", c.ResetMemoEvery)
	}
	if c.TargetLoss < 0 {
		return fmt.Errorf("train: target loss must not be negative, got %v", c.TargetLoss)
	}
	return nil
}

// Epoch records one pass over the data.
type Epoch struct {
	Loss    float64 // Mean pre-update squared error of the trained samples
	LR      float64
	Skipped int // Samples skipped on a domain error
}

// History is the per-epoch record returned by Fit.
type History struct {
	Epochs  []Epoch
	Stopped bool // Whether TargetLoss was reached before the last epoch
}

// Final returns the last epoch's loss, or 0 if no epoch ran.
func (h *History) Final() float64 {
	if len(h.Epochs) == 0 {
		return 0
	}
	return h.Epochs[len(h.Epochs)-1].Loss
}

// Trainer fits a network one sample at a time.
//
// Example:
//
//	t := train.New(train.Config{Epochs: 200, LR: 0.05, Shuffle: true})
//	hist, err := t.Fit(ctx, net, samples, targets)
type Trainer struct {
	cfg Config
	rng *rand.Rand
}

// New creates a trainer. Zero fields of cfg take their defaults.
func New(cfg Config) *Trainer {
	cfg = cfg.withDefaults()
	return &Trainer{
		cfg: cfg,
		//nolint:gosec // G404: math/rand is fine for sample ordering
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Config returns the effective configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Fit trains net on samples (one feature vector per row) for the configured
// number of epochs. ctx is checked between epochs; on cancellation the
// history so far is returned with ctx.Err().
func (t *Trainer) Fit(ctx context.Context, net *kan.Network, samples linalg.Matrix, targets linalg.Vector) (*History, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	if samples.Rows() != len(targets) {
		return nil, &kan.ShapeError{Op: "train.fit", What: "targets", Want: samples.Rows(), Got: len(targets)}
	}
	if samples.Rows() == 0 {
		return nil, ErrNoSamples
	}

	order := make([]int, samples.Rows())
	for i := range order {
		order[i] = i
	}

	hist := &History{}
	lr := t.cfg.LR
	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return hist, err
		}
		if t.cfg.Shuffle {
			t.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		e, err := t.epoch(net, samples, targets, order, lr)
		if err != nil {
			return hist, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		hist.Epochs = append(hist.Epochs, e)
		klog.V(1).Infof("epoch %d/%d: loss=%.6g lr=%.4g skipped=%d", epoch+1, t.cfg.Epochs, e.Loss, e.LR, e.Skipped)

		if t.cfg.TargetLoss > 0 && e.Loss <= t.cfg.TargetLoss {
			hist.Stopped = epoch < t.cfg.Epochs-1
			klog.V(1).Infof("target loss %.4g reached after %d epochs", t.cfg.TargetLoss, epoch+1)
			break
		}
		lr *= t.cfg.Decay
		if t.cfg.ResetMemoEvery > 0 && (epoch+1)%t.cfg.ResetMemoEvery == 0 {
			klog.V(2).Infof("clearing %d memoized basis values", net.MemoSize())
			net.ResetMemo()
		}
	}
	return hist, nil
}

func (t *Trainer) epoch(net *kan.Network, samples linalg.Matrix, targets linalg.Vector, order []int, lr float64) (Epoch, error) {
	e := Epoch{LR: lr}
	var sum float64
	for _, i := range order {
		loss, err := net.Train(samples[i], targets[i], lr)
		if err != nil {
			if t.cfg.SkipDomainErrors && errors.Is(err, kan.ErrDomain) {
				e.Skipped++
				klog.Warningf("skipping sample %d: %v", i, err)
				continue
			}
			return e, fmt.Errorf("sample %d: %w", i, err)
		}
		klog.V(2).Infof("sample %d: loss=%.6g", i, loss)
		sum += loss
	}
	trained := len(order) - e.Skipped
	if trained == 0 {
		return e, ErrNoSamples
	}
	e.Loss = sum / float64(trained)
	return e, nil
}

// Evaluate returns the mean squared error of net over samples. With
// skipDomainErrors set, samples that fail with a domain error are left out
// and counted.
func Evaluate(net *kan.Network, samples linalg.Matrix, targets linalg.Vector, skipDomainErrors bool) (mse float64, skipped int, err error) {
	if samples.Rows() != len(targets) {
		return 0, 0, &kan.ShapeError{Op: "train.evaluate", What: "targets", Want: samples.Rows(), Got: len(targets)}
	}
	var sum float64
	for i, x := range samples {
		l, err := net.LossSingle(x, targets[i])
		if err != nil {
			if skipDomainErrors && errors.Is(err, kan.ErrDomain) {
				skipped++
				continue
			}
			return 0, skipped, fmt.Errorf("sample %d: %w", i, err)
		}
		sum += l
	}
	if samples.Rows() == skipped {
		return 0, skipped, ErrNoSamples
	}
	return sum / float64(samples.Rows()-skipped), skipped, nil
}
