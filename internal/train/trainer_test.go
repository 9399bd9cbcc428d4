package train

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kan/internal/kan"
	"github.com/born-ml/kan/internal/linalg"
)

// chain returns a 1 -> 1 -> 1 network with every control point at 0.05.
func chain() *kan.Network {
	net := kan.StandardWithRand(1, 1, rand.New(rand.NewSource(1)))
	for _, e := range net.Arena.All() {
		e.Spline.ControlPoints.Fill(0.05)
	}
	return net
}

func TestConfig_Defaults(t *testing.T) {
	tr := New(Config{})
	assert.Equal(t, DefaultConfig(), tr.Config())

	tr = New(Config{Epochs: 3, LR: 0.2})
	assert.Equal(t, 3, tr.Config().Epochs)
	assert.Equal(t, 0.2, tr.Config().LR)
	assert.Equal(t, 1.0, tr.Config().Decay)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.ErrorIs(t, Config{LR: -0.1}.Validate(), kan.ErrInvalidLearningRate)
	assert.Error(t, Config{Epochs: -1}.Validate())
	assert.Error(t, Config{Decay: 1.5}.Validate())
	assert.Error(t, Config{TargetLoss: -1}.Validate())
	assert.Error(t, Config{ResetMemoEvery: -1}.Validate())
}

func TestFit_ReducesLoss(t *testing.T) {
	net := chain()
	samples := linalg.NewMatrix(linalg.NewVector(0.5))
	targets := linalg.NewVector(0.1)

	hist, err := New(Config{Epochs: 200, LR: 0.05}).Fit(context.Background(), net, samples, targets)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 200)
	assert.False(t, hist.Stopped)
	assert.Less(t, hist.Final(), hist.Epochs[0].Loss/100)
}

func TestFit_StopsAtTargetLoss(t *testing.T) {
	net := chain()
	samples := linalg.NewMatrix(linalg.NewVector(0.5))
	targets := linalg.NewVector(0.1)

	hist, err := New(Config{Epochs: 1000, LR: 0.05, TargetLoss: 1e-4}).
		Fit(context.Background(), net, samples, targets)
	require.NoError(t, err)
	assert.True(t, hist.Stopped)
	assert.Less(t, len(hist.Epochs), 1000)
	assert.LessOrEqual(t, hist.Final(), 1e-4)
}

func TestFit_Decay(t *testing.T) {
	hist, err := New(Config{Epochs: 3, LR: 0.1, Decay: 0.5}).
		Fit(context.Background(), chain(), linalg.NewMatrix(linalg.NewVector(0.5)), linalg.NewVector(0.1))
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 3)
	assert.InDelta(t, 0.1, hist.Epochs[0].LR, 1e-15)
	assert.InDelta(t, 0.05, hist.Epochs[1].LR, 1e-15)
	assert.InDelta(t, 0.025, hist.Epochs[2].LR, 1e-15)
}

func TestFit_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hist, err := New(Config{}).Fit(ctx, chain(), linalg.NewMatrix(linalg.NewVector(0.5)), linalg.NewVector(0.1))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, hist)
	assert.Empty(t, hist.Epochs)
}

func TestFit_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(Config{LR: -1}).Fit(ctx, chain(), linalg.NewMatrix(linalg.NewVector(0.5)), linalg.NewVector(0.1))
	assert.ErrorIs(t, err, kan.ErrInvalidLearningRate)

	_, err = New(Config{}).Fit(ctx, chain(), linalg.NewMatrix(linalg.NewVector(0.5)), linalg.NewVector(0.1, 0.2))
	assert.ErrorIs(t, err, kan.ErrShapeMismatch)

	_, err = New(Config{}).Fit(ctx, chain(), linalg.Matrix{}, linalg.Vector{})
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestFit_DomainErrors(t *testing.T) {
	ctx := context.Background()
	samples := linalg.NewMatrix(linalg.NewVector(0.5), linalg.NewVector(1.5))
	targets := linalg.NewVector(0.1, 0.1)

	_, err := New(Config{Epochs: 2}).Fit(ctx, chain(), samples, targets)
	var domainErr *kan.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 1.5, domainErr.T)

	hist, err := New(Config{Epochs: 2, SkipDomainErrors: true}).Fit(ctx, chain(), samples, targets)
	require.NoError(t, err)
	require.Len(t, hist.Epochs, 2)
	assert.Equal(t, 1, hist.Epochs[0].Skipped)
	assert.Equal(t, 1, hist.Epochs[1].Skipped)

	_, err = New(Config{SkipDomainErrors: true}).
		Fit(ctx, chain(), linalg.NewMatrix(linalg.NewVector(-0.5)), linalg.NewVector(0.1))
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestFit_ShuffleIsSeeded(t *testing.T) {
	samples := linalg.NewMatrix(linalg.NewVector(0.2), linalg.NewVector(0.4), linalg.NewVector(0.6))
	targets := linalg.NewVector(0.3, 0.35, 0.4)
	cfg := Config{Epochs: 5, LR: 0.05, Shuffle: true, Seed: 7}

	a, err := New(cfg).Fit(context.Background(), chain(), samples, targets)
	require.NoError(t, err)
	b, err := New(cfg).Fit(context.Background(), chain(), samples, targets)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluate(t *testing.T) {
	net := chain()
	samples := linalg.NewMatrix(linalg.NewVector(0.5), linalg.NewVector(2))
	targets := linalg.NewVector(0.1, 0.1)

	_, _, err := Evaluate(net, samples, targets, false)
	assert.ErrorIs(t, err, kan.ErrDomain)

	mse, skipped, err := Evaluate(net, samples, targets, true)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	want, err := net.LossSingle(samples[0], 0.1)
	require.NoError(t, err)
	assert.InDelta(t, want, mse, 1e-15)

	_, _, err = Evaluate(net, samples, linalg.NewVector(0.1), false)
	assert.ErrorIs(t, err, kan.ErrShapeMismatch)
}

func TestFit_ResetMemo(t *testing.T) {
	samples := linalg.NewMatrix(linalg.NewVector(0.2), linalg.NewVector(0.4), linalg.NewVector(0.6))
	targets := linalg.NewVector(0.3, 0.35, 0.4)

	kept := chain()
	a, err := New(Config{Epochs: 4, LR: 0.05}).Fit(context.Background(), kept, samples, targets)
	require.NoError(t, err)
	assert.Positive(t, kept.MemoSize())

	reset := chain()
	b, err := New(Config{Epochs: 4, LR: 0.05, ResetMemoEvery: 2}).Fit(context.Background(), reset, samples, targets)
	require.NoError(t, err)
	assert.Zero(t, reset.MemoSize())

	assert.Equal(t, a, b, "clearing the memo must not change training")
	for i, e := range kept.Arena.All() {
		assert.Equal(t, e.Spline.ControlPoints, reset.Arena.All()[i].Spline.ControlPoints)
	}
}
