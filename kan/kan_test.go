// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package kan_test

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kan/internal/linalg"
	"github.com/born-ml/kan/kan"
)

func TestPublicAPI_TrainSaveLoad(t *testing.T) {
	net := kan.StandardWithRand(1, 3, rand.New(rand.NewSource(4)))
	x := linalg.NewVector(0.3)

	first, err := net.Train(x, 0.2, 0.05)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err = net.Train(x, 0.2, 0.05)
		require.NoError(t, err)
	}
	last, err := net.LossSingle(x, 0.2)
	require.NoError(t, err)
	assert.Less(t, last, first)

	path := filepath.Join(t.TempDir(), "net.kan")
	_, err = kan.Save(path, net, kan.CheckpointMeta{RunID: "public"})
	require.NoError(t, err)
	loaded, hdr, err := kan.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "public", hdr.RunID)

	want, err := net.Predict(x)
	require.NoError(t, err)
	got, err := loaded.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPublicAPI_ManualGraph(t *testing.T) {
	arena := kan.NewArena()
	in := arena.Add(kan.NewEdge(0, 0, 0, kan.NewBSpline(linalg.NewVector(0.1, 0.1, 0.1), 1)))
	sink := arena.Add(kan.NewEdge(0, 0, 1, kan.NewBSpline(linalg.NewVector(0, 0, 0), 1)))
	node := kan.NewNode(arena, []kan.EdgeID{in}, []kan.EdgeID{sink}, 0)
	net := kan.NewNetwork(arena, kan.NewLayer(node))

	y, err := net.Predict(linalg.NewVector(0.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.1+kan.SiLU(0.5), y, 1e-12)

	_, err = net.Predict(linalg.NewVector(1.5))
	assert.ErrorIs(t, err, kan.ErrDomain)
	var domainErr *kan.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, 1.5, domainErr.T)

	_, err = net.Train(linalg.NewVector(0.5), 0.1, 0)
	assert.ErrorIs(t, err, kan.ErrInvalidLearningRate)
}

func TestCheckEdgeGradient(t *testing.T) {
	e := kan.NewEdge(0, 0, 0, kan.NewBSpline(linalg.NewVector(0.2, 0.4, 0.1, 0.3), 2))
	diff, err := kan.CheckEdgeGradient(e, 0.45, 1.5)
	require.NoError(t, err)
	assert.Less(t, diff, 1e-6)
}
