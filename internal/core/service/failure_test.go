package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

func TestFailureControllerDisabled(t *testing.T) {
	f := NewFailureController(0, Range{Min: 5, Max: 15}, rand.New(rand.NewSource(1)))
	f.Reset(0)

	nodes := []*FogNode{NewFogNode("FOG_NODE_1", domain.Location{}, 2000)}
	res := f.Tick(1000, nodes)

	assert.Empty(t, res.Failures)
	assert.Empty(t, f.History())
	assert.True(t, nodes[0].Operational())
}

func TestFailureControllerInjectsAndDrops(t *testing.T) {
	f := NewFailureController(1.0, Range{Min: 1000, Max: 1000}, rand.New(rand.NewSource(1)))
	f.Reset(0)

	node := NewFogNode("FOG_NODE_1", domain.Location{}, 2000)
	require.NoError(t, node.Receive(domain.NewTask("T1", "D", domain.PriorityLow, 100, 100, 0, 500), 1))
	require.NoError(t, node.Receive(domain.NewTask("T2", "D", domain.PriorityHigh, 100, 100, 0, 500), 1))

	res := f.Tick(100, []*FogNode{node})

	// the single node fails once; later draws find nothing operational
	require.Len(t, res.Failures, 1)
	assert.Len(t, res.Dropped, 2)
	assert.False(t, node.Operational())
	assert.Equal(t, 0, node.Queue().Len())
	assert.Len(t, f.History(), 1)

	failure := res.Failures[0]
	assert.Equal(t, "FOG_NODE_1", failure.NodeID)
	assert.Equal(t, 1000.0, failure.Duration)
	assert.Equal(t, failure.FailureTime+1000, failure.RecoveryTime)
	assert.Empty(t, res.Recovered)
}

func TestFailureControllerRecovers(t *testing.T) {
	f := NewFailureController(1.0, Range{Min: 1000, Max: 1000}, rand.New(rand.NewSource(1)))
	f.Reset(0)

	node := NewFogNode("FOG_NODE_1", domain.Location{}, 2000)
	first := f.Tick(100, []*FogNode{node})
	require.Len(t, first.Failures, 1)
	require.False(t, node.Operational())

	res := f.Tick(first.Failures[0].RecoveryTime+1, []*FogNode{node})
	require.Len(t, res.Recovered, 1)
	assert.True(t, node.Operational())
}
