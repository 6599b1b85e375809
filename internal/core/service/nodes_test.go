package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

func TestFogNodeReceiveAndSnapshot(t *testing.T) {
	n := NewFogNode("FOG_NODE_1", domain.Location{X: 10, Y: 10}, 3000)

	task := domain.NewTask("T1", "DEVICE_1", domain.PriorityHigh, 500, 100, 0, 10)
	require.NoError(t, n.Receive(task, 1.5))
	assert.Equal(t, 1.5, task.ArrivedAt)

	snap := n.Snapshot(2.0)
	assert.Equal(t, 2.0, snap.ObservedAt)
	assert.Equal(t, domain.NodeStatusOperational, snap.Status)
	assert.Equal(t, 3, snap.Capacity)
	assert.Equal(t, 1, snap.QueueLength)
	assert.Equal(t, 0.0, snap.Utilization)
}

func TestFogNodeFailureDropsQueueAndRejectsArrivals(t *testing.T) {
	n := NewFogNode("FOG_NODE_1", domain.Location{}, 2000)
	require.NoError(t, n.Receive(domain.NewTask("T1", "D", domain.PriorityLow, 100, 100, 0, 10), 1))
	require.NoError(t, n.Receive(domain.NewTask("T2", "D", domain.PriorityLow, 100, 100, 0, 10), 1))

	dropped := n.Fail(5.0, 10.0)
	assert.Len(t, dropped, 2)
	assert.Equal(t, 0, n.Queue().Len())
	assert.False(t, n.Operational())

	err := n.Receive(domain.NewTask("T3", "D", domain.PriorityLow, 100, 100, 0, 10), 6)
	assert.ErrorIs(t, err, domain.ErrNodeDown)

	require.Len(t, n.Failures(), 1)
	f := n.Failures()[0]
	assert.Equal(t, 5.0, f.FailureTime)
	assert.Equal(t, 15.0, f.RecoveryTime)
	assert.Equal(t, 10.0, f.Duration)
}

func TestFogNodeRecovery(t *testing.T) {
	n := NewFogNode("FOG_NODE_1", domain.Location{}, 2000)
	n.Fail(5.0, 10.0)

	assert.False(t, n.RecoveryDue(14.9))
	assert.True(t, n.RecoveryDue(15.0))

	n.Recover()
	assert.True(t, n.Operational())
	assert.NoError(t, n.Receive(domain.NewTask("T1", "D", domain.PriorityLow, 100, 100, 0, 30), 16))
}

func TestCloudServerNeverRejects(t *testing.T) {
	c := NewCloudServer("CLOUD_SERVER", domain.Location{X: 50, Y: 50}, 20000)

	require.NoError(t, c.Receive(domain.NewTask("T1", "D", domain.PriorityLow, 100, 100, 0, 10), 2))
	snap := c.Snapshot(3)
	assert.Equal(t, domain.NodeTypeCloud, snap.Type)
	assert.Equal(t, 20, snap.Capacity)
	assert.Equal(t, 1, snap.QueueLength)
}
