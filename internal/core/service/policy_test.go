package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

func policyTask(p domain.Priority, complexity, createdAt, deadline float64) *domain.Task {
	return domain.NewTask("T1", "DEVICE_1", p, complexity, 100, createdAt, deadline)
}

func idleNode(now float64) domain.NodeSnapshot {
	return domain.NodeSnapshot{
		ObservedAt:  now,
		NodeID:      "FOG_NODE_1",
		Type:        domain.NodeTypeFog,
		Status:      domain.NodeStatusOperational,
		Capacity:    4,
		Utilization: 0.1,
		QueueLength: 0,
	}
}

func TestStaticPolicyPinsHighToFog(t *testing.T) {
	p := StaticPriorityPolicy{}

	decision, _ := p.Decide(policyTask(domain.PriorityHigh, 1500, 0, 2), idleNode(0))
	assert.Equal(t, domain.ProcessLocally, decision)
}

func TestStaticPolicyRoutesModerateToCloudRegardlessOfLoad(t *testing.T) {
	p := StaticPriorityPolicy{}
	node := idleNode(0)
	node.Utilization = 0.0
	node.QueueLength = 0

	decision, reason := p.Decide(policyTask(domain.PriorityModerate, 50, 0, 100), node)
	assert.Equal(t, domain.OffloadToCloud, decision)
	assert.Contains(t, reason, "MODERATE")

	decision, _ = p.Decide(policyTask(domain.PriorityLow, 50, 0, 100), node)
	assert.Equal(t, domain.OffloadToCloud, decision)
}

func TestDynamicPolicyProcessesLocallyWhenNoTriggerFires(t *testing.T) {
	p := &DynamicOffloadPolicy{Thresholds: DefaultOffloadThresholds()}

	decision, reason := p.Decide(policyTask(domain.PriorityLow, 500, 0, 100), idleNode(0))
	assert.Equal(t, domain.ProcessLocally, decision)
	assert.Equal(t, "Process locally", reason)
}

func TestDynamicPolicyComplexityTrigger(t *testing.T) {
	p := &DynamicOffloadPolicy{Thresholds: DefaultOffloadThresholds()}

	// complexity above threshold, everything else comfortable
	decision, reason := p.Decide(policyTask(domain.PriorityLow, 1500, 0, 100), idleNode(0))
	require.Equal(t, domain.OffloadToCloud, decision)
	assert.Contains(t, reason, "complexity")
	assert.NotContains(t, reason, "utilization")
	assert.NotContains(t, reason, "deadline")
	assert.NotContains(t, reason, "queue")
}

func TestDynamicPolicyUtilizationTrigger(t *testing.T) {
	p := &DynamicOffloadPolicy{Thresholds: DefaultOffloadThresholds()}
	node := idleNode(0)
	node.Utilization = 0.9

	decision, reason := p.Decide(policyTask(domain.PriorityLow, 500, 0, 100), node)
	require.Equal(t, domain.OffloadToCloud, decision)
	assert.Contains(t, reason, "utilization")
}

func TestDynamicPolicyDeadlineTrigger(t *testing.T) {
	p := &DynamicOffloadPolicy{Thresholds: DefaultOffloadThresholds()}

	// 2 seconds of slack against a 5 second threshold
	decision, reason := p.Decide(policyTask(domain.PriorityLow, 500, 0, 12), idleNode(10))
	require.Equal(t, domain.OffloadToCloud, decision)
	assert.Contains(t, reason, "deadline")
}

func TestDynamicPolicyQueueTrigger(t *testing.T) {
	p := &DynamicOffloadPolicy{Thresholds: DefaultOffloadThresholds()}
	node := idleNode(0)
	node.QueueLength = 6

	decision, reason := p.Decide(policyTask(domain.PriorityLow, 500, 0, 100), node)
	require.Equal(t, domain.OffloadToCloud, decision)
	assert.Contains(t, reason, "queue")
}

func TestDynamicPolicyReasonListsEveryFiredTrigger(t *testing.T) {
	p := &DynamicOffloadPolicy{Thresholds: DefaultOffloadThresholds()}
	node := idleNode(0)
	node.Utilization = 0.95
	node.QueueLength = 10

	decision, reason := p.Decide(policyTask(domain.PriorityHigh, 1800, 0, 2), node)
	require.Equal(t, domain.OffloadToCloud, decision)

	for _, want := range []string{"complexity", "utilization", "deadline", "queue"} {
		assert.Contains(t, strings.ToLower(reason), want)
	}
}

func TestNewRoutingPolicy(t *testing.T) {
	p, err := NewRoutingPolicy(PolicyStatic, OffloadThresholds{})
	require.NoError(t, err)
	assert.Equal(t, PolicyStatic, p.Name())

	p, err = NewRoutingPolicy(PolicyDynamic, DefaultOffloadThresholds())
	require.NoError(t, err)
	assert.Equal(t, PolicyDynamic, p.Name())

	_, err = NewRoutingPolicy("round_robin", OffloadThresholds{})
	assert.ErrorIs(t, err, domain.ErrUnknownPolicy)
}
