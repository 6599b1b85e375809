package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// testConfig pins every sampled range so scenarios are reproducible.
func testConfig() SimulationConfig {
	cfg := DefaultSimulationConfig()
	cfg.Seed = 7
	cfg.NumFogNodes = 1
	cfg.NumDevices = 1
	cfg.FogCapacity = Range{Min: 2000, Max: 2000}
	cfg.CloudCapacity = 20000
	cfg.HighFraction = 1
	cfg.ModerateFraction = 0
	cfg.GenerationRate = Range{Min: 0.1, Max: 0.1}
	cfg.Complexity = Range{Min: 500, Max: 500}
	cfg.DataSize = Range{Min: 100, Max: 100}
	cfg.Deadline = Range{Min: 100, Max: 100}
	cfg.FailureRate = 0
	return cfg
}

func newTestSimulator(t *testing.T, cfg SimulationConfig) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNewSimulatorRejectsBadConfig(t *testing.T) {
	bad := testConfig()
	bad.NumDevices = 0
	_, err := NewSimulator(bad, zap.NewNop())
	assert.Error(t, err)

	bad = testConfig()
	bad.Policy = "round_robin"
	_, err = NewSimulator(bad, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrUnknownPolicy)

	bad = testConfig()
	bad.NumFogNodes = 0
	_, err = NewSimulator(bad, zap.NewNop())
	assert.Error(t, err)
}

func TestStartStopMisuse(t *testing.T) {
	s := newTestSimulator(t, testConfig())

	assert.ErrorIs(t, s.Stop(), domain.ErrNotRunning)
	assert.Error(t, s.Start(context.Background(), 0))

	require.NoError(t, s.Start(context.Background(), 1000))
	assert.ErrorIs(t, s.Start(context.Background(), 10), domain.ErrAlreadyRunning)
	assert.ErrorIs(t, s.Configure(testConfig()), domain.ErrRunning)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), domain.ErrNotRunning)

	// reconfiguration is allowed again once stopped
	assert.NoError(t, s.Configure(testConfig()))
}

func TestRunLoopFinishes(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = time.Millisecond
	s := newTestSimulator(t, cfg)

	// 1ms of wall time covers the whole simulated window
	require.NoError(t, s.Start(context.Background(), 0.001))
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not finish")
	}
	assert.False(t, s.Status().Running)
}

func TestSubmitTaskUnknownDevice(t *testing.T) {
	s := newTestSimulator(t, testConfig())
	_, err := s.SubmitTask("DEVICE_99")
	assert.ErrorIs(t, err, domain.ErrUnknownDevice)
}

func TestHighPriorityTaskCompletesOnFog(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = PolicyStatic
	s := newTestSimulator(t, cfg)

	id, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)
	assert.Equal(t, "DEVICE_1_TASK_001", id)

	s.mu.Lock()
	s.step(2)
	s.step(3)
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, domain.ProcessLocally, task.Decision)
	assert.Equal(t, "FOG_NODE_1", task.ProcessedBy)
	// 500 units on a 2000 units/s node
	assert.InDelta(t, 2.25, task.FinishedAt, 1e-9)

	resp, ok := task.ResponseTime()
	require.True(t, ok)
	proc, ok := task.ProcessingDelay()
	require.True(t, ok)
	assert.GreaterOrEqual(t, resp, proc)
	assert.InDelta(t, 0.25, proc, 1e-9)

	status := s.Status()
	assert.Equal(t, 1, status.TasksGenerated)
	assert.Equal(t, 1, status.PriorityCounts[domain.PriorityHigh])
	require.Len(t, status.Devices, 1)
	assert.Equal(t, 1, status.Devices[0].Generated)
	assert.Equal(t, 1, status.Devices[0].Sent)
	assert.Equal(t, 0, status.Devices[0].Failed)
}

func TestStaticPolicySendsModerateToCloud(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = PolicyStatic
	cfg.HighFraction = 0
	cfg.ModerateFraction = 1
	s := newTestSimulator(t, cfg)

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(10)
	s.step(20)
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, domain.OffloadToCloud, task.Decision)
	assert.Equal(t, "CLOUD_SERVER", task.ProcessedBy)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	// cloud transfers pay the fixed base latency
	assert.GreaterOrEqual(t, task.NetworkLatency, cfg.CloudLatencyBase)
}

func TestDynamicPolicyOffloadsComplexTaskFromFog(t *testing.T) {
	cfg := testConfig()
	cfg.Complexity = Range{Min: 1500, Max: 1500}
	s := newTestSimulator(t, cfg)

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(2)  // deliver to fog, decide, hand off to cloud
	s.step(10) // deliver to cloud, start
	s.step(20) // finish
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, domain.OffloadToCloud, task.Decision)
	assert.Contains(t, task.DecisionReason, "complexity")
	assert.Equal(t, "CLOUD_SERVER", task.ProcessedBy)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)

	status := s.Status()
	for _, n := range status.Nodes {
		if n.NodeID == "FOG_NODE_1" {
			assert.Equal(t, 1, n.TasksOffloaded)
		}
	}
}

func TestOverdueTaskTimesOutAtDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.Deadline = Range{Min: 1, Max: 1}
	s := newTestSimulator(t, cfg)

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(5)
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, domain.TaskStatusTimeout, task.Status)
	assert.Equal(t, 1, s.Summary().TimedOut)
}

func TestDeliveryToFailedNodeFailsTask(t *testing.T) {
	s := newTestSimulator(t, testConfig())

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.fogNodes[0].Fail(0, 100)
	s.step(5)
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, domain.TaskStatusFailed, task.Status)
	assert.Equal(t, 1, s.devices["DEVICE_1"].Failed())
}

func TestFallbackToCloudWhenFogIsDown(t *testing.T) {
	s := newTestSimulator(t, testConfig())

	s.mu.Lock()
	s.fogNodes[0].Fail(0, 100)
	s.mu.Unlock()

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(10)
	s.step(20)
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, "CLOUD_SERVER", task.ProcessedBy)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
}

func TestCloudOnlyMode(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeCloudOnly
	cfg.NumFogNodes = 0
	s := newTestSimulator(t, cfg)

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(10)
	s.step(20)
	s.mu.Unlock()

	task := s.tasks[0]
	assert.Equal(t, "CLOUD_SERVER", task.ProcessedBy)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)

	status := s.Status()
	require.Len(t, status.Nodes, 1)
	assert.Equal(t, domain.NodeTypeCloud, status.Nodes[0].Type)
}

func TestLifecycleEventSequence(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = PolicyStatic
	s := newTestSimulator(t, cfg)

	id, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(2)
	s.step(3)
	s.mu.Unlock()

	timeline := s.collector.TaskTimeline(id)
	var types []domain.EventType
	for _, e := range timeline {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventTaskCreated,
		domain.EventDecision,
		domain.EventArrivalAtNode,
		domain.EventProcessingStart,
		domain.EventProcessingEnd,
	}, types)

	drained := s.DrainEvents()
	assert.NotEmpty(t, drained)
	assert.Empty(t, s.DrainEvents())
}

func TestResultCarriesRunData(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = PolicyStatic
	s := newTestSimulator(t, cfg)

	_, err := s.SubmitTask("DEVICE_1")
	require.NoError(t, err)

	s.mu.Lock()
	s.step(2)
	s.step(3)
	s.mu.Unlock()

	result := s.Result()
	assert.Equal(t, PolicyStatic, result.PolicyName)
	assert.Len(t, result.Tasks, 1)
	assert.NotEmpty(t, result.Events)
	assert.Equal(t, 1, result.Summary.Completed)
}
