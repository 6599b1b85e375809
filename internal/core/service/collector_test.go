package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

func recordLifecycle(c *Collector, taskID string, created, arrived, decided, started, ended float64) {
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: taskID, Timestamp: created})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventArrivalAtNode, TaskID: taskID, Timestamp: arrived})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventDecision, TaskID: taskID, Timestamp: decided, Decision: domain.ProcessLocally})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventProcessingStart, TaskID: taskID, Timestamp: started})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventProcessingEnd, TaskID: taskID, Timestamp: ended})
}

func TestDrainEventsIsConsuming(t *testing.T) {
	c := NewCollector()
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: "T1"})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventArrivalAtNode, TaskID: "T1"})

	first := c.DrainEvents()
	require.Len(t, first, 2)

	assert.Empty(t, c.DrainEvents())

	c.RecordEvent(domain.TaskEvent{Type: domain.EventDecision, TaskID: "T1"})
	second := c.DrainEvents()
	require.Len(t, second, 1)
	assert.Equal(t, domain.EventDecision, second[0].Type)

	// the full log is unaffected by draining
	assert.Len(t, c.Events(), 3)
}

func TestTaskTimelineOrder(t *testing.T) {
	c := NewCollector()
	recordLifecycle(c, "T1", 0, 1, 1.5, 2, 3)
	recordLifecycle(c, "T2", 0.5, 1.2, 1.6, 2.5, 4)

	timeline := c.TaskTimeline("T1")
	require.Len(t, timeline, 5)
	assert.Equal(t, domain.EventTaskCreated, timeline[0].Type)
	assert.Equal(t, domain.EventProcessingEnd, timeline[4].Type)
	for _, e := range timeline {
		assert.Equal(t, "T1", e.TaskID)
	}
}

func TestSummaryMeans(t *testing.T) {
	c := NewCollector()
	// response 3.0, processing 1.0, decision 0.5
	recordLifecycle(c, "T1", 0, 1, 1.5, 2, 3)
	// response 1.0, processing 0.5, decision 0.1
	recordLifecycle(c, "T2", 1, 1.2, 1.3, 1.5, 2)

	s := c.Summary()
	assert.Equal(t, 2, s.TotalTasks)
	assert.Equal(t, 2, s.Completed)
	assert.InDelta(t, 2.0, s.MeanResponseTime, 1e-9)
	assert.InDelta(t, 0.75, s.MeanProcessingTime, 1e-9)
	assert.InDelta(t, 0.3, s.MeanDecisionTime, 1e-9)
}

func TestSummarySkipsIncompleteTasks(t *testing.T) {
	c := NewCollector()
	recordLifecycle(c, "T1", 0, 1, 1.5, 2, 3)
	// T2 never finished
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: "T2", Timestamp: 0})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventProcessingStart, TaskID: "T2", Timestamp: 5})

	s := c.Summary()
	assert.Equal(t, 2, s.TotalTasks)
	assert.Equal(t, 1, s.Completed)
	assert.InDelta(t, 3.0, s.MeanResponseTime, 1e-9)
	assert.InDelta(t, 1.0, s.MeanProcessingTime, 1e-9)
}

func TestSummaryCountsAndOffloadingRate(t *testing.T) {
	c := NewCollector()
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: "T1"})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventDecision, TaskID: "T1", Decision: domain.OffloadToCloud})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: "T2"})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventDecision, TaskID: "T2", Decision: domain.ProcessLocally})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskTimeout, TaskID: "T1"})
	c.RecordEvent(domain.TaskEvent{Type: domain.EventTaskFailed, TaskID: "T2"})

	s := c.Summary()
	assert.Equal(t, 1, s.TimedOut)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 0.5, s.OffloadingRate, 1e-9)
	assert.Equal(t, 6, s.TotalEvents)
}

func TestSummaryOnEmptyCollector(t *testing.T) {
	c := NewCollector()
	s := c.Summary()
	assert.Zero(t, s.TotalTasks)
	assert.Zero(t, s.MeanResponseTime)
	assert.Zero(t, s.OffloadingRate)
}
