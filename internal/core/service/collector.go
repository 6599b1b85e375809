package service

import (
	"sync"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// Collector accumulates the append-only lifecycle log and periodic resource
// samples, and derives run summaries from them. It keeps a separate consuming
// buffer so external feeds see each event exactly once.
type Collector struct {
	mu        sync.Mutex
	events    []domain.TaskEvent
	undrained []domain.TaskEvent
	samples   []domain.ResourceSample
}

func NewCollector() *Collector {
	return &Collector{}
}

// Reset clears all recorded state for a fresh run.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
	c.undrained = nil
	c.samples = nil
}

func (c *Collector) RecordEvent(e domain.TaskEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	c.undrained = append(c.undrained, e)
}

func (c *Collector) RecordSample(s domain.ResourceSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
}

// DrainEvents returns events recorded since the previous drain. The call
// consumes them; a second drain returns only newer events.
func (c *Collector) DrainEvents() []domain.TaskEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.undrained
	c.undrained = nil
	return out
}

// Events returns a copy of the full lifecycle log.
func (c *Collector) Events() []domain.TaskEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.TaskEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Samples returns a copy of all resource samples.
func (c *Collector) Samples() []domain.ResourceSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ResourceSample, len(c.samples))
	copy(out, c.samples)
	return out
}

// TaskTimeline returns the events of one task in recording order.
func (c *Collector) TaskTimeline(taskID string) []domain.TaskEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.TaskEvent
	for _, e := range c.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

type taskTimes struct {
	created float64
	arrived float64
	decided float64
	started float64
	ended   float64

	hasCreated bool
	hasArrived bool
	hasDecided bool
	hasStarted bool
	hasEnded   bool
}

// Summary aggregates the log. Each mean skips tasks missing either endpoint
// of its interval, so partially processed tasks never skew the averages.
func (c *Collector) Summary() domain.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	times := make(map[string]*taskTimes)
	get := func(id string) *taskTimes {
		tt, ok := times[id]
		if !ok {
			tt = &taskTimes{}
			times[id] = tt
		}
		return tt
	}

	s := domain.Summary{
		TotalEvents:     len(c.events),
		ResourceSamples: len(c.samples),
	}
	decisions, offloads := 0, 0

	for _, e := range c.events {
		switch e.Type {
		case domain.EventTaskCreated:
			tt := get(e.TaskID)
			tt.created, tt.hasCreated = e.Timestamp, true
			s.TotalTasks++
		case domain.EventArrivalAtNode:
			tt := get(e.TaskID)
			// first arrival only; cloud transfers re-arrive
			if !tt.hasArrived {
				tt.arrived, tt.hasArrived = e.Timestamp, true
			}
		case domain.EventDecision:
			tt := get(e.TaskID)
			if !tt.hasDecided {
				tt.decided, tt.hasDecided = e.Timestamp, true
			}
			decisions++
			if e.Decision == domain.OffloadToCloud {
				offloads++
			}
		case domain.EventProcessingStart:
			tt := get(e.TaskID)
			tt.started, tt.hasStarted = e.Timestamp, true
		case domain.EventProcessingEnd:
			tt := get(e.TaskID)
			tt.ended, tt.hasEnded = e.Timestamp, true
			s.Completed++
		case domain.EventTaskFailed:
			s.Failed++
		case domain.EventTaskTimeout:
			s.TimedOut++
		}
	}

	var respSum, procSum, decSum float64
	var respN, procN, decN int
	for _, tt := range times {
		if tt.hasCreated && tt.hasEnded {
			respSum += tt.ended - tt.created
			respN++
		}
		if tt.hasStarted && tt.hasEnded {
			procSum += tt.ended - tt.started
			procN++
		}
		if tt.hasArrived && tt.hasDecided {
			decSum += tt.decided - tt.arrived
			decN++
		}
	}
	if respN > 0 {
		s.MeanResponseTime = respSum / float64(respN)
	}
	if procN > 0 {
		s.MeanProcessingTime = procSum / float64(procN)
	}
	if decN > 0 {
		s.MeanDecisionTime = decSum / float64(decN)
	}
	if decisions > 0 {
		s.OffloadingRate = float64(offloads) / float64(decisions)
	}
	return s
}
