package domain

import "time"

// Summary aggregates a run's lifecycle log. Mean values are computed only
// over tasks that have both endpoints of the relevant interval recorded.
type Summary struct {
	TotalEvents int `json:"total_events"`
	TotalTasks  int `json:"total_tasks"`

	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`

	MeanResponseTime   float64 `json:"mean_response_time"`
	MeanProcessingTime float64 `json:"mean_processing_time"`
	MeanDecisionTime   float64 `json:"mean_decision_time"`

	OffloadingRate  float64 `json:"offloading_rate"`
	ResourceSamples int     `json:"resource_samples"`
}

// RunResult is the persistable outcome of one simulation run.
type RunResult struct {
	StartedAt  time.Time        `json:"started_at"`
	Duration   float64          `json:"duration"` // simulated seconds
	PolicyName string           `json:"policy_name"`
	Summary    Summary          `json:"summary"`
	Tasks      []*Task          `json:"tasks"`
	Events     []TaskEvent      `json:"events"`
	Samples    []ResourceSample `json:"samples"`
	Failures   []NodeFailure    `json:"failures"`
}
