package domain

import "fmt"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusTimeout    TaskStatus = "TIMEOUT"
)

// Terminal reports whether the status is final. A task that reached a
// terminal status never changes status again.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusTimeout
}

type Priority string

const (
	PriorityHigh     Priority = "HIGH"
	PriorityModerate Priority = "MODERATE"
	PriorityLow      Priority = "LOW"
)

// Weight maps priority classes to scheduling weights. Higher runs first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityModerate:
		return 2
	default:
		return 1
	}
}

type OffloadDecision string

const (
	ProcessLocally OffloadDecision = "PROCESS_LOCALLY"
	OffloadToCloud OffloadDecision = "OFFLOAD_TO_CLOUD"
)

// Unset marks a timestamp that has not been recorded yet.
const Unset = -1.0

// Task is a unit of generated IoT work moving through the simulation.
// Timestamps are simulated seconds since the start of the run.
type Task struct {
	ID           string   `json:"id"`
	SourceDevice string   `json:"source_device"`
	Priority     Priority `json:"priority"`
	Complexity   float64  `json:"complexity"` // work units
	DataSize     float64  `json:"data_size"`  // MB
	CreatedAt    float64  `json:"created_at"`
	Deadline     float64  `json:"deadline"` // absolute

	Status         TaskStatus      `json:"status"`
	Decision       OffloadDecision `json:"decision,omitempty"`
	DecisionReason string          `json:"decision_reason,omitempty"`
	ProcessedBy    string          `json:"processed_by,omitempty"`
	NetworkLatency float64         `json:"network_latency"`

	ArrivedAt  float64 `json:"arrived_at"`
	StartedAt  float64 `json:"started_at"`
	FinishedAt float64 `json:"finished_at"`
}

// NewTask creates a pending task.
func NewTask(id, device string, priority Priority, complexity, dataSize, createdAt, deadline float64) *Task {
	return &Task{
		ID:           id,
		SourceDevice: device,
		Priority:     priority,
		Complexity:   complexity,
		DataSize:     dataSize,
		CreatedAt:    createdAt,
		Deadline:     deadline,
		Status:       TaskStatusPending,
		ArrivedAt:    Unset,
		StartedAt:    Unset,
		FinishedAt:   Unset,
	}
}

// ProcessingTime returns the closed-form execution duration in seconds on a
// node with the given capacity in work units per second.
func (t *Task) ProcessingTime(capacityUnitsPerSec float64) float64 {
	if capacityUnitsPerSec <= 0 {
		return 0
	}
	return t.Complexity / capacityUnitsPerSec
}

// Overdue reports whether the deadline has already elapsed at now.
func (t *Task) Overdue(now float64) bool {
	return now > t.Deadline
}

func (t *Task) transition(to TaskStatus) error {
	if t.Status.Terminal() {
		return fmt.Errorf("task %s: transition %s -> %s: %w", t.ID, t.Status, to, ErrTaskTerminal)
	}
	t.Status = to
	return nil
}

// MarkProcessing moves the task into PROCESSING and records the start time.
func (t *Task) MarkProcessing(now float64) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("task %s: cannot start processing from %s", t.ID, t.Status)
	}
	if err := t.transition(TaskStatusProcessing); err != nil {
		return err
	}
	t.StartedAt = now
	return nil
}

// MarkCompleted finalizes a successfully processed task.
func (t *Task) MarkCompleted(now float64) error {
	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("task %s: cannot complete from %s", t.ID, t.Status)
	}
	if err := t.transition(TaskStatusCompleted); err != nil {
		return err
	}
	t.FinishedAt = now
	return nil
}

// MarkFailed finalizes a task that hit an execution fault.
func (t *Task) MarkFailed(now float64) error {
	if err := t.transition(TaskStatusFailed); err != nil {
		return err
	}
	t.FinishedAt = now
	return nil
}

// MarkTimeout finalizes a task whose deadline elapsed before dispatch.
func (t *Task) MarkTimeout(now float64) error {
	if err := t.transition(TaskStatusTimeout); err != nil {
		return err
	}
	t.FinishedAt = now
	return nil
}

// ResponseTime is completion minus creation. ok is false until the task
// finished.
func (t *Task) ResponseTime() (float64, bool) {
	if t.FinishedAt == Unset {
		return 0, false
	}
	return t.FinishedAt - t.CreatedAt, true
}

// ProcessingDelay is completion minus processing start, i.e. time spent
// actually executing.
func (t *Task) ProcessingDelay() (float64, bool) {
	if t.FinishedAt == Unset || t.StartedAt == Unset {
		return 0, false
	}
	return t.FinishedAt - t.StartedAt, true
}
