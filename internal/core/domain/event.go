package domain

type EventType string

// Lifecycle event types recorded for every task, plus node failure events.
const (
	EventTaskCreated     EventType = "task_created"
	EventArrivalAtNode   EventType = "arrival_at_node"
	EventDecision        EventType = "decision"
	EventProcessingStart EventType = "processing_start"
	EventProcessingEnd   EventType = "processing_end"
	EventTaskTimeout     EventType = "task_timeout"
	EventTaskFailed      EventType = "task_failed"
	EventNodeFailure     EventType = "node_failure"
	EventNodeRecovery    EventType = "node_recovery"
)

// TaskEvent is one append-only entry in the lifecycle log.
type TaskEvent struct {
	Type      EventType `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	NodeID    string    `json:"node_id,omitempty"`
	Timestamp float64   `json:"timestamp"`

	Priority   Priority        `json:"priority,omitempty"`
	Complexity float64         `json:"complexity,omitempty"`
	Decision   OffloadDecision `json:"decision,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}
