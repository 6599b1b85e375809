package domain

import "math"

// Location is a 2D coordinate in the simulated area.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to another location.
func (l Location) DistanceTo(other Location) float64 {
	return math.Hypot(l.X-other.X, l.Y-other.Y)
}

type NodeType string

const (
	NodeTypeFog   NodeType = "fog"
	NodeTypeCloud NodeType = "cloud"
)

type NodeStatus string

const (
	NodeStatusOperational NodeStatus = "OPERATIONAL"
	NodeStatusFailed      NodeStatus = "FAILED"
)

// NodeSnapshot is a point-in-time, read-only view of a node handed to
// routing policies and external observers.
type NodeSnapshot struct {
	ObservedAt  float64    `json:"observed_at"`
	NodeID      string     `json:"node_id"`
	Type        NodeType   `json:"type"`
	Status      NodeStatus `json:"status"`
	Capacity    int        `json:"capacity"`
	ActiveTasks int        `json:"active_tasks"`
	QueueLength int        `json:"queue_length"`
	Utilization float64    `json:"utilization"`

	TasksProcessed int `json:"tasks_processed"`
	TasksOffloaded int `json:"tasks_offloaded"`
	TasksFailed    int `json:"tasks_failed"`
}

// NodeFailure records one failure/recovery cycle of a fog node.
type NodeFailure struct {
	NodeID       string  `json:"node_id"`
	FailureTime  float64 `json:"failure_time"`
	RecoveryTime float64 `json:"recovery_time"`
	Duration     float64 `json:"duration"`
}

// ResourceSample is a periodic utilization observation of one node.
type ResourceSample struct {
	Timestamp   float64  `json:"timestamp"`
	NodeID      string   `json:"node_id"`
	NodeType    NodeType `json:"node_type"`
	Utilization float64  `json:"utilization"`
	QueueLength int      `json:"queue_length"`
	Capacity    int      `json:"capacity"`
}
