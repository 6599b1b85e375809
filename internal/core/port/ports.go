// Package port provides behavior interfaces that connect the simulation core
// to its adapters (event feeds, state stores, metrics backends).
package port

import (
	"context"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// RoutingPolicy decides whether a task is processed on the fog node described
// by the snapshot or offloaded to the cloud. Implementations must be pure
// functions of the task and the snapshot.
type RoutingPolicy interface {
	Name() string
	Decide(task *domain.Task, node domain.NodeSnapshot) (domain.OffloadDecision, string)
}

// EventSink receives lifecycle events for external consumers (RabbitMQ).
type EventSink interface {
	PublishEvent(ctx context.Context, event domain.TaskEvent) error
}

// StatePublisher exposes live per-node state to external observers (Redis).
type StatePublisher interface {
	PublishNodeState(ctx context.Context, snapshot domain.NodeSnapshot) error
}

// ResultRepository persists a finished run (Postgres).
type ResultRepository interface {
	SaveRun(ctx context.Context, run *domain.RunResult) error
}

// MetricsRecorder updates operational metrics as the run progresses
// (Prometheus).
type MetricsRecorder interface {
	TaskGenerated(priority domain.Priority)
	TaskCompleted(nodeType domain.NodeType, responseSeconds float64)
	TaskTimedOut()
	TaskFailed()
	TaskOffloaded()
	ObserveNode(snapshot domain.NodeSnapshot)
}
