package service

import (
	"fmt"
	"strings"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/port"
)

const (
	PolicyStatic  = "static"
	PolicyDynamic = "dynamic"
)

// NewRoutingPolicy builds a policy by name.
func NewRoutingPolicy(name string, thresholds OffloadThresholds) (port.RoutingPolicy, error) {
	switch name {
	case PolicyStatic:
		return StaticPriorityPolicy{}, nil
	case PolicyDynamic:
		return &DynamicOffloadPolicy{Thresholds: thresholds}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPolicy, name)
	}
}

// StaticPriorityPolicy pins HIGH priority tasks to the fog tier and sends
// everything else to the cloud. It never inspects node state.
type StaticPriorityPolicy struct{}

func (StaticPriorityPolicy) Name() string { return PolicyStatic }

func (StaticPriorityPolicy) Decide(task *domain.Task, _ domain.NodeSnapshot) (domain.OffloadDecision, string) {
	if task.Priority == domain.PriorityHigh {
		return domain.ProcessLocally, "HIGH priority processed at fog"
	}
	return domain.OffloadToCloud, fmt.Sprintf("%s priority routed to cloud", task.Priority)
}

// OffloadThresholds parameterizes the dynamic policy's triggers.
type OffloadThresholds struct {
	Complexity  float64 `mapstructure:"complexity"`   // work units
	Utilization float64 `mapstructure:"utilization"`  // fraction of slots in use
	Deadline    float64 `mapstructure:"deadline"`     // seconds of slack remaining
	QueueLength int     `mapstructure:"queue_length"` // queued tasks
}

// DefaultOffloadThresholds returns the stock trigger values.
func DefaultOffloadThresholds() OffloadThresholds {
	return OffloadThresholds{
		Complexity:  1000,
		Utilization: 0.8,
		Deadline:    5.0,
		QueueLength: 5,
	}
}

// DynamicOffloadPolicy offloads when any trigger fires: high complexity, high
// node utilization, tight deadline slack, or a long queue. The reason lists
// every trigger that fired.
type DynamicOffloadPolicy struct {
	Thresholds OffloadThresholds
}

func (*DynamicOffloadPolicy) Name() string { return PolicyDynamic }

func (p *DynamicOffloadPolicy) Decide(task *domain.Task, node domain.NodeSnapshot) (domain.OffloadDecision, string) {
	t := p.Thresholds
	var fired []string

	if task.Complexity > t.Complexity {
		fired = append(fired, fmt.Sprintf("High complexity (%.0f > %.0f)", task.Complexity, t.Complexity))
	}
	if node.Utilization > t.Utilization {
		fired = append(fired, fmt.Sprintf("High CPU utilization (%.0f%% > %.0f%%)", node.Utilization*100, t.Utilization*100))
	}
	if slack := task.Deadline - node.ObservedAt; slack < t.Deadline {
		fired = append(fired, fmt.Sprintf("Tight deadline (%.1fs remaining)", slack))
	}
	if node.QueueLength > t.QueueLength {
		fired = append(fired, fmt.Sprintf("Long queue (%d > %d)", node.QueueLength, t.QueueLength))
	}

	if len(fired) == 0 {
		return domain.ProcessLocally, "Process locally"
	}
	return domain.OffloadToCloud, strings.Join(fired, "; ")
}
