package service

import (
	"fmt"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// computeNode is the minimal capability shared by fog nodes and the cloud
// that in-flight bookkeeping needs.
type computeNode interface {
	ID() string
	Type() domain.NodeType
	Location() domain.Location
	CapacityUnits() float64
	Pool() *ResourcePool
	Receive(t *domain.Task, now float64) error
	completeTask(procTime float64)
	Snapshot(now float64) domain.NodeSnapshot
}

// FogNode is a capacity-limited edge node with a priority queue. All methods
// run inside the engine's lock; nodes carry no locking of their own beyond
// the resource pool's.
type FogNode struct {
	id            string
	location      domain.Location
	capacityUnits float64
	pool          *ResourcePool
	queue         *FogQueue
	status        domain.NodeStatus

	processed int
	offloaded int
	failed    int
	busyTime  float64

	current  *domain.NodeFailure
	failures []domain.NodeFailure
}

func NewFogNode(id string, loc domain.Location, capacityUnits float64) *FogNode {
	return &FogNode{
		id:            id,
		location:      loc,
		capacityUnits: capacityUnits,
		pool:          NewResourcePool(PoolSize(capacityUnits)),
		queue:         NewFogQueue(),
		status:        domain.NodeStatusOperational,
	}
}

func (n *FogNode) ID() string                     { return n.id }
func (n *FogNode) Type() domain.NodeType          { return domain.NodeTypeFog }
func (n *FogNode) Location() domain.Location      { return n.location }
func (n *FogNode) CapacityUnits() float64         { return n.capacityUnits }
func (n *FogNode) Pool() *ResourcePool            { return n.pool }
func (n *FogNode) Queue() *FogQueue               { return n.queue }
func (n *FogNode) Status() domain.NodeStatus      { return n.status }
func (n *FogNode) Operational() bool              { return n.status == domain.NodeStatusOperational }
func (n *FogNode) Failures() []domain.NodeFailure { return n.failures }

// Receive admits a task into the node's queue. A failed node rejects it.
func (n *FogNode) Receive(t *domain.Task, now float64) error {
	if !n.Operational() {
		return fmt.Errorf("node %s: %w", n.id, domain.ErrNodeDown)
	}
	t.ArrivedAt = now
	n.queue.Push(t)
	return nil
}

// Fail takes the node down for the given duration and drops all queued
// tasks. Dropped tasks are lost, not resubmitted.
func (n *FogNode) Fail(now, duration float64) []*domain.Task {
	n.status = domain.NodeStatusFailed
	f := domain.NodeFailure{
		NodeID:       n.id,
		FailureTime:  now,
		RecoveryTime: now + duration,
		Duration:     duration,
	}
	n.current = &f
	n.failures = append(n.failures, f)
	return n.queue.Clear()
}

// Recover brings a failed node back into service.
func (n *FogNode) Recover() {
	n.status = domain.NodeStatusOperational
	n.current = nil
}

// RecoveryDue reports whether a pending recovery has come due at now.
func (n *FogNode) RecoveryDue(now float64) bool {
	return n.current != nil && now >= n.current.RecoveryTime
}

func (n *FogNode) markOffloaded() { n.offloaded++ }
func (n *FogNode) markDropped()   { n.failed++ }

func (n *FogNode) completeTask(procTime float64) {
	n.processed++
	n.busyTime += procTime
}

func (n *FogNode) Snapshot(now float64) domain.NodeSnapshot {
	return domain.NodeSnapshot{
		ObservedAt:     now,
		NodeID:         n.id,
		Type:           domain.NodeTypeFog,
		Status:         n.status,
		Capacity:       n.pool.Capacity(),
		ActiveTasks:    n.pool.InUse(),
		QueueLength:    n.queue.Len(),
		Utilization:    n.pool.Utilization(),
		TasksProcessed: n.processed,
		TasksOffloaded: n.offloaded,
		TasksFailed:    n.failed,
	}
}

// CloudServer is the unconstrained-latency tier. It serves tasks in arrival
// order from a plain FIFO queue and never fails.
type CloudServer struct {
	id            string
	location      domain.Location
	capacityUnits float64
	pool          *ResourcePool
	queue         *FIFOQueue

	processed int
	failed    int
	busyTime  float64
}

func NewCloudServer(id string, loc domain.Location, capacityUnits float64) *CloudServer {
	return &CloudServer{
		id:            id,
		location:      loc,
		capacityUnits: capacityUnits,
		pool:          NewResourcePool(PoolSize(capacityUnits)),
		queue:         NewFIFOQueue(),
	}
}

func (c *CloudServer) ID() string                { return c.id }
func (c *CloudServer) Type() domain.NodeType     { return domain.NodeTypeCloud }
func (c *CloudServer) Location() domain.Location { return c.location }
func (c *CloudServer) CapacityUnits() float64    { return c.capacityUnits }
func (c *CloudServer) Pool() *ResourcePool       { return c.pool }
func (c *CloudServer) Queue() *FIFOQueue         { return c.queue }

func (c *CloudServer) Receive(t *domain.Task, now float64) error {
	t.ArrivedAt = now
	c.queue.Push(t)
	return nil
}

func (c *CloudServer) completeTask(procTime float64) {
	c.processed++
	c.busyTime += procTime
}

func (c *CloudServer) Snapshot(now float64) domain.NodeSnapshot {
	return domain.NodeSnapshot{
		ObservedAt:     now,
		NodeID:         c.id,
		Type:           domain.NodeTypeCloud,
		Status:         domain.NodeStatusOperational,
		Capacity:       c.pool.Capacity(),
		ActiveTasks:    c.pool.InUse(),
		QueueLength:    c.queue.Len(),
		Utilization:    c.pool.Utilization(),
		TasksProcessed: c.processed,
		TasksFailed:    c.failed,
	}
}
