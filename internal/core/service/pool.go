package service

import (
	"errors"
	"math"
	"sync"
)

// ErrPoolIdle is returned when releasing a slot that was never acquired.
var ErrPoolIdle = errors.New("resource pool: release without matching acquire")

// PoolSize derives the number of concurrent processing slots from a node's
// compute capacity in work units per second. A node always has at least one
// slot.
func PoolSize(capacityUnits float64) int {
	n := int(math.Floor(capacityUnits / 1000))
	if n < 1 {
		return 1
	}
	return n
}

// ResourcePool is a bounded set of processing slots. Acquire is non-blocking;
// the scheduler leaves work queued when no slot is free.
type ResourcePool struct {
	mu       sync.Mutex
	capacity int
	inUse    int
}

func NewResourcePool(capacity int) *ResourcePool {
	if capacity < 1 {
		capacity = 1
	}
	return &ResourcePool{capacity: capacity}
}

// TryAcquire claims a slot, reporting false when the pool is saturated.
func (p *ResourcePool) TryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse >= p.capacity {
		return false
	}
	p.inUse++
	return true
}

// Release returns a previously acquired slot.
func (p *ResourcePool) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse == 0 {
		return ErrPoolIdle
	}
	p.inUse--
	return nil
}

func (p *ResourcePool) Capacity() int {
	return p.capacity
}

func (p *ResourcePool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Utilization is the fraction of slots currently claimed, in [0, 1].
func (p *ResourcePool) Utilization() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.inUse) / float64(p.capacity)
}
