package service

import (
	"container/heap"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// FogQueue orders pending tasks by priority weight (descending), then arrival
// time, then complexity. Ties beyond that keep insertion order.
type FogQueue struct {
	h fogHeap
}

func NewFogQueue() *FogQueue {
	return &FogQueue{}
}

// Push enqueues a task. The task's ArrivedAt must already be set.
func (q *FogQueue) Push(t *domain.Task) {
	q.h.seq++
	heap.Push(&q.h, fogItem{task: t, seq: q.h.seq})
}

// Peek returns the next task without removing it, or nil when empty.
func (q *FogQueue) Peek() *domain.Task {
	if len(q.h.items) == 0 {
		return nil
	}
	return q.h.items[0].task
}

// Pop removes and returns the next task, or nil when empty.
func (q *FogQueue) Pop() *domain.Task {
	if len(q.h.items) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(fogItem).task
}

func (q *FogQueue) Len() int {
	return len(q.h.items)
}

// Clear drops all queued tasks and returns them in no particular order.
func (q *FogQueue) Clear() []*domain.Task {
	dropped := make([]*domain.Task, 0, len(q.h.items))
	for _, it := range q.h.items {
		dropped = append(dropped, it.task)
	}
	q.h.items = nil
	return dropped
}

type fogItem struct {
	task *domain.Task
	seq  uint64
}

type fogHeap struct {
	items []fogItem
	seq   uint64
}

func (h *fogHeap) Len() int { return len(h.items) }

func (h *fogHeap) Less(i, j int) bool {
	a, b := h.items[i].task, h.items[j].task
	if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
		return wa > wb
	}
	if a.ArrivedAt != b.ArrivedAt {
		return a.ArrivedAt < b.ArrivedAt
	}
	if a.Complexity != b.Complexity {
		return a.Complexity < b.Complexity
	}
	return h.items[i].seq < h.items[j].seq
}

func (h *fogHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *fogHeap) Push(x any) { h.items = append(h.items, x.(fogItem)) }

func (h *fogHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// FIFOQueue is the cloud's arrival-ordered task queue.
type FIFOQueue struct {
	items []*domain.Task
}

func NewFIFOQueue() *FIFOQueue {
	return &FIFOQueue{}
}

func (q *FIFOQueue) Push(t *domain.Task) {
	q.items = append(q.items, t)
}

func (q *FIFOQueue) Peek() *domain.Task {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *FIFOQueue) Pop() *domain.Task {
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t
}

func (q *FIFOQueue) Len() int {
	return len(q.items)
}

func (q *FIFOQueue) Clear() []*domain.Task {
	dropped := q.items
	q.items = nil
	return dropped
}
