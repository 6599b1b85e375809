package service

import (
	"fmt"
	"math/rand"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// Device is an IoT task source. It emits tasks with exponentially distributed
// interarrival times and routes them to its primary fog node, falling back to
// alternatives and finally the cloud when nodes are down.
type Device struct {
	id           string
	location     domain.Location
	priority     domain.Priority
	rate         float64 // tasks per second
	primary      *FogNode
	alternatives []*FogNode
	cloud        *CloudServer

	generated int
	sent      int
	failed    int

	nextGenAt float64
	rng       *rand.Rand
}

func NewDevice(id string, loc domain.Location, priority domain.Priority, rate float64, primary *FogNode, alternatives []*FogNode, cloud *CloudServer, rng *rand.Rand) *Device {
	return &Device{
		id:           id,
		location:     loc,
		priority:     priority,
		rate:         rate,
		primary:      primary,
		alternatives: alternatives,
		cloud:        cloud,
		rng:          rng,
	}
}

func (d *Device) ID() string                { return d.id }
func (d *Device) Location() domain.Location { return d.location }
func (d *Device) Priority() domain.Priority { return d.priority }
func (d *Device) Generated() int            { return d.generated }
func (d *Device) Sent() int                 { return d.sent }
func (d *Device) Failed() int               { return d.failed }

// ScheduleNext draws the next generation time from now.
func (d *Device) ScheduleNext(now float64) {
	d.nextGenAt = now + d.rng.ExpFloat64()/d.rate
}

// GenerationDue reports whether the device should emit a task at now.
func (d *Device) GenerationDue(now float64) bool {
	return d.rate > 0 && d.nextGenAt <= now
}

// NextGenAt returns the scheduled emission time of the pending task.
func (d *Device) NextGenAt() float64 { return d.nextGenAt }

// GenerateTask emits a new pending task created at the given time, drawing
// complexity, data size and deadline offset uniformly from the given ranges.
func (d *Device) GenerateTask(createdAt float64, complexity, dataSize, deadline Range) *domain.Task {
	d.generated++
	id := fmt.Sprintf("%s_TASK_%03d", d.id, d.generated)
	t := domain.NewTask(
		id,
		d.id,
		d.priority,
		complexity.Sample(d.rng),
		dataSize.Sample(d.rng),
		createdAt,
		createdAt+deadline.Sample(d.rng),
	)
	return t
}

// PickFogTarget returns the first operational fog node in preference order
// (primary, then alternatives), or nil when all are down.
func (d *Device) PickFogTarget() *FogNode {
	if d.primary != nil && d.primary.Operational() {
		return d.primary
	}
	for _, alt := range d.alternatives {
		if alt.Operational() {
			return alt
		}
	}
	return nil
}

// Cloud returns the device's cloud fallback, which may be nil.
func (d *Device) Cloud() *CloudServer { return d.cloud }

func (d *Device) markSent()   { d.sent++ }
func (d *Device) markFailed() { d.failed++ }

// Range is a closed interval sampled uniformly.
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// Sample draws uniformly from the range.
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
