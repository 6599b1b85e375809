package service

import (
	"math/rand"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// FailureController injects fog node outages. Failure interarrival times are
// exponential with the configured rate; outage durations are drawn uniformly
// from the configured range. A rate of zero disables injection.
type FailureController struct {
	rate     float64 // failures per second across the fog tier
	duration Range
	rng      *rand.Rand

	nextAt  float64
	history []domain.NodeFailure
}

func NewFailureController(rate float64, duration Range, rng *rand.Rand) *FailureController {
	return &FailureController{rate: rate, duration: duration, rng: rng}
}

// Reset arms the controller at the start of a run.
func (f *FailureController) Reset(now float64) {
	f.history = nil
	if f.rate > 0 {
		f.nextAt = now + f.rng.ExpFloat64()/f.rate
	}
}

// History returns every injected failure so far.
func (f *FailureController) History() []domain.NodeFailure {
	return f.history
}

// TickResult reports what the controller did during one step.
type TickResult struct {
	Failures  []domain.NodeFailure
	Recovered []*FogNode
	Dropped   []*domain.Task
}

// Tick injects any failures whose time has come, picking a random operational
// node for each, and recovers nodes whose outage has elapsed. Tasks queued on
// a failing node are dropped and returned; they are not resubmitted.
func (f *FailureController) Tick(now float64, nodes []*FogNode) TickResult {
	var res TickResult

	if f.rate > 0 {
		for now >= f.nextAt {
			at := f.nextAt
			f.nextAt += f.rng.ExpFloat64() / f.rate

			up := operational(nodes)
			if len(up) == 0 {
				continue
			}
			node := up[f.rng.Intn(len(up))]
			dropped := node.Fail(at, f.duration.Sample(f.rng))
			for range dropped {
				node.markDropped()
			}
			res.Dropped = append(res.Dropped, dropped...)
			failure := node.failures[len(node.failures)-1]
			f.history = append(f.history, failure)
			res.Failures = append(res.Failures, failure)
		}
	}

	for _, n := range nodes {
		if n.RecoveryDue(now) {
			n.Recover()
			res.Recovered = append(res.Recovered, n)
		}
	}
	return res
}

func operational(nodes []*FogNode) []*FogNode {
	up := make([]*FogNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Operational() {
			up = append(up, n)
		}
	}
	return up
}
