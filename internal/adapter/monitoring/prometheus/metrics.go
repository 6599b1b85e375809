// Package prometheus implements the metrics recorder on a client_golang
// registry and exposes it over HTTP.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

type Recorder struct {
	registry *prometheus.Registry

	tasksGenerated *prometheus.CounterVec
	tasksCompleted *prometheus.CounterVec
	tasksTimedOut  prometheus.Counter
	tasksFailed    prometheus.Counter
	tasksOffloaded prometheus.Counter
	responseTime   *prometheus.HistogramVec

	nodeUtilization *prometheus.GaugeVec
	nodeQueueLength *prometheus.GaugeVec
	nodeUp          *prometheus.GaugeVec
}

// NewRecorder registers all simulation metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tasksGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fogsim_tasks_generated_total",
			Help: "Tasks generated by IoT devices, by priority class.",
		}, []string{"priority"}),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fogsim_tasks_completed_total",
			Help: "Tasks completed, by processing tier.",
		}, []string{"node_type"}),
		tasksTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fogsim_tasks_timed_out_total",
			Help: "Tasks whose deadline elapsed before dispatch.",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fogsim_tasks_failed_total",
			Help: "Tasks lost to node failures or unreachable targets.",
		}),
		tasksOffloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fogsim_tasks_offloaded_total",
			Help: "Tasks handed off from the fog tier to the cloud.",
		}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fogsim_response_time_seconds",
			Help:    "Task completion time minus creation time, in simulated seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"node_type"}),
		nodeUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fogsim_node_utilization",
			Help: "Fraction of a node's processing slots in use.",
		}, []string{"node_id", "node_type"}),
		nodeQueueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fogsim_node_queue_length",
			Help: "Tasks waiting on a node's queue.",
		}, []string{"node_id", "node_type"}),
		nodeUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fogsim_node_up",
			Help: "Whether the node is operational.",
		}, []string{"node_id", "node_type"}),
	}

	r.registry.MustRegister(
		r.tasksGenerated,
		r.tasksCompleted,
		r.tasksTimedOut,
		r.tasksFailed,
		r.tasksOffloaded,
		r.responseTime,
		r.nodeUtilization,
		r.nodeQueueLength,
		r.nodeUp,
	)
	return r
}

func (r *Recorder) TaskGenerated(priority domain.Priority) {
	r.tasksGenerated.WithLabelValues(string(priority)).Inc()
}

func (r *Recorder) TaskCompleted(nodeType domain.NodeType, responseSeconds float64) {
	r.tasksCompleted.WithLabelValues(string(nodeType)).Inc()
	r.responseTime.WithLabelValues(string(nodeType)).Observe(responseSeconds)
}

func (r *Recorder) TaskTimedOut() {
	r.tasksTimedOut.Inc()
}

func (r *Recorder) TaskFailed() {
	r.tasksFailed.Inc()
}

func (r *Recorder) TaskOffloaded() {
	r.tasksOffloaded.Inc()
}

func (r *Recorder) ObserveNode(snapshot domain.NodeSnapshot) {
	labels := []string{snapshot.NodeID, string(snapshot.Type)}
	r.nodeUtilization.WithLabelValues(labels...).Set(snapshot.Utilization)
	r.nodeQueueLength.WithLabelValues(labels...).Set(float64(snapshot.QueueLength))

	up := 0.0
	if snapshot.Status == domain.NodeStatusOperational {
		up = 1.0
	}
	r.nodeUp.WithLabelValues(labels...).Set(up)
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
