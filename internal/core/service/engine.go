package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/port"
)

// Simulator drives the three-tier topology on a fixed tick. All mutable state
// lives behind one mutex; time advances by reading the injected clock at each
// tick and replaying everything that came due since the last step.
type Simulator struct {
	mu  sync.Mutex
	cfg SimulationConfig
	log *zap.Logger

	clock    func() time.Time
	sink     port.EventSink
	statePub port.StatePublisher
	metrics  port.MetricsRecorder

	rng       *rand.Rand
	policy    port.RoutingPolicy
	fogNodes  []*FogNode
	cloud     *CloudServer
	devices   map[string]*Device
	deviceIDs []string
	failures  *FailureController
	collector *Collector

	running   bool
	startWall time.Time
	simEnd    float64
	lastNow   float64
	stopCh    chan struct{}
	doneCh    chan struct{}
	runCtx    context.Context

	tasks          []*domain.Task
	inTransit      []transitTask
	inFlight       []inFlightTask
	priorityCounts map[domain.Priority]int
	lastSampleAt   float64
}

type transitTask struct {
	task     *domain.Task
	target   computeNode
	arriveAt float64
}

type inFlightTask struct {
	task     *domain.Task
	node     computeNode
	finishAt float64
	procTime float64
}

// Option configures optional simulator collaborators.
type Option func(*Simulator)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) { s.clock = clock }
}

// WithEventSink forwards lifecycle events to an external feed. The engine
// drains the event buffer itself when a sink is set.
func WithEventSink(sink port.EventSink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithStatePublisher publishes node snapshots at every monitoring interval.
func WithStatePublisher(pub port.StatePublisher) Option {
	return func(s *Simulator) { s.statePub = pub }
}

// WithMetrics records operational metrics as the run progresses.
func WithMetrics(m port.MetricsRecorder) Option {
	return func(s *Simulator) { s.metrics = m }
}

// NewSimulator validates the configuration and builds the topology.
func NewSimulator(cfg SimulationConfig, log *zap.Logger, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		log:     log,
		clock:   time.Now,
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.configure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Configure replaces the configuration and rebuilds the topology. It fails
// without side effects while a run is active.
func (s *Simulator) Configure(cfg SimulationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return domain.ErrRunning
	}
	return s.configure(cfg)
}

func (s *Simulator) configure(cfg SimulationConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("simulation config: %w", err)
	}
	policy, err := NewRoutingPolicy(cfg.Policy, cfg.Thresholds)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.policy = policy
	s.rng = rand.New(rand.NewSource(cfg.Seed))
	s.collector = NewCollector()
	s.buildTopology()
	return nil
}

func (s *Simulator) buildTopology() {
	cfg := s.cfg

	s.cloud = NewCloudServer("CLOUD_SERVER",
		domain.Location{X: cfg.AreaSize / 2, Y: cfg.AreaSize / 2},
		cfg.CloudCapacity)

	s.fogNodes = nil
	if cfg.Mode == ModeFog {
		for i := 0; i < cfg.NumFogNodes; i++ {
			s.fogNodes = append(s.fogNodes, NewFogNode(
				fmt.Sprintf("FOG_NODE_%d", i+1),
				domain.Location{X: s.rng.Float64() * cfg.AreaSize, Y: s.rng.Float64() * cfg.AreaSize},
				cfg.FogCapacity.Sample(s.rng),
			))
		}
	}

	s.devices = make(map[string]*Device, cfg.NumDevices)
	s.deviceIDs = nil
	for i := 0; i < cfg.NumDevices; i++ {
		id := fmt.Sprintf("DEVICE_%d", i+1)
		loc := domain.Location{X: s.rng.Float64() * cfg.AreaSize, Y: s.rng.Float64() * cfg.AreaSize}
		primary, alternatives := nearestFog(loc, s.fogNodes)
		d := NewDevice(id, loc, cfg.priorityFor(i), cfg.GenerationRate.Sample(s.rng),
			primary, alternatives, s.cloud, s.rng)
		s.devices[id] = d
		s.deviceIDs = append(s.deviceIDs, id)
	}

	s.failures = NewFailureController(cfg.FailureRate, cfg.FailureDuration, s.rng)
	s.tasks = nil
	s.inTransit = nil
	s.inFlight = nil
	s.priorityCounts = make(map[domain.Priority]int)
	s.lastNow = 0
	s.lastSampleAt = 0
}

// nearestFog orders fog nodes by distance from the location and splits off
// the closest as primary.
func nearestFog(loc domain.Location, nodes []*FogNode) (*FogNode, []*FogNode) {
	if len(nodes) == 0 {
		return nil, nil
	}
	sorted := make([]*FogNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		return loc.DistanceTo(sorted[i].Location()) < loc.DistanceTo(sorted[j].Location())
	})
	return sorted[0], sorted[1:]
}

// Start launches the run loop for the given simulated duration in seconds.
func (s *Simulator) Start(ctx context.Context, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return domain.ErrAlreadyRunning
	}
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", duration)
	}

	// rebuild so back-to-back runs start clean
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
	s.collector.Reset()
	s.buildTopology()
	s.failures.Reset(0)
	for _, id := range s.deviceIDs {
		s.devices[id].ScheduleNext(0)
	}

	s.running = true
	s.startWall = s.clock()
	s.simEnd = duration
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.runCtx = ctx

	s.log.Info("Starting simulation",
		zap.String("mode", string(s.cfg.Mode)),
		zap.String("policy", s.policy.Name()),
		zap.Float64("duration", duration),
		zap.Int("fog_nodes", len(s.fogNodes)),
		zap.Int("devices", len(s.deviceIDs)))

	go s.run(ctx)
	return nil
}

// Stop ends an active run and waits for the loop to exit.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stop)
	<-done
	return nil
}

// Done is closed when the current run finishes.
func (s *Simulator) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

func (s *Simulator) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finish("context cancelled")
			return
		case <-s.stopCh:
			s.finish("stopped")
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.clock().Sub(s.startWall).Seconds()
			if now > s.simEnd {
				now = s.simEnd
			}
			s.step(now)
			ended := now >= s.simEnd
			s.mu.Unlock()

			s.flushEvents(ctx)
			if ended {
				s.finish("completed")
				return
			}
		}
	}
}

func (s *Simulator) finish(reason string) {
	s.flushEvents(s.runCtx)

	s.mu.Lock()
	s.running = false
	done := s.doneCh
	summary := s.collector.Summary()
	s.mu.Unlock()

	s.log.Info("Simulation finished",
		zap.String("reason", reason),
		zap.Int("tasks", summary.TotalTasks),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("timed_out", summary.TimedOut),
		zap.Float64("mean_response_time", summary.MeanResponseTime))
	close(done)
}

// flushEvents forwards undrained events to the configured sink.
func (s *Simulator) flushEvents(ctx context.Context) {
	if s.sink == nil {
		return
	}
	for _, e := range s.collector.DrainEvents() {
		if err := s.sink.PublishEvent(ctx, e); err != nil {
			s.log.Warn("Failed to publish event",
				zap.String("type", string(e.Type)),
				zap.String("task_id", e.TaskID),
				zap.Error(err))
		}
	}
}

// step replays everything due up to now. Caller holds s.mu.
func (s *Simulator) step(now float64) {
	s.injectFailures(now)
	s.generate(now)
	s.deliver(now)
	s.dispatchFog(now)
	s.dispatchCloud(now)
	s.complete(now)
	s.sample(now)
	s.lastNow = now
}

func (s *Simulator) injectFailures(now float64) {
	res := s.failures.Tick(now, s.fogNodes)
	for _, f := range res.Failures {
		s.log.Warn("Fog node failed",
			zap.String("node_id", f.NodeID),
			zap.Float64("duration", f.Duration))
		s.collector.RecordEvent(domain.TaskEvent{
			Type:      domain.EventNodeFailure,
			NodeID:    f.NodeID,
			Timestamp: f.FailureTime,
		})
	}
	for _, t := range res.Dropped {
		s.failTask(t, now, "dropped by node failure")
	}
	for _, n := range res.Recovered {
		s.log.Info("Fog node recovered", zap.String("node_id", n.ID()))
		s.collector.RecordEvent(domain.TaskEvent{
			Type:      domain.EventNodeRecovery,
			NodeID:    n.ID(),
			Timestamp: now,
		})
	}
}

func (s *Simulator) generate(now float64) {
	for _, id := range s.deviceIDs {
		d := s.devices[id]
		for d.GenerationDue(now) {
			at := d.NextGenAt()
			s.emitTask(d, at)
			d.ScheduleNext(at)
		}
	}
}

// emitTask creates one task at the given simulated time and routes it.
func (s *Simulator) emitTask(d *Device, at float64) *domain.Task {
	t := d.GenerateTask(at, s.cfg.Complexity, s.cfg.DataSize, s.cfg.Deadline)
	s.tasks = append(s.tasks, t)
	s.priorityCounts[t.Priority]++
	s.metrics.TaskGenerated(t.Priority)
	s.collector.RecordEvent(domain.TaskEvent{
		Type:       domain.EventTaskCreated,
		TaskID:     t.ID,
		NodeID:     d.ID(),
		Timestamp:  at,
		Priority:   t.Priority,
		Complexity: t.Complexity,
	})
	s.route(d, t, at)
	return t
}

// route picks the task's first hop. Static routing decides at the device;
// dynamic routing defers the decision to the fog node.
func (s *Simulator) route(d *Device, t *domain.Task, at float64) {
	var target computeNode

	pickFogOrCloud := func() {
		if fog := d.PickFogTarget(); fog != nil {
			target = fog
		} else if cloud := d.Cloud(); cloud != nil {
			target = cloud
		}
	}

	switch {
	case s.cfg.Mode == ModeCloudOnly:
		if cloud := d.Cloud(); cloud != nil {
			target = cloud
		}
	case s.policy.Name() == PolicyStatic:
		decision, reason := s.policy.Decide(t, domain.NodeSnapshot{ObservedAt: at})
		t.Decision, t.DecisionReason = decision, reason
		s.collector.RecordEvent(domain.TaskEvent{
			Type:      domain.EventDecision,
			TaskID:    t.ID,
			Timestamp: at,
			Decision:  decision,
			Reason:    reason,
		})
		if decision == domain.OffloadToCloud {
			s.metrics.TaskOffloaded()
			if cloud := d.Cloud(); cloud != nil {
				target = cloud
			}
		} else {
			pickFogOrCloud()
		}
	default:
		pickFogOrCloud()
	}

	if target == nil {
		d.markFailed()
		s.failTask(t, at, domain.ErrNoOperationalNode.Error())
		return
	}

	latency := s.transferLatency(d.Location(), target)
	t.NetworkLatency = latency
	d.markSent()
	s.inTransit = append(s.inTransit, transitTask{task: t, target: target, arriveAt: at + latency})
}

// transferLatency models the device-to-node hop: distance scaled by the base
// rate, plus the fixed cloud base latency when the target is the cloud.
func (s *Simulator) transferLatency(from domain.Location, target computeNode) float64 {
	latency := from.DistanceTo(target.Location()) * s.cfg.BaseLatencyPerDistance
	if target.Type() == domain.NodeTypeCloud {
		latency += s.cfg.CloudLatencyBase
	}
	return latency
}

// fogToCloudLatency models the backhaul hop taken by offloaded tasks.
func (s *Simulator) fogToCloudLatency(n *FogNode) float64 {
	return n.Location().DistanceTo(s.cloud.Location())*s.cfg.FogToCloudMultiplier + s.cfg.CloudLatencyBase
}

func (s *Simulator) deliver(now float64) {
	remaining := s.inTransit[:0]
	for _, tr := range s.inTransit {
		if tr.arriveAt > now {
			remaining = append(remaining, tr)
			continue
		}
		if err := tr.target.Receive(tr.task, tr.arriveAt); err != nil {
			if d, ok := s.devices[tr.task.SourceDevice]; ok {
				d.markFailed()
			}
			s.failTask(tr.task, tr.arriveAt, err.Error())
			continue
		}
		s.collector.RecordEvent(domain.TaskEvent{
			Type:      domain.EventArrivalAtNode,
			TaskID:    tr.task.ID,
			NodeID:    tr.target.ID(),
			Timestamp: tr.arriveAt,
		})
	}
	s.inTransit = remaining
}

func (s *Simulator) dispatchFog(now float64) {
	for _, n := range s.fogNodes {
		if !n.Operational() {
			continue
		}
		for {
			t := n.Queue().Peek()
			if t == nil {
				break
			}
			if t.Overdue(now) {
				n.Queue().Pop()
				s.timeoutTask(t, n.ID(), now)
				continue
			}
			if t.Decision == "" {
				decision, reason := s.policy.Decide(t, n.Snapshot(now))
				t.Decision, t.DecisionReason = decision, reason
				s.collector.RecordEvent(domain.TaskEvent{
					Type:      domain.EventDecision,
					TaskID:    t.ID,
					NodeID:    n.ID(),
					Timestamp: now,
					Decision:  decision,
					Reason:    reason,
				})
			}
			if t.Decision == domain.OffloadToCloud && s.cloud != nil {
				n.Queue().Pop()
				n.markOffloaded()
				s.metrics.TaskOffloaded()
				latency := s.fogToCloudLatency(n)
				t.NetworkLatency += latency
				s.inTransit = append(s.inTransit, transitTask{task: t, target: s.cloud, arriveAt: now + latency})
				continue
			}
			if !n.Pool().TryAcquire() {
				break
			}
			n.Queue().Pop()
			s.startProcessing(t, n, now)
		}
	}
}

func (s *Simulator) dispatchCloud(now float64) {
	for {
		t := s.cloud.Queue().Peek()
		if t == nil {
			break
		}
		if t.Overdue(now) {
			s.cloud.Queue().Pop()
			s.timeoutTask(t, s.cloud.ID(), now)
			continue
		}
		if !s.cloud.Pool().TryAcquire() {
			break
		}
		s.cloud.Queue().Pop()
		s.startProcessing(t, s.cloud, now)
	}
}

func (s *Simulator) startProcessing(t *domain.Task, n computeNode, now float64) {
	if err := t.MarkProcessing(now); err != nil {
		s.log.Error("Task refused processing", zap.String("task_id", t.ID), zap.Error(err))
		s.release(n)
		return
	}
	t.ProcessedBy = n.ID()
	procTime := t.ProcessingTime(n.CapacityUnits())
	s.inFlight = append(s.inFlight, inFlightTask{task: t, node: n, finishAt: now + procTime, procTime: procTime})
	s.collector.RecordEvent(domain.TaskEvent{
		Type:      domain.EventProcessingStart,
		TaskID:    t.ID,
		NodeID:    n.ID(),
		Timestamp: now,
	})
}

func (s *Simulator) complete(now float64) {
	remaining := s.inFlight[:0]
	for _, f := range s.inFlight {
		if f.finishAt > now {
			remaining = append(remaining, f)
			continue
		}
		s.release(f.node)
		if err := f.task.MarkCompleted(f.finishAt); err != nil {
			s.log.Error("Task refused completion", zap.String("task_id", f.task.ID), zap.Error(err))
			continue
		}
		f.node.completeTask(f.procTime)
		s.collector.RecordEvent(domain.TaskEvent{
			Type:      domain.EventProcessingEnd,
			TaskID:    f.task.ID,
			NodeID:    f.node.ID(),
			Timestamp: f.finishAt,
		})
		if resp, ok := f.task.ResponseTime(); ok {
			s.metrics.TaskCompleted(f.node.Type(), resp)
		}
	}
	s.inFlight = remaining
}

func (s *Simulator) release(n computeNode) {
	if err := n.Pool().Release(); err != nil {
		s.log.Error("Pool release failed", zap.String("node_id", n.ID()), zap.Error(err))
	}
}

func (s *Simulator) sample(now float64) {
	if now != 0 && now-s.lastSampleAt < s.cfg.MonitoringInterval {
		return
	}
	s.lastSampleAt = now
	for _, snap := range s.nodeSnapshots(now) {
		s.collector.RecordSample(domain.ResourceSample{
			Timestamp:   now,
			NodeID:      snap.NodeID,
			NodeType:    snap.Type,
			Utilization: snap.Utilization,
			QueueLength: snap.QueueLength,
			Capacity:    snap.Capacity,
		})
		s.metrics.ObserveNode(snap)
		if s.statePub != nil {
			if err := s.statePub.PublishNodeState(s.publishCtx(), snap); err != nil {
				s.log.Warn("Failed to publish node state",
					zap.String("node_id", snap.NodeID), zap.Error(err))
			}
		}
	}
}

func (s *Simulator) publishCtx() context.Context {
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.Background()
}

func (s *Simulator) nodeSnapshots(now float64) []domain.NodeSnapshot {
	snaps := make([]domain.NodeSnapshot, 0, len(s.fogNodes)+1)
	for _, n := range s.fogNodes {
		snaps = append(snaps, n.Snapshot(now))
	}
	if s.cloud != nil {
		snaps = append(snaps, s.cloud.Snapshot(now))
	}
	return snaps
}

func (s *Simulator) failTask(t *domain.Task, ts float64, reason string) {
	if err := t.MarkFailed(ts); err != nil {
		s.log.Error("Task refused failure", zap.String("task_id", t.ID), zap.Error(err))
		return
	}
	s.metrics.TaskFailed()
	s.collector.RecordEvent(domain.TaskEvent{
		Type:      domain.EventTaskFailed,
		TaskID:    t.ID,
		Timestamp: ts,
		Reason:    reason,
	})
}

func (s *Simulator) timeoutTask(t *domain.Task, nodeID string, now float64) {
	if err := t.MarkTimeout(now); err != nil {
		s.log.Error("Task refused timeout", zap.String("task_id", t.ID), zap.Error(err))
		return
	}
	s.metrics.TaskTimedOut()
	s.collector.RecordEvent(domain.TaskEvent{
		Type:      domain.EventTaskTimeout,
		TaskID:    t.ID,
		NodeID:    nodeID,
		Timestamp: now,
	})
}

// SubmitTask generates and routes a single task from the named device at the
// current simulated time, outside the device's own schedule.
func (s *Simulator) SubmitTask(deviceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownDevice, deviceID)
	}
	t := s.emitTask(d, s.lastNow)
	return t.ID, nil
}

// DeviceStats are a device's lifetime counters.
type DeviceStats struct {
	DeviceID  string          `json:"device_id"`
	Priority  domain.Priority `json:"priority"`
	Generated int             `json:"generated"`
	Sent      int             `json:"sent"`
	Failed    int             `json:"failed"`
}

// SimulationStatus is a point-in-time view of the whole run.
type SimulationStatus struct {
	Running        bool                    `json:"running"`
	Now            float64                 `json:"now"`
	Mode           Mode                    `json:"mode"`
	Policy         string                  `json:"policy"`
	Nodes          []domain.NodeSnapshot   `json:"nodes"`
	Devices        []DeviceStats           `json:"devices"`
	TasksGenerated int                     `json:"tasks_generated"`
	PriorityCounts map[domain.Priority]int `json:"priority_counts"`
	Failures       []domain.NodeFailure    `json:"failures"`
}

// Status reports the current state of every node and the run as a whole.
func (s *Simulator) Status() SimulationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.Priority]int, len(s.priorityCounts))
	for p, n := range s.priorityCounts {
		counts[p] = n
	}
	devices := make([]DeviceStats, 0, len(s.deviceIDs))
	for _, id := range s.deviceIDs {
		d := s.devices[id]
		devices = append(devices, DeviceStats{
			DeviceID:  d.ID(),
			Priority:  d.Priority(),
			Generated: d.Generated(),
			Sent:      d.Sent(),
			Failed:    d.Failed(),
		})
	}
	return SimulationStatus{
		Running:        s.running,
		Now:            s.lastNow,
		Mode:           s.cfg.Mode,
		Policy:         s.policy.Name(),
		Nodes:          s.nodeSnapshots(s.lastNow),
		Devices:        devices,
		TasksGenerated: len(s.tasks),
		PriorityCounts: counts,
		Failures:       s.failures.History(),
	}
}

// DrainEvents consumes buffered lifecycle events. When an event sink is
// configured the engine drains the buffer itself.
func (s *Simulator) DrainEvents() []domain.TaskEvent {
	return s.collector.DrainEvents()
}

// Summary aggregates the run so far.
func (s *Simulator) Summary() domain.Summary {
	return s.collector.Summary()
}

// Result assembles the persistable outcome of the run.
func (s *Simulator) Result() *domain.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]*domain.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return &domain.RunResult{
		StartedAt:  s.startWall,
		Duration:   s.lastNow,
		PolicyName: s.policy.Name(),
		Summary:    s.collector.Summary(),
		Tasks:      tasks,
		Events:     s.collector.Events(),
		Samples:    s.collector.Samples(),
		Failures:   s.failures.History(),
	}
}

// nopMetrics is the default recorder when no metrics backend is wired.
type nopMetrics struct{}

func (nopMetrics) TaskGenerated(domain.Priority)          {}
func (nopMetrics) TaskCompleted(domain.NodeType, float64) {}
func (nopMetrics) TaskTimedOut()                          {}
func (nopMetrics) TaskFailed()                            {}
func (nopMetrics) TaskOffloaded()                         {}
func (nopMetrics) ObserveNode(domain.NodeSnapshot)        {}
