package perception

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sensekit/sensekit/internal/core/events/bus"
	"github.com/sensekit/sensekit/internal/core/observability/log"
	"github.com/sensekit/sensekit/pkg/concurrent"
)

// Mode selects how the scheduler dispatches sensor queries.
type Mode uint8

const (
	// ModeImmediate runs each due sensor synchronously during the update
	// phase; results are visible the instant the call returns.
	ModeImmediate Mode = iota
	// ModeDeferred scatters due sensors across a worker pool during the
	// update phase and publishes all results at the completion phase.
	ModeDeferred
)

func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// ParseMode maps a config string to a Mode. Empty defaults to immediate.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "immediate":
		return ModeImmediate, nil
	case "deferred":
		return ModeDeferred, nil
	default:
		return ModeImmediate, fmt.Errorf("unknown scheduler mode: %s", s)
	}
}

// Event types published on the optional event bus when a sensor's detection
// state flips.
const (
	EventDetectionGained = "perception.detection.gained"
	EventDetectionLost   = "perception.detection.lost"
)

// DetectionEvent is the bus payload for detection transitions.
type DetectionEvent struct {
	SensorID SensorID
	Sensor   string
	Kind     SensorKind
	Count    int
	Time     float64
}

// SensorID identifies a registered sensor within one scheduler.
type SensorID string

type sensorEntry struct {
	id     SensorID
	sensor Sensor

	// Scheduling bookkeeping, owned by the scheduler.
	lastUpdate   float64
	ran          bool
	hadDetection bool
}

// pendingRun is one scheduled sensor query within a deferred batch. buf is
// handed back to the sensor at the completion phase when the run fails, so
// all scratch handling stays on the scheduling goroutine.
type pendingRun struct {
	entry   *sensorEntry
	buf     []DetectionResult
	results []DetectionResult
	ok      bool
}

// batch is the work scheduled by one update-phase call in deferred mode.
// Its runs slice must not be appended to after scatter: workers hold it.
type batch struct {
	snap Snapshot
	runs []pendingRun
	join *concurrent.Join
}

// SchedulerOption customizes a scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the logger used for per-sensor fault reports.
func WithLogger(l log.Log) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

// WithEventBus makes the scheduler publish detection transitions after each
// tick's completion point.
func WithEventBus(b *bus.Bus) SchedulerOption {
	return func(s *Scheduler) { s.bus = b }
}

// WithWorkers caps the deferred-mode worker pool. Zero or negative lets the
// pool size itself to the CPU count.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) { s.workers = n }
}

// Scheduler decides which sensors run each tick, dispatches their queries
// against a snapshot copy and defines the completion point at which new
// results become visible.
type Scheduler struct {
	mu       sync.RWMutex
	registry *Registry
	sensors  map[SensorID]*sensorEntry
	mode     Mode
	workers  int
	log      log.Log
	bus      *bus.Bus

	// now is the scheduler clock in seconds, advanced by RunUpdatePhase.
	now float64

	// batches accumulates deferred work between the update and completion
	// phases of the current tick.
	batches []*batch
}

// NewScheduler creates a scheduler over the given registry.
func NewScheduler(registry *Registry, mode Mode, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		registry: registry,
		sensors:  make(map[SensorID]*sensorEntry),
		mode:     mode,
		log:      log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the scheduling mode.
func (s *Scheduler) Mode() Mode { return s.mode }

// Now returns the scheduler clock in seconds.
func (s *Scheduler) Now() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// RegisterSensor adds a sensor and returns its id. The sensor becomes due
// on the next update phase.
func (s *Scheduler) RegisterSensor(sensor Sensor) SensorID {
	id := SensorID(uuid.NewString())
	s.mu.Lock()
	s.sensors[id] = &sensorEntry{id: id, sensor: sensor}
	s.mu.Unlock()
	return id
}

// UnregisterSensor removes a sensor. Unknown ids are a no-op.
func (s *Scheduler) UnregisterSensor(id SensorID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sensors[id]; !ok {
		return false
	}
	delete(s.sensors, id)
	return true
}

// GetSensor returns a registered sensor by id.
func (s *Scheduler) GetSensor(id SensorID) (Sensor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sensors[id]
	if !ok {
		return nil, false
	}
	return e.sensor, true
}

// SensorIDs returns the ids of all registered sensors.
func (s *Scheduler) SensorIDs() []SensorID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]SensorID, 0, len(s.sensors))
	for id := range s.sensors {
		ids = append(ids, id)
	}
	return ids
}

// SensorCount returns the number of registered sensors.
func (s *Scheduler) SensorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sensors)
}

// SetSensorEnabled toggles a sensor by id.
func (s *Scheduler) SetSensorEnabled(id SensorID, enabled bool) bool {
	sensor, ok := s.GetSensor(id)
	if !ok {
		return false
	}
	sensor.SetEnabled(enabled)
	return true
}

// RunUpdatePhase advances the clock by dt seconds and runs (immediate mode)
// or schedules (deferred mode) every due sensor against a fresh snapshot
// copy. In deferred mode nothing is published until RunCompletionPhase.
func (s *Scheduler) RunUpdatePhase(dt float64) {
	s.mu.Lock()
	s.now += dt
	now := s.now
	due := s.collectDueLocked(now)
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	snap := s.registry.SnapshotCopy()

	if s.mode == ModeImmediate {
		for _, e := range due {
			buf := e.sensor.takeScratch()
			results, ok := s.scanOne(e, snap, now, buf)
			if ok {
				s.publishAndNotify(e, results, now)
			} else {
				e.sensor.giveScratch(buf)
			}
		}
		s.registry.ReleaseSnapshot(snap)
		return
	}

	b := &batch{snap: snap, runs: make([]pendingRun, len(due))}
	for i, e := range due {
		b.runs[i] = pendingRun{entry: e, buf: e.sensor.takeScratch()}
	}
	b.join = concurrent.Scatter(b.runs, s.workers, func(i int, _ pendingRun) {
		run := &b.runs[i]
		run.results, run.ok = s.scanOne(run.entry, snap, now, run.buf)
	})

	s.mu.Lock()
	s.batches = append(s.batches, b)
	s.mu.Unlock()
}

// RunCompletionPhase joins every query scheduled since the last completion
// and publishes the new results. Must run strictly after all update-phase
// calls of the tick and before consumers read this tick's results. A no-op
// in immediate mode.
func (s *Scheduler) RunCompletionPhase() {
	if s.mode != ModeDeferred {
		return
	}

	s.mu.Lock()
	batches := s.batches
	s.batches = nil
	now := s.now
	s.mu.Unlock()

	if len(batches) == 0 {
		return
	}

	joins := make([]*concurrent.Join, len(batches))
	for i, b := range batches {
		joins[i] = b.join
	}
	concurrent.Combine(joins...).Wait()

	for _, b := range batches {
		for i := range b.runs {
			run := &b.runs[i]
			if run.ok {
				s.publishAndNotify(run.entry, run.results, now)
			} else {
				run.entry.sensor.giveScratch(run.buf)
			}
		}
		s.registry.ReleaseSnapshot(b.snap)
	}
}

// collectDueLocked gathers enabled sensors whose interval has elapsed and
// stamps their lastUpdate. The stamp happens at scheduling time regardless
// of query outcome, so a failing sensor cannot cause a retry storm.
func (s *Scheduler) collectDueLocked(now float64) []*sensorEntry {
	due := make([]*sensorEntry, 0, len(s.sensors))
	for _, e := range s.sensors {
		if !e.sensor.Enabled() {
			continue
		}
		interval := e.sensor.UpdateInterval()
		if e.ran && interval > 0 && now-e.lastUpdate < interval {
			continue
		}
		e.lastUpdate = now
		e.ran = true
		due = append(due, e)
	}
	return due
}

// scanOne runs a single sensor query with panic isolation. A panicking
// sensor is skipped for this tick only: its previously published results
// stay visible and other sensors are unaffected. The caller recycles the
// failed run's buffer; workers never write sensor state beyond the scan
// itself, so update-phase takeScratch calls cannot race an in-flight batch.
func (s *Scheduler) scanOne(e *sensorEntry, snap Snapshot, now float64, buf []DetectionResult) (results []DetectionResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sensor query failed",
				log.String("sensor", e.sensor.Name()),
				log.String("kind", e.sensor.Kind().String()),
				log.Any("panic", r),
			)
			results, ok = nil, false
		}
	}()
	return e.sensor.Scan(snap, now, buf), true
}

// publishAndNotify swaps in the sensor's new results and, when a bus is
// attached, reports detection-state transitions.
func (s *Scheduler) publishAndNotify(e *sensorEntry, results []DetectionResult, now float64) {
	e.sensor.publish(results)

	if s.bus == nil {
		return
	}
	has := len(results) > 0
	if has == e.hadDetection {
		return
	}
	e.hadDetection = has

	typ := EventDetectionLost
	if has {
		typ = EventDetectionGained
	}
	if err := s.bus.Publish(bus.NewEvent(typ, e.sensor.Name(), DetectionEvent{
		SensorID: e.id,
		Sensor:   e.sensor.Name(),
		Kind:     e.sensor.Kind(),
		Count:    len(results),
		Time:     now,
	})); err != nil {
		s.log.Warn("detection event delivery failed",
			log.String("sensor", e.sensor.Name()),
			log.Err(err),
		)
	}
}
