package perception

import (
	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// Perceivable is the capability a detectable game object supplies to the
// registry. The registry holds a non-owning reference; the host controls
// the object's lifetime and unregisters it on destruction.
type Perceivable interface {
	// TypeTag is a stable numeric tag used by sensor type filters.
	TypeTag() uint32

	// Detectable reports whether the object currently appears in snapshots.
	Detectable() bool

	// Position is the object's world position.
	Position() physics.Vec3

	// LOSPoint is the point line-of-sight tests aim at, often the head or
	// center of mass rather than the feet.
	LOSPoint() physics.Vec3

	// DetectionRadius is the object's physical extent for detection purposes.
	DetectionRadius() float64

	// Loudness scales the object's contribution to hearing queries.
	// Zero means silent: never heard, at any distance.
	Loudness() float64
}

// Sensor is one agent's perception query plus its published results.
// Implementations keep Scan free of side effects outside dst so the
// scheduler can run them from worker goroutines.
type Sensor interface {
	// Name identifies the sensor in logs and events.
	Name() string

	// Kind reports which query the sensor runs.
	Kind() SensorKind

	Enabled() bool
	SetEnabled(enabled bool)

	// UpdateInterval is the minimum time in seconds between runs.
	// Zero or negative means every tick.
	UpdateInterval() float64
	SetUpdateInterval(seconds float64)

	// Scan runs the query against an immutable snapshot, appending up to the
	// sensor's result capacity into dst and returning the extended slice.
	Scan(snap Snapshot, now float64, dst []DetectionResult) []DetectionResult

	// HasDetection reports whether the last published scan found anything.
	HasDetection() bool

	// DetectedCount returns the number of published results.
	DetectedCount() int

	// GetDetectedHandles copies published target handles into buf and
	// returns how many were written, bounded by len(buf).
	GetDetectedHandles(buf []Handle) int

	// Results returns the published result buffer. Callers must treat it as
	// read-only; it is replaced, never mutated, on the next publish.
	Results() []DetectionResult

	// publish atomically swaps in newly computed results, recycling the
	// previous buffer as the next scratch. Called by the scheduler at the
	// tick's completion point.
	publish(results []DetectionResult)

	// takeScratch hands the sensor's scratch buffer to the scheduler for
	// the next scan. giveScratch returns it unused after a failed run.
	takeScratch() []DetectionResult
	giveScratch(buf []DetectionResult)
}
