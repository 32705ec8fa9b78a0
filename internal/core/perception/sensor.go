package perception

import (
	"math"
	"sync/atomic"

	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// DefaultMaxResults bounds a sensor's result buffer when unconfigured.
const DefaultMaxResults = 32

// Pose is the observer's position and facing for the next scan. Hearing
// ignores Forward.
type Pose struct {
	Position physics.Vec3
	Forward  physics.Vec3
}

// BaseSensor carries the bookkeeping shared by every sensor: enable state,
// interval gating and the double-buffered result storage. Results are
// published by swapping an atomic pointer, so a reader racing the scheduler
// always sees a fully-formed buffer from some completed tick, never a
// buffer midway through being filled. Custom sensors embed *BaseSensor and
// implement Kind and Scan.
type BaseSensor struct {
	name       string
	self       Handle
	maxResults int

	enabled  atomic.Bool
	interval atomic.Uint64 // float64 bits
	pose     atomic.Pointer[Pose]

	published atomic.Pointer[[]DetectionResult]

	// scratch is the back buffer handed out for the next scan. Only the
	// scheduler's run path touches it, one tick at a time.
	scratch []DetectionResult
}

// NewBaseSensor builds the shared sensor core. self is the observer's own
// registry handle, excluded from its scans; maxResults <= 0 gets
// DefaultMaxResults.
func NewBaseSensor(name string, self Handle, maxResults int, interval float64) *BaseSensor {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	b := &BaseSensor{
		name:       name,
		self:       self,
		maxResults: maxResults,
		scratch:    make([]DetectionResult, 0, maxResults),
	}
	b.enabled.Store(true)
	b.SetUpdateInterval(interval)
	return b
}

func (b *BaseSensor) Name() string { return b.name }

// Self returns the observer's own handle.
func (b *BaseSensor) Self() Handle { return b.self }

// MaxResults is the bound on results per scan.
func (b *BaseSensor) MaxResults() int { return b.maxResults }

func (b *BaseSensor) Enabled() bool           { return b.enabled.Load() }
func (b *BaseSensor) SetEnabled(enabled bool) { b.enabled.Store(enabled) }

// UpdateInterval returns the minimum seconds between runs.
func (b *BaseSensor) UpdateInterval() float64 {
	return math.Float64frombits(b.interval.Load())
}

func (b *BaseSensor) SetUpdateInterval(seconds float64) {
	b.interval.Store(math.Float64bits(seconds))
}

// SetPose records the observer's position and facing for the next scan.
// Safe to call concurrently with a running scan; the scan reads one
// consistent pose.
func (b *BaseSensor) SetPose(p Pose) {
	b.pose.Store(&p)
}

// CurrentPose returns the most recently set pose.
func (b *BaseSensor) CurrentPose() Pose {
	if p := b.pose.Load(); p != nil {
		return *p
	}
	return Pose{}
}

// HasDetection reports whether the last published scan found any target.
func (b *BaseSensor) HasDetection() bool {
	return b.DetectedCount() > 0
}

// DetectedCount returns the number of published results.
func (b *BaseSensor) DetectedCount() int {
	if p := b.published.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// GetDetectedHandles copies published target handles into buf, bounded by
// len(buf), and returns the count written.
func (b *BaseSensor) GetDetectedHandles(buf []Handle) int {
	p := b.published.Load()
	if p == nil {
		return 0
	}
	n := 0
	for i := range *p {
		if n >= len(buf) {
			break
		}
		buf[n] = (*p)[i].Target
		n++
	}
	return n
}

// Results returns the published buffer. Read-only for callers: the buffer
// is replaced on publish, never mutated in place.
func (b *BaseSensor) Results() []DetectionResult {
	if p := b.published.Load(); p != nil {
		return *p
	}
	return nil
}

func (b *BaseSensor) publish(results []DetectionResult) {
	old := b.published.Swap(&results)
	if old != nil {
		// Previous front buffer becomes the next back buffer.
		b.scratch = (*old)[:0]
	}
}

func (b *BaseSensor) takeScratch() []DetectionResult {
	s := b.scratch
	b.scratch = nil
	if s == nil {
		s = make([]DetectionResult, 0, b.maxResults)
	}
	return s[:0]
}

func (b *BaseSensor) giveScratch(buf []DetectionResult) {
	if buf != nil {
		b.scratch = buf[:0]
	}
}

// matchesFilter applies an optional type-tag filter.
func matchesFilter(filter map[uint32]struct{}, tag uint32) bool {
	if filter == nil {
		return true
	}
	_, ok := filter[tag]
	return ok
}

func buildFilter(tags []uint32) map[uint32]struct{} {
	if len(tags) == 0 {
		return nil
	}
	f := make(map[uint32]struct{}, len(tags))
	for _, t := range tags {
		f[t] = struct{}{}
	}
	return f
}
