package perception

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sensekit/sensekit/pkg/generic"
)

var (
	// ErrRegistryFull is returned by Register once the slot array has grown
	// to its configured maximum. The caller decides whether to raise the cap
	// or reject the entity; the registry never grows unbounded.
	ErrRegistryFull = errors.New("perception: registry full")

	// ErrNilEntity is returned by Register for a nil capability reference.
	ErrNilEntity = errors.New("perception: nil entity reference")
)

// DefaultMaxCapacity bounds registry growth when the config leaves it unset.
const DefaultMaxCapacity = 4096

// RegistryConfig sizes a registry.
type RegistryConfig struct {
	// MaxCapacity is the hard cap on live slots. Zero means DefaultMaxCapacity.
	MaxCapacity int `json:"max_capacity,omitempty" yaml:"max_capacity,omitempty"`
	// InitialCapacity pre-sizes the slot array to avoid early regrowth.
	InitialCapacity int `json:"initial_capacity,omitempty" yaml:"initial_capacity,omitempty"`
}

// Validate checks the configuration for contradictions.
func (c RegistryConfig) Validate() error {
	if c.MaxCapacity < 0 {
		return fmt.Errorf("max_capacity must not be negative, got %d", c.MaxCapacity)
	}
	if c.InitialCapacity < 0 {
		return fmt.Errorf("initial_capacity must not be negative, got %d", c.InitialCapacity)
	}
	max := c.MaxCapacity
	if max == 0 {
		max = DefaultMaxCapacity
	}
	if c.InitialCapacity > max {
		return fmt.Errorf("initial_capacity %d exceeds max_capacity %d", c.InitialCapacity, max)
	}
	return nil
}

type slot struct {
	ref        Perceivable
	generation uint32
}

// Registry owns the canonical set of detectable entities and issues
// generational handles for them. A slot is either occupied (non-nil ref)
// or on the free list, never both. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	slots    []slot
	freeList []uint32
	maxCap   int

	// Dense rebuild state, guarded by mu.
	dirty bool
	data  []SnapshotEntry
	hash  uint64
	scans uint64

	copyPool *generic.SlicePool[SnapshotEntry]
}

// NewRegistry creates a registry. A zero config gets default sizing.
func NewRegistry(cfg RegistryConfig) *Registry {
	maxCap := cfg.MaxCapacity
	if maxCap <= 0 {
		maxCap = DefaultMaxCapacity
	}
	return &Registry{
		slots:    make([]slot, 0, cfg.InitialCapacity),
		freeList: make([]uint32, 0, 64),
		maxCap:   maxCap,
		dirty:    true,
		// A couple of snapshot copies are usually in flight per tick; keep
		// that many warm from the start.
		copyPool: generic.NewHotSlicePool[SnapshotEntry](64, 2),
	}
}

// Register allocates a slot for the entity and returns its handle. The slot
// generation is bumped on allocation, so first-use handles always carry
// generation >= 1 and a zero-valued Handle can never match.
func (r *Registry) Register(ref Perceivable) (Handle, error) {
	if ref == nil {
		return Handle{}, ErrNilEntity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.freeList); n > 0 {
		idx = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		if len(r.slots) >= r.maxCap {
			return Handle{}, ErrRegistryFull
		}
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}

	s := &r.slots[idx]
	s.generation++
	s.ref = ref
	r.dirty = true

	return Handle{ID: idx, Generation: s.generation}, nil
}

// Unregister releases the slot behind the handle. Stale or out-of-range
// handles are a no-op: double unregister is routine, not an error.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validLocked(h) {
		return
	}
	r.slots[h.ID].ref = nil
	r.freeList = append(r.freeList, h.ID)
	r.dirty = true
}

// Get returns the entity behind a handle, or false when the handle is stale.
func (r *Registry) Get(h Handle) (Perceivable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.validLocked(h) {
		return nil, false
	}
	return r.slots[h.ID].ref, true
}

// IsValid reports whether the handle still refers to a live entity.
func (r *Registry) IsValid(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validLocked(h)
}

func (r *Registry) validLocked(h Handle) bool {
	if int(h.ID) >= len(r.slots) {
		return false
	}
	s := &r.slots[h.ID]
	return s.ref != nil && s.generation == h.Generation
}

// Len returns the number of occupied slots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots) - len(r.freeList)
}

// MaxCapacity returns the hard slot cap.
func (r *Registry) MaxCapacity() int { return r.maxCap }

// MarkDirty forces the next rebuild to re-scan, for entities whose position
// or detectability changed without a register/unregister.
func (r *Registry) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// RebuildData refreshes the dense snapshot array if anything changed since
// the last rebuild. Clean registries return without scanning.
func (r *Registry) RebuildData() {
	r.mu.Lock()
	r.rebuildLocked()
	r.mu.Unlock()
}

func (r *Registry) rebuildLocked() {
	if !r.dirty && r.data != nil {
		return
	}

	if r.data == nil {
		r.data = make([]SnapshotEntry, 0, len(r.slots))
	}
	r.data = r.data[:0]
	for idx := range r.slots {
		s := &r.slots[idx]
		if s.ref == nil || !s.ref.Detectable() {
			continue
		}
		r.data = append(r.data, SnapshotEntry{
			ID:              uint32(idx),
			Generation:      s.generation,
			TypeTag:         s.ref.TypeTag(),
			Flags:           FlagDetectable,
			DetectionRadius: s.ref.DetectionRadius(),
			Loudness:        s.ref.Loudness(),
			Position:        s.ref.Position(),
			LOSPoint:        s.ref.LOSPoint(),
		})
	}
	r.hash = hashEntries(r.data)
	r.dirty = false
	r.scans++
}

// SnapshotCopy rebuilds if needed and returns an independent copy of the
// dense array for handoff to parallel consumers. The caller owns the copy
// and releases it through ReleaseSnapshot once all readers are done; the
// registry may be mutated freely while the copy is in flight.
func (r *Registry) SnapshotCopy() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rebuildLocked()
	buf := r.copyPool.Get()
	buf = append(buf, r.data...)
	return Snapshot{Entries: buf, Hash: r.hash}
}

// ReleaseSnapshot recycles a snapshot copy's backing array. The snapshot
// must not be read afterwards.
func (r *Registry) ReleaseSnapshot(s Snapshot) {
	r.copyPool.Put(s.Entries)
}

// scanCount reports how many full rebuild scans have run, for tests that
// assert the dirty flag short-circuits redundant work.
func (r *Registry) scanCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scans
}

// snapshotHash returns the fingerprint of the current dense array.
func (r *Registry) snapshotHash() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hash
}
