package perception

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// Entry flag bits.
const (
	// FlagDetectable marks an entry that passed the detectable check at
	// rebuild time. Every snapshot entry carries it; it exists so future
	// flags keep the layout stable.
	FlagDetectable uint32 = 1 << iota
)

// SnapshotEntry is the flat, position-independent projection of one live
// registry slot. No pointers: the whole array is bulk-copied for parallel
// consumption.
type SnapshotEntry struct {
	ID              uint32
	Generation      uint32
	TypeTag         uint32
	Flags           uint32
	DetectionRadius float64
	Loudness        float64
	Position        physics.Vec3
	LOSPoint        physics.Vec3
}

// Handle reconstructs the registry handle of the entry.
func (e SnapshotEntry) Handle() Handle {
	return Handle{ID: e.ID, Generation: e.Generation}
}

// Snapshot is an immutable dense copy of the detectable registry state at
// one point in time. It is owned by whoever created it for the duration of
// the sensor jobs reading it, then released back to the registry.
type Snapshot struct {
	Entries []SnapshotEntry
	Hash    uint64
}

// Len returns the number of entries.
func (s Snapshot) Len() int { return len(s.Entries) }

// hashEntries fingerprints the dense array so identical rebuilds can be
// recognized without comparing entry by entry.
func hashEntries(entries []SnapshotEntry) uint64 {
	d := xxhash.New()
	var buf [8]byte
	w64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	wf := func(v float64) { w64(math.Float64bits(v)) }
	wv := func(v physics.Vec3) { wf(v.X); wf(v.Y); wf(v.Z) }

	for i := range entries {
		e := &entries[i]
		w64(uint64(e.ID)<<32 | uint64(e.Generation))
		w64(uint64(e.TypeTag)<<32 | uint64(e.Flags))
		wf(e.DetectionRadius)
		wf(e.Loudness)
		wv(e.Position)
		wv(e.LOSPoint)
	}
	return d.Sum64()
}
