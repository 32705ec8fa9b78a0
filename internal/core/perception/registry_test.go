package perception

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// testEntity is a configurable Perceivable used across the package tests.
type testEntity struct {
	tag        uint32
	detectable bool
	pos        physics.Vec3
	los        physics.Vec3
	hasLOS     bool
	radius     float64
	loudness   float64
}

func (e *testEntity) TypeTag() uint32        { return e.tag }
func (e *testEntity) Detectable() bool       { return e.detectable }
func (e *testEntity) Position() physics.Vec3 { return e.pos }
func (e *testEntity) LOSPoint() physics.Vec3 {
	if e.hasLOS {
		return e.los
	}
	return e.pos
}
func (e *testEntity) DetectionRadius() float64 { return e.radius }
func (e *testEntity) Loudness() float64        { return e.loudness }

func newTarget(pos physics.Vec3) *testEntity {
	return &testEntity{tag: 1, detectable: true, pos: pos, radius: 0.5}
}

func TestRegisterGetRoundTrip(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	e := newTarget(physics.Vec3{X: 1})

	h, err := r.Register(e)
	require.NoError(t, err)
	require.GreaterOrEqual(t, h.Generation, uint32(1), "first-use generation must be >= 1")

	got, ok := r.Get(h)
	require.True(t, ok)
	require.Same(t, e, got.(*testEntity))
	require.True(t, r.IsValid(h))

	r.Unregister(h)
	_, ok = r.Get(h)
	require.False(t, ok)
	require.False(t, r.IsValid(h))
}

func TestRegisterNil(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	_, err := r.Register(nil)
	require.ErrorIs(t, err, ErrNilEntity)
}

func TestGenerationInvalidation(t *testing.T) {
	r := NewRegistry(RegistryConfig{})

	h1, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)
	r.Unregister(h1)
	require.False(t, r.IsValid(h1))

	// The freed slot is reused; the recycled handle must differ.
	h2, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)
	require.Equal(t, h1.ID, h2.ID, "free list should reuse the slot")
	require.NotEqual(t, h1.Generation, h2.Generation)

	// The old handle stays dead forever, even with the slot occupied again.
	require.False(t, r.IsValid(h1))
	require.True(t, r.IsValid(h2))
	_, ok := r.Get(h1)
	require.False(t, ok)
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	h, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)

	r.Unregister(h)
	r.Unregister(h) // second call is a no-op, not an error
	require.Equal(t, 0, r.Len())

	h2, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	require.True(t, r.IsValid(h2))
}

func TestRegistryFull(t *testing.T) {
	r := NewRegistry(RegistryConfig{MaxCapacity: 2})

	_, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)
	h, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)

	_, err = r.Register(newTarget(physics.Vec3{}))
	require.ErrorIs(t, err, ErrRegistryFull)

	// Freeing a slot makes room again.
	r.Unregister(h)
	_, err = r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)
}

func TestStaleHandleLookups(t *testing.T) {
	r := NewRegistry(RegistryConfig{})

	require.False(t, r.IsValid(Handle{}), "zero handle is never valid")
	require.False(t, r.IsValid(Handle{ID: 9999, Generation: 3}))
	_, ok := r.Get(Handle{ID: 9999, Generation: 3})
	require.False(t, ok)

	h, err := r.Register(newTarget(physics.Vec3{}))
	require.NoError(t, err)
	require.False(t, r.IsValid(Handle{ID: h.ID, Generation: h.Generation + 1}))
}

func TestRebuildStability(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	_, err := r.Register(newTarget(physics.Vec3{X: 1}))
	require.NoError(t, err)
	_, err = r.Register(newTarget(physics.Vec3{X: 2}))
	require.NoError(t, err)
	_, err = r.Register(&testEntity{tag: 2, detectable: false})
	require.NoError(t, err)

	r.RebuildData()
	require.Equal(t, uint64(1), r.scanCount())
	hash1 := r.snapshotHash()

	// No mutation since the last rebuild: no re-scan, identical data.
	r.RebuildData()
	require.Equal(t, uint64(1), r.scanCount(), "clean rebuild must not re-scan")
	require.Equal(t, hash1, r.snapshotHash())

	// An explicit MarkDirty forces a scan; unchanged content hashes equal.
	r.MarkDirty()
	r.RebuildData()
	require.Equal(t, uint64(2), r.scanCount())
	require.Equal(t, hash1, r.snapshotHash())
}

func TestSnapshotSkipsNonDetectable(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	h1, err := r.Register(newTarget(physics.Vec3{X: 1}))
	require.NoError(t, err)
	_, err = r.Register(&testEntity{tag: 7, detectable: false})
	require.NoError(t, err)

	snap := r.SnapshotCopy()
	defer r.ReleaseSnapshot(snap)

	require.Equal(t, 1, snap.Len())
	require.Equal(t, h1, snap.Entries[0].Handle())
	require.Equal(t, FlagDetectable, snap.Entries[0].Flags)
}

func TestSnapshotCopyIndependent(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	h, err := r.Register(newTarget(physics.Vec3{X: 5}))
	require.NoError(t, err)

	snap := r.SnapshotCopy()
	require.Equal(t, 1, snap.Len())

	// Mutating the registry must not touch the in-flight copy.
	r.Unregister(h)
	require.Equal(t, 1, snap.Len())
	require.Equal(t, h, snap.Entries[0].Handle())

	fresh := r.SnapshotCopy()
	require.Equal(t, 0, fresh.Len())
	require.NotEqual(t, snap.Hash, fresh.Hash)

	r.ReleaseSnapshot(snap)
	r.ReleaseSnapshot(fresh)
}
