package generic

import "testing"

func TestPoolRoundTrip(t *testing.T) {
	p := NewHotPool(func() int { return 42 }, 2)
	if v := p.Get(); v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
	p.Put(7)
}

func TestSlicePoolReturnsEmptySlices(t *testing.T) {
	p := NewSlicePool[int](8)

	s := p.Get()
	if len(s) != 0 {
		t.Fatalf("len = %d, want 0", len(s))
	}
	s = append(s, 1, 2, 3)
	p.Put(s)

	s2 := p.Get()
	if len(s2) != 0 {
		t.Fatalf("recycled slice not emptied: len = %d", len(s2))
	}

	p.Put(nil) // must not panic
}

func TestHotSlicePool(t *testing.T) {
	p := NewHotSlicePool[int](4, 2)
	s := p.Get()
	if len(s) != 0 || cap(s) != 4 {
		t.Fatalf("got len %d cap %d, want len 0 cap 4", len(s), cap(s))
	}
	p.Put(s)
}
