package perception

// Handle identifies a slot in the entity registry. It is valid only while
// the slot's stored generation matches. Generations start at 1 on first
// registration, so the zero Handle is never valid.
type Handle struct {
	ID         uint32
	Generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.ID == 0 && h.Generation == 0 }
