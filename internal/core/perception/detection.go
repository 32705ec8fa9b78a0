package perception

import (
	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// SensorKind discriminates which query produced a detection.
type SensorKind uint8

const (
	KindSight SensorKind = iota
	KindHearing
)

func (k SensorKind) String() string {
	switch k {
	case KindSight:
		return "sight"
	case KindHearing:
		return "hearing"
	default:
		return "unknown"
	}
}

// DetectionResult is one detected target as seen by a sensor. The Target
// handle was valid in the snapshot the query ran against; consumers must
// re-validate it through the registry before dereferencing, since the
// target may have been unregistered in the meantime.
type DetectionResult struct {
	Target            Handle
	Distance          float64
	LastKnownPosition physics.Vec3
	DetectionTime     float64
	Visibility        float64
	Kind              SensorKind
}

// VisibilityScorer converts an obstacle test outcome into a visibility
// score in [0,1]. Zero rejects the target. The exact partial-occlusion
// curve is a host policy, injected per sensor.
type VisibilityScorer func(physics.OcclusionResult) float64

// BinaryVisibility is the default scorer: blocked scores 0, clear scores 1.
func BinaryVisibility(r physics.OcclusionResult) float64 {
	if r.Blocked {
		return 0
	}
	return 1
}

// GradedVisibility passes the obstacle test's own partial-visibility scalar
// through, clamped to [0,1]. Blocked still scores 0.
func GradedVisibility(r physics.OcclusionResult) float64 {
	if r.Blocked {
		return 0
	}
	return clamp01(r.Visibility)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
