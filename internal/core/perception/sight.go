package perception

import (
	"fmt"

	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// SightConfig configures a cone + line-of-sight sensor.
type SightConfig struct {
	Name string `json:"name" yaml:"name"`
	// Self is the observer's own registry handle, excluded from results.
	Self Handle `json:"-" yaml:"-"`
	// HalfAngleDeg is the cone half-angle in degrees, (0, 180]. A target at
	// exactly the half-angle is outside the cone.
	HalfAngleDeg float64 `json:"half_angle_deg" yaml:"half_angle_deg"`
	// MaxDistance is the cone range. A target at exactly MaxDistance is out
	// of range.
	MaxDistance float64 `json:"max_distance" yaml:"max_distance"`
	// TypeFilter restricts detections to the listed type tags; empty means
	// no filtering.
	TypeFilter []uint32 `json:"type_filter,omitempty" yaml:"type_filter,omitempty"`
	// UseLineOfSight enables the obstacle test between observer and target.
	UseLineOfSight bool    `json:"use_line_of_sight" yaml:"use_line_of_sight"`
	UpdateInterval float64 `json:"update_interval,omitempty" yaml:"update_interval,omitempty"`
	MaxResults     int     `json:"max_results,omitempty" yaml:"max_results,omitempty"`
}

// Validate checks the configuration ranges.
func (c SightConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("sight sensor name is required")
	}
	if c.HalfAngleDeg <= 0 || c.HalfAngleDeg > 180 {
		return fmt.Errorf("half_angle_deg must be in (0, 180], got %v", c.HalfAngleDeg)
	}
	if c.MaxDistance <= 0 {
		return fmt.Errorf("max_distance must be positive, got %v", c.MaxDistance)
	}
	return nil
}

// SightSensor detects targets inside a view cone, optionally requiring an
// unobstructed line of sight to each target's LOS point.
type SightSensor struct {
	*BaseSensor

	halfAngle   float64 // radians
	maxDistance float64
	filter      map[uint32]struct{}
	useLOS      bool
	obstacles   physics.ObstacleTest
	scorer      VisibilityScorer
}

var _ Sensor = (*SightSensor)(nil)

// NewSightSensor builds a sight sensor. obstacles may be nil when
// UseLineOfSight is off; scorer nil defaults to BinaryVisibility.
func NewSightSensor(cfg SightConfig, obstacles physics.ObstacleTest, scorer VisibilityScorer) (*SightSensor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sight config: %w", err)
	}
	if cfg.UseLineOfSight && obstacles == nil {
		return nil, fmt.Errorf("sight sensor %s: use_line_of_sight requires an obstacle test", cfg.Name)
	}
	if scorer == nil {
		scorer = BinaryVisibility
	}
	return &SightSensor{
		BaseSensor:  NewBaseSensor(cfg.Name, cfg.Self, cfg.MaxResults, cfg.UpdateInterval),
		halfAngle:   physics.Radians(cfg.HalfAngleDeg),
		maxDistance: cfg.MaxDistance,
		filter:      buildFilter(cfg.TypeFilter),
		useLOS:      cfg.UseLineOfSight,
		obstacles:   obstacles,
		scorer:      scorer,
	}, nil
}

func (s *SightSensor) Kind() SensorKind { return KindSight }

// Scan walks the snapshot and appends every target inside the cone.
// Boundary ties break toward rejection: angle >= half-angle and
// distance >= max distance are both outside, keeping detection
// deterministic under float equality.
func (s *SightSensor) Scan(snap Snapshot, now float64, dst []DetectionResult) []DetectionResult {
	pose := s.CurrentPose()
	forward := pose.Forward.Normalized()

	for i := range snap.Entries {
		if len(dst) >= s.maxResults {
			break
		}
		e := &snap.Entries[i]
		if e.ID == s.self.ID && e.Generation == s.self.Generation {
			continue
		}
		if !matchesFilter(s.filter, e.TypeTag) {
			continue
		}

		to := e.LOSPoint.Sub(pose.Position)
		d := to.Length()
		if d >= s.maxDistance {
			continue
		}
		if physics.AngleBetween(forward, to) >= s.halfAngle {
			continue
		}

		visibility := 1.0
		if s.useLOS {
			visibility = s.scorer(s.obstacles.Test(pose.Position, e.LOSPoint))
			if visibility <= 0 {
				continue
			}
		}

		dst = append(dst, DetectionResult{
			Target:            e.Handle(),
			Distance:          d,
			LastKnownPosition: e.Position,
			DetectionTime:     now,
			Visibility:        visibility,
			Kind:              KindSight,
		})
	}
	return dst
}
