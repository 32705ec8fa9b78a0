package perception

import (
	"fmt"

	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// HearingConfig configures a sphere + occlusion-attenuation sensor.
type HearingConfig struct {
	Name string `json:"name" yaml:"name"`
	// Self is the listener's own registry handle, excluded from results.
	Self Handle `json:"-" yaml:"-"`
	// Radius is how far the listener can hear.
	Radius float64 `json:"radius" yaml:"radius"`
	// TypeFilter restricts detections to the listed type tags; empty means
	// no filtering.
	TypeFilter []uint32 `json:"type_filter,omitempty" yaml:"type_filter,omitempty"`
	// UseOcclusion attenuates sounds behind obstacles instead of treating
	// the world as acoustically transparent.
	UseOcclusion bool `json:"use_occlusion" yaml:"use_occlusion"`
	// OcclusionAttenuation is the fraction of loudness retained when the
	// source is occluded, in [0, 1]. Zero silences occluded sources.
	OcclusionAttenuation float64 `json:"occlusion_attenuation" yaml:"occlusion_attenuation"`
	UpdateInterval       float64 `json:"update_interval,omitempty" yaml:"update_interval,omitempty"`
	MaxResults           int     `json:"max_results,omitempty" yaml:"max_results,omitempty"`
}

// Validate checks the configuration ranges.
func (c HearingConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("hearing sensor name is required")
	}
	if c.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %v", c.Radius)
	}
	if c.OcclusionAttenuation < 0 || c.OcclusionAttenuation > 1 {
		return fmt.Errorf("occlusion_attenuation must be in [0, 1], got %v", c.OcclusionAttenuation)
	}
	return nil
}

// HearingSensor detects sound emitters within a sphere around the listener.
// An emitter's own loudness drives the score; silent entities (loudness 0)
// are never heard, at any distance.
type HearingSensor struct {
	*BaseSensor

	radius      float64
	filter      map[uint32]struct{}
	useOcc      bool
	attenuation float64
	obstacles   physics.ObstacleTest
}

var _ Sensor = (*HearingSensor)(nil)

// NewHearingSensor builds a hearing sensor. obstacles may be nil when
// UseOcclusion is off.
func NewHearingSensor(cfg HearingConfig, obstacles physics.ObstacleTest) (*HearingSensor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hearing config: %w", err)
	}
	if cfg.UseOcclusion && obstacles == nil {
		return nil, fmt.Errorf("hearing sensor %s: use_occlusion requires an obstacle test", cfg.Name)
	}
	return &HearingSensor{
		BaseSensor:  NewBaseSensor(cfg.Name, cfg.Self, cfg.MaxResults, cfg.UpdateInterval),
		radius:      cfg.Radius,
		filter:      buildFilter(cfg.TypeFilter),
		useOcc:      cfg.UseOcclusion,
		attenuation: cfg.OcclusionAttenuation,
		obstacles:   obstacles,
	}, nil
}

func (s *HearingSensor) Kind() SensorKind { return KindHearing }

// Scan walks the snapshot and appends every audible emitter in range.
func (s *HearingSensor) Scan(snap Snapshot, now float64, dst []DetectionResult) []DetectionResult {
	pos := s.CurrentPose().Position

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
		if e.Loudness <= 0 {
			continue
		}

		d := physics.Distance(pos, e.Position)
		if d > s.radius {
			continue
		}

		score := clamp01(e.Loudness)
		if s.useOcc && s.obstacles.Test(pos, e.Position).Blocked {
			score *= s.attenuation
			if score <= 0 {
				continue
			}
		}

		dst = append(dst, DetectionResult{
			Target:            e.Handle(),
			Distance:          d,
			LastKnownPosition: e.Position,
			DetectionTime:     now,
			Visibility:        score,
			Kind:              KindHearing,
		})
	}
	return dst
}
