package perception

import (
	"fmt"

	"github.com/sensekit/sensekit/internal/core/events/bus"
	"github.com/sensekit/sensekit/internal/core/observability/log"
	"github.com/sensekit/sensekit/internal/core/systems/physics"
	"github.com/sensekit/sensekit/pkg/concurrent"
)

// FactoryDeps are the external capabilities handed to sensor factories.
type FactoryDeps struct {
	Obstacles physics.ObstacleTest
	Scorer    VisibilityScorer
}

// SensorFactory builds sensors of one type from loose configuration.
type SensorFactory interface {
	CreateSensor(cfg *SensorConfig, deps FactoryDeps) (Sensor, error)
	SensorType() string
}

// SightSensorFactory builds sight sensors from config parameters.
type SightSensorFactory struct{}

func (f *SightSensorFactory) SensorType() string { return "sight" }

func (f *SightSensorFactory) CreateSensor(cfg *SensorConfig, deps FactoryDeps) (Sensor, error) {
	halfAngle, _ := getFloatParameter(cfg.Parameters, "half_angle_deg", 60)
	maxDistance, _ := getFloatParameter(cfg.Parameters, "max_distance", 20)
	useLOS, _ := getBoolParameter(cfg.Parameters, "use_line_of_sight", false)
	maxResults, _ := getIntParameter(cfg.Parameters, "max_results", 0)
	filter, _ := getUint32SliceParameter(cfg.Parameters, "type_filter")

	return NewSightSensor(SightConfig{
		Name:           cfg.Name,
		HalfAngleDeg:   halfAngle,
		MaxDistance:    maxDistance,
		TypeFilter:     filter,
		UseLineOfSight: useLOS,
		UpdateInterval: cfg.UpdateInterval,
		MaxResults:     maxResults,
	}, deps.Obstacles, deps.Scorer)
}

// HearingSensorFactory builds hearing sensors from config parameters.
type HearingSensorFactory struct{}

func (f *HearingSensorFactory) SensorType() string { return "hearing" }

func (f *HearingSensorFactory) CreateSensor(cfg *SensorConfig, deps FactoryDeps) (Sensor, error) {
	radius, _ := getFloatParameter(cfg.Parameters, "radius", 15)
	useOcc, _ := getBoolParameter(cfg.Parameters, "use_occlusion", false)
	attenuation, _ := getFloatParameter(cfg.Parameters, "occlusion_attenuation", 0.5)
	maxResults, _ := getIntParameter(cfg.Parameters, "max_results", 0)
	filter, _ := getUint32SliceParameter(cfg.Parameters, "type_filter")

	return NewHearingSensor(HearingConfig{
		Name:                 cfg.Name,
		Radius:               radius,
		TypeFilter:           filter,
		UseOcclusion:         useOcc,
		OcclusionAttenuation: attenuation,
		UpdateInterval:       cfg.UpdateInterval,
		MaxResults:           maxResults,
	}, deps.Obstacles)
}

// Engine bundles one registry and its scheduler into an explicitly
// constructed context object. There are no package-level singletons; tests
// and hosts build as many independent engines as they need.
type Engine struct {
	Registry  *Registry
	Scheduler *Scheduler
}

type engineOptions struct {
	logger    log.Log
	obstacles physics.ObstacleTest
	scorer    VisibilityScorer
	eventBus  *bus.Bus
	factories map[string]SensorFactory
}

// EngineOption customizes engine construction.
type EngineOption func(*engineOptions)

// WithEngineLogger sets the logger for the scheduler and loader.
func WithEngineLogger(l log.Log) EngineOption {
	return func(o *engineOptions) { o.logger = l }
}

// WithObstacleTest injects the host's raycast capability, required by
// sensors configured with line-of-sight or occlusion.
func WithObstacleTest(t physics.ObstacleTest) EngineOption {
	return func(o *engineOptions) { o.obstacles = t }
}

// WithVisibilityScorer overrides the partial-occlusion scoring policy.
func WithVisibilityScorer(s VisibilityScorer) EngineOption {
	return func(o *engineOptions) { o.scorer = s }
}

// WithEngineBus attaches an event bus for detection transitions.
func WithEngineBus(b *bus.Bus) EngineOption {
	return func(o *engineOptions) { o.eventBus = b }
}

// WithSensorFactory registers a custom sensor factory, overriding a
// built-in of the same type name.
func WithSensorFactory(f SensorFactory) EngineOption {
	return func(o *engineOptions) { o.factories[f.SensorType()] = f }
}

// NewEngine builds a registry, scheduler and configured sensors from one
// configuration tree.
func NewEngine(cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	o := &engineOptions{
		logger: log.NewNop(),
		factories: map[string]SensorFactory{
			"sight":   &SightSensorFactory{},
			"hearing": &HearingSensorFactory{},
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	registry := NewRegistry(cfg.Registry)

	mode, err := ParseMode(cfg.Scheduler.Mode)
	if err != nil {
		return nil, err
	}
	schedOpts := []SchedulerOption{
		WithLogger(o.logger),
		WithWorkers(cfg.Scheduler.Workers),
	}
	if o.eventBus != nil {
		schedOpts = append(schedOpts, WithEventBus(o.eventBus))
	}
	scheduler := NewScheduler(registry, mode, schedOpts...)

	// Factories are independent per config entry, so sensors build in
	// parallel and the first failure aborts construction.
	deps := FactoryDeps{Obstacles: o.obstacles, Scorer: o.scorer}
	sensors := make([]Sensor, len(cfg.Sensors))
	build := concurrent.ScatterErr(cfg.Sensors, 0, func(i int, sc *SensorConfig) error {
		factory, ok := o.factories[sc.Type]
		if !ok {
			return fmt.Errorf("unknown sensor type: %s", sc.Type)
		}
		sensor, err := factory.CreateSensor(sc, deps)
		if err != nil {
			return fmt.Errorf("failed to create sensor %s: %w", sc.Name, err)
		}
		sensors[i] = sensor
		return nil
	})
	if err := build.Wait(); err != nil {
		return nil, err
	}
	for i, sensor := range sensors {
		sc := cfg.Sensors[i]
		sensor.SetEnabled(sc.Enabled)
		scheduler.RegisterSensor(sensor)
		o.logger.Debug("sensor configured",
			log.String("sensor", sc.Name),
			log.String("type", sc.Type),
			log.Bool("enabled", sc.Enabled),
		)
	}

	return &Engine{Registry: registry, Scheduler: scheduler}, nil
}

// Tick runs one full scheduling pass: the update phase followed by the
// completion phase. Hosts that interleave their own work between phases
// call the scheduler directly instead.
func (e *Engine) Tick(dt float64) {
	e.Scheduler.RunUpdatePhase(dt)
	e.Scheduler.RunCompletionPhase()
}
