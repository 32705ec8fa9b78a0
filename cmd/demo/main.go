package main

import (
	"fmt"
	"os"

	"github.com/sensekit/sensekit/internal/core/events/bus"
	"github.com/sensekit/sensekit/internal/core/observability/log"
	"github.com/sensekit/sensekit/internal/core/perception"
	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

// entity is a minimal Perceivable for the demo world.
type entity struct {
	tag      uint32
	pos      physics.Vec3
	loudness float64
}

func (e *entity) TypeTag() uint32          { return e.tag }
func (e *entity) Detectable() bool         { return true }
func (e *entity) Position() physics.Vec3   { return e.pos }
func (e *entity) LOSPoint() physics.Vec3   { return e.pos.Add(physics.Vec3{Y: 1.7}) }
func (e *entity) DetectionRadius() float64 { return 0.5 }
func (e *entity) Loudness() float64        { return e.loudness }

var configYAML = []byte(`
registry:
  max_capacity: 256
scheduler:
  mode: deferred
  workers: 4
sensors:
  - name: guard-eyes
    type: sight
    enabled: true
    parameters:
      half_angle_deg: 45
      max_distance: 30
  - name: guard-ears
    type: hearing
    enabled: true
    update_interval: 0.2
    parameters:
      radius: 12
`)

func main() {
	logger := log.New(log.LevelDebug)

	eventBus := bus.New()
	eventBus.Subscribe(perception.EventDetectionGained, func(ev bus.Event) error {
		d := ev.Data.(perception.DetectionEvent)
		logger.Info("target acquired",
			log.String("sensor", d.Sensor),
			log.String("kind", d.Kind.String()),
			log.Int("count", d.Count),
		)
		return nil
	})
	eventBus.Subscribe(perception.EventDetectionLost, func(ev bus.Event) error {
		d := ev.Data.(perception.DetectionEvent)
		logger.Info("target lost", log.String("sensor", d.Sensor))
		return nil
	})

	cfg, err := perception.ParseConfig(configYAML)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing config:", err)
		os.Exit(1)
	}

	engine, err := perception.NewEngine(cfg,
		perception.WithEngineLogger(logger),
		perception.WithEngineBus(eventBus),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building engine:", err)
		os.Exit(1)
	}

	// A patrolling intruder that crosses the guard's view cone.
	intruder := &entity{tag: 1, pos: physics.Vec3{X: -40, Z: 20}, loudness: 0.8}
	if _, err = engine.Registry.Register(intruder); err != nil {
		fmt.Fprintln(os.Stderr, "Error registering entity:", err)
		os.Exit(1)
	}

	// The guard stands at the origin looking down +Z.
	guardPose := perception.Pose{Forward: physics.Vec3{Z: 1}}
	for _, id := range engine.Scheduler.SensorIDs() {
		if sensor, ok := engine.Scheduler.GetSensor(id); ok {
			if posed, ok := sensor.(interface{ SetPose(perception.Pose) }); ok {
				posed.SetPose(guardPose)
			}
		}
	}

	const dt = 1.0 / 30
	for tick := 0; tick < 300; tick++ {
		intruder.pos.X += 0.4
		engine.Registry.MarkDirty()
		engine.Tick(dt)
	}
}
