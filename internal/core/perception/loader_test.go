package perception

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sensekit/sensekit/internal/core/systems/physics"
)

const demoConfig = `
registry:
  max_capacity: 64
scheduler:
  mode: deferred
  workers: 2
sensors:
  - name: eyes
    type: sight
    enabled: true
    parameters:
      half_angle_deg: 30
      max_distance: 10
  - name: ears
    type: hearing
    enabled: true
    update_interval: 0.5
    parameters:
      radius: 12
      type_filter: [1, 2]
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(demoConfig))
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Registry.MaxCapacity)
	require.Equal(t, "deferred", cfg.Scheduler.Mode)
	require.Len(t, cfg.Sensors, 2)
	require.Equal(t, 0.5, cfg.Sensors[1].UpdateInterval)
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	_, err := ParseConfig([]byte("scheduler:\n  mode: sometimes\n"))
	require.Error(t, err)

	_, err = ParseConfig([]byte(`
sensors:
  - name: twin
    type: sight
  - name: twin
    type: hearing
`))
	require.Error(t, err, "duplicate sensor names must be rejected")

	_, err = ParseConfig([]byte("sensors:\n  - type: sight\n"))
	require.Error(t, err, "sensor name is required")
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(demoConfig))
	require.NoError(t, err)

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, engine.Scheduler.SensorCount())
	require.Equal(t, ModeDeferred, engine.Scheduler.Mode())

	// End to end: observer at origin facing +z, targets ahead, beside and
	// behind; only the one ahead is seen.
	for _, pos := range []physics.Vec3{{Z: 5}, {X: 5}, {Z: -5}} {
		_, err = engine.Registry.Register(newTarget(pos))
		require.NoError(t, err)
	}
	for _, id := range engine.Scheduler.SensorIDs() {
		sensor, ok := engine.Scheduler.GetSensor(id)
		require.True(t, ok)
		if posed, ok := sensor.(interface{ SetPose(Pose) }); ok {
			posed.SetPose(Pose{Forward: physics.Vec3{Z: 1}})
		}
	}

	engine.Tick(0.1)

	var eyes Sensor
	for _, id := range engine.Scheduler.SensorIDs() {
		s, _ := engine.Scheduler.GetSensor(id)
		if s.Name() == "eyes" {
			eyes = s
		}
	}
	require.NotNil(t, eyes)
	require.Equal(t, 1, eyes.DetectedCount())
}

func TestNewEngineInvalidSensorParameters(t *testing.T) {
	// One bad sensor among valid ones aborts construction with its error.
	cfg := &Config{Sensors: []*SensorConfig{
		{Name: "ears", Type: "hearing", Enabled: true},
		{Name: "eyes", Type: "sight", Enabled: true, Parameters: map[string]any{"half_angle_deg": -5}},
	}}
	_, err := NewEngine(cfg)
	require.ErrorContains(t, err, "eyes")
}

func TestNewEngineUnknownSensorType(t *testing.T) {
	cfg := &Config{Sensors: []*SensorConfig{{Name: "x", Type: "smell"}}}
	_, err := NewEngine(cfg)
	require.Error(t, err)
}

func TestNewEngineRequiresObstacleTestForLOS(t *testing.T) {
	cfg := &Config{Sensors: []*SensorConfig{{
		Name: "eyes", Type: "sight", Enabled: true,
		Parameters: map[string]any{"use_line_of_sight": true},
	}}}
	_, err := NewEngine(cfg)
	require.Error(t, err)

	clear := physics.ObstacleTestFunc(func(_, _ physics.Vec3) physics.OcclusionResult {
		return physics.Clear()
	})
	_, err = NewEngine(cfg, WithObstacleTest(clear))
	require.NoError(t, err)
}

// customFactory exercises factory registration overrides.
type customFactory struct{}

func (customFactory) SensorType() string { return "sight" }

func (customFactory) CreateSensor(cfg *SensorConfig, _ FactoryDeps) (Sensor, error) {
	return newScripted(cfg.Name, func(_ Snapshot, _ float64, dst []DetectionResult) []DetectionResult {
		return dst
	}), nil
}

func TestNewEngineCustomFactory(t *testing.T) {
	cfg := &Config{Sensors: []*SensorConfig{{Name: "stub", Type: "sight", Enabled: true}}}
	engine, err := NewEngine(cfg, WithSensorFactory(customFactory{}))
	require.NoError(t, err)

	ids := engine.Scheduler.SensorIDs()
	require.Len(t, ids, 1)
	sensor, ok := engine.Scheduler.GetSensor(ids[0])
	require.True(t, ok)
	_, isScripted := sensor.(*scriptedSensor)
	require.True(t, isScripted)
}
