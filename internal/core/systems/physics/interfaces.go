package physics

// OcclusionResult is the outcome of an obstacle test between two points.
// Visibility is only meaningful when Blocked is false and the backend
// supports graded occlusion (fog, foliage); binary backends leave it at 1.
type OcclusionResult struct {
	Blocked    bool
	Visibility float64
}

// Clear is the result of an unobstructed test.
func Clear() OcclusionResult { return OcclusionResult{Blocked: false, Visibility: 1} }

// Blocked is the result of a fully obstructed test.
func Blocked() OcclusionResult { return OcclusionResult{Blocked: true} }

// ObstacleTest is the capability the host's physics/raycast layer supplies
// to the perception core. Implementations must be safe for concurrent use:
// sensor queries may invoke them from worker goroutines.
type ObstacleTest interface {
	// Test casts between two world points and reports occlusion.
	Test(from, to Vec3) OcclusionResult
}

// ObstacleTestFunc adapts a plain function to the ObstacleTest interface.
type ObstacleTestFunc func(from, to Vec3) OcclusionResult

func (f ObstacleTestFunc) Test(from, to Vec3) OcclusionResult { return f(from, to) }
