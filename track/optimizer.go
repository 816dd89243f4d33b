package track

import "go.viam.com/proslam/spatialmath"

// SkippedError is the sentinel error value used by Errors() to mean "not evaluated/skipped",
// distinguishing a deliberately-unjudged constraint from a real zero residual.
const SkippedError = -1.0

// PoseOptimizer is the external collaborator that runs a weighted nonlinear least-squares solve
// over 2D reprojection and 3D depth residuals for a frame's constraints. Its implementation
// (Gauss-Newton/Levenberg-Marquardt, robust kernel, etc.) is out of scope for the tracker; only
// this contract surface is specified here.
type PoseOptimizer interface {
	// Init initializes the optimizer with the per-framepoint constraints of frame, seeded at
	// initialRobotToWorld.
	Init(frame *Frame, initialRobotToWorld *spatialmath.Pose)

	// SetWeightFramepoint sets the scalar in (0, 1] weighting pure-image residuals against
	// landmark-depth residuals.
	SetWeightFramepoint(weight float64)

	// SetMaximumDepthNearMeters / SetMaximumDepthFarMeters forward the generator's depth
	// classification thresholds to the optimizer's residual model.
	SetMaximumDepthNearMeters(value float64)
	SetMaximumDepthFarMeters(value float64)

	// Converge runs the optimization to convergence or its iteration cap.
	Converge()

	// RobotToWorld returns the resulting pose.
	RobotToWorld() *spatialmath.Pose

	// NumberOfInliers / NumberOfOutliers / TotalError report solve-quality statistics.
	NumberOfInliers() int
	NumberOfOutliers() int
	TotalError() float64

	// Errors returns, per framepoint in the initializing frame's Points (same order, same
	// length), the residual after optimization. SkippedError means "not evaluated/skipped".
	Errors() []float64

	// Inliers returns, per framepoint in the initializing frame's Points (same order, same
	// length), whether the constraint was judged an inlier.
	Inliers() []bool
}
