//go:build !windows && !no_cgo

// Package optimize provides a concrete PoseOptimizer built on nlopt's sequential
// least-squares solver, minimizing weighted reprojection and landmark-depth residuals
// over a 6-DoF pose increment.
package optimize

import (
	"math"

	"github.com/go-nlopt/nlopt"
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/proslam/spatialmath"
	"go.viam.com/proslam/track"
)

const (
	defaultMaxEval      = 200
	defaultTolerance    = 1e-10
	defaultInlierPixels = 5.0
	perturbationEpsilon = 1e-6
)

// constraint is one framepoint's contribution to the cost function: the observed pixel
// location and the 3D point (world frame) it is presumed to project from.
type constraint struct {
	observed      [2]float64
	worldPoint    [3]float64
	hasDepth      bool
	observedDepth float64
}

// NloptPoseOptimizer implements track.PoseOptimizer using nlopt's LD_SLSQP solver with a
// numerically differentiated gradient, computed by forward differences: each parameter is
// perturbed by a small epsilon and the objective re-evaluated.
type NloptPoseOptimizer struct {
	inlierThresholdPixels float64
	maxNearMeters         float64
	maxFarMeters          float64
	weightFramepoint      float64

	frame               *track.Frame
	initialRobotToWorld *spatialmath.Pose
	constraints         []constraint

	result         *spatialmath.Pose
	errorsPerPoint []float64
	inlierFlags    []bool
	totalError     float64
}

// NewNloptPoseOptimizer returns an optimizer that accepts a constraint as an inlier when its
// reprojection residual is below inlierThresholdPixels.
func NewNloptPoseOptimizer(inlierThresholdPixels float64) *NloptPoseOptimizer {
	if inlierThresholdPixels <= 0 {
		inlierThresholdPixels = defaultInlierPixels
	}
	return &NloptPoseOptimizer{inlierThresholdPixels: inlierThresholdPixels, weightFramepoint: 1}
}

// Init seeds the optimizer with frame's framepoints and the pose to refine.
func (o *NloptPoseOptimizer) Init(frame *track.Frame, initialRobotToWorld *spatialmath.Pose) {
	o.frame = frame
	o.initialRobotToWorld = initialRobotToWorld
	o.constraints = o.constraints[:0]

	worldToCameraLeft := frame.RobotToCameraLeft.Compose(initialRobotToWorld.Inverse())
	for _, point := range frame.Points {
		worldCoordinates := point.WorldCoordinates
		if point.Landmark != nil && point.Landmark.Validated {
			worldCoordinates = point.Landmark.WorldCoordinates
		}
		pointInCamera := worldToCameraLeft.Transform(worldCoordinates)

		c := constraint{
			observed:   [2]float64{point.ImageCoordinatesLeft.X, point.ImageCoordinatesLeft.Y},
			worldPoint: [3]float64{worldCoordinates.X, worldCoordinates.Y, worldCoordinates.Z},
		}
		if point.Landmark != nil && point.Landmark.Validated && pointInCamera.Z > 0 {
			c.hasDepth = true
			c.observedDepth = point.CameraCoordinates.Z
		}
		o.constraints = append(o.constraints, c)
	}

	o.errorsPerPoint = make([]float64, len(o.constraints))
	o.inlierFlags = make([]bool, len(o.constraints))
}

// SetWeightFramepoint sets the weighting between reprojection and depth residuals.
func (o *NloptPoseOptimizer) SetWeightFramepoint(weight float64) { o.weightFramepoint = weight }

// SetMaximumDepthNearMeters records the near-depth classification threshold.
func (o *NloptPoseOptimizer) SetMaximumDepthNearMeters(v float64) { o.maxNearMeters = v }

// SetMaximumDepthFarMeters records the far-depth classification threshold.
func (o *NloptPoseOptimizer) SetMaximumDepthFarMeters(v float64) { o.maxFarMeters = v }

// Converge runs the SLSQP solve over a 6-vector pose increment (rotation vector + translation)
// applied to the initial pose via the exponential map, and stores the resulting pose, per-point
// errors, and inlier flags.
func (o *NloptPoseOptimizer) Converge() {
	if len(o.constraints) == 0 {
		o.result = o.initialRobotToWorld
		return
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, 6)
	if err != nil {
		o.result = o.initialRobotToWorld
		return
	}
	defer opt.Destroy()

	cost := func(x, gradient []float64) float64 {
		value := o.evaluate(x)
		if len(gradient) > 0 {
			for i := range gradient {
				bumped := append([]float64(nil), x...)
				bumped[i] += perturbationEpsilon
				gradient[i] = (o.evaluate(bumped) - value) / perturbationEpsilon
			}
		}
		return value
	}

	err = multierr.Combine(
		opt.SetXtolRel(defaultTolerance),
		opt.SetFtolRel(defaultTolerance),
		opt.SetMaxEval(defaultMaxEval),
		opt.SetMinObjective(cost),
	)
	if err != nil {
		o.result = o.initialRobotToWorld
		return
	}

	x := make([]float64, 6)
	solution, _, solveErr := opt.Optimize(x)
	if solveErr != nil || solution == nil {
		solution = x
	}

	o.result = poseIncrement(o.initialRobotToWorld, solution)
	o.evaluate(solution) // repopulates errorsPerPoint/inlierFlags/totalError for the chosen solution
}

// RobotToWorld returns the converged pose.
func (o *NloptPoseOptimizer) RobotToWorld() *spatialmath.Pose { return o.result }

// NumberOfInliers returns the count of constraints classified as inliers.
func (o *NloptPoseOptimizer) NumberOfInliers() int {
	count := 0
	for _, inlier := range o.inlierFlags {
		if inlier {
			count++
		}
	}
	return count
}

// NumberOfOutliers returns the count of constraints classified as outliers.
func (o *NloptPoseOptimizer) NumberOfOutliers() int {
	return len(o.inlierFlags) - o.NumberOfInliers()
}

// TotalError returns the summed squared residual over all constraints.
func (o *NloptPoseOptimizer) TotalError() float64 { return o.totalError }

// Errors returns the per-constraint residual, track.SkippedError for behind-camera points.
func (o *NloptPoseOptimizer) Errors() []float64 { return o.errorsPerPoint }

// Inliers returns the per-constraint inlier flag.
func (o *NloptPoseOptimizer) Inliers() []bool { return o.inlierFlags }

// evaluate computes the total weighted squared residual for pose increment x, and as a side
// effect refreshes errorsPerPoint/inlierFlags/totalError for that increment.
func (o *NloptPoseOptimizer) evaluate(x []float64) float64 {
	candidate := poseIncrement(o.initialRobotToWorld, x)
	worldToCamera := o.frame.RobotToCameraLeft.Compose(candidate.Inverse())

	total := 0.0
	for i, c := range o.constraints {
		worldPoint := vectorFromArray(c.worldPoint)
		pointInCamera := worldToCamera.Transform(worldPoint)
		if pointInCamera.Z <= 0 {
			o.errorsPerPoint[i] = track.SkippedError
			o.inlierFlags[i] = false
			continue
		}
		px, py := o.frame.CameraLeft.Project(pointInCamera)
		dx := px - c.observed[0]
		dy := py - c.observed[1]
		reprojection := dx*dx + dy*dy

		residual := o.weightFramepoint * reprojection
		if c.hasDepth {
			dz := pointInCamera.Z - c.observedDepth
			residual += (1 - o.weightFramepoint) * dz * dz
		}

		o.errorsPerPoint[i] = residual
		o.inlierFlags[i] = math.Sqrt(reprojection) < o.inlierThresholdPixels
		total += residual
	}
	o.totalError = total
	return total
}

// poseIncrement applies a 6-vector increment (rotation vector, translation) to base, in base's
// own frame: the rotation vector's direction is the axis, its magnitude the angle.
func poseIncrement(base *spatialmath.Pose, x []float64) *spatialmath.Pose {
	angle := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
	q := quat.Number{Real: 1}
	if angle > 1e-12 {
		half := angle / 2
		s := math.Sin(half) / angle
		q = quat.Number{Real: math.Cos(half), Imag: x[0] * s, Jmag: x[1] * s, Kmag: x[2] * s}
	}
	delta := spatialmath.NewPose(q, vectorFromArray([3]float64{x[3], x[4], x[5]}))
	return base.Compose(delta)
}

func vectorFromArray(a [3]float64) r3.Vector {
	return r3.Vector{X: a[0], Y: a[1], Z: a[2]}
}
