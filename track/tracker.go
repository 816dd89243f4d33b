// Package track implements the frame-to-frame visual tracking core of a stereo visual SLAM
// system: motion prediction, two-stage spatial association, pose-solver dispatch, pruning, lost
// track recovery, and landmark promotion. Feature extraction/triangulation and the nonlinear
// pose solve itself are external collaborators, specified here only as interfaces.
package track

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/proslam/descriptor"
	"go.viam.com/proslam/rimage/transform"
	"go.viam.com/proslam/spatialmath"
)

// Tracker is the tracking engine. One Tracker owns exactly one WorldMap; multiple trackers do
// not share state. Compute is not safe for concurrent invocation: it mutates the world map, the
// current frame, and the generator's grid in place.
type Tracker struct {
	cfg       Config
	logger    golog.Logger
	worldMap  *WorldMap
	generator FramepointGenerator
	optimizer PoseOptimizer

	cameraLeft        *transform.PinholeCameraIntrinsics
	robotToCameraLeft *spatialmath.Pose

	status         Status
	statusPrevious Status

	previousOdometry             *spatialmath.Pose
	motionPreviousToCurrentRobot *spatialmath.Pose

	lostPoints []*FramePoint

	numberOfPotentialPoints       int
	numberOfTrackedPoints         int
	numberOfTrackedLandmarksClose int
	numberOfTrackedLandmarksFar   int
	numberOfLostPointsRecovered   int
}

// NewTracker constructs a Tracker wired to the given world map and collaborators. The motion
// prior is initialized to identity, so the constant-velocity assumption is well-defined from the
// first frame even before any odometry or optimizer-derived delta has been observed.
func NewTracker(
	cfg Config,
	worldMap *WorldMap,
	generator FramepointGenerator,
	optimizer PoseOptimizer,
	cameraLeft *transform.PinholeCameraIntrinsics,
	robotToCameraLeft *spatialmath.Pose,
	logger golog.Logger,
) (*Tracker, error) {
	if worldMap == nil {
		return nil, ErrNoWorldMap
	}
	if generator == nil {
		return nil, ErrNoGenerator
	}
	if optimizer == nil {
		return nil, ErrNoOptimizer
	}
	if cameraLeft == nil {
		return nil, ErrNoCameraLeft
	}
	optimizer.SetMaximumDepthNearMeters(generator.MaximumDepthNearMeters())
	optimizer.SetMaximumDepthFarMeters(generator.MaximumDepthFarMeters())
	return &Tracker{
		cfg:                          cfg,
		logger:                       logger,
		worldMap:                     worldMap,
		generator:                    generator,
		optimizer:                    optimizer,
		cameraLeft:                   cameraLeft,
		robotToCameraLeft:            robotToCameraLeft,
		status:                       Localizing,
		statusPrevious:               Localizing,
		motionPreviousToCurrentRobot: spatialmath.NewZeroPose(),
	}, nil
}

// Status returns the tracker's current state.
func (t *Tracker) Status() Status { return t.status }

// MotionPreviousToCurrentRobot returns the last motion delta applied or computed, in the robot
// frame.
func (t *Tracker) MotionPreviousToCurrentRobot() *spatialmath.Pose { return t.motionPreviousToCurrentRobot }

// NumberOfTrackedPoints returns the count of framepoints carried into the current frame by
// association (not counting newly claimed grid cells).
func (t *Tracker) NumberOfTrackedPoints() int { return t.numberOfTrackedPoints }

// NumberOfLostPointsRecovered returns how many lost, landmark-bearing points were reattached to
// the current frame during the most recent Compute.
func (t *Tracker) NumberOfLostPointsRecovered() int { return t.numberOfLostPointsRecovered }

// NumberOfPotentialPoints returns the count of grid candidates the generator produced for the
// current frame, before association claimed any of them.
func (t *Tracker) NumberOfPotentialPoints() int { return t.numberOfPotentialPoints }

// Compute consumes one stereo frame. hasOdometry/odometry select between an odometric motion
// prior and the retained constant-velocity prior. The actual stereo images are assumed already
// queued with the generator; image I/O is out of scope here.
func (t *Tracker) Compute(hasOdometry bool, odometry *spatialmath.Pose) error {
	t.worldMap.ResetCurrentlyTrackedLandmarks()
	t.numberOfTrackedPoints = 0
	t.numberOfLostPointsRecovered = 0

	// Step 1 - motion prior.
	if hasOdometry {
		if t.worldMap.CurrentFrame() == nil {
			t.previousOdometry = odometry
		}
		t.motionPreviousToCurrentRobot = t.previousOdometry.Inverse().Compose(odometry)
		t.previousOdometry = odometry
	}
	// else: retain the prior value of motionPreviousToCurrentRobot (constant-velocity prior).

	if t.worldMap.CurrentFrame() != nil {
		t.worldMap.SetRobotToWorld(t.worldMap.RobotToWorld().Compose(t.motionPreviousToCurrentRobot))
	}

	// Step 2 - generate framepoints.
	previous := t.worldMap.CurrentFrame()
	frame := t.worldMap.CreateFrame(
		t.worldMap.RobotToWorld(), t.robotToCameraLeft, t.cameraLeft, t.cfg.MinTrackLengthForLandmarkCreation, previous,
	)
	frame.Status = t.status
	if err := t.generator.Compute(frame); err != nil {
		return err
	}
	t.numberOfPotentialPoints = t.generator.NumberOfAvailablePoints()

	// Step 3 - associate.
	if frame.Previous != nil {
		t.trackFramepoints(frame.Previous, frame)
	}

	// Step 4 - state-dispatched pose update.
	switch t.status {
	case Localizing:
		if err := t.runLocalizingBranch(frame); err != nil {
			return err
		}
	case Tracking:
		lostTrack, err := t.runTrackingBranch(frame)
		if err != nil {
			return err
		}
		if lostTrack {
			return nil
		}
	default:
		return ErrUnknownStatus
	}

	// Step 5 - append new framepoints.
	t.addNewFramepoints(frame)
	frame.Status = t.status
	return nil
}

func (t *Tracker) runLocalizingBranch(frame *Frame) error {
	if frame.Previous != nil {
		t.optimizer.Init(frame, frame.RobotToWorld)
		t.optimizer.SetWeightFramepoint(1)
		t.optimizer.Converge()

		if t.optimizer.NumberOfInliers() > 2*t.cfg.MinLandmarksToTrack {
			motionDelta := frame.Previous.WorldToRobot().Compose(t.optimizer.RobotToWorld())
			deltaAngular := motionDelta.RodriguesAngle()
			deltaTranslational := motionDelta.Translation.Norm()

			if deltaAngular > t.cfg.MotionDeltaAngularThresholdRadians ||
				deltaTranslational > t.cfg.MotionDeltaTranslationalThresholdMeters {
				frame.RobotToWorld = t.optimizer.RobotToWorld()
				t.motionPreviousToCurrentRobot = motionDelta
			} else {
				frame.RobotToWorld = frame.Previous.RobotToWorld
				t.motionPreviousToCurrentRobot = spatialmath.NewZeroPose()
			}
			t.worldMap.SetRobotToWorld(frame.RobotToWorld)
		}
	}

	if frame.CountPoints(frame.MinTrackLengthForLandmarkCreation) > t.cfg.MinLandmarksToTrack {
		t.updateLandmarks(frame)
		t.statusPrevious = t.status
		t.status = Tracking
		t.logger.Debugw("transitioning Localizing -> Tracking", "frame", frame.Identifier)
	} else {
		refreshWorldCoordinates(frame)
	}
	return nil
}

// runTrackingBranch runs the steady-state pose update. It returns lostTrack=true when the
// frame's track was abandoned and the caller must return early without appending new points.
func (t *Tracker) runTrackingBranch(frame *Frame) (lostTrack bool, err error) {
	weightFramepoint := 1.0
	if t.numberOfTrackedPoints > 0 {
		weightFramepoint = 1 - float64(t.numberOfTrackedLandmarksFar+7*t.numberOfTrackedLandmarksClose)/float64(t.numberOfTrackedPoints)
	}
	weightFramepoint = math.Max(weightFramepoint, 0.1)

	t.optimizer.Init(frame, frame.RobotToWorld)
	t.optimizer.SetWeightFramepoint(weightFramepoint)
	t.optimizer.Converge()

	numberOfInliers := t.optimizer.NumberOfInliers()

	if numberOfInliers < t.cfg.MinLandmarksToTrack {
		t.logger.Warnw("lost track due to invalid position optimization", "frame", frame.Identifier, "inliers", numberOfInliers)
		t.statusPrevious = Localizing
		t.status = Localizing
		frame.Status = t.status
		frame.ReleasePoints()
		t.generator.ClearFramepointsInImage()
		t.worldMap.ResetCurrentlyTrackedLandmarks()
		frame.RobotToWorld = frame.Previous.RobotToWorld
		t.motionPreviousToCurrentRobot = spatialmath.NewZeroPose()
		t.worldMap.SetRobotToWorld(frame.RobotToWorld)
		return true, nil
	}

	motionDelta := frame.Previous.WorldToRobot().Compose(t.optimizer.RobotToWorld())
	deltaAngular := motionDelta.RodriguesAngle()
	deltaTranslational := motionDelta.Translation.Norm()

	if deltaAngular > t.cfg.MotionDeltaAngularThresholdRadians ||
		deltaTranslational > t.cfg.MotionDeltaTranslationalThresholdMeters {
		frame.RobotToWorld = t.optimizer.RobotToWorld()
		t.motionPreviousToCurrentRobot = motionDelta
	} else {
		frame.RobotToWorld = frame.Previous.RobotToWorld
		t.motionPreviousToCurrentRobot = spatialmath.NewZeroPose()
	}

	t.pruneFramepoints(frame)
	t.recoverPoints(frame)

	t.worldMap.SetRobotToWorld(frame.RobotToWorld)
	t.updateLandmarks(frame)
	t.statusPrevious = t.status
	t.status = Tracking
	return false, nil
}

// trackFramepoints runs the two-stage association between previous's points and the grid
// candidates generated for current, populating current.Points, t.lostPoints and the tracked
// landmark-depth counters. It also compacts previous.Points in place to retain only the points
// whose projection landed inside the image, per the projection contract in §4.3.4.
func (t *Tracker) trackFramepoints(previous, current *Frame) {
	worldToCamera := current.WorldToCameraLeft()

	visiblePrevious := previous.Points[:0]
	projections := make([]r2.Point, 0, len(previous.Points))
	for _, point := range previous.Points {
		var pointInCamera r3.Vector
		if point.Landmark != nil && point.Landmark.Validated {
			pointInCamera = worldToCamera.Transform(point.Landmark.WorldCoordinates)
		} else {
			pointInCamera = worldToCamera.Transform(point.WorldCoordinates)
		}
		// Points behind the camera plane have no valid pixel projection.
		if pointInCamera.Z <= 0 {
			continue
		}
		x, y := current.CameraLeft.Project(pointInCamera)
		if !current.CameraLeft.InBounds(x, y) {
			continue
		}
		visiblePrevious = append(visiblePrevious, point)
		projections = append(projections, r2.Point{X: x, Y: y})
	}
	previous.Points = visiblePrevious

	threshold := t.cfg.PixelDistanceTrackingThresholdMin
	if t.statusPrevious == Localizing {
		threshold = t.cfg.PixelDistanceTrackingThresholdMax
	}
	matchingThreshold := t.generator.MatchingDistanceTrackingThreshold()
	grid := t.generator.FramepointsInImage()
	descriptorDistance := descriptorDistanceFunc(t.cfg.DescriptorNorm)

	trackedPoints := make([]*FramePoint, 0, len(visiblePrevious))
	lostPoints := make([]*FramePoint, 0)
	numberOfTrackedLandmarksClose := 0
	numberOfTrackedLandmarksFar := 0

	for i, previousPoint := range visiblePrevious {
		projection := projections[i]
		rowProjection := int(math.Round(projection.Y))
		colProjection := int(math.Round(projection.X))
		rowPrevious := int(math.Round(previousPoint.ImageCoordinatesLeft.Y))
		colPrevious := int(math.Round(previousPoint.ImageCoordinatesLeft.X))

		rowStartPoint := max(rowProjection-t.cfg.RangePointTracking, 0)
		rowEndPoint := min(rowProjection+t.cfg.RangePointTracking, grid.Rows())
		colStartPoint := max(colProjection-t.cfg.RangePointTracking, 0)
		colEndPoint := min(colProjection+t.cfg.RangePointTracking, grid.Cols())

		bestRow, bestCol, bestDistance := searchGridRegion(
			grid, previousPoint, rowStartPoint, rowEndPoint, colStartPoint, colEndPoint,
			rowProjection, colProjection, threshold, matchingThreshold, descriptorDistance, nil,
		)

		matched := bestRow >= 0 && consistentFlow(bestRow, bestCol, rowPrevious, colPrevious, t.cfg.MaxFlowPixelsSquared)

		if !matched {
			rowStartRegion := max(rowProjection-threshold, 0)
			rowEndRegion := min(rowProjection+threshold, grid.Rows())
			colStartRegion := max(colProjection-threshold, 0)
			colEndRegion := min(colProjection+threshold, grid.Cols())

			exclude := func(row, col int) bool {
				return row >= rowStartPoint && row < rowEndPoint && col >= colStartPoint && col < colEndPoint
			}
			bestRow, bestCol, bestDistance = searchGridRegion(
				grid, previousPoint, rowStartRegion, rowEndRegion, colStartRegion, colEndRegion,
				rowProjection, colProjection, threshold, matchingThreshold, descriptorDistance, exclude,
			)
			matched = bestRow >= 0 && consistentFlow(bestRow, bestCol, rowPrevious, colPrevious, t.cfg.MaxFlowPixelsSquared)
		}
		_ = bestDistance

		if matched {
			matchedPoint := grid.Take(bestRow, bestCol)
			matchedPoint.SetPrevious(previousPoint)
			matchedPoint.Landmark = previousPoint.Landmark
			trackedPoints = append(trackedPoints, matchedPoint)
			if matchedPoint.Landmark != nil {
				if matchedPoint.Near {
					numberOfTrackedLandmarksClose++
				} else {
					numberOfTrackedLandmarksFar++
				}
			}
			continue
		}

		if previousPoint.Landmark != nil {
			lostPoints = append(lostPoints, previousPoint)
		}
	}

	current.Points = trackedPoints
	t.lostPoints = lostPoints
	t.numberOfTrackedPoints = len(trackedPoints)
	t.numberOfTrackedLandmarksClose = numberOfTrackedLandmarksClose
	t.numberOfTrackedLandmarksFar = numberOfTrackedLandmarksFar
}

// searchGridRegion scans a rectangular region of the grid in row-major order, returning the
// coordinates of the lowest-Manhattan-distance occupied cell whose descriptor is within
// matchingThreshold of previousPoint's under distance, strictly below startingDistance. exclude,
// if non-nil, skips cells already examined by an earlier stage. Returns row -1 if nothing
// qualified.
func searchGridRegion(
	grid *Grid,
	previousPoint *FramePoint,
	rowStart, rowEnd, colStart, colEnd int,
	rowProjection, colProjection, startingDistance int,
	matchingThreshold float64,
	distance func(a, b descriptor.Binary) float64,
	exclude func(row, col int) bool,
) (bestRow, bestCol, bestDistance int) {
	bestRow, bestCol = -1, -1
	bestDistance = startingDistance
	for row := rowStart; row < rowEnd; row++ {
		for col := colStart; col < colEnd; col++ {
			if exclude != nil && exclude(row, col) {
				continue
			}
			candidate := grid.At(row, col)
			if candidate == nil {
				continue
			}
			pixelDistance := absInt(rowProjection-row) + absInt(colProjection-col)
			if pixelDistance >= bestDistance {
				continue
			}
			matchingDistance := distance(previousPoint.DescriptorLeft, candidate.DescriptorLeft)
			if matchingDistance < matchingThreshold {
				bestDistance = pixelDistance
				bestRow, bestCol = row, col
			}
		}
	}
	return bestRow, bestCol, bestDistance
}

// descriptorDistanceFunc selects the descriptor comparison used by the two-stage association
// search, per Config.DescriptorNorm.
func descriptorDistanceFunc(norm DescriptorNorm) func(a, b descriptor.Binary) float64 {
	if norm == DescriptorNormFloating {
		return descriptor.FloatingDistance
	}
	return func(a, b descriptor.Binary) float64 {
		return float64(descriptor.HammingDistance(a, b))
	}
}

func consistentFlow(row, col, previousRow, previousCol int, maxFlowSquared float64) bool {
	dr := row - previousRow
	dc := col - previousCol
	return float64(dr*dr+dc*dc) < maxFlowSquared
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pruneFramepoints retains a framepoint iff it has no landmark, or its optimizer error is the
// skipped sentinel, or its inlier flag is true. Survivors are compacted to the prefix of the
// slice.
func (t *Tracker) pruneFramepoints(frame *Frame) {
	errorsPerPoint := t.optimizer.Errors()
	inliersPerPoint := t.optimizer.Inliers()

	survivors := frame.Points[:0]
	for i, point := range frame.Points {
		if point.Landmark == nil {
			survivors = append(survivors, point)
			continue
		}
		if errorsPerPoint[i] == SkippedError || inliersPerPoint[i] {
			survivors = append(survivors, point)
		}
	}
	frame.Points = survivors
	t.numberOfTrackedPoints = len(survivors)
}

// recoverPoints reprojects lost, landmark-bearing points using the just-accepted pose and asks
// the generator to claim a fresh stereo match near the reprojection.
func (t *Tracker) recoverPoints(frame *Frame) {
	if len(t.lostPoints) == 0 {
		return
	}
	worldToCamera := frame.WorldToCameraLeft()
	recovered := 0
	for _, lost := range t.lostPoints {
		var pointInCamera r3.Vector
		if lost.Landmark != nil && lost.Landmark.Validated {
			pointInCamera = worldToCamera.Transform(lost.Landmark.WorldCoordinates)
		} else {
			pointInCamera = worldToCamera.Transform(lost.WorldCoordinates)
		}
		if pointInCamera.Z <= 0 {
			continue
		}
		x, y := frame.CameraLeft.Project(pointInCamera)
		if !frame.CameraLeft.InBounds(x, y) {
			continue
		}
		row, col := int(math.Round(y)), int(math.Round(x))
		candidate := t.generator.RecoverFramepoint(row, col, lost.DescriptorLeft)
		if candidate == nil {
			continue
		}
		candidate.SetPrevious(lost)
		candidate.Landmark = lost.Landmark
		frame.Points = append(frame.Points, candidate)
		recovered++
	}
	t.numberOfLostPointsRecovered = recovered
	t.lostPoints = nil
}

// updateLandmarks refreshes world coordinates for every point in frame, promotes mature tracks
// into new landmarks, and updates existing landmarks from their observing framepoint.
func (t *Tracker) updateLandmarks(frame *Frame) {
	frameToWorld := frame.RobotToWorld
	for _, point := range frame.Points {
		point.WorldCoordinates = frameToWorld.Transform(point.CameraCoordinates)
		if point.TrackLength < frame.MinTrackLengthForLandmarkCreation {
			continue
		}

		landmark := point.Landmark
		if landmark == nil {
			landmark = t.worldMap.CreateLandmark(point)
			point.Landmark = landmark
		}
		landmark.Near = point.Near
		landmark.Update(point)
		t.worldMap.TrackLandmark(landmark)
	}
}

// addNewFramepoints scans the generator's grid and claims every remaining occupied cell as a
// new framepoint of frame, emptying the grid as it goes.
func (t *Tracker) addNewFramepoints(frame *Frame) {
	grid := t.generator.FramepointsInImage()
	frameToWorld := frame.RobotToWorld
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			point := grid.Take(row, col)
			if point == nil {
				continue
			}
			point.WorldCoordinates = frameToWorld.Transform(point.CameraCoordinates)
			frame.Points = append(frame.Points, point)
		}
	}
}

func refreshWorldCoordinates(frame *Frame) {
	frameToWorld := frame.RobotToWorld
	for _, point := range frame.Points {
		point.WorldCoordinates = frameToWorld.Transform(point.CameraCoordinates)
	}
}

