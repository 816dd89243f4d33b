package track

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/proslam/rimage/transform"
	"go.viam.com/proslam/spatialmath"
)

func floatDescriptor(value float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(value))
	return b
}

func testCameraLeft() *transform.PinholeCameraIntrinsics {
	return &transform.PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 500, Fy: 500, Ppx: 320, Ppy: 240}
}

func newTestTracker(t *testing.T, worldMap *WorldMap, generator *fakeGenerator, optimizer *fakeOptimizer) *Tracker {
	tracker, err := NewTracker(DefaultConfig(), worldMap, generator, optimizer, testCameraLeft(), spatialmath.NewZeroPose(), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return tracker
}

func TestFirstFrameStaysLocalizingWithNoAssociationOrLandmarks(t *testing.T) {
	worldMap := NewWorldMap()
	generator := newFakeGenerator(480, 640)
	optimizer := &fakeOptimizer{}
	tracker := newTestTracker(t, worldMap, generator, optimizer)

	err := tracker.Compute(false, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tracker.Status(), test.ShouldEqual, Localizing)
	test.That(t, worldMap.CurrentFrame().Previous, test.ShouldBeNil)
	test.That(t, worldMap.CurrentFrame().Points, test.ShouldHaveLength, 0)
	test.That(t, worldMap.Landmarks(), test.ShouldHaveLength, 0)
}

func TestZeroGeneratedFramepointsStaysLocalizing(t *testing.T) {
	worldMap := NewWorldMap()
	generator := newFakeGenerator(480, 640)
	optimizer := &fakeOptimizer{}
	tracker := newTestTracker(t, worldMap, generator, optimizer)

	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)

	test.That(t, tracker.Status(), test.ShouldEqual, Localizing)
	test.That(t, worldMap.Landmarks(), test.ShouldHaveLength, 0)
	test.That(t, tracker.NumberOfTrackedPoints(), test.ShouldEqual, 0)
}

func TestLocalizingBranchDegenerateMotionRetainsPreviousPose(t *testing.T) {
	worldMap := NewWorldMap()
	generator := newFakeGenerator(480, 640)
	optimizer := &fakeOptimizer{}
	tracker := newTestTracker(t, worldMap, generator, optimizer)

	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)
	previousPose := worldMap.RobotToWorld()

	optimizer.result = previousPose
	optimizer.inliers = 2*DefaultConfig().MinLandmarksToTrack + 1
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)

	test.That(t, worldMap.RobotToWorld().AlmostEqual(previousPose, 1e-9), test.ShouldBeTrue)
	test.That(t, tracker.MotionPreviousToCurrentRobot().AlmostEqual(spatialmath.NewZeroPose(), 1e-9), test.ShouldBeTrue)
}

func TestTrackingBranchInsufficientInliersRevertsToLocalizing(t *testing.T) {
	worldMap := NewWorldMap()
	cameraLeft := testCameraLeft()
	generator := newFakeGenerator(480, 640)
	optimizer := &fakeOptimizer{}
	tracker := newTestTracker(t, worldMap, generator, optimizer)

	previousPose := spatialmath.NewZeroPose()
	previousFrame := worldMap.CreateFrame(previousPose, spatialmath.NewZeroPose(), cameraLeft, 3, nil)
	previousFrame.Status = Tracking

	point := NewFramePoint(r2.Point{X: 320, Y: 240}, r2.Point{}, []byte{0xAA}, nil, r3.Vector{Z: 5}, false)
	point.WorldCoordinates = r3.Vector{Z: 5}
	landmark := worldMap.CreateLandmark(point)
	point.Landmark = landmark
	previousFrame.Points = []*FramePoint{point}

	tracker.status = Tracking
	tracker.statusPrevious = Tracking

	optimizer.result = previousPose
	optimizer.inliers = 1 // below DefaultConfig().MinLandmarksToTrack (5)

	err := tracker.Compute(false, nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, tracker.Status(), test.ShouldEqual, Localizing)
	test.That(t, worldMap.CurrentFrame().Points, test.ShouldHaveLength, 0)
	test.That(t, worldMap.CurrentlyTrackedLandmarks(), test.ShouldHaveLength, 0)
	test.That(t, worldMap.RobotToWorld().AlmostEqual(previousPose, 1e-9), test.ShouldBeTrue)
	test.That(t, tracker.MotionPreviousToCurrentRobot().AlmostEqual(spatialmath.NewZeroPose(), 1e-9), test.ShouldBeTrue)
}

func TestLandmarkPromotionOnSufficientTrackLength(t *testing.T) {
	worldMap := NewWorldMap()
	cameraLeft := testCameraLeft()
	generator := newFakeGenerator(480, 640)
	optimizer := &fakeOptimizer{}
	cfg := DefaultConfig()
	cfg.MinLandmarksToTrack = 0
	cfg.MinTrackLengthForLandmarkCreation = 1
	tracker, err := NewTracker(cfg, worldMap, generator, optimizer, cameraLeft, spatialmath.NewZeroPose(), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	// First frame: generator offers a single candidate at (240, 320).
	generator.computeFn = func(frame *Frame, grid *Grid) {
		grid.Set(240, 320, NewFramePoint(
			r2.Point{X: 320, Y: 240}, r2.Point{},
			[]byte{0x01}, []byte{0x01},
			r3.Vector{Z: 5}, true,
		))
	}
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)
	test.That(t, worldMap.CurrentFrame().Points, test.ShouldHaveLength, 1)
	test.That(t, worldMap.Landmarks(), test.ShouldHaveLength, 0)

	// Second frame: the same pixel location reappears and should associate with the first
	// frame's point via stage-1 vicinity search, reaching track length 2 and promotion.
	generator.computeFn = func(frame *Frame, grid *Grid) {
		grid.Set(240, 320, NewFramePoint(
			r2.Point{X: 320, Y: 240}, r2.Point{},
			[]byte{0x01}, []byte{0x01},
			r3.Vector{Z: 5}, true,
		))
	}
	optimizer.result = spatialmath.NewZeroPose()
	optimizer.inliers = 1
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)

	test.That(t, tracker.Status(), test.ShouldEqual, Tracking)
	test.That(t, worldMap.Landmarks(), test.ShouldHaveLength, 1)
	test.That(t, worldMap.CurrentlyTrackedLandmarks(), test.ShouldHaveLength, 1)
}

// TestDescriptorNormFloatingAssociatesOnEuclideanDistance confirms association honors
// cfg.DescriptorNorm: the two descriptors below encode float32(1.0) and float32(3.0), 9 bits
// apart under a raw Hamming reinterpretation but only 2.0 apart under Euclidean distance. A
// threshold of 5 rejects the pair under DescriptorNormHamming but accepts it under
// DescriptorNormFloating.
func TestDescriptorNormFloatingAssociatesOnEuclideanDistance(t *testing.T) {
	worldMap := NewWorldMap()
	cameraLeft := testCameraLeft()
	generator := newFakeGenerator(480, 640)
	generator.matchThreshold = 5
	optimizer := &fakeOptimizer{}
	cfg := DefaultConfig()
	cfg.MinLandmarksToTrack = 0
	cfg.MinTrackLengthForLandmarkCreation = 1
	cfg.DescriptorNorm = DescriptorNormFloating
	tracker, err := NewTracker(cfg, worldMap, generator, optimizer, cameraLeft, spatialmath.NewZeroPose(), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	generator.computeFn = func(frame *Frame, grid *Grid) {
		grid.Set(240, 320, NewFramePoint(
			r2.Point{X: 320, Y: 240}, r2.Point{},
			floatDescriptor(1.0), floatDescriptor(1.0),
			r3.Vector{Z: 5}, true,
		))
	}
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)
	test.That(t, worldMap.CurrentFrame().Points, test.ShouldHaveLength, 1)

	generator.computeFn = func(frame *Frame, grid *Grid) {
		grid.Set(240, 320, NewFramePoint(
			r2.Point{X: 320, Y: 240}, r2.Point{},
			floatDescriptor(3.0), floatDescriptor(3.0),
			r3.Vector{Z: 5}, true,
		))
	}
	optimizer.result = spatialmath.NewZeroPose()
	optimizer.inliers = 1
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)

	test.That(t, tracker.Status(), test.ShouldEqual, Tracking)
	test.That(t, worldMap.Landmarks(), test.ShouldHaveLength, 1)
	test.That(t, worldMap.CurrentlyTrackedLandmarks(), test.ShouldHaveLength, 1)
}

// TestDescriptorNormHammingRejectsBeyondThreshold is the Hamming-norm control for
// TestDescriptorNormFloatingAssociatesOnEuclideanDistance: the same pair of descriptors (9 bits
// apart) fails to associate under the default DescriptorNormHamming norm with the same
// threshold of 5, so no point is carried into the second frame and no landmark is promoted.
func TestDescriptorNormHammingRejectsBeyondThreshold(t *testing.T) {
	worldMap := NewWorldMap()
	cameraLeft := testCameraLeft()
	generator := newFakeGenerator(480, 640)
	generator.matchThreshold = 5
	optimizer := &fakeOptimizer{}
	cfg := DefaultConfig()
	cfg.MinLandmarksToTrack = 0
	cfg.MinTrackLengthForLandmarkCreation = 1
	tracker, err := NewTracker(cfg, worldMap, generator, optimizer, cameraLeft, spatialmath.NewZeroPose(), golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	generator.computeFn = func(frame *Frame, grid *Grid) {
		grid.Set(240, 320, NewFramePoint(
			r2.Point{X: 320, Y: 240}, r2.Point{},
			floatDescriptor(1.0), floatDescriptor(1.0),
			r3.Vector{Z: 5}, true,
		))
	}
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)
	test.That(t, worldMap.CurrentFrame().Points, test.ShouldHaveLength, 1)

	generator.computeFn = func(frame *Frame, grid *Grid) {
		grid.Set(240, 320, NewFramePoint(
			r2.Point{X: 320, Y: 240}, r2.Point{},
			floatDescriptor(3.0), floatDescriptor(3.0),
			r3.Vector{Z: 5}, true,
		))
	}
	optimizer.result = spatialmath.NewZeroPose()
	optimizer.inliers = 1
	test.That(t, tracker.Compute(false, nil), test.ShouldBeNil)

	test.That(t, worldMap.Landmarks(), test.ShouldHaveLength, 0)
}
