package track

import (
	"go.viam.com/proslam/rimage/transform"
	"go.viam.com/proslam/spatialmath"
)

// Frame is one stereo acquisition: a pose, a sparse vector of framepoint observations, and a
// back-link to the previous frame forming a strictly ordered chain.
type Frame struct {
	// Identifier is unique and monotonically assigned by the owning WorldMap.
	Identifier uint64

	// Status is the tracker state in effect when this frame was produced.
	Status Status

	// RobotToWorld is the rigid transform from the robot/rig frame to world.
	RobotToWorld *spatialmath.Pose

	// RobotToCameraLeft is the (fixed) extrinsic transform from robot frame to the left
	// camera's optical frame.
	RobotToCameraLeft *spatialmath.Pose

	// CameraLeft holds the left camera's intrinsic model, used to project framepoints.
	CameraLeft *transform.PinholeCameraIntrinsics

	// Points is the sparse sequence of framepoint observations belonging to this frame.
	Points []*FramePoint

	// Previous is a non-owning back-link to the frame this one was computed from. Nil for the
	// first frame.
	Previous *Frame

	// MinTrackLengthForLandmarkCreation is the temporal support required before a framepoint
	// observed in this frame may be promoted into a landmark.
	MinTrackLengthForLandmarkCreation int
}

// WorldToRobot returns the inverse of RobotToWorld.
func (f *Frame) WorldToRobot() *spatialmath.Pose {
	return f.RobotToWorld.Inverse()
}

// WorldToCameraLeft returns the transform from world coordinates into the left camera's frame.
func (f *Frame) WorldToCameraLeft() *spatialmath.Pose {
	return f.RobotToCameraLeft.Compose(f.WorldToRobot())
}

// CountPoints returns the number of points in the frame whose TrackLength is at least minimum.
func (f *Frame) CountPoints(minimum int) int {
	count := 0
	for _, point := range f.Points {
		if point.TrackLength >= minimum {
			count++
		}
	}
	return count
}

// ReleasePoints discards all of the frame's framepoints, used on a Tracking -> Localizing
// transition where the frame's tracks are abandoned wholesale.
func (f *Frame) ReleasePoints() {
	f.Points = nil
}
