package track

import (
	"go.viam.com/proslam/rimage/transform"
	"go.viam.com/proslam/spatialmath"
)

// WorldMap exclusively owns all frames and landmarks for one tracker instance. Cross-links
// between frames, framepoints and landmarks are non-owning references into the structures this
// map retains; nothing is freed until Clear.
type WorldMap struct {
	frames    map[uint64]*Frame
	landmarks map[uint64]*Landmark

	rootFrame     *Frame
	currentFrame  *Frame
	previousFrame *Frame

	robotToWorld              *spatialmath.Pose
	currentlyTrackedLandmarks []*Landmark

	nextFrameID    uint64
	nextLandmarkID uint64
}

// NewWorldMap returns an empty world map with the robot pose seeded to identity.
func NewWorldMap() *WorldMap {
	return &WorldMap{
		frames:       make(map[uint64]*Frame),
		landmarks:    make(map[uint64]*Landmark),
		robotToWorld: spatialmath.NewZeroPose(),
	}
}

// Clear drops all frames and landmarks and resets the robot pose and frame identifier counter.
// The landmark identifier counter keeps counting, so no landmark identifier is ever reissued.
func (m *WorldMap) Clear() {
	m.frames = make(map[uint64]*Frame)
	m.landmarks = make(map[uint64]*Landmark)
	m.rootFrame = nil
	m.currentFrame = nil
	m.previousFrame = nil
	m.currentlyTrackedLandmarks = nil
	m.robotToWorld = spatialmath.NewZeroPose()
	m.nextFrameID = 0
}

// Frames returns the owned frame set, keyed by identifier.
func (m *WorldMap) Frames() map[uint64]*Frame { return m.frames }

// Landmarks returns the owned landmark set, keyed by identifier.
func (m *WorldMap) Landmarks() map[uint64]*Landmark { return m.landmarks }

// RootFrame returns the first frame created, or nil if none has been created yet.
func (m *WorldMap) RootFrame() *Frame { return m.rootFrame }

// CurrentFrame returns the most recently created frame, or nil before the first CreateFrame.
func (m *WorldMap) CurrentFrame() *Frame { return m.currentFrame }

// PreviousFrame returns the frame prior to CurrentFrame, or nil if fewer than two frames exist.
func (m *WorldMap) PreviousFrame() *Frame { return m.previousFrame }

// RobotToWorld returns the canonical robot pose.
func (m *WorldMap) RobotToWorld() *spatialmath.Pose { return m.robotToWorld }

// SetRobotToWorld updates the canonical robot pose.
func (m *WorldMap) SetRobotToWorld(pose *spatialmath.Pose) { m.robotToWorld = pose }

// CurrentlyTrackedLandmarks returns the landmarks referenced by the current frame. The slice is
// reset and repopulated once per compute(); concurrent readers may observe a transient empty
// state mid-call.
func (m *WorldMap) CurrentlyTrackedLandmarks() []*Landmark { return m.currentlyTrackedLandmarks }

// ResetCurrentlyTrackedLandmarks clears the tracked flag on every previously-tracked landmark
// and empties the tracked set, in preparation for repopulation this frame.
func (m *WorldMap) ResetCurrentlyTrackedLandmarks() {
	for _, landmark := range m.currentlyTrackedLandmarks {
		landmark.CurrentlyTracked = false
	}
	m.currentlyTrackedLandmarks = m.currentlyTrackedLandmarks[:0]
}

// TrackLandmark appends a landmark to the currently-tracked set and marks it tracked.
func (m *WorldMap) TrackLandmark(landmark *Landmark) {
	landmark.CurrentlyTracked = true
	m.currentlyTrackedLandmarks = append(m.currentlyTrackedLandmarks, landmark)
}

// CreateFrame allocates a new frame linked to previous (which may be nil for the first frame),
// assigns it the next identifier, and makes it the map's current frame.
func (m *WorldMap) CreateFrame(
	robotToWorld *spatialmath.Pose,
	robotToCameraLeft *spatialmath.Pose,
	cameraLeft *transform.PinholeCameraIntrinsics,
	minTrackLengthForLandmarkCreation int,
	previous *Frame,
) *Frame {
	frame := &Frame{
		Identifier:                        m.nextFrameID,
		RobotToWorld:                      robotToWorld,
		RobotToCameraLeft:                 robotToCameraLeft,
		CameraLeft:                        cameraLeft,
		Previous:                          previous,
		MinTrackLengthForLandmarkCreation: minTrackLengthForLandmarkCreation,
	}
	m.nextFrameID++
	m.frames[frame.Identifier] = frame
	if m.rootFrame == nil {
		m.rootFrame = frame
	}
	m.previousFrame = m.currentFrame
	m.currentFrame = frame
	return frame
}

// CreateLandmark allocates a new landmark seeded from point's world coordinates, assigning it
// the next identifier. Identifiers are issued in creation order and never reused.
func (m *WorldMap) CreateLandmark(point *FramePoint) *Landmark {
	landmark := newLandmark(m.nextLandmarkID, point)
	m.nextLandmarkID++
	m.landmarks[landmark.Identifier] = landmark
	return landmark
}
