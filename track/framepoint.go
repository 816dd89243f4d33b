package track

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/proslam/descriptor"
)

// FramePoint is one observation in one frame: a stereo-triangulated candidate feature with
// descriptors, camera-frame 3D coordinates, and links forming a temporal chain back through
// prior observations of the same physical point. FramePoints are owned by the Frame that holds
// them in its Points slice; they never move between frames.
type FramePoint struct {
	// ImageCoordinatesLeft / ImageCoordinatesRight are the stereo pixel coordinates.
	ImageCoordinatesLeft  r2.Point
	ImageCoordinatesRight r2.Point

	// DescriptorLeft / DescriptorRight are the binary descriptors used for association.
	DescriptorLeft  descriptor.Binary
	DescriptorRight descriptor.Binary

	// CameraCoordinates is the 3D position in the owning frame's camera frame, from stereo
	// triangulation.
	CameraCoordinates r3.Vector

	// WorldCoordinates is the 3D position in the world frame, derived from CameraCoordinates
	// and the owning frame's pose. Set by the tracker, not the generator.
	WorldCoordinates r3.Vector

	// Near is true iff CameraCoordinates.Z is below the configured near/far threshold.
	Near bool

	// Previous is a non-owning back-link to the framepoint this one was associated with in the
	// prior frame, forming the temporal chain. Nil if this framepoint starts a new track.
	Previous *FramePoint

	// TrackLength is 1 + Previous.TrackLength, or 1 if Previous is nil.
	TrackLength int

	// Landmark is a non-owning link to the landmark this framepoint observes, if any.
	Landmark *Landmark
}

// NewFramePoint constructs a fresh framepoint with TrackLength 1 and no previous link.
func NewFramePoint(
	imageCoordinatesLeft, imageCoordinatesRight r2.Point,
	descriptorLeft, descriptorRight descriptor.Binary,
	cameraCoordinates r3.Vector,
	near bool,
) *FramePoint {
	return &FramePoint{
		ImageCoordinatesLeft:  imageCoordinatesLeft,
		ImageCoordinatesRight: imageCoordinatesRight,
		DescriptorLeft:        descriptorLeft,
		DescriptorRight:       descriptorRight,
		CameraCoordinates:     cameraCoordinates,
		Near:                  near,
		TrackLength:           1,
	}
}

// SetPrevious links the framepoint to its predecessor in the temporal chain, maintaining the
// TrackLength invariant.
func (p *FramePoint) SetPrevious(previous *FramePoint) {
	p.Previous = previous
	if previous != nil {
		p.TrackLength = previous.TrackLength + 1
	} else {
		p.TrackLength = 1
	}
}
