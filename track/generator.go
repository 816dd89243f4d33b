package track

// FramepointGenerator is the external collaborator that performs stereo feature extraction and
// triangulation: given a new frame's stereo images (supplied to the generator by the caller
// before compute() is invoked; Frame itself carries no image data), it populates a pixel-indexed grid of candidate
// framepoints with descriptors and camera-frame 3D coordinates. Its implementation is out of
// scope for the tracker; only this contract surface is specified here.
type FramepointGenerator interface {
	// Compute populates the generator's internal grid with stereo-triangulated candidates for
	// the given frame. Each cell (row, col) holds at most one framepoint whose left image
	// coordinates round to (row, col).
	Compute(frame *Frame) error

	// NumberOfAvailablePoints returns the count of non-empty grid cells after Compute.
	NumberOfAvailablePoints() int

	// FramepointsInImage exposes the mutable grid for the tracker's destructive consumption.
	FramepointsInImage() *Grid

	// MatchingDistanceTrackingThreshold is the maximum acceptable descriptor distance for a
	// valid association.
	MatchingDistanceTrackingThreshold() float64

	// MaximumDepthNearMeters / MaximumDepthFarMeters are the depth classification thresholds
	// used to set FramePoint.Near when candidates are triangulated.
	MaximumDepthNearMeters() float64
	MaximumDepthFarMeters() float64

	// ClearFramepointsInImage empties the grid, discarding any unconsumed candidates.
	ClearFramepointsInImage()

	// NumberOfRowsImage / NumberOfColsImage report the grid's dimensions.
	NumberOfRowsImage() int
	NumberOfColsImage() int

	// RecoverFramepoint attempts to claim a fresh candidate near (row, col) that matches the
	// descriptor of a lost, landmark-bearing framepoint. It returns nil if no suitable
	// candidate exists.
	RecoverFramepoint(row, col int, descriptorLeft []byte) *FramePoint
}
