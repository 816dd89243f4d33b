package track

// DescriptorNorm selects the distance metric used to compare feature descriptors.
type DescriptorNorm int

const (
	// DescriptorNormHamming compares binary descriptors by Hamming distance.
	DescriptorNormHamming DescriptorNorm = iota
	// DescriptorNormFloating compares floating-point descriptors by Euclidean distance.
	DescriptorNormFloating
)

// Config holds the tunables the tracker consults every frame. Near/far depth classification
// thresholds are not among them: the generator is the sole authority there, since it sets
// FramePoint.Near at triangulation time and is the value NewTracker forwards to the optimizer.
type Config struct {
	// MinLandmarksToTrack is the lower bound on inlier count required to remain in Tracking.
	MinLandmarksToTrack int `json:"min_landmarks_to_track"`

	// MinTrackLengthForLandmarkCreation is the temporal support (consecutive associations)
	// required before a framepoint is promoted into a landmark.
	MinTrackLengthForLandmarkCreation int `json:"min_track_length_for_landmark_creation"`

	// PixelDistanceTrackingThresholdMin is the search radius (pixels) used once steady-state
	// Tracking has been reached.
	PixelDistanceTrackingThresholdMin int `json:"pixel_distance_tracking_threshold_min"`

	// PixelDistanceTrackingThresholdMax is the (wider) search radius used while Localizing.
	PixelDistanceTrackingThresholdMax int `json:"pixel_distance_tracking_threshold_max"`

	// RangePointTracking is the stage-1 point-vicinity search radius, in pixels.
	RangePointTracking int `json:"range_point_tracking"`

	// MaxFlowPixelsSquared bounds the squared pixel displacement a valid association may imply.
	MaxFlowPixelsSquared float64 `json:"max_flow_pixels_squared"`

	// DescriptorNorm selects Hamming vs. floating descriptor comparison in the two-stage
	// association search.
	DescriptorNorm DescriptorNorm `json:"descriptor_norm"`

	// MinDistanceTraveledForLocalMap / MinDegreesRotatedForLocalMap / MinFramesForLocalMap are
	// consumed by the (external) local-map collaborator; the tracker only carries them.
	MinDistanceTraveledForLocalMap float64 `json:"min_distance_traveled_for_local_map"`
	MinDegreesRotatedForLocalMap   float64 `json:"min_degrees_rotated_for_local_map"`
	MinFramesForLocalMap           int     `json:"min_frames_for_local_map"`

	// MotionDeltaAngularThresholdRadians / MotionDeltaTranslationalThresholdMeters gate whether
	// an optimizer result is accepted as a significant motion, versus treated as degenerate and
	// rounded down to identity.
	MotionDeltaAngularThresholdRadians      float64 `json:"motion_delta_angular_threshold_radians"`
	MotionDeltaTranslationalThresholdMeters float64 `json:"motion_delta_translational_threshold_meters"`
}

// DefaultConfig returns a Config populated with conservative out-of-the-box tuning.
func DefaultConfig() Config {
	return Config{
		MinLandmarksToTrack:                     5,
		MinTrackLengthForLandmarkCreation:       3,
		PixelDistanceTrackingThresholdMin:       4,
		PixelDistanceTrackingThresholdMax:       8,
		RangePointTracking:                      2,
		MaxFlowPixelsSquared:                    2500,
		DescriptorNorm:                           DescriptorNormHamming,
		MinDistanceTraveledForLocalMap:           0.5,
		MinDegreesRotatedForLocalMap:             0.5,
		MinFramesForLocalMap:                    4,
		MotionDeltaAngularThresholdRadians:       0.001,
		MotionDeltaTranslationalThresholdMeters:  0.01,
	}
}
