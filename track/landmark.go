package track

import "github.com/golang/geo/r3"

// landmarkValidationUpdates is the number of observations after which a landmark's world
// coordinates are considered validated, i.e. stable enough to reproject against instead of
// re-deriving from the observing framepoint's own world estimate.
const landmarkValidationUpdates = 5

// Landmark is a long-lived 3D point accumulating observations across many frames. Once created
// its Identifier never changes; WorldCoordinates only change via Update.
type Landmark struct {
	// Identifier is unique and monotonically assigned by the owning WorldMap.
	Identifier uint64

	// WorldCoordinates is the current best estimate of the landmark's 3D position.
	WorldCoordinates r3.Vector

	// Near reflects the near/far classification of the framepoint that most recently observed
	// this landmark.
	Near bool

	// Validated becomes true once the landmark has accumulated enough observations that its
	// WorldCoordinates is trusted for reprojection ahead of a framepoint's own estimate.
	Validated bool

	// CurrentlyTracked is ephemeral: reset to false and the landmark dropped from the world
	// map's tracked set at the start of every compute(), then set true again if a framepoint in
	// the new frame references it.
	CurrentlyTracked bool

	numUpdates int
}

func newLandmark(identifier uint64, point *FramePoint) *Landmark {
	return &Landmark{
		Identifier:       identifier,
		WorldCoordinates: point.WorldCoordinates,
		Near:             point.Near,
	}
}

// Update folds a new observation into the landmark's world position estimate by a simple
// running average, and marks the landmark validated once enough observations have accrued.
func (l *Landmark) Update(point *FramePoint) {
	l.numUpdates++
	weight := 1.0 / float64(l.numUpdates+1)
	delta := point.WorldCoordinates.Sub(l.WorldCoordinates)
	l.WorldCoordinates = l.WorldCoordinates.Add(delta.Mul(weight))
	if l.numUpdates >= landmarkValidationUpdates {
		l.Validated = true
	}
}
