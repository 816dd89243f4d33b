package track

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewLandmarkSeedsFromFramePoint(t *testing.T) {
	point := NewFramePoint(r2.Point{}, r2.Point{}, nil, nil, r3.Vector{}, true)
	point.WorldCoordinates = r3.Vector{X: 1, Y: 2, Z: 3}

	landmark := newLandmark(7, point)
	test.That(t, landmark.Identifier, test.ShouldEqual, uint64(7))
	test.That(t, landmark.WorldCoordinates, test.ShouldResemble, point.WorldCoordinates)
	test.That(t, landmark.Near, test.ShouldBeTrue)
	test.That(t, landmark.Validated, test.ShouldBeFalse)
}

func TestLandmarkUpdateAveragesTowardObservation(t *testing.T) {
	point := NewFramePoint(r2.Point{}, r2.Point{}, nil, nil, r3.Vector{}, false)
	point.WorldCoordinates = r3.Vector{X: 0}
	landmark := newLandmark(0, point)

	observation := NewFramePoint(r2.Point{}, r2.Point{}, nil, nil, r3.Vector{}, false)
	observation.WorldCoordinates = r3.Vector{X: 10}
	landmark.Update(observation)

	test.That(t, landmark.WorldCoordinates.X, test.ShouldBeBetween, 0.0, 10.0)
}

func TestLandmarkBecomesValidatedAfterEnoughUpdates(t *testing.T) {
	point := NewFramePoint(r2.Point{}, r2.Point{}, nil, nil, r3.Vector{}, false)
	landmark := newLandmark(0, point)

	for i := 0; i < landmarkValidationUpdates-1; i++ {
		landmark.Update(point)
		test.That(t, landmark.Validated, test.ShouldBeFalse)
	}
	landmark.Update(point)
	test.That(t, landmark.Validated, test.ShouldBeTrue)
}
