package track

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestGridTakeEmptiesCell(t *testing.T) {
	grid := NewGrid(4, 4)
	point := NewFramePoint(r2.Point{}, r2.Point{}, nil, nil, r3.Vector{}, false)
	grid.Set(1, 2, point)

	test.That(t, grid.At(1, 2), test.ShouldEqual, point)
	taken := grid.Take(1, 2)
	test.That(t, taken, test.ShouldEqual, point)
	test.That(t, grid.At(1, 2), test.ShouldBeNil)
}

func TestGridAtOutOfBoundsIsNil(t *testing.T) {
	grid := NewGrid(2, 2)
	test.That(t, grid.At(-1, 0), test.ShouldBeNil)
	test.That(t, grid.At(0, 5), test.ShouldBeNil)
}

func TestGridClearEmptiesEveryCell(t *testing.T) {
	grid := NewGrid(3, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			grid.Set(r, c, NewFramePoint(r2.Point{}, r2.Point{}, nil, nil, r3.Vector{}, false))
		}
	}
	test.That(t, grid.NumberOfOccupiedCells(), test.ShouldEqual, 9)
	grid.Clear()
	test.That(t, grid.NumberOfOccupiedCells(), test.ShouldEqual, 0)
}
