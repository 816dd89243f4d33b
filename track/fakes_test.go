package track

import "go.viam.com/proslam/spatialmath"

// fakeGenerator is a minimal, test-only FramepointGenerator. Tests populate its grid directly
// (or via computeFn) rather than performing real stereo triangulation.
type fakeGenerator struct {
	grid           *Grid
	matchThreshold float64
	nearMeters     float64
	farMeters      float64
	computeFn      func(frame *Frame, grid *Grid)
	recoverFn      func(row, col int, descriptorLeft []byte) *FramePoint
}

func newFakeGenerator(rows, cols int) *fakeGenerator {
	return &fakeGenerator{
		grid:           NewGrid(rows, cols),
		matchThreshold: 32,
		nearMeters:     5,
		farMeters:      30,
	}
}

func (g *fakeGenerator) Compute(frame *Frame) error {
	if g.computeFn != nil {
		g.computeFn(frame, g.grid)
	}
	return nil
}

func (g *fakeGenerator) NumberOfAvailablePoints() int { return g.grid.NumberOfOccupiedCells() }
func (g *fakeGenerator) FramepointsInImage() *Grid    { return g.grid }
func (g *fakeGenerator) MatchingDistanceTrackingThreshold() float64 { return g.matchThreshold }
func (g *fakeGenerator) MaximumDepthNearMeters() float64            { return g.nearMeters }
func (g *fakeGenerator) MaximumDepthFarMeters() float64             { return g.farMeters }
func (g *fakeGenerator) ClearFramepointsInImage()                   { g.grid.Clear() }
func (g *fakeGenerator) NumberOfRowsImage() int                     { return g.grid.Rows() }
func (g *fakeGenerator) NumberOfColsImage() int                     { return g.grid.Cols() }

func (g *fakeGenerator) RecoverFramepoint(row, col int, descriptorLeft []byte) *FramePoint {
	if g.recoverFn != nil {
		return g.recoverFn(row, col, descriptorLeft)
	}
	return nil
}

// fakeOptimizer is a minimal, test-only PoseOptimizer: the test sets the result it wants
// returned from Converge ahead of time.
type fakeOptimizer struct {
	result         *spatialmath.Pose
	inliers        int
	outliers       int
	totalError     float64
	errorsPerPoint []float64
	inlierFlags    []bool

	lastInitFrame *Frame
	lastWeight    float64
}

func (o *fakeOptimizer) Init(frame *Frame, initialRobotToWorld *spatialmath.Pose) {
	o.lastInitFrame = frame
	if o.result == nil {
		o.result = initialRobotToWorld
	}
}

func (o *fakeOptimizer) SetWeightFramepoint(weight float64) { o.lastWeight = weight }
func (o *fakeOptimizer) SetMaximumDepthNearMeters(float64)   {}
func (o *fakeOptimizer) SetMaximumDepthFarMeters(float64)    {}
func (o *fakeOptimizer) Converge()                           {}
func (o *fakeOptimizer) RobotToWorld() *spatialmath.Pose     { return o.result }
func (o *fakeOptimizer) NumberOfInliers() int                { return o.inliers }
func (o *fakeOptimizer) NumberOfOutliers() int                { return o.outliers }
func (o *fakeOptimizer) TotalError() float64                  { return o.totalError }
func (o *fakeOptimizer) Errors() []float64                    { return o.errorsPerPoint }
func (o *fakeOptimizer) Inliers() []bool                      { return o.inlierFlags }
