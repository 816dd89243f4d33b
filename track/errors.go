package track

import "github.com/pkg/errors"

// ErrNoCameraLeft is returned when the Tracker is constructed without a left camera model.
var ErrNoCameraLeft = errors.New("frame requires a left camera intrinsics model")

// ErrNoWorldMap is returned when the Tracker is constructed without a backing WorldMap.
var ErrNoWorldMap = errors.New("tracker requires a world map")

// ErrNoGenerator is returned when the Tracker is constructed without a framepoint generator.
var ErrNoGenerator = errors.New("tracker requires a framepoint generator")

// ErrNoOptimizer is returned when the Tracker is constructed without a pose optimizer.
var ErrNoOptimizer = errors.New("tracker requires a pose optimizer")

// ErrUnknownStatus is returned by Compute when the Tracker's Status is outside the known state
// machine.
var ErrUnknownStatus = errors.New("unknown tracker status")
