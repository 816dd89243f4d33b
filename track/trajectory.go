package track

import (
	"fmt"
	"io"
	"sort"
)

// WriteTrajectoryKITTI dumps the world map's frames, in frame-identifier order, to w in the
// KITTI benchmark format: one line per frame, 12 space-separated doubles being the row-major
// top three rows of that frame's 4x4 world pose.
func WriteTrajectoryKITTI(worldMap *WorldMap, w io.Writer) error {
	identifiers := make([]uint64, 0, len(worldMap.Frames()))
	for id := range worldMap.Frames() {
		identifiers = append(identifiers, id)
	}
	sort.Slice(identifiers, func(i, j int) bool { return identifiers[i] < identifiers[j] })

	for _, id := range identifiers {
		frame := worldMap.Frames()[id]
		rotation := frame.RobotToWorld.RotationMatrix()
		t := frame.RobotToWorld.Translation
		translation := [3]float64{t.X, t.Y, t.Z}
		if _, err := fmt.Fprintf(
			w,
			"%.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f\n",
			rotation[0][0], rotation[0][1], rotation[0][2], translation[0],
			rotation[1][0], rotation[1][1], rotation[1][2], translation[1],
			rotation[2][0], rotation[2][1], rotation[2][2], translation[2],
		); err != nil {
			return err
		}
	}
	return nil
}
