package track

import (
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/proslam/spatialmath"
)

func TestWriteTrajectoryKITTIOneLinePerFrame(t *testing.T) {
	worldMap := NewWorldMap()
	worldMap.CreateFrame(spatialmath.NewZeroPose(), nil, nil, 3, nil)
	first := worldMap.CurrentFrame()
	worldMap.CreateFrame(spatialmath.NewZeroPose(), nil, nil, 3, first)

	var buf strings.Builder
	err := WriteTrajectoryKITTI(worldMap, &buf)
	test.That(t, err, test.ShouldBeNil)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	test.That(t, lines, test.ShouldHaveLength, 2)
	for _, line := range lines {
		fields := strings.Fields(line)
		test.That(t, fields, test.ShouldHaveLength, 12)
	}
}
