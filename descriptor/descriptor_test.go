package descriptor

import (
	"encoding/binary"
	"math"
	"testing"

	"go.viam.com/test"
)

func floatBytes(values ...float32) Binary {
	b := make(Binary, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:4*i+4], math.Float32bits(v))
	}
	return b
}

func TestHammingDistanceIdentical(t *testing.T) {
	a := Binary{0xFF, 0x00, 0xAA}
	test.That(t, HammingDistance(a, a), test.ShouldEqual, 0)
}

func TestHammingDistanceAllBitsDiffer(t *testing.T) {
	a := Binary{0x00}
	b := Binary{0xFF}
	test.That(t, HammingDistance(a, b), test.ShouldEqual, 8)
}

func TestHammingDistanceMismatchedLength(t *testing.T) {
	a := Binary{0x00}
	b := Binary{0x00, 0x00}
	test.That(t, HammingDistance(a, b), test.ShouldEqual, 24)
}

func TestFloatingDistanceIdentical(t *testing.T) {
	a := floatBytes(1, 2, 3)
	test.That(t, FloatingDistance(a, a), test.ShouldEqual, 0.0)
}

func TestFloatingDistanceKnownDelta(t *testing.T) {
	a := floatBytes(0, 0)
	b := floatBytes(3, 4)
	test.That(t, FloatingDistance(a, b), test.ShouldEqual, 5.0)
}

func TestFloatingDistanceMismatchedLength(t *testing.T) {
	a := floatBytes(1)
	b := floatBytes(1, 2)
	test.That(t, math.IsInf(FloatingDistance(a, b), 1), test.ShouldBeTrue)
}

func TestFloatingDistanceNotMultipleOfFour(t *testing.T) {
	a := Binary{0x00, 0x00, 0x00}
	b := Binary{0x00, 0x00, 0x00}
	test.That(t, math.IsInf(FloatingDistance(a, b), 1), test.ShouldBeTrue)
}
