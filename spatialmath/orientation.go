// Package spatialmath defines spatial mathematical operations used throughout proslam: rigid
// body poses, orientation representations, and the axis-angle conversions the tracker needs to
// judge whether an estimated motion is significant.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	AxisAngle() (axis [3]float64, angle float64)
}

type orientation struct {
	q quat.Number
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &orientation{quat.Number{Real: 1}}
}

// NewOrientationFromQuaternion wraps a raw quaternion as an Orientation. The quaternion is
// normalized to unit length on construction.
func NewOrientationFromQuaternion(q quat.Number) Orientation {
	return &orientation{normalize(q)}
}

func (o *orientation) Quaternion() quat.Number {
	return o.q
}

func (o *orientation) AxisAngle() ([3]float64, float64) {
	return quaternionToAxisAngle(o.q)
}

// OrientationAlmostEqual returns whether two orientations are approximately the same rotation.
func OrientationAlmostEqual(o1, o2 Orientation, tolerance float64) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), tolerance)
}

// QuaternionAlmostEqual compares two quaternions up to sign (q and -q represent the same
// rotation).
func QuaternionAlmostEqual(q1, q2 quat.Number, tolerance float64) bool {
	diffPos := math.Abs(q1.Real-q2.Real) + math.Abs(q1.Imag-q2.Imag) + math.Abs(q1.Jmag-q2.Jmag) + math.Abs(q1.Kmag-q2.Kmag)
	diffNeg := math.Abs(q1.Real+q2.Real) + math.Abs(q1.Imag+q2.Imag) + math.Abs(q1.Jmag+q2.Jmag) + math.Abs(q1.Kmag+q2.Kmag)
	return diffPos < tolerance || diffNeg < tolerance
}

func normalize(q quat.Number) quat.Number {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// quaternionToAxisAngle extracts the axis-angle (Rodrigues) representation of a unit quaternion.
func quaternionToAxisAngle(q quat.Number) (axis [3]float64, angle float64) {
	q = normalize(q)
	// clamp for numerical safety
	real := q.Real
	if real > 1 {
		real = 1
	} else if real < -1 {
		real = -1
	}
	angle = 2 * math.Acos(real)
	sinHalf := math.Sqrt(1 - real*real)
	if sinHalf < 1e-12 {
		// angle ~ 0, axis is arbitrary
		return [3]float64{1, 0, 0}, angle
	}
	return [3]float64{q.Imag / sinHalf, q.Jmag / sinHalf, q.Kmag / sinHalf}, angle
}
