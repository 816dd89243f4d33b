package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid body transform: a rotation expressed as a unit quaternion composed with a
// translation. It plays the role of the source's 4x4 TransformMatrix3D, but carries its rotation
// as a quaternion rather than a dense matrix so composition and inversion stay cheap and
// numerically well-behaved across thousands of frame-to-frame compositions.
type Pose struct {
	Rotation    quat.Number
	Translation r3.Vector
}

// NewPose builds a Pose from a rotation quaternion (need not be pre-normalized) and translation.
func NewPose(rotation quat.Number, translation r3.Vector) *Pose {
	return &Pose{Rotation: normalize(rotation), Translation: translation}
}

// NewZeroPose returns the identity transform.
func NewZeroPose() *Pose {
	return &Pose{Rotation: quat.Number{Real: 1}}
}

// Orientation returns the Pose's rotational component as an Orientation.
func (p *Pose) Orientation() Orientation {
	return &orientation{p.Rotation}
}

// Transform applies the pose to a point: R*point + translation.
func (p *Pose) Transform(point r3.Vector) r3.Vector {
	return rotateVector(p.Rotation, point).Add(p.Translation)
}

// Compose returns the transform equivalent to first applying other, then p: i.e. p.Compose(other)
// applied to a point x is p.Transform(other.Transform(x)).
func (p *Pose) Compose(other *Pose) *Pose {
	rotation := quat.Mul(p.Rotation, other.Rotation)
	translation := rotateVector(p.Rotation, other.Translation).Add(p.Translation)
	return &Pose{Rotation: normalize(rotation), Translation: translation}
}

// Inverse returns the pose such that p.Compose(p.Inverse()) is identity.
func (p *Pose) Inverse() *Pose {
	inverseRotation := quat.Conj(p.Rotation)
	inverseTranslation := rotateVector(inverseRotation, p.Translation).Mul(-1)
	return &Pose{Rotation: inverseRotation, Translation: inverseTranslation}
}

// RotationMatrix returns the 3x3 rotation matrix (row-major) equivalent to the pose's rotation.
func (p *Pose) RotationMatrix() [3][3]float64 {
	q := normalize(p.Rotation)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// RodriguesAngle returns the rotation angle (radians) of the axis-angle representation of the
// pose's rotation, i.e. the magnitude used to judge whether a motion delta is significant.
func (p *Pose) RodriguesAngle() float64 {
	_, angle := quaternionToAxisAngle(p.Rotation)
	return angle
}

// AlmostEqual reports whether two poses are approximately the same rigid transform.
func (p *Pose) AlmostEqual(other *Pose, tolerance float64) bool {
	return QuaternionAlmostEqual(p.Rotation, other.Rotation, tolerance) &&
		p.Translation.Sub(other.Translation).Norm() < tolerance
}

func rotateVector(q quat.Number, v r3.Vector) r3.Vector {
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
