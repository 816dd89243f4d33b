// Package transform holds the camera models the tracker projects and reprojects framepoints
// through. Only the pinhole model is implemented here: the framepoint generator and pose
// optimizer are external collaborators and the tracker's only contract with the camera is
// projecting a 3D camera-frame point to a 2D pixel.
package transform

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is returned when a camera does not have valid intrinsic parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError wraps ErrNoIntrinsics with additional context.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to project a 3D point in the camera
// frame to a 2D pixel on the image plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks that the intrinsics fields have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid size (%d, %d)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fx = %v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fy = %v", params.Fy))
	}
	return nil
}

// Project projects a 3D point expressed in the camera frame onto the image plane, returning
// pixel coordinates. The caller is responsible for checking point.Z > 0 and bounds.
func (params *PinholeCameraIntrinsics) Project(point r3.Vector) (x, y float64) {
	x = point.X/point.Z*params.Fx + params.Ppx
	y = point.Y/point.Z*params.Fy + params.Ppy
	return x, y
}

// InBounds reports whether a projected pixel lies within the image.
func (params *PinholeCameraIntrinsics) InBounds(x, y float64) bool {
	return x >= 0 && x <= float64(params.Width) && y >= 0 && y <= float64(params.Height)
}

// CameraExtrinsics describes the rigid transform from the robot/rig frame into a single
// camera's optical frame, and the baseline offset for the stereo pair's other camera.
type CameraExtrinsics struct {
	// BaselineMeters is the horizontal offset to the other camera in the stereo pair, used by
	// the (external) framepoint generator for triangulation. The tracker itself never
	// triangulates; it only needs the left camera's intrinsics and robot-to-camera transform.
	BaselineMeters float64 `json:"baseline_m"`
}
