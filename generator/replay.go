// Package generator provides a FramepointGenerator that replays precomputed stereo
// correspondences from a JSON recording, standing in for real feature extraction and
// triangulation so the tracker can be driven end to end without a live stereo pipeline.
package generator

import (
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/proslam/track"
)

// Candidate is one stereo-triangulated feature recorded for a single frame.
type Candidate struct {
	Row int `json:"row"`
	Col int `json:"col"`

	ImageLeft  [2]float64 `json:"image_left"`
	ImageRight [2]float64 `json:"image_right"`

	DescriptorLeft  string `json:"descriptor_left"`  // hex-encoded
	DescriptorRight string `json:"descriptor_right"` // hex-encoded

	Camera [3]float64 `json:"camera"`
	Near   bool        `json:"near"`
}

// FrameRecord is the set of candidates recorded for one frame, in capture order.
type FrameRecord struct {
	Candidates []Candidate `json:"candidates"`
}

// Recording is a sequence of FrameRecords, one consumed per Compute call.
type Recording struct {
	Rows   int           `json:"rows"`
	Cols   int           `json:"cols"`
	Frames []FrameRecord `json:"frames"`

	MatchingDistanceThreshold float64 `json:"matching_distance_threshold"`
	MaximumDepthNearMeters    float64 `json:"maximum_depth_near_meters"`
	MaximumDepthFarMeters     float64 `json:"maximum_depth_far_meters"`
}

// DecodeRecording reads a Recording from JSON.
func DecodeRecording(r io.Reader) (*Recording, error) {
	var rec Recording
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "decoding replay recording")
	}
	return &rec, nil
}

// Replay implements track.FramepointGenerator by replaying a Recording's frames in order.
// RecoverFramepoint never produces a candidate: recorded frames carry no recovery side channel.
type Replay struct {
	recording *Recording
	grid      *track.Grid
	next      int
}

// NewReplay returns a Replay generator over rec.
func NewReplay(rec *Recording) *Replay {
	return &Replay{recording: rec, grid: track.NewGrid(rec.Rows, rec.Cols)}
}

// Compute populates the grid from the next recorded frame. It errors once the recording is
// exhausted.
func (g *Replay) Compute(frame *track.Frame) error {
	if g.next >= len(g.recording.Frames) {
		return errors.Errorf("replay recording exhausted after %d frames", g.next)
	}
	record := g.recording.Frames[g.next]
	g.next++

	for _, c := range record.Candidates {
		descriptorLeft, err := hex.DecodeString(c.DescriptorLeft)
		if err != nil {
			return errors.Wrapf(err, "decoding left descriptor for frame %d", frame.Identifier)
		}
		descriptorRight, err := hex.DecodeString(c.DescriptorRight)
		if err != nil {
			return errors.Wrapf(err, "decoding right descriptor for frame %d", frame.Identifier)
		}
		point := track.NewFramePoint(
			r2.Point{X: c.ImageLeft[0], Y: c.ImageLeft[1]},
			r2.Point{X: c.ImageRight[0], Y: c.ImageRight[1]},
			descriptorLeft, descriptorRight,
			r3.Vector{X: c.Camera[0], Y: c.Camera[1], Z: c.Camera[2]},
			c.Near,
		)
		g.grid.Set(c.Row, c.Col, point)
	}
	return nil
}

// NumberOfAvailablePoints returns the count of non-empty grid cells.
func (g *Replay) NumberOfAvailablePoints() int { return g.grid.NumberOfOccupiedCells() }

// FramepointsInImage exposes the grid for destructive consumption.
func (g *Replay) FramepointsInImage() *track.Grid { return g.grid }

// MatchingDistanceTrackingThreshold returns the recording's configured descriptor threshold.
func (g *Replay) MatchingDistanceTrackingThreshold() float64 {
	return g.recording.MatchingDistanceThreshold
}

// MaximumDepthNearMeters returns the recording's configured near-depth threshold.
func (g *Replay) MaximumDepthNearMeters() float64 { return g.recording.MaximumDepthNearMeters }

// MaximumDepthFarMeters returns the recording's configured far-depth threshold.
func (g *Replay) MaximumDepthFarMeters() float64 { return g.recording.MaximumDepthFarMeters }

// ClearFramepointsInImage empties the grid.
func (g *Replay) ClearFramepointsInImage() { g.grid.Clear() }

// NumberOfRowsImage returns the grid's row count.
func (g *Replay) NumberOfRowsImage() int { return g.grid.Rows() }

// NumberOfColsImage returns the grid's column count.
func (g *Replay) NumberOfColsImage() int { return g.grid.Cols() }

// RecoverFramepoint always reports no recovery candidate: recorded frames carry no side channel
// for opportunistic rematching.
func (g *Replay) RecoverFramepoint(row, col int, descriptorLeft []byte) *track.FramePoint {
	return nil
}

// Done reports whether every recorded frame has been consumed.
func (g *Replay) Done() bool { return g.next >= len(g.recording.Frames) }
