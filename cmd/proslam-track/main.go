// Package main is the proslam-track CLI: it drives the tracker over a replayed recording of
// stereo correspondences and dumps the resulting trajectory in KITTI format.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/proslam/generator"
	"go.viam.com/proslam/optimize"
	"go.viam.com/proslam/rimage/transform"
	"go.viam.com/proslam/spatialmath"
	"go.viam.com/proslam/track"
)

const (
	flagRecording = "recording"
	flagConfig    = "config"
	flagOutput    = "output"
	flagInlierPx  = "inlier-threshold-px"
	flagCameraFx  = "camera-fx"
	flagCameraFy  = "camera-fy"
	flagCameraPpx = "camera-ppx"
	flagCameraPpy = "camera-ppy"
	flagCameraW   = "camera-width"
	flagCameraH   = "camera-height"
)

func main() {
	logger := golog.NewLogger("proslam-track")

	app := &cli.App{
		Name:  "proslam-track",
		Usage: "replay a recorded stereo correspondence sequence through the tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagRecording, Required: true, Usage: "path to a JSON replay recording"},
			&cli.StringFlag{Name: flagConfig, Usage: "path to a tracker config JSON file; defaults used if omitted"},
			&cli.StringFlag{Name: flagOutput, Required: true, Usage: "path to write the KITTI trajectory dump"},
			&cli.Float64Flag{Name: flagInlierPx, Value: 5.0, Usage: "reprojection inlier threshold, pixels"},
			&cli.Float64Flag{Name: flagCameraFx, Value: 500, Usage: "left camera focal length x"},
			&cli.Float64Flag{Name: flagCameraFy, Value: 500, Usage: "left camera focal length y"},
			&cli.Float64Flag{Name: flagCameraPpx, Value: 320, Usage: "left camera principal point x"},
			&cli.Float64Flag{Name: flagCameraPpy, Value: 240, Usage: "left camera principal point y"},
			&cli.IntFlag{Name: flagCameraW, Value: 640, Usage: "image width in pixels"},
			&cli.IntFlag{Name: flagCameraH, Value: 480, Usage: "image height in pixels"},
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context, logger golog.Logger) error {
	recordingFile, err := os.Open(c.String(flagRecording))
	if err != nil {
		return errors.Wrap(err, "opening replay recording")
	}
	defer utils.UncheckedErrorFunc(recordingFile.Close)

	recording, err := generator.DecodeRecording(recordingFile)
	if err != nil {
		return err
	}

	cfg := track.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		cfg, err = track.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	cameraLeft := &transform.PinholeCameraIntrinsics{
		Width:  c.Int(flagCameraW),
		Height: c.Int(flagCameraH),
		Fx:     c.Float64(flagCameraFx),
		Fy:     c.Float64(flagCameraFy),
		Ppx:    c.Float64(flagCameraPpx),
		Ppy:    c.Float64(flagCameraPpy),
	}

	worldMap := track.NewWorldMap()
	gen := generator.NewReplay(recording)
	optimizer := optimize.NewNloptPoseOptimizer(c.Float64(flagInlierPx))

	tracker, err := track.NewTracker(cfg, worldMap, gen, optimizer, cameraLeft, spatialmath.NewZeroPose(), logger)
	if err != nil {
		return err
	}

	frames := 0
	for !gen.Done() {
		if err := tracker.Compute(false, nil); err != nil {
			return errors.Wrap(err, "tracker compute")
		}
		frames++
		logger.Debugw("processed frame", "frame", frames, "status", tracker.Status().String())
	}

	outputFile, err := os.Create(c.String(flagOutput))
	if err != nil {
		return errors.Wrap(err, "creating trajectory output")
	}
	defer utils.UncheckedErrorFunc(outputFile.Close)

	if err := track.WriteTrajectoryKITTI(worldMap, outputFile); err != nil {
		return errors.Wrap(err, "writing trajectory")
	}

	fmt.Fprintf(os.Stdout, "wrote %d frames to %s\n", frames, c.String(flagOutput))
	return nil
}
