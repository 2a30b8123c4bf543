package cmd

import (
	"errors"

	"github.com/mpoboas/cosig-raytracing/scene/reader"
	"github.com/urfave/cli"
)

// Parse and compile a scene file and display its statistics together with
// the render defaults and camera pose it declares.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef(
		"render defaults: %dx%d frame, background (%.2f, %.2f, %.2f)",
		sc.Settings.FrameW, sc.Settings.FrameH,
		sc.Settings.Background[0], sc.Settings.Background[1], sc.Settings.Background[2],
	)
	logger.Noticef(
		"camera: eye (%.2f, %.2f, %.2f) looking at (%.2f, %.2f, %.2f), fov %.1f deg",
		sc.Camera.Position[0], sc.Camera.Position[1], sc.Camera.Position[2],
		sc.Camera.LookAt[0], sc.Camera.LookAt[1], sc.Camera.LookAt[2],
		sc.Camera.FOV,
	)

	return nil
}
