package main

import (
	"os"

	"github.com/mpoboas/cosig-raytracing/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "cosig-rt"
	app.Usage = "render scenes using recursive ray tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "info",
			Usage: "display the statistics of a compiled scene",
			Description: `
Parse a scene definition from a text scene file, compile it into the
packed representation used by the render workers and print a table of
the compiled asset counts and sizes.`,
			ArgsUsage: "scene_file.txt",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:   "list-devices",
			Usage:  "list cpu devices backing the render worker pool",
			Action: cmd.ListDevices,
		},
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render single frame",
					Description: `Render a single frame and export it as a png image.`,
					ArgsUsage:   "scene_file.txt",
					Flags: append(renderFlags(),
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					),
					Action: cmd.RenderFrame,
				},
				{
					Name:  "anim",
					Usage: "render camera orbit animation",
					Description: `
Render a sequence of frames orbiting the camera around its look-at
target and export them as an animated gif.`,
					ArgsUsage: "scene_file.txt",
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "frames",
							Value: 36,
							Usage: "number of animation frames for a full orbit",
						},
						cli.IntFlag{
							Name:  "delay",
							Value: 4,
							Usage: "inter-frame delay in 10ms units",
						},
						cli.StringFlag{
							Name:  "out, o",
							Value: "anim.gif",
							Usage: "image filename for the rendered animation",
						},
					),
					Action: cmd.RenderAnim,
				},
			},
		},
	}

	app.Run(os.Args)
}

// The flag set shared by the render subcommands.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Usage: "frame width; 0 selects the scene setting",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "frame height; 0 selects the scene setting",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: 1,
			Usage: "stratified sampling grid side; each pixel receives spp^2 rays (1, 2, 4 or 8)",
		},
		cli.IntFlag{
			Name:  "depth",
			Value: 5,
			Usage: "maximum recursion depth for secondary rays",
		},
		cli.IntFlag{
			Name:  "seed",
			Value: 1,
			Usage: "seed for the sampling jitter streams",
		},
		cli.Float64Flag{
			Name:  "light-scale",
			Value: 1.0,
			Usage: "intensity scaler applied to all light colors",
		},
		cli.Float64Flag{
			Name:  "soft-shadows",
			Usage: "light radius for soft shadow sampling; 0 renders hard shadows",
		},
		cli.Float64Flag{
			Name:  "glossiness",
			Usage: "reflected ray perturbation radius; 0 renders sharp reflections",
		},
		cli.Float64Flag{
			Name:  "shutter-speed",
			Usage: "motion blur shutter speed; 0 disables motion blur",
		},
		cli.BoolFlag{
			Name:  "ortho",
			Usage: "render with an orthographic projection",
		},
		cli.BoolFlag{
			Name:  "no-ambient",
			Usage: "disable the ambient shading term",
		},
		cli.BoolFlag{
			Name:  "no-diffuse",
			Usage: "disable the diffuse shading term",
		},
		cli.BoolFlag{
			Name:  "no-specular",
			Usage: "disable the specular shading term and reflections",
		},
		cli.BoolFlag{
			Name:  "no-refraction",
			Usage: "disable refraction rays",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of render workers; 0 selects one per logical core",
		},
		cli.StringFlag{
			Name:  "settings",
			Usage: "json settings preset overriding the render flags",
		},
	}
}
