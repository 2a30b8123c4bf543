package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/mpoboas/cosig-raytracing/renderer"
	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/reader"
	"github.com/mpoboas/cosig-raytracing/tracer"
	"github.com/mpoboas/cosig-raytracing/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(sc, tracer.NaiveScheduler(), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	// Ctrl-c aborts the in-flight frame; completed rows are kept so the
	// partial output can still be exported.
	renderCtx, cancelFn := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancelFn()

	startTime := time.Now()
	err = r.Render(renderCtx)
	if err != nil && err != renderer.ErrInterrupted {
		return err
	}
	if err == renderer.ErrInterrupted {
		logger.Warning("frame render interrupted; exporting partial frame")
	}
	logger.Noticef("rendered frame in %d ms", time.Since(startTime).Nanoseconds()/1000000)

	displayFrameStats(r.Stats())

	return exportPNG(r.Frame(), ctx.String("out"))
}

// Render a sequence of frames orbiting the camera around its look-at
// target and export them as an animated gif.
func RenderAnim(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	numFrames := ctx.Int("frames")
	if numFrames <= 0 {
		return fmt.Errorf("invalid frame count %d", numFrames)
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	// The perfect scheduler rebalances blocks between animation frames
	// using the per-tracer stats of the previous frame.
	r, err := renderer.NewDefault(sc, tracer.PerfectScheduler(), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	renderCtx, cancelFn := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancelFn()

	anim := &gif.GIF{}
	frameDelay := ctx.Int("delay")
	angleStep := 360.0 / float32(numFrames)

	startTime := time.Now()
	for frame := 0; frame < numFrames; frame++ {
		if err = r.Render(renderCtx); err != nil {
			return err
		}
		logger.Infof("rendered frame %d of %d", frame+1, numFrames)

		anim.Image = append(anim.Image, palettedFrame(r.Frame()))
		anim.Delay = append(anim.Delay, frameDelay)

		orbitCamera(sc.Camera, angleStep)
		r.UpdateCamera(sc.Camera)
	}
	logger.Noticef("rendered %d frames in %d ms", numFrames, time.Since(startTime).Nanoseconds()/1000000)

	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = gif.EncodeAll(f, anim); err != nil {
		return fmt.Errorf("failed to encode gif file: %v", err)
	}
	logger.Noticef("wrote animation to %s", imgFile)

	return nil
}

// Assemble renderer options from the command flags and the optional json
// settings preset.
func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.Options{
		FrameW:           uint32(ctx.Int("width")),
		FrameH:           uint32(ctx.Int("height")),
		MaxDepth:         uint32(ctx.Int("depth")),
		LightScale:       float32(ctx.Float64("light-scale")),
		EnableAmbient:    !ctx.Bool("no-ambient"),
		EnableDiffuse:    !ctx.Bool("no-diffuse"),
		EnableSpecular:   !ctx.Bool("no-specular"),
		EnableRefraction: !ctx.Bool("no-refraction"),
		SoftShadowRadius: float32(ctx.Float64("soft-shadows")),
		GlossyRoughness:  float32(ctx.Float64("glossiness")),
		ShutterSpeed:     float32(ctx.Float64("shutter-speed")),
		AASamples:        uint32(ctx.Int("spp")),
		Seed:             uint32(ctx.Int("seed")),
		Orthographic:     ctx.Bool("ortho"),
		NumWorkers:       ctx.Int("workers"),
	}

	if presetFile := ctx.String("settings"); presetFile != "" {
		if err := applyPreset(presetFile, &opts); err != nil {
			return opts, err
		}
	}

	switch opts.AASamples {
	case 0, 1, 2, 4, 8:
	default:
		return opts, fmt.Errorf("unsupported samples per pixel value %d; expected 1, 2, 4 or 8", opts.AASamples)
	}

	opts.OnProgress = func(completedRows, totalRows uint32) {
		logger.Infof("rendered %d of %d frame rows", completedRows, totalRows)
	}

	return opts, nil
}

// A json settings preset mirroring the render flags. Keys absent from the
// preset keep the values assembled from the flags.
type settingsPreset struct {
	Width            *uint32     `json:"width"`
	Height           *uint32     `json:"height"`
	SamplesPerPixel  *uint32     `json:"samples_per_pixel"`
	MaxDepth         *uint32     `json:"max_depth"`
	Seed             *uint32     `json:"seed"`
	LightScale       *float32    `json:"light_scale"`
	SoftShadowRadius *float32    `json:"soft_shadow_radius"`
	GlossyRoughness  *float32    `json:"glossy_roughness"`
	ShutterSpeed     *float32    `json:"shutter_speed"`
	Ambient          *bool       `json:"ambient"`
	Diffuse          *bool       `json:"diffuse"`
	Specular         *bool       `json:"specular"`
	Refraction       *bool       `json:"refraction"`
	Orthographic     *bool       `json:"orthographic"`
	Background       *[3]float32 `json:"background"`
}

func applyPreset(presetFile string, opts *renderer.Options) error {
	data, err := os.ReadFile(presetFile)
	if err != nil {
		return fmt.Errorf("failed to read settings preset: %v", err)
	}

	var preset settingsPreset
	if err = json.Unmarshal(data, &preset); err != nil {
		return fmt.Errorf("failed to parse settings preset %s: %v", presetFile, err)
	}

	if preset.Width != nil {
		opts.FrameW = *preset.Width
	}
	if preset.Height != nil {
		opts.FrameH = *preset.Height
	}
	if preset.SamplesPerPixel != nil {
		opts.AASamples = *preset.SamplesPerPixel
	}
	if preset.MaxDepth != nil {
		opts.MaxDepth = *preset.MaxDepth
	}
	if preset.Seed != nil {
		opts.Seed = *preset.Seed
	}
	if preset.LightScale != nil {
		opts.LightScale = *preset.LightScale
	}
	if preset.SoftShadowRadius != nil {
		opts.SoftShadowRadius = *preset.SoftShadowRadius
	}
	if preset.GlossyRoughness != nil {
		opts.GlossyRoughness = *preset.GlossyRoughness
	}
	if preset.ShutterSpeed != nil {
		opts.ShutterSpeed = *preset.ShutterSpeed
	}
	if preset.Ambient != nil {
		opts.EnableAmbient = *preset.Ambient
	}
	if preset.Diffuse != nil {
		opts.EnableDiffuse = *preset.Diffuse
	}
	if preset.Specular != nil {
		opts.EnableSpecular = *preset.Specular
	}
	if preset.Refraction != nil {
		opts.EnableRefraction = *preset.Refraction
	}
	if preset.Orthographic != nil {
		opts.Orthographic = *preset.Orthographic
	}
	if preset.Background != nil {
		background := types.Vec3{preset.Background[0], preset.Background[1], preset.Background[2]}
		opts.Background = &background
	}

	return nil
}

// Rotate the camera position about the y axis through its look-at target.
func orbitCamera(camera *scene.Camera, degrees float32) {
	q := types.QuatFromAxisAngle(types.Vec3{0, 1, 0}, degrees*math.Pi/180.0)
	offset := camera.Position.Sub(camera.LookAt)
	camera.Position = camera.LookAt.Add(q.Rotate(offset))
}

// Quantize an rgba frame to a paletted gif frame.
func palettedFrame(img *image.RGBA) *image.Paletted {
	paletted := image.NewPaletted(img.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, img.Bounds(), img, image.Point{})
	return paletted
}

func exportPNG(img *image.RGBA, imgFile string) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode png file: %v", err)
	}
	logger.Noticef("wrote frame to %s", imgFile)

	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Block height", "% of frame", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%s", stat.RenderTime),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%s", stats.RenderTime)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
