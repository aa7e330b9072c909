package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"math"
	"os"
	"time"

	"github.com/milk9111/rigidsync/render"
	"github.com/milk9111/rigidsync/specs"
	"github.com/milk9111/rigidsync/stage"
	"github.com/milk9111/rigidsync/ticker"
	"golang.org/x/image/colornames"
	"golang.org/x/image/vector"
)

const (
	snapshotWidth  = 960
	snapshotHeight = 540
)

func main() {
	specPath := flag.String("spec", "", "scene spec file (defaults to the embedded specs/scene.yaml)")
	frames := flag.Int("frames", 600, "number of frames to simulate")
	step := flag.Duration("step", time.Second/60, "simulated time per frame")
	every := flag.Int("every", 60, "log body poses every n frames (0 disables)")
	realtime := flag.Bool("realtime", false, "pace frames with the wall clock instead of a synthetic one")
	out := flag.String("png", "", "write a wireframe snapshot of the last frame to this file")
	flag.Parse()

	if err := run(*specPath, *frames, *step, *every, *realtime, *out); err != nil {
		log.Fatal(err)
	}
}

func run(specPath string, frames int, step time.Duration, every int, realtime bool, out string) error {
	if frames <= 0 || step <= 0 {
		return fmt.Errorf("headless: frames and step must be positive")
	}

	spec, err := loadSpec(specPath)
	if err != nil {
		return err
	}

	t := ticker.New()
	proj := render.NewProjector(snapshotWidth, snapshotHeight)
	owner := stage.New(spec, proj, t)
	if err := owner.Init(); err != nil {
		return err
	}
	defer owner.Dispose()

	t.Add(func(delta, total time.Duration) {
		n := t.Frames()
		if every <= 0 || n%uint64(every) != 0 {
			return
		}
		report(owner, n, total)
	})

	start := time.Now()
	if realtime {
		// the first frame only primes the clock
		ctx, cancel := context.WithTimeout(context.Background(), step*time.Duration(frames+1))
		defer cancel()
		if err := t.Run(ctx, step); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	} else {
		now := start
		for i := 0; i <= frames; i++ {
			t.Tick(now)
			now = now.Add(step)
		}
	}

	log.Printf("Headless: %d frames, %v simulated in %v", t.Frames(), t.Total(), time.Since(start))
	report(owner, t.Frames(), t.Total())

	if out != "" {
		if err := writeSnapshot(out, proj.Segments(), spec.Background.NRGBA); err != nil {
			return err
		}
		log.Printf("Headless: wrote %s", out)
	}
	return nil
}

func loadSpec(path string) (specs.Scene, error) {
	if path == "" {
		return specs.LoadScene(specs.DefaultScene)
	}
	return specs.LoadSceneFile(path)
}

func report(owner *stage.Owner, frame uint64, total time.Duration) {
	w := owner.World()
	sphere := w.Transform(owner.SphereBody()).Col(3)
	v := w.LinearVelocity(owner.SphereBody())
	log.Printf("frame %d t=%.2fs sphere=(%.2f, %.2f, %.2f) v=(%.2f, %.2f, %.2f)",
		frame, total.Seconds(), sphere.X(), sphere.Y(), sphere.Z(), v.X(), v.Y(), v.Z())

	boxes := owner.Boxes()
	if boxes == nil || boxes.Count() == 0 {
		return
	}
	lowest, highest := float32(math.Inf(1)), float32(math.Inf(-1))
	for i := 0; i < boxes.Count(); i++ {
		y := boxes.MatrixAt(i).Col(3).Y()
		lowest = min(lowest, y)
		highest = max(highest, y)
	}
	log.Printf("frame %d boxes=%d y in [%.2f, %.2f]", frame, boxes.Count(), lowest, highest)
}

// writeSnapshot rasterizes the display list as one pixel wide quads.
func writeSnapshot(path string, segments []render.Segment, bg color.NRGBA) error {
	if bg.A == 0 {
		bg = color.NRGBA(colornames.Black)
	}
	dst := image.NewRGBA(image.Rect(0, 0, snapshotWidth, snapshotHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	z := vector.NewRasterizer(snapshotWidth, snapshotHeight)
	for _, s := range segments {
		dx, dy := s.X1-s.X0, s.Y1-s.Y0
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 || offscreen(s) {
			continue
		}
		nx, ny := -dy/l*0.5, dx/l*0.5

		z.Reset(snapshotWidth, snapshotHeight)
		z.MoveTo(s.X0+nx, s.Y0+ny)
		z.LineTo(s.X1+nx, s.Y1+ny)
		z.LineTo(s.X1-nx, s.Y1-ny)
		z.LineTo(s.X0-nx, s.Y0-ny)
		z.ClosePath()
		z.Draw(dst, dst.Bounds(), image.NewUniform(s.Color), image.Point{})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("headless: create snapshot: %w", err)
	}
	if err := png.Encode(f, dst); err != nil {
		_ = f.Close()
		return fmt.Errorf("headless: encode snapshot: %w", err)
	}
	return f.Close()
}

func offscreen(s render.Segment) bool {
	const margin = 4
	outside := func(x, y float32) bool {
		return x < -margin*snapshotWidth || x > margin*snapshotWidth || y < -margin*snapshotHeight || y > margin*snapshotHeight
	}
	return outside(s.X0, s.Y0) || outside(s.X1, s.Y1)
}
