// Command attractordemo runs one chaos-game configuration to convergence
// and writes the attractor as a captioned PNG.
package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/attractor"
	_ "github.com/gogpu/attractor/gpu" // prefer the GPU engine when available
)

func main() {
	var (
		points   = flag.Int("points", attractor.DefaultPoints, "polygon vertex count")
		fraction = flag.Float64("fraction", attractor.DefaultFraction, "blend fraction towards the chosen vertex")
		agents   = flag.Int("agents", attractor.DefaultMaxAgents, "agent population budget")
		size     = flag.Int("size", attractor.DefaultSize, "canvas edge length in pixels")
		width    = flag.Int("width", 0, "output width (0 keeps the canvas size)")
		backend  = flag.String("backend", "", "engine backend (cpu, gpu; empty selects the best)")
		seed     = flag.Uint64("seed", 1, "random seed")
		timeout  = flag.Duration("timeout", time.Minute, "give up after this long")
		caption  = flag.Bool("caption", true, "draw a caption under the image")
		verbose  = flag.Bool("v", false, "log progress to stderr")
		output   = flag.String("output", "attractor.png", "output file")
	)
	flag.Parse()

	if *verbose {
		attractor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := attractor.Config{Points: *points, Fraction: *fraction, MaxAgents: *agents, Size: *size}
	s, err := attractor.NewSession(attractor.WithBackend(*backend), attractor.WithSeed(*seed))
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	defer s.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	start := time.Now()
	res, err := s.RunOnce(ctx, cfg)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	if res.Err != nil {
		log.Fatalf("Computation failed: %v", res.Err)
	}

	p := message.NewPrinter(language.English)
	text := ""
	if *caption {
		text = captionText(p, res)
	}
	img := compose(s.Frame(), *width, text)
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Print(p.Sprintf("Attractor saved to %s (%dx%d, %s, %d cycles, %v)",
		*output, img.Bounds().Dx(), img.Bounds().Dy(), res.Backend, res.Cycles, time.Since(start).Round(time.Millisecond)))
}

func savePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
