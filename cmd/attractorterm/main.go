// Command attractorterm renders chaos-game attractors in the terminal.
//
// Each terminal cell shows two pixels using the upper half block, so a
// truecolor terminal is recommended. Keys:
//
//	up/down      add or remove a polygon vertex
//	left/right   decrease or increase the fraction by 0.01
//	1, 2, 3      jump to the special fractions 1/3, 1/phi^2, 1/2
//	r            restart the current configuration
//	q, esc       quit
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/attractor"
	_ "github.com/gogpu/attractor/gpu" // prefer the GPU engine when available
)

func main() {
	var (
		points   = flag.Int("points", attractor.DefaultPoints, "polygon vertex count")
		fraction = flag.Float64("fraction", attractor.DefaultFraction, "blend fraction towards the chosen vertex")
		agents   = flag.Int("agents", 3000, "agent population budget")
		size     = flag.Int("size", 161, "canvas edge length in pixels")
		backend  = flag.String("backend", "", "engine backend (cpu, gpu; empty selects the best)")
		chime    = flag.Bool("chime", false, "play a chime when an attractor converges")
		logFile  = flag.String("log", "", "write debug log to this file")
	)
	flag.Parse()

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			log.Fatalf("Failed to open log: %v", err)
		}
		defer f.Close()
		attractor.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := attractor.Config{Points: *points, Fraction: *fraction, MaxAgents: *agents, Size: *size}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to initialize screen: %v", err)
	}
	defer screen.Fini()

	var snd *chimePlayer
	if *chime {
		if snd, err = newChimePlayer(); err != nil {
			// Non-fatal, the viewer works without sound.
			attractor.Logger().Warn("attractorterm: audio unavailable", "err", err)
		}
	}

	v, err := newViewer(screen, cfg, *backend, snd)
	if err != nil {
		screen.Fini()
		log.Fatalf("Failed to start: %v", err)
	}
	if err := v.run(context.Background()); err != nil {
		screen.Fini()
		log.Fatalf("Viewer failed: %v", err)
	}
}
