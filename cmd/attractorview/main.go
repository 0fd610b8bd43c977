// Command attractorview shows chaos-game attractors converging in a window.
//
// Keys: up/down change the vertex count, left/right the fraction by 0.01,
// 1-3 select the special fractions, R restarts, Esc quits.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/attractor"
	_ "github.com/gogpu/attractor/gpu" // prefer the GPU engine when available
)

func main() {
	var (
		points   = flag.Int("points", attractor.DefaultPoints, "polygon vertex count")
		fraction = flag.Float64("fraction", attractor.DefaultFraction, "blend fraction towards the chosen vertex")
		agents   = flag.Int("agents", attractor.DefaultMaxAgents, "agent population budget")
		size     = flag.Int("size", attractor.DefaultSize, "canvas edge length in pixels")
		backend  = flag.String("backend", "", "engine backend (cpu, gpu; empty selects the best)")
	)
	flag.Parse()

	cfg := attractor.Config{Points: *points, Fraction: *fraction, MaxAgents: *agents, Size: *size}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, err := newGame(ctx, cfg, *backend)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer g.close()

	ebiten.SetWindowSize(cfg.Size, cfg.Size)
	ebiten.SetWindowTitle("Attractor")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
