package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/attractor"
)

// command is a user request decoded from the keyboard.
type command int

const (
	cmdNone command = iota
	cmdMorePoints
	cmdFewerPoints
	cmdLowerFraction
	cmdRaiseFraction
	cmdSpecial1
	cmdSpecial2
	cmdSpecial3
	cmdRestart
	cmdQuit
)

// keymap binds keys to commands, checked in order.
var keymap = []struct {
	key ebiten.Key
	cmd command
}{
	{ebiten.KeyArrowUp, cmdMorePoints},
	{ebiten.KeyArrowDown, cmdFewerPoints},
	{ebiten.KeyArrowLeft, cmdLowerFraction},
	{ebiten.KeyArrowRight, cmdRaiseFraction},
	{ebiten.KeyDigit1, cmdSpecial1},
	{ebiten.KeyDigit2, cmdSpecial2},
	{ebiten.KeyDigit3, cmdSpecial3},
	{ebiten.KeyR, cmdRestart},
	{ebiten.KeyEscape, cmdQuit},
}

// apply returns cfg changed by c and whether the session needs it.
func apply(cfg attractor.Config, c command) (attractor.Config, bool) {
	switch c {
	case cmdMorePoints:
		cfg.Points++
	case cmdFewerPoints:
		if cfg.Points <= attractor.MinPoints {
			return cfg, false
		}
		cfg.Points--
	case cmdLowerFraction:
		cfg.Fraction = math.Round(cfg.Fraction*100-1) / 100
	case cmdRaiseFraction:
		cfg.Fraction = math.Round(cfg.Fraction*100+1) / 100
	case cmdSpecial1, cmdSpecial2, cmdSpecial3:
		special := attractor.SpecialFractions()
		i := int(c - cmdSpecial1)
		if i >= len(special) {
			return cfg, false
		}
		cfg.Fraction = special[i]
	case cmdRestart:
	default:
		return cfg, false
	}
	return cfg, true
}

// game adapts a Session to ebiten.Game. The session runs on its own
// goroutine; frames cross over through a mutex-guarded copy.
type game struct {
	session *attractor.Session
	cfg     attractor.Config

	mu     sync.Mutex
	frame  *attractor.Pixmap
	dirty  bool
	stats  attractor.Stats
	status string

	canvas *ebiten.Image
}

func newGame(ctx context.Context, cfg attractor.Config, backend string) (*game, error) {
	g := &game{cfg: cfg, status: "running"}
	s, err := attractor.NewSession(
		attractor.WithBackend(backend),
		attractor.WithFrameSink(g.onFrame),
		attractor.WithCompletion(g.onComplete),
	)
	if err != nil {
		return nil, err
	}
	g.session = s
	go func() {
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			attractor.Logger().Warn("attractorview: session stopped", "err", err)
		}
	}()
	if err := s.Configure(cfg); err != nil {
		s.Shutdown()
		return nil, err
	}
	return g, nil
}

func (g *game) close() {
	g.session.Shutdown()
}

func (g *game) onFrame(frame *attractor.Pixmap, stats attractor.Stats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frame == nil || g.frame.Width() != frame.Width() {
		g.frame = attractor.NewPixmap(frame.Width(), frame.Height())
	}
	_ = g.frame.CopyFrom(frame)
	g.stats = stats
	g.dirty = true
}

func (g *game) onComplete(res attractor.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if res.Err != nil {
		g.status = "failed"
		return
	}
	g.status = fmt.Sprintf("converged (%d cycles, %s)", res.Cycles, res.Backend)
}

// Update implements ebiten.Game.
func (g *game) Update() error {
	for _, k := range keymap {
		if !inpututil.IsKeyJustPressed(k.key) {
			continue
		}
		if k.cmd == cmdQuit {
			return ebiten.Termination
		}
		cfg, ok := apply(g.cfg, k.cmd)
		if !ok {
			continue
		}
		if err := g.session.Configure(cfg); err != nil {
			g.mu.Lock()
			g.status = err.Error()
			g.mu.Unlock()
			continue
		}
		g.cfg = cfg
		g.mu.Lock()
		g.status = "running"
		g.mu.Unlock()
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	if g.dirty {
		w, h := g.frame.Width(), g.frame.Height()
		if g.canvas == nil || g.canvas.Bounds().Dx() != w {
			if g.canvas != nil {
				g.canvas.Deallocate()
			}
			g.canvas = ebiten.NewImage(w, h)
		}
		// Palette pixels are opaque or fully transparent, so they are
		// already premultiplied.
		g.canvas.WritePixels(g.frame.Data())
		g.dirty = false
	}
	line := statusLine(g.cfg, g.stats, g.status)
	g.mu.Unlock()

	if g.canvas != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM = fitSquare(g.canvas.Bounds().Dx(), screen.Bounds().Dx(), screen.Bounds().Dy())
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(g.canvas, op)
	}
	ebitenutil.DebugPrint(screen, line)
}

// Layout implements ebiten.Game.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// fitSquare scales a side x side image to fit w x h, centered.
func fitSquare(side, w, h int) ebiten.GeoM {
	var m ebiten.GeoM
	scale := float64(min(w, h)) / float64(side)
	m.Scale(scale, scale)
	m.Translate((float64(w)-float64(side)*scale)/2, (float64(h)-float64(side)*scale)/2)
	return m
}

func statusLine(cfg attractor.Config, stats attractor.Stats, status string) string {
	return fmt.Sprintf("points %d  fraction %.4f  max %d  ratio %.4f\n%s",
		cfg.Points, cfg.Fraction, stats.Max, stats.Ratio(), status)
}
