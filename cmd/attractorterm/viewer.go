package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/attractor"
)

// fractionStep is the fraction change per arrow key press.
const (
	fractionStep = 0.01
	fractionGrid = 100 // 1 / fractionStep
)

// action is what the event loop does after a key.
type action int

const (
	actionNone action = iota
	actionConfigure
	actionQuit
)

// viewer draws session frames on a tcell screen and turns keys into new
// configurations.
type viewer struct {
	screen  tcell.Screen
	session *attractor.Session
	chime   *chimePlayer
	printer *message.Printer

	mu     sync.Mutex
	cfg    attractor.Config
	frame  *attractor.Pixmap
	stats  attractor.Stats
	status string
}

func newViewer(screen tcell.Screen, cfg attractor.Config, backend string, chime *chimePlayer) (*viewer, error) {
	v := &viewer{
		screen:  screen,
		chime:   chime,
		printer: message.NewPrinter(language.English),
		cfg:     cfg,
	}
	s, err := attractor.NewSession(
		attractor.WithBackend(backend),
		attractor.WithFrameSink(v.onFrame),
		attractor.WithCompletion(v.onComplete),
	)
	if err != nil {
		return nil, err
	}
	v.session = s
	return v, nil
}

// onFrame keeps a copy of the latest frame and wakes the event loop.
func (v *viewer) onFrame(frame *attractor.Pixmap, stats attractor.Stats) {
	v.mu.Lock()
	if v.frame == nil || v.frame.Width() != frame.Width() {
		v.frame = attractor.NewPixmap(frame.Width(), frame.Height())
	}
	_ = v.frame.CopyFrom(frame)
	v.stats = stats
	v.mu.Unlock()
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (v *viewer) onComplete(res attractor.Result) {
	v.mu.Lock()
	if res.Err != nil {
		v.status = "failed: " + res.Err.Error()
	} else {
		v.status = v.printer.Sprintf("converged after %d cycles on %s", res.Cycles, res.Backend)
	}
	v.mu.Unlock()
	if res.Err == nil {
		v.chime.play()
	}
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// run drives the session and the event loop until the user quits.
func (v *viewer) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- v.session.Run(ctx) }()
	defer v.session.Shutdown()

	if err := v.configure(v.cfg); err != nil {
		return err
	}
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			v.mu.Lock()
			cfg, act := handleKey(v.cfg, ev)
			v.mu.Unlock()
			switch act {
			case actionQuit:
				return nil
			case actionConfigure:
				if err := v.configure(cfg); err != nil {
					v.setStatus(err.Error())
				}
			}
		case *tcell.EventResize:
			v.screen.Sync()
		}
		select {
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		default:
		}
		v.draw()
	}
}

func (v *viewer) configure(cfg attractor.Config) error {
	if err := v.session.Configure(cfg); err != nil {
		return err
	}
	v.mu.Lock()
	v.cfg = cfg
	v.status = "running"
	v.mu.Unlock()
	return nil
}

func (v *viewer) setStatus(s string) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
}

// handleKey maps a key to a configuration change.
func handleKey(cfg attractor.Config, ev *tcell.EventKey) (attractor.Config, action) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return cfg, actionQuit
	case tcell.KeyUp:
		cfg.Points++
		return cfg, actionConfigure
	case tcell.KeyDown:
		if cfg.Points <= attractor.MinPoints {
			return cfg, actionNone
		}
		cfg.Points--
		return cfg, actionConfigure
	case tcell.KeyLeft:
		cfg.Fraction = roundFraction(cfg.Fraction - fractionStep)
		return cfg, actionConfigure
	case tcell.KeyRight:
		cfg.Fraction = roundFraction(cfg.Fraction + fractionStep)
		return cfg, actionConfigure
	case tcell.KeyRune:
	default:
		return cfg, actionNone
	}

	switch r := ev.Rune(); r {
	case 'q':
		return cfg, actionQuit
	case 'r':
		return cfg, actionConfigure
	case '1', '2', '3':
		special := attractor.SpecialFractions()
		if i := int(r - '1'); i < len(special) {
			cfg.Fraction = special[i]
			return cfg, actionConfigure
		}
	}
	return cfg, actionNone
}

// roundFraction snaps f to the arrow key grid so repeated steps do not
// accumulate float error.
func roundFraction(f float64) float64 {
	return math.Round(f*fractionGrid) / fractionGrid
}

func (v *viewer) draw() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screen.Clear()
	w, h := v.screen.Size()
	if v.frame != nil && h > 1 {
		drawFrame(v.screen, v.frame, w, h-1)
	}
	line := v.printer.Sprintf("points %d  fraction %.4f  agents %d  max %d  ratio %.4f  %s",
		v.cfg.Points, v.cfg.Fraction, v.cfg.MaxAgents, v.stats.Max, v.stats.Ratio(), v.status)
	drawText(v.screen, 0, h-1, tcell.StyleDefault.Reverse(true), fmt.Sprintf("%-*s", w, line))
	v.screen.Show()
}

// drawFrame paints frame into the top cols x rows cells, two pixel rows per
// cell, scaled to fit and centered horizontally.
func drawFrame(screen tcell.Screen, frame *attractor.Pixmap, cols, rows int) {
	side := min(cols, rows*2)
	if side <= 0 {
		return
	}
	left := (cols - side) / 2
	for cy := 0; cy < side/2; cy++ {
		for cx := 0; cx < side; cx++ {
			top := sample(frame, cx, 2*cy, side)
			bottom := sample(frame, cx, 2*cy+1, side)
			style := tcell.StyleDefault.Foreground(toColor(top)).Background(toColor(bottom))
			screen.SetContent(left+cx, cy, '▀', nil, style)
		}
	}
}

// sample returns the frame pixel under (x, y) of a side x side grid.
func sample(frame *attractor.Pixmap, x, y, side int) color.RGBA {
	return frame.RGBAAt(x*frame.Width()/side, y*frame.Height()/side)
}

// toColor composites c over black.
func toColor(c color.RGBA) tcell.Color {
	a := int32(c.A)
	return tcell.NewRGBColor(int32(c.R)*a/255, int32(c.G)*a/255, int32(c.B)*a/255)
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, s string) {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
