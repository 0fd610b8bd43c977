package attractor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
)

// State is the scheduler state of a Session.
type State int32

// Session states.
const (
	// Idle: no configuration has been received yet.
	Idle State = iota
	// Initializing: building geometry, agents and a zeroed histogram.
	Initializing
	// Running: step/render cycles in progress.
	Running
	// Stopped: the last run converged or failed and signalled completion.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Result describes a finished run.
type Result struct {
	Config  Config
	Backend string
	Cycles  int
	Stats   Stats

	// Err is nil when the run converged. Otherwise it wraps ErrComputation.
	Err error
}

// Session owns one simulation at a time and drives it to convergence.
//
// Configure may be called from any goroutine; the newest configuration
// replaces any pending one and preempts the current run at the next cycle
// boundary. Run (or RunOnce) is the only mutator of engine state.
type Session struct {
	opts    sessionOptions
	rng     *rand.Rand
	palette *Palette

	mailbox chan Config
	done    chan struct{}
	once    sync.Once
	state   atomic.Int32
	running atomic.Bool

	mu     sync.Mutex // guards engine and frame; held for a whole cycle
	engine Engine
	frame  *Pixmap
}

// NewSession creates an idle session.
func NewSession(opts ...SessionOption) (*Session, error) {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend != "" {
		if _, err := LookupBackend(o.backend); err != nil {
			return nil, err
		}
	}
	if o.source == nil {
		o.source = rand.NewPCG(rand.Uint64(), rand.Uint64()) //nolint:gosec // simulation, not crypto
	}
	pal := o.palette
	if pal == nil {
		pal = DefaultPalette()
	}
	return &Session{
		opts:    o,
		rng:     rand.New(o.source), //nolint:gosec // simulation, not crypto
		palette: pal,
		mailbox: make(chan Config, 1),
		done:    make(chan struct{}),
	}, nil
}

// State returns the current scheduler state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Configure validates cfg and posts it to the running scheduler. Invalid
// configurations are rejected with a *ConfigError and leave the session
// untouched. A configuration that has not been picked up yet is replaced.
func (s *Session) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if s.closed() {
		return ErrSessionClosed
	}
	for {
		select {
		case s.mailbox <- cfg:
			Logger().Info("attractor: configure",
				"points", cfg.Points, "fraction", cfg.Fraction, "maxAgents", cfg.MaxAgents, "size", cfg.Size)
			return nil
		default:
		}
		// Drop the stale pending configuration.
		select {
		case <-s.mailbox:
		default:
		}
	}
}

// Run is the production scheduler loop. It waits for configurations,
// runs each one until convergence, failure or preemption, and returns when
// ctx is cancelled (ctx.Err()) or the session is shut down (nil).
// Only one Run or RunOnce may be active at a time.
func (s *Session) Run(ctx context.Context) error {
	if s.closed() {
		return ErrSessionClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("attractor: session already running")
	}
	defer s.running.Store(false)

	for {
		var cfg Config
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case cfg = <-s.mailbox:
		}

		for {
			_, next, err := s.run(ctx, cfg, s.poll)
			if err != nil {
				if s.closed() {
					return nil
				}
				return err
			}
			if next == nil {
				break
			}
			cfg = *next
		}
	}
}

// RunOnce runs cfg to completion on the calling goroutine. The returned
// error reports an invalid configuration, a closed session or a cancelled
// context; computation failures are reported in Result.Err.
func (s *Session) RunOnce(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if s.closed() {
		return Result{}, ErrSessionClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, errors.New("attractor: session already running")
	}
	defer s.running.Store(false)

	res, _, err := s.run(ctx, cfg, nil)
	if err != nil && s.closed() {
		return res, ErrSessionClosed
	}
	return res, err
}

// poll returns the newest pending configuration, if any.
func (s *Session) poll() (Config, bool) {
	select {
	case cfg := <-s.mailbox:
		return cfg, true
	default:
		return Config{}, false
	}
}

// run drives one configuration. It returns the next configuration when
// preempted, or a non-nil error when ctx is cancelled or the session is
// shut down. Otherwise the run finished and completion was signalled.
func (s *Session) run(ctx context.Context, cfg Config, poll func() (Config, bool)) (Result, *Config, error) {
	s.setState(Initializing)
	res := Result{Config: cfg}

	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		return res, nil, ErrSessionClosed
	}
	s.releaseEngine()
	eng, err := s.newEngine(cfg)
	if err == nil {
		s.engine = eng
		trackEngine(eng)
		if s.frame == nil || s.frame.Width() != cfg.Size {
			s.frame = NewPixmap(cfg.Size, cfg.Size)
		} else {
			s.frame.Clear()
		}
	}
	s.mu.Unlock()

	if err != nil {
		res.Err = computationError("initialize", err)
		s.complete(res)
		return res, nil, nil
	}
	res.Backend = eng.Name()

	s.setState(Running)
	mon := NewMonitor(s.opts.epsilon, s.opts.stable)
	for {
		if err := ctx.Err(); err != nil {
			return res, nil, err
		}
		if poll != nil {
			if next, ok := poll(); ok {
				Logger().Debug("attractor: run preempted", "cycles", res.Cycles)
				return res, &next, nil
			}
		}

		s.mu.Lock()
		if s.closed() {
			s.mu.Unlock()
			return res, nil, ErrSessionClosed
		}
		stats, err := s.cycle(eng, s.frame)
		frame := s.frame
		s.mu.Unlock()
		if err == nil && s.opts.frameSink != nil {
			s.opts.frameSink(frame, stats)
		}

		if err != nil {
			res.Err = err
			Logger().Warn("attractor: run failed", "cycles", res.Cycles, "err", err)
			s.complete(res)
			return res, nil, nil
		}
		res.Cycles++
		res.Stats = stats
		Logger().Debug("attractor: cycle",
			"n", res.Cycles, "max", stats.Max, "mean", stats.Mean, "ratio", stats.Ratio())

		if mon.Observe(stats) {
			Logger().Info("attractor: converged",
				"backend", res.Backend, "cycles", res.Cycles, "max", stats.Max, "ratio", stats.Ratio())
			s.complete(res)
			return res, nil, nil
		}
		runtime.Gosched()
	}
}

// cycle runs one step+render pair, converting failures and panics into
// ErrComputation.
func (s *Session) cycle(eng Engine, frame *Pixmap) (stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			stats, err = Stats{}, computationError("cycle", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := eng.Step(s.opts.steps); err != nil {
		return Stats{}, computationError("step", err)
	}
	stats, err = eng.Render(frame)
	if err != nil {
		return Stats{}, computationError("render", err)
	}
	return stats, nil
}

// newEngine creates an engine on the selected backend, falling back to
// the CPU backend when the backend declines the configuration.
func (s *Session) newEngine(cfg Config) (Engine, error) {
	b, err := LookupBackend(s.opts.backend)
	if err != nil {
		return nil, err
	}
	eng, err := b.NewEngine(cfg, s.rng, s.palette)
	if err == nil {
		return eng, nil
	}
	if b.Name() == BackendCPU || !errors.Is(err, ErrFallbackToCPU) {
		return nil, err
	}
	Logger().Warn("attractor: falling back to CPU engine", "backend", b.Name(), "err", err)
	return cpuBackend{}.NewEngine(cfg, s.rng, s.palette)
}

func (s *Session) complete(res Result) {
	s.setState(Stopped)
	if s.opts.completion != nil {
		s.opts.completion(res)
	}
}

// releaseEngine discards the current engine. Callers hold s.mu.
func (s *Session) releaseEngine() {
	if s.engine == nil {
		return
	}
	untrackEngine(s.engine)
	s.engine.Close()
	s.engine = nil
}

// Frame returns a copy of the last rendered frame, or nil before the first
// run.
func (s *Session) Frame() *Pixmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil
	}
	pm := NewPixmap(s.frame.Width(), s.frame.Height())
	_ = pm.CopyFrom(s.frame)
	return pm
}

// Histogram returns a copy of the current engine's counters. It fails
// with ErrEngineClosed when no engine is live.
func (s *Session) Histogram() (*Histogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, ErrEngineClosed
	}
	h, err := s.engine.Histogram()
	if err != nil {
		return nil, err
	}
	cp := NewHistogram(h.Size())
	copy(cp.counts, h.counts)
	return cp, nil
}

// Shutdown releases the engine and stops Run. In-flight cycles complete
// first. Shutdown is idempotent; later calls to Configure, Run and RunOnce
// fail with ErrSessionClosed.
func (s *Session) Shutdown() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.releaseEngine()
		s.mu.Unlock()
		s.setState(Stopped)
	})
}
