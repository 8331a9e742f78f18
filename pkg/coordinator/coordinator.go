// Package coordinator drives a live plushie simulation for one observer.
//
// A [Coordinator] owns a single plushie and steps it on a fixed cadence
// (about 60 Hz). Between ticks it applies control messages from the
// observer, in arrival order, and after every step it sends an update
// envelope with the new positions.
//
// # Control messages
//
// Messages are whitespace-separated tokens, the first naming the command:
//
//	pause | resume | advance
//	pos <id> <x> <y> <z>
//	pattern <action list>
//	gravity <f32> | stuffing <f32> | centroid.amount <n> | floor on|off
//	getparams | setparams <json> | export-pointcloud
//
// A malformed or failing command is logged, reported to the observer as a
// status envelope and otherwise ignored. Nothing an observer sends stops
// the loop.
//
// # Envelopes
//
// Every outgoing message is an [Envelope] {key, dat}. "ini" carries the whole
// graph and is sent after a pattern change; "upd" carries positions only.
package coordinator

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/observability"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// DefaultPeriod is the target time between ticks.
const DefaultPeriod = 17 * time.Millisecond

// Config configures a Coordinator.
type Config struct {
	// ID names the session in logs and observability events.
	ID string
	// Plushie is the initial shape. It may be nil; the observer then loads one
	// with the pattern command.
	Plushie *plushie.Plushie
	// Params are used for plushies built by the pattern command. Defaults to
	// the initial plushie's params, or plushie.DefaultParams().
	Params *plushie.Params
	// Observer is required.
	Observer Observer
	Clock    Clock
	Period   time.Duration
	// AutoStop stops stepping once the plushie is relaxed. Any command that
	// changes the shape or the params resumes stepping.
	AutoStop bool
	Logger   *log.Logger
}

// Coordinator runs one simulation session. Its state is owned by the Run
// goroutine; only Stats may be called concurrently.
type Coordinator struct {
	id       string
	plushie  *plushie.Plushie
	params   plushie.Params
	observer Observer
	clock    Clock
	period   time.Duration
	autoStop bool
	logger   *log.Logger

	paused       bool
	advanceCount int
	needInit     bool
	settled      bool

	steps atomic.Int64
	nodes atomic.Int64
}

// Stats is a concurrency-safe summary of a running session.
type Stats struct {
	Steps int `json:"steps"`
	Nodes int `json:"nodes"`
}

// New creates a coordinator. Run starts it.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		id:       cfg.ID,
		plushie:  cfg.Plushie,
		observer: cfg.Observer,
		clock:    cfg.Clock,
		period:   cfg.Period,
		autoStop: cfg.AutoStop,
		logger:   cfg.Logger,
		needInit: cfg.Plushie != nil,
	}
	switch {
	case cfg.Params != nil:
		c.params = *cfg.Params
	case cfg.Plushie != nil:
		c.params = cfg.Plushie.Params()
	default:
		c.params = plushie.DefaultParams()
	}
	if c.clock == nil {
		c.clock = SystemClock()
	}
	if c.period <= 0 {
		c.period = DefaultPeriod
	}
	if c.logger == nil {
		c.logger = discardLogger()
	}
	if c.id != "" {
		c.logger = c.logger.With("session", c.id)
	}
	if c.plushie != nil {
		c.plushie.SetLogger(c.logger)
		c.nodes.Store(int64(c.plushie.NodeCount()))
	}
	return c
}

// Stats returns the step and node counts of the session.
func (c *Coordinator) Stats() Stats {
	return Stats{Steps: int(c.steps.Load()), Nodes: int(c.nodes.Load())}
}

// Run ticks until the observer is done or ctx is cancelled. It returns nil
// when the observer goes away and ctx.Err() on cancellation.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	hooks := observability.Coordinator()
	hooks.OnSessionStart(ctx, c.id)
	c.logger.Debug("session started")
	defer func() {
		hooks.OnSessionEnd(ctx, c.id, int(c.steps.Load()), err)
		c.logger.Debug("session ended", "steps", c.steps.Load(), "error", err)
	}()

	last := c.clock.Now()
	for {
		if err := c.tick(ctx); err != nil {
			if c.gone() {
				return nil
			}
			return err
		}

		wait := max(c.period-c.clock.Now().Sub(last), 0)
		if done, err := c.wait(ctx, c.clock.After(wait)); done {
			return err
		}
		last = c.clock.Now()
	}
}

// wait applies control messages until the timer fires. It reports whether
// the session is over.
func (c *Coordinator) wait(ctx context.Context, timer <-chan time.Time) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case <-c.observer.Done():
			return true, nil
		case msg := <-c.observer.Messages():
			c.handle(ctx, msg)
		case <-timer:
			return false, nil
		}
	}
}

// tick sends the init snapshot if one is pending, and otherwise steps the
// plushie once unless paused or settled.
func (c *Coordinator) tick(ctx context.Context) error {
	p := c.plushie
	if p == nil {
		return nil
	}
	if c.needInit {
		c.needInit = false
		return c.send(ctx, Envelope{Key: KeyInit, Dat: p.InitData()})
	}

	oneShot := c.paused && c.advanceCount > 0
	if (c.paused || c.settled) && !oneShot {
		return nil
	}
	if oneShot {
		c.advanceCount--
	}

	p.Step(c.params.Timestep)
	c.steps.Add(1)
	c.nodes.Store(int64(p.NodeCount()))
	if err := c.send(ctx, Envelope{Key: KeyUpdate, Dat: p.UpdateData()}); err != nil {
		return err
	}

	if c.autoStop && !c.settled && p.IsRelaxed() {
		c.settled = true
		return c.send(ctx, Status("relaxed after %d steps", p.Steps()))
	}
	return nil
}

// handle applies one control message. Failures are reported, never returned.
func (c *Coordinator) handle(ctx context.Context, msg string) {
	cmd, err := parseCommand(msg)
	if err == nil {
		if h, ok := handlers[cmd.name]; ok {
			err = h(c, ctx, cmd)
		} else {
			err = errors.New(errors.ErrCodeInvalidCommand, "unknown command %q", cmd.name)
		}
	}
	observability.Coordinator().OnCommand(ctx, c.id, cmd.name, err)
	if err == nil {
		return
	}

	c.logger.Warn("command rejected", "command", cmd.name, "error", err)
	if c.gone() {
		return
	}
	if sendErr := c.send(ctx, Status("%s", errors.UserMessage(err))); sendErr != nil {
		c.logger.Debug("cannot report rejected command", "error", sendErr)
	}
}

func (c *Coordinator) send(ctx context.Context, env Envelope) error {
	return c.observer.Send(ctx, env)
}

func (c *Coordinator) gone() bool {
	select {
	case <-c.observer.Done():
		return true
	default:
		return false
	}
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
