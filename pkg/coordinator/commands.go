package coordinator

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/pattern"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// command is one parsed control message. rest is everything after the
// command word, for commands that take free text.
type command struct {
	name string
	args []string
	rest string
}

func parseCommand(msg string) (command, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return command{}, errors.New(errors.ErrCodeInvalidCommand, "empty command")
	}
	name, rest := msg, ""
	if i := strings.IndexFunc(msg, unicode.IsSpace); i >= 0 {
		name, rest = msg[:i], strings.TrimSpace(msg[i:])
	}
	return command{name: name, args: strings.Fields(rest), rest: rest}, nil
}

type handler func(c *Coordinator, ctx context.Context, cmd command) error

var handlers = map[string]handler{
	"pause":             (*Coordinator).pause,
	"resume":            (*Coordinator).resume,
	"advance":           (*Coordinator).advance,
	"pos":               (*Coordinator).setPosition,
	"pattern":           (*Coordinator).changePattern,
	"gravity":           (*Coordinator).setGravity,
	"centroid.amount":   (*Coordinator).setCentroids,
	"stuffing":          (*Coordinator).setStuffing,
	"floor":             (*Coordinator).setFloor,
	"getparams":         (*Coordinator).getParams,
	"setparams":         (*Coordinator).setParams,
	"export-pointcloud": (*Coordinator).exportPointCloud,
}

// Commands lists the control commands a coordinator understands.
func Commands() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	return names
}

func (c *Coordinator) pause(context.Context, command) error {
	c.paused = true
	return nil
}

func (c *Coordinator) resume(context.Context, command) error {
	c.paused = false
	c.settled = false
	return nil
}

func (c *Coordinator) advance(context.Context, command) error {
	c.advanceCount++
	c.settled = false
	return nil
}

func (c *Coordinator) setPosition(_ context.Context, cmd command) error {
	if err := arity(cmd, 4); err != nil {
		return err
	}
	id, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return badArg(cmd, "id", cmd.args[0])
	}
	var v mgl32.Vec3
	for i := range 3 {
		if v[i], err = parseFloat(cmd, cmd.args[i+1]); err != nil {
			return err
		}
	}
	p, err := c.current()
	if err != nil {
		return err
	}
	if err := p.SetPosition(id, v); err != nil {
		return err
	}
	c.settled = false
	return nil
}

func (c *Coordinator) changePattern(ctx context.Context, cmd command) error {
	actions, err := pattern.Parse(cmd.rest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPattern, err, "cannot parse pattern")
	}
	p, err := plushie.FromPattern(actions, c.params)
	if err != nil {
		// The running plushie stays untouched.
		return err
	}
	p.SetLogger(c.logger)
	c.plushie = p
	c.needInit = true
	c.settled = false
	c.nodes.Store(int64(p.NodeCount()))
	return c.send(ctx, Status("pattern accepted: %s", p))
}

func (c *Coordinator) setGravity(_ context.Context, cmd command) error {
	if err := arity(cmd, 1); err != nil {
		return err
	}
	g, err := parseFloat(cmd, cmd.args[0])
	if err != nil {
		return err
	}
	c.params.Gravity = g
	if c.plushie != nil {
		c.plushie.SetGravity(g)
	}
	c.settled = false
	return nil
}

func (c *Coordinator) setCentroids(_ context.Context, cmd command) error {
	if err := arity(cmd, 1); err != nil {
		return err
	}
	n, err := strconv.ParseUint(cmd.args[0], 10, 31)
	if err != nil {
		return badArg(cmd, "amount", cmd.args[0])
	}
	c.params.Centroids.Number = int(n)
	if c.plushie != nil {
		c.plushie.SetCentroidNumber(int(n))
	}
	c.settled = false
	return nil
}

func (c *Coordinator) setStuffing(_ context.Context, cmd command) error {
	if err := arity(cmd, 1); err != nil {
		return err
	}
	f, err := parseFloat(cmd, cmd.args[0])
	if err != nil {
		return err
	}
	c.params.Centroids.Force = f
	if c.plushie != nil {
		c.plushie.SetStuffingForce(f)
	}
	c.settled = false
	return nil
}

func (c *Coordinator) setFloor(_ context.Context, cmd command) error {
	if err := arity(cmd, 1); err != nil {
		return err
	}
	var on bool
	switch cmd.args[0] {
	case "on", "true", "1":
		on = true
	case "off", "false", "0":
	default:
		return badArg(cmd, "state", cmd.args[0])
	}
	c.params.Floor = on
	if c.plushie != nil {
		c.plushie.SetFloor(on)
	}
	c.settled = false
	return nil
}

func (c *Coordinator) getParams(ctx context.Context, _ command) error {
	return c.send(ctx, Envelope{Key: KeyParams, Dat: c.params})
}

func (c *Coordinator) setParams(ctx context.Context, cmd command) error {
	params := c.params
	if err := json.Unmarshal([]byte(cmd.rest), &params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParams, err, "cannot decode params")
	}
	if err := params.Validate(); err != nil {
		return err
	}
	c.params = params
	if c.plushie != nil {
		if err := c.plushie.SetParams(params); err != nil {
			return err
		}
	}
	c.settled = false
	return c.send(ctx, Envelope{Key: KeyParams, Dat: c.params})
}

func (c *Coordinator) exportPointCloud(ctx context.Context, _ command) error {
	p, err := c.current()
	if err != nil {
		return err
	}
	return c.send(ctx, Envelope{Key: KeyExport, Dat: p.PointCloud()})
}

func (c *Coordinator) current() (*plushie.Plushie, error) {
	if c.plushie == nil {
		return nil, errors.New(errors.ErrCodeInvalidCommand, "no pattern loaded")
	}
	return c.plushie, nil
}

func arity(cmd command, n int) error {
	if len(cmd.args) != n {
		return errors.New(errors.ErrCodeInvalidCommand, "%s takes %d argument(s), got %d", cmd.name, n, len(cmd.args))
	}
	return nil
}

func parseFloat(cmd command, s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, badArg(cmd, "number", s)
	}
	return float32(f), nil
}

func badArg(cmd command, what, got string) error {
	return errors.New(errors.ErrCodeInvalidCommand, "%s: invalid %s %q", cmd.name, what, got)
}
