// Package console is the line-oriented interaction layer: it reads commands,
// drives the session and renders the results.
package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rouletteai/roulette-client/internal/display"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/prefs"
	"github.com/rouletteai/roulette-client/internal/session"
)

// DefaultTop is how many frequent outcomes the state view lists.
const DefaultTop = 5

// LineReader yields one input line per call. io.EOF ends the session.
type LineReader interface {
	Readline() (string, error)
}

// ResetFunc starts a fresh backend session.
type ResetFunc func(ctx context.Context) error

// Console executes commands against a session.
type Console struct {
	sess   *session.Session
	store  prefs.Store
	reset  ResetFunc
	out    io.Writer
	render *display.Renderer
	top    int
	log    logger.Logger
}

// Option customises a Console.
type Option func(*Console)

// WithReset enables the reset command.
func WithReset(fn ResetFunc) Option {
	return func(c *Console) { c.reset = fn }
}

// WithTop sets how many frequent outcomes are listed.
func WithTop(n int) Option {
	return func(c *Console) { c.top = n }
}

// New creates a console writing to out. store may be nil, which disables the live command.
func New(sess *session.Session, store prefs.Store, out io.Writer, opts ...Option) *Console {
	c := &Console{
		sess:   sess,
		store:  store,
		out:    out,
		render: display.NewRenderer(out),
		top:    DefaultTop,
		log:    logger.Global().Module("console"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads and executes commands until quit, end of input or ctx is done.
// Command failures are printed and do not end the loop.
func (c *Console) Run(ctx context.Context, in LineReader) error {
	c.printf("Enter a number (0-36) to record a spin, or 'help'.\n")
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		quit, err := c.Execute(ctx, line)
		if err != nil {
			c.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line. quit is true when the user asked to leave.
func (c *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		c.printf("%s", helpText)
		return false, nil
	case "spin":
		if len(args) != 1 {
			return false, usage("spin <number>")
		}
		return false, c.spin(ctx, args[0])
	case "select", "s":
		if len(args) != 1 {
			return false, usage("select <position>")
		}
		return false, c.selectIndex(args[0])
	case "close":
		c.sess.Close()
		return false, c.state()
	case "inspect", "i":
		return false, c.inspect()
	case "clear":
		c.sess.Clear()
		return false, c.state()
	case "reset":
		return false, c.resetSession(ctx)
	case "state":
		return false, c.state()
	case "live":
		return false, c.live(ctx, args)
	}

	// a bare number records a spin
	if _, convErr := strconv.Atoi(cmd); convErr == nil {
		return false, c.spin(ctx, cmd)
	}
	return false, errors.Newf("unknown command %q, type 'help'", cmd).
		Component("console").
		Category(errors.CategoryValidation).
		Build()
}

func (c *Console) spin(ctx context.Context, raw string) error {
	res, err := c.sess.Submit(ctx, raw)
	if err != nil {
		return err
	}
	if !res.Applied {
		c.printf("%s recorded, a newer result is already shown\n", c.render.Outcome(res.Outcome))
	}
	return c.state()
}

func (c *Console) selectIndex(raw string) error {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return usage("select <position>")
	}
	// positions are shown 1-based
	if _, err := c.sess.SelectIndex(index - 1); err != nil {
		return err
	}
	return c.inspect()
}

func (c *Console) inspect() error {
	res, ok := c.sess.Inspect()
	if !ok {
		c.printf("inspection is closed, use 'select <position>'\n")
		return nil
	}
	return c.render.RenderInspection(res)
}

func (c *Console) resetSession(ctx context.Context) error {
	if c.reset == nil {
		return errors.Newf("reset is not available").
			Component("console").
			Category(errors.CategoryState).
			Build()
	}
	if err := c.reset(ctx); err != nil {
		return err
	}
	c.log.Info("Backend session reset")
	return c.state()
}

func (c *Console) live(ctx context.Context, args []string) error {
	if c.store == nil {
		return errors.Newf("no preference store configured").
			Component("console").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if len(args) == 0 {
		u, err := prefs.LiveURL(ctx, c.store)
		if err != nil {
			return err
		}
		if u == "" {
			c.printf("no live stream configured\n")
			return nil
		}
		c.printf("%s\n", u)
		return nil
	}

	raw := args[0]
	if raw == "-" {
		raw = ""
	}
	if err := prefs.SetLiveURL(ctx, c.store, raw); err != nil {
		return err
	}
	c.printf("live stream updated\n")
	return nil
}

func (c *Console) state() error {
	return c.render.RenderState(c.sess.State(), c.top)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func usage(u string) error {
	return errors.Newf("usage: %s", u).
		Component("console").
		Category(errors.CategoryValidation).
		Build()
}

const helpText = `Commands:
  <number> | spin <number>   record a spin (0-36)
  select <position>          inspect the history entry at position (1 = oldest shown)
  inspect                    show the open inspection
  close                      close the inspection
  clear                      clear the analysis, history is kept
  reset                      start a new backend session
  state                      show history and analysis
  live [url | -]             show, set or remove the live stream URL
  quit                       leave
`
