// Package prompt asks yes/no questions on a line-oriented terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/felixgeelhaar/statekit"
	"golang.org/x/text/cases"

	"github.com/billow-vn/idapm/internal/ports"
)

// State is a state of the confirmation machine.
type State string

const (
	// StatePrompting waits for a recognized answer.
	StatePrompting State = "prompting"
	// StateConfirmed is reached on "y" or "yes".
	StateConfirmed State = "confirmed"
	// StateDeclined is reached on "n" or "no".
	StateDeclined State = "declined"
)

// Events of the confirmation machine.
const (
	EventYes     = "YES"
	EventNo      = "NO"
	EventInvalid = "INVALID"
	EventReset   = "RESET"
)

var (
	// ErrNoInput indicates input ended before a recognized answer.
	ErrNoInput = errors.New("no answer: input closed")
	// ErrTooManyAttempts indicates the attempt limit was reached.
	ErrTooManyAttempts = errors.New("no recognized answer")
)

var answers = map[string]string{
	"y":   EventYes,
	"yes": EventYes,
	"n":   EventNo,
	"no":  EventNo,
}

// Classify maps a raw answer to a machine event. Matching ignores case and
// surrounding space.
func Classify(line string) string {
	folded := cases.Fold().String(strings.TrimSpace(line))
	if ev, ok := answers[folded]; ok {
		return ev
	}
	return EventInvalid
}

type machineContext struct{}

// Prompter is a ports.Prompter reading answers line by line.
type Prompter struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	assumeYes   bool
	maxAttempts int
	logger      ports.Logger
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithAssumeYes answers every question with yes without reading input.
func WithAssumeYes(yes bool) Option {
	return func(p *Prompter) {
		p.assumeYes = yes
	}
}

// WithMaxAttempts bounds the number of unrecognized answers. Zero means
// ask until input ends.
func WithMaxAttempts(n int) Option {
	return func(p *Prompter) {
		p.maxAttempts = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(p *Prompter) {
		p.logger = ports.LoggerOrDiscard(logger)
	}
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer, opts ...Option) *Prompter {
	p := &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		logger: ports.LoggerOrDiscard(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func buildMachine() (*statekit.Interpreter[machineContext], error) {
	machine, err := statekit.NewMachine[machineContext]("confirm").
		WithInitial(string(StatePrompting)).
		WithContext(machineContext{}).
		State(string(StatePrompting)).
		On(EventYes).Target(string(StateConfirmed)).
		On(EventNo).Target(string(StateDeclined)).
		On(EventInvalid).Target(string(StatePrompting)).Done().
		State(string(StateConfirmed)).
		On(EventReset).Target(string(StatePrompting)).Done().
		State(string(StateDeclined)).
		On(EventReset).Target(string(StatePrompting)).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// Confirm writes question and reads answers until one is recognized.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.assumeYes {
		fmt.Fprintf(p.out, "%s [y/n]: yes\n", question)
		return true, nil
	}

	interp, err := buildMachine()
	if err != nil {
		return false, fmt.Errorf("building prompt: %w", err)
	}
	interp.Start()
	defer interp.Stop()

	invalid := 0
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		fmt.Fprintf(p.out, "%s [y/n]: ", question)
		line, readErr := p.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return false, fmt.Errorf("reading answer: %w", readErr)
		}
		if readErr != nil && strings.TrimSpace(line) == "" {
			fmt.Fprintln(p.out)
			return false, ErrNoInput
		}

		event := Classify(line)
		interp.Send(statekit.Event{Type: statekit.EventType(event), Payload: line})

		switch State(interp.State().Value) {
		case StateConfirmed:
			return true, nil
		case StateDeclined:
			return false, nil
		}

		invalid++
		p.logger.Debug(ctx, "unrecognized answer", ports.F("answer", strings.TrimSpace(line)))
		if readErr != nil {
			return false, ErrNoInput
		}
		if p.maxAttempts > 0 && invalid >= p.maxAttempts {
			return false, ErrTooManyAttempts
		}
	}
}

// Ensure Prompter implements ports.Prompter.
var _ ports.Prompter = (*Prompter)(nil)
