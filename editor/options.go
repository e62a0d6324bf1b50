package editor

import (
	"io"
	"os"
)

// Option defines the interface for Editor options.
type Option interface {
	apply(p *Editor)
}

type ttyOption struct {
	tty *os.File
}

func (o *ttyOption) apply(p *Editor) {
	p.fd = int(o.tty.Fd())
	p.in = o.tty
	p.out = o.tty
}

// WithTTY allows configuring an editor with a different TTY than stdin/stdout.
func WithTTY(tty *os.File) Option {
	return &ttyOption{
		tty: tty,
	}
}

type inputOption struct {
	r io.Reader
}

func (o *inputOption) apply(p *Editor) {
	p.in = o.r
}

// WithInput allows configuring the input reader for an Editor. This option is
// useful for tests, and for a mediator that bridges an event loop's input
// buffer to the editor via a custom io.Reader.
func WithInput(r io.Reader) Option {
	return &inputOption{
		r: r,
	}
}

type outputOption struct {
	w io.Writer
}

func (o *outputOption) apply(p *Editor) {
	p.out = o.w
}

// WithOutput allows configuring the output writer for an Editor. This option is
// primarily useful for tests.
func WithOutput(w io.Writer) Option {
	return &outputOption{
		w: w,
	}
}

type sizeOption struct {
	width, height int
}

func (o *sizeOption) apply(p *Editor) {
	p.mu.state.screen.SetSize(o.width, o.height)
}

// WithSize allows configuring the initial width and height of an Editor.
// Typically, the width and height of the terminal are automatically determined.
// This option is primarily useful for tests in conjunction with the WithInput
// and WithOutput options.
func WithSize(width, height int) Option {
	return &sizeOption{
		width:  width,
		height: height,
	}
}

type inputFinishedOption struct {
	fn func(text string) bool
}

func (o inputFinishedOption) apply(p *Editor) {
	p.mu.state.inputFinished = o.fn
}

// WithInputFinished allows configuring a callback that will be invoked when
// enter is pressed to determine if the input is considered complete or not. If
// the input is not complete, a newline is instead inserted into the input.
func WithInputFinished(fn func(text string) bool) Option {
	return inputFinishedOption{fn}
}

type managedTerminalOption struct {
	enabled bool
}

func (o managedTerminalOption) apply(p *Editor) {
	p.manageTerm = o.enabled
}

// WithManagedTerminal controls whether ReadLine itself puts the terminal into
// raw mode and installs SIGWINCH handling. It defaults to true. A caller that
// already manages the controlling terminal's mode and signal delivery (see
// internal/mediator) passes false so the two don't race over the same fd.
func WithManagedTerminal(enabled bool) Option {
	return managedTerminalOption{enabled: enabled}
}
