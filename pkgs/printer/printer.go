// Package printer renders user-facing output for the CLI. It is distinct
// from logging: log output goes to stderr, printer output is the product
// of the command.
package printer

import (
	"context"
	"fmt"
	"io"

	"github.com/hay-kot/tenv/pkgs/styles"
)

type Printer struct {
	writer io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// Ctx returns a printer bound to the writer stored in the context, falling
// back to the receiver when the context carries none.
func (p *Printer) Ctx(ctx context.Context) *Printer {
	if w, ok := GetWriter(ctx); ok {
		return New(w)
	}
	return p
}

func (p *Printer) println(str string) {
	fmt.Fprintln(p.writer, str)
}

func (p *Printer) FatalError(err error) {
	p.println(styles.ErrorBox("Fatal Error", err.Error()))
}

func (p *Printer) Title(title string) {
	p.println(styles.Bold(title))
}

func (p *Printer) LineBreak() {
	fmt.Fprintln(p.writer)
}

func (p *Printer) List(title string, items []string) {
	p.Title(title)
	for _, item := range items {
		p.println(styles.Subtle(styles.Dot + " " + item))
	}
}

type StatusListItem struct {
	Ok      bool
	Skipped bool
	Status  string
}

func (p *Printer) StatusList(title string, items []StatusListItem) {
	if title != "" {
		p.Title(title)
	}

	for _, item := range items {
		switch {
		case item.Skipped:
			p.println(styles.Warning(styles.Skip + " " + item.Status))
		case item.Ok:
			p.println(styles.Success(styles.Check + " " + item.Status))
		default:
			p.println(styles.Error(" " + styles.Cross + " " + item.Status))
		}
	}
}

type KeyValueError struct {
	Key   string
	Error string
}

// KeyValueValidationError renders a titled block of key/message pairs, used
// for configuration validation output.
func (p *Printer) KeyValueValidationError(title string, errors []KeyValueError) {
	p.println(styles.Error(title))
	for _, kv := range errors {
		p.println(styles.Subtle(styles.Dot+" "+kv.Key) + " " + kv.Error)
	}
}
