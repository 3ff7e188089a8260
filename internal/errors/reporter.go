package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a reported error.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Context names where a catalogue/composition error occurred. Unlike
// the teacher's compiler, SafeChain's inputs (channel JSON, rule
// bindings) carry no source line/column — problems are instead
// addressed by the channel, device, or rule name they belong to.
type Context struct {
	Channel string
	Device  string
	Rule    string
}

func (c Context) String() string {
	var parts []string
	if c.Channel != "" {
		parts = append(parts, "channel "+c.Channel)
	}
	if c.Device != "" {
		parts = append(parts, "device "+c.Device)
	}
	if c.Rule != "" {
		parts = append(parts, "rule "+c.Rule)
	}
	return strings.Join(parts, ", ")
}

// TaxonomyError is a structured error carrying the taxonomy code, a
// message, the context it was raised against, and optional follow-up
// notes/help text — the SafeChain analogue of the teacher's
// CompilerError, minus source-position fields this domain has no use
// for.
type TaxonomyError struct {
	Level    Level
	Code     string
	Message  string
	Context  Context
	Notes    []string
	HelpText string
}

func (e TaxonomyError) Error() string {
	if e.Context.String() == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Context, e.Message)
}

// New builds a fatal TaxonomyError.
func New(code, message string, ctx Context) TaxonomyError {
	return TaxonomyError{Level: Error, Code: code, Message: message, Context: ctx}
}

// NewWarning builds an advisory TaxonomyError.
func NewWarning(code, message string, ctx Context) TaxonomyError {
	return TaxonomyError{Level: Warning, Code: code, Message: message, Context: ctx}
}

// WithNote appends a note and returns the receiver, for chaining at
// the call site the way the teacher's builder methods chain.
func (e TaxonomyError) WithNote(note string) TaxonomyError {
	e.Notes = append(e.Notes, note)
	return e
}

// WithHelp sets the help text and returns the receiver.
func (e TaxonomyError) WithHelp(help string) TaxonomyError {
	e.HelpText = help
	return e
}

// Reporter formats TaxonomyErrors for a terminal, colouring by
// severity the way the teacher's ErrorReporter does for CompilerError.
type Reporter struct {
	NoColor bool
}

// NewReporter builds a Reporter. Color output follows fatih/color's
// own NO_COLOR/terminal detection unless NoColor is forced.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Format renders one TaxonomyError as a multi-line, Rust-diagnostic
// styled block: a coloured "error[C0001]: message" header, a
// "--> channel X, device Y" location line, then any notes and help
// text.
func (r *Reporter) Format(e TaxonomyError) string {
	var b strings.Builder

	levelColor := r.levelColor(e.Level)
	dim := r.maybeColor(color.New(color.Faint))

	b.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(e.Level)), e.Code, e.Message))

	if ctx := e.Context.String(); ctx != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), ctx))
	}

	noteColor := r.maybeColor(color.New(color.FgBlue))
	for _, note := range e.Notes {
		b.WriteString(fmt.Sprintf("  %s %s %s\n", dim("|"), noteColor("note:"), note))
	}

	if e.HelpText != "" {
		helpColor := r.maybeColor(color.New(color.FgGreen))
		b.WriteString(fmt.Sprintf("  %s %s %s\n", dim("|"), helpColor("help:"), e.HelpText))
	}

	return b.String()
}

// FormatAll renders a sequence of errors, the shape a caller gets back
// from a go-multierror accumulation of catalogue/composition problems.
func (r *Reporter) FormatAll(errs []TaxonomyError) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(r.Format(e))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Reporter) levelColor(level Level) func(a ...interface{}) string {
	switch level {
	case Error:
		return r.maybeColor(color.New(color.FgRed, color.Bold))
	case Warning:
		return r.maybeColor(color.New(color.FgYellow, color.Bold))
	case Note:
		return r.maybeColor(color.New(color.FgBlue, color.Bold))
	default:
		return r.maybeColor(color.New(color.FgRed, color.Bold))
	}
}

func (r *Reporter) maybeColor(c *color.Color) func(a ...interface{}) string {
	if r.NoColor {
		c.DisableColor()
	}
	return c.SprintFunc()
}
