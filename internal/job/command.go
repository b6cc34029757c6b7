package job

import (
	"context"
	"io"
	"reflect"
	"runtime"
)

type Kind int

const (
	KindShell Kind = iota
	KindFunc
)

func (k Kind) String() string {
	if k == KindFunc {
		return "func"
	}
	return "shell"
}

// Func is an in-process job body. Anything written to out, followed by the
// returned string, becomes the job's captured output.
type Func func(ctx context.Context, out io.Writer, args Args) (string, error)

// Command is either shell text or an in-process Func.
type Command struct {
	kind Kind
	text string
	fn   Func
}

func Shell(text string) Command { return Command{kind: KindShell, text: text} }

func Invocable(fn Func) Command { return Command{kind: KindFunc, fn: fn} }

func (c Command) Kind() Kind   { return c.kind }
func (c Command) Text() string { return c.text }
func (c Command) Func() Func   { return c.fn }

// funcName is the stable identity of a Func across runs of the same binary.
func funcName(fn Func) string {
	if fn == nil {
		return ""
	}
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

// Directive is the compiled, ready-to-dispatch form of a Command.
type Directive struct {
	Kind Kind
	Text string
	Func Func

	// Background is set when Text detaches itself and must not be awaited.
	Background bool
}

// String is the verbose-log rendering: the shell text, or "Closure".
func (d Directive) String() string {
	if d.Kind == KindFunc {
		return "Closure"
	}
	return d.Text
}
