package job

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
)

func TestCompileFuncIsIdentity(t *testing.T) {
	t.Parallel()
	fn := Func(func(ctx context.Context, out io.Writer, args Args) (string, error) { return "x", nil })
	j := New(Invocable(fn), Args{}, "")

	d := j.Compile()
	if d.Kind != KindFunc {
		t.Fatalf("Kind = %v, want func", d.Kind)
	}
	if reflect.ValueOf(d.Func).Pointer() != reflect.ValueOf(fn).Pointer() {
		t.Fatal("compiled func is not the registered func")
	}
	if d.Text != "" || d.String() != "Closure" {
		t.Fatalf("func directive rendered as %q / %q", d.Text, d.String())
	}
}

func TestCompileQuotesArgsInOrder(t *testing.T) {
	t.Parallel()
	args := NewArgs(Flag("-x"), Value("--name", "a b"), Value("--evil", "x; touch /tmp/pwned"))
	j := New(Shell("deploy"), args, "").InForeground()

	text := j.Compile().Text
	words, err := shellquote.Split(text)
	if err != nil {
		t.Fatalf("Split(%q) error: %v", text, err)
	}
	want := []string{"deploy", "-x", "--name", "a b", "--evil", "x; touch /tmp/pwned"}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("words = %q, want %q (text %q)", words, want, text)
	}
}

func TestCompileFlagNamesAreQuoted(t *testing.T) {
	t.Parallel()
	j := New(Shell("run"), NewArgs(Flag("--a;rm -rf /")), "").InForeground()
	words, err := shellquote.Split(j.Compile().Text)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 || words[1] != "--a;rm -rf /" {
		t.Fatalf("flag was split: %q", words)
	}
}

func TestArgsPutKeepsPosition(t *testing.T) {
	t.Parallel()
	a := NewArgs(Flag("-a"), Value("-b", "1"), Flag("-c"))
	a.Put(Value("-b", "2"))
	if got := strings.Join(a.Argv(), " "); got != "-a -b 2 -c" {
		t.Fatalf("Argv = %q", got)
	}
	if arg, ok := a.Get("-b"); !ok || arg.Value != "2" {
		t.Fatalf("Get(-b) = %+v, %v", arg, ok)
	}
}

func TestCompileLayers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out1 := filepath.Join(dir, "a.log")
	out2 := filepath.Join(dir, "b.log")

	tests := []struct {
		name  string
		build func() *Job
		want  func(j *Job) string
	}{
		{
			name:  "background plain",
			build: func() *Job { return New(Shell("ls"), Args{}, "") },
			want:  func(*Job) string { return "(ls) > /dev/null 2>&1 &" },
		},
		{
			name:  "foreground plain",
			build: func() *Job { return New(Shell("ls"), Args{}, "").InForeground() },
			want:  func(*Job) string { return "ls" },
		},
		{
			name: "foreground sinks stay out of the text",
			build: func() *Job {
				return New(Shell("ls"), Args{}, "").InForeground().Output([]string{out1, out2}, false)
			},
			want: func(*Job) string { return "ls" },
		},
		{
			name: "background tee truncate",
			build: func() *Job {
				return New(Shell("ls -l"), Args{}, "").Output([]string{out1, out2}, false)
			},
			want: func(*Job) string {
				return "({ ls -l; } | tee " + shellquote.Join(out1, out2) + ") > /dev/null 2>&1 &"
			},
		},
		{
			name: "background tee append",
			build: func() *Job {
				return New(Shell("ls"), Args{}, "").Output([]string{out1}, true)
			},
			want: func(*Job) string { return "({ ls; } | tee -a " + shellquote.Join(out1) + ") > /dev/null 2>&1 &" },
		},
		{
			name: "trailing separator dropped",
			build: func() *Job {
				return New(Shell(" cd /tmp; ls ;; "), Args{}, "").InForeground()
			},
			want: func(*Job) string { return "cd /tmp; ls" },
		},
		{
			name: "lock then background",
			build: func() *Job {
				return New(Shell("ls"), Args{}, "").Configure(testConfig(dir)).OnlyOne("", nil)
			},
			want: func(j *Job) string {
				return "(ls; rc=$?; rm -f " + shellquote.Join(j.LockPath()) + "; exit $rc) > /dev/null 2>&1 &"
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			j := tt.build()
			if err := j.Err(); err != nil {
				t.Fatalf("config error: %v", err)
			}
			if got, want := j.Compile().Text, tt.want(j); got != want {
				t.Fatalf("Compile() =\n  %q\nwant\n  %q", got, want)
			}
		})
	}
}

func TestCanRunInBackground(t *testing.T) {
	t.Parallel()
	noop := func(context.Context, string, int) error { return nil }
	fn := Func(func(context.Context, io.Writer, Args) (string, error) { return "", nil })

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{name: "shell", job: New(Shell("ls"), Args{}, ""), want: true},
		{name: "func", job: New(Invocable(fn), Args{}, ""), want: false},
		{name: "explicit foreground", job: New(Shell("ls"), Args{}, "").InForeground(), want: false},
		{name: "email", job: New(Shell("ls"), Args{}, "").Email("ops@example.com"), want: false},
		{name: "after hook", job: New(Shell("ls"), Args{}, "").Then(noop), want: false},
		{name: "after hook override", job: New(Shell("ls"), Args{}, "").ThenInBackground(noop), want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.job.CanRunInBackground(); got != tt.want {
				t.Fatalf("CanRunInBackground() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerivedIDs(t *testing.T) {
	t.Parallel()
	a := New(Shell("backup --all"), Args{}, "")
	b := New(Shell("backup --all"), NewArgs(Flag("-v")), "")
	c := New(Shell("backup --some"), Args{}, "")
	if a.ID() != b.ID() {
		t.Fatalf("identical commands got different ids: %s vs %s", a.ID(), b.ID())
	}
	if a.ID() == c.ID() {
		t.Fatal("different commands share an id")
	}
	if got := New(Shell("x"), Args{}, "  custom  ").ID(); got != "custom" {
		t.Fatalf("explicit id = %q", got)
	}
}

func TestNewRejectsTrailingControlOperator(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "ampersand", text: "sleep 5 &", wantErr: true},
		{name: "and list", text: "make &&", wantErr: true},
		{name: "only separators", text: " ; ;", wantErr: true},
		{name: "escaped semicolon", text: `find . -exec rm {} \;`, wantErr: false},
		{name: "escaped ampersand", text: `echo \&`, wantErr: false},
		{name: "inner ampersand", text: "a & b", wantErr: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := New(Shell(tt.text), Args{}, "").Err()
			if got := errors.Is(err, ErrConfiguration); got != tt.wantErr {
				t.Fatalf("Err() = %v, want configuration error %v", err, tt.wantErr)
			}
		})
	}
}

func TestDerivedIDIgnoresTrailingSeparator(t *testing.T) {
	t.Parallel()
	if a, b := New(Shell("backup"), Args{}, ""), New(Shell("backup; "), Args{}, ""); a.ID() != b.ID() {
		t.Fatalf("ids differ: %s vs %s", a.ID(), b.ID())
	}
}
