package job

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Compile turns the job into a Directive. Funcs are returned as-is. Shell
// text gets quoted args, then for detached jobs a tee into the output sinks,
// then lock file self-cleanup and background detachment.
//
// Foreground sinks are written by Run from the captured output, so the exit
// status the spawner reports is the body's own. A detached directive is never
// awaited, so its tee and lock cleanup have to live in the text. The cleanup
// step keeps the status of whatever precedes it.
func (j *Job) Compile() Directive {
	if j.command.kind == KindFunc {
		return Directive{Kind: KindFunc, Func: j.command.fn}
	}

	var b strings.Builder
	b.WriteString(j.command.text)
	for _, a := range j.args.items {
		b.WriteByte(' ')
		b.WriteString(shellquote.Join(a.Flag))
		if a.HasValue {
			b.WriteByte(' ')
			b.WriteString(shellquote.Join(a.Value))
		}
	}
	text := b.String()

	bg := j.CanRunInBackground()
	if bg && len(j.outputs) > 0 {
		tee := "tee "
		if j.outputAppend {
			tee += "-a "
		}
		text = "{ " + text + "; } | " + tee + shellquote.Join(j.outputs...)
	}

	if j.lockPath != "" {
		text += "; rc=$?; rm -f " + shellquote.Join(j.lockPath) + "; exit $rc"
	}

	if bg {
		text = "(" + text + ") > /dev/null 2>&1 &"
	}
	return Directive{Kind: KindShell, Text: text, Background: bg}
}

// normalizeShell trims the command text and drops a trailing unescaped
// command separator, since Compile appends further steps after the body. A
// trailing & is rejected: backgrounding belongs to InBackground.
func normalizeShell(text string) (string, error) {
	text = strings.TrimSpace(text)
	for strings.HasSuffix(text, ";") && !strings.HasSuffix(text, `\;`) {
		text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	}
	if strings.HasSuffix(text, "&") && !strings.HasSuffix(text, `\&`) {
		return text, fmt.Errorf("%w: command ends with a control operator: %q", ErrConfiguration, text)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty shell command", ErrConfiguration)
	}
	return text, nil
}
