package scheduler

import (
	"encoding/json"
	"fmt"
	"strings"

	"cronrunner/internal/job"
)

const (
	FormatText  = "text"
	FormatHTML  = "html"
	FormatArray = "array"
)

// VerboseLog returns a copy of the verbose log lines in order.
func (s *Scheduler) VerboseLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.verbose...)
}

// VerboseOutput renders the verbose log: newline-joined text, <br>-joined
// markup, or a JSON array of the lines.
func (s *Scheduler) VerboseOutput(format string) (string, error) {
	lines := s.VerboseLog()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatText:
		return strings.Join(lines, "\n"), nil
	case FormatHTML:
		return strings.Join(lines, "<br>"), nil
	case FormatArray:
		if lines == nil {
			lines = []string{}
		}
		var b strings.Builder
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(lines); err != nil {
			return "", err
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	default:
		return "", fmt.Errorf("%w: unsupported verbose format %q", job.ErrConfiguration, format)
	}
}
