package executor

import (
	"fmt"
	"strings"

	"agentide/internal/action"
)

const maxReportOutputLines = 10

// Report is the outcome of one batch. Actions carry their own Status/Result.
type Report struct {
	Actions   []*action.Action
	Succeeded int
	Failed    int
	Denied    int
}

func (r Report) Total() int {
	return len(r.Actions)
}

func (r Report) Summary() string {
	return fmt.Sprintf("%d of %d actions succeeded", r.Succeeded, r.Total())
}

// Format lists every action with its outcome. Long outputs are cut to a few
// lines.
func (r Report) Format() string {
	if len(r.Actions) == 0 {
		return "No actions were executed."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Agent actions executed (%s):\n", r.Summary())
	for i, a := range r.Actions {
		fmt.Fprintf(&b, "\n%d. [%s] %s\n", i+1, outcome(a), a.Describe())
		switch {
		case a.Status.Verdict == action.Denied:
			fmt.Fprintf(&b, "   Reason: %s\n", a.Status.Reason)
		case a.Result == nil:
		case a.Result.OK:
			writeIndented(&b, a.Result.Detail)
		default:
			fmt.Fprintf(&b, "   Error: %s\n", a.Result.Detail)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func outcome(a *action.Action) string {
	switch {
	case a.Status.Verdict == action.Denied:
		return "denied"
	case a.Result == nil:
		return "pending"
	case a.Result.OK:
		return "ok"
	default:
		return "failed"
	}
}

func writeIndented(b *strings.Builder, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == maxReportOutputLines {
			b.WriteString("   ... (output truncated)\n")
			break
		}
		b.WriteString("   ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
