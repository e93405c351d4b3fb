package interp

import "strings"

// trace writes a "+ name arg1 arg2" line to stderr before a simple
// command runs, when the xtrace option is set — the "set -x" execution
// trace.
func (r *Runner) trace(name string, args []string) {
	if !r.Env.Options.Get("xtrace") {
		return
	}
	var sb strings.Builder
	sb.WriteString("+ ")
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(traceQuote(a))
	}
	sb.WriteByte('\n')
	r.Stderr.Write([]byte(sb.String()))
}

// traceQuote wraps a in single quotes when it contains characters a
// shell reader couldn't otherwise tell apart from field splitting, so
// the trace line stays legible for an argument containing spaces.
func traceQuote(a string) string {
	if a == "" {
		return "''"
	}
	if !strings.ContainsAny(a, " \t\n'\"") {
		return a
	}
	return "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
}
