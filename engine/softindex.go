package engine

import (
	"strconv"
	"strings"

	fsh "github.com/FHIR/sushi-sub009"
	"github.com/FHIR/sushi-sub009/rules"
)

// ResolveSoftIndexing replaces [+] and [=] markers in rule paths with
// numeric indices, one counter per path context, in rule order. The
// returned slice is aligned with seq: paths[i] is the resolved target of
// seq[i]. A [=] with no preceding [+] resolves to 0 and yields a warning.
func (e *Engine) ResolveSoftIndexing(seq []rules.Rule) ([]string, []fsh.Issue) {
	counters := make(map[string]int)
	paths := make([]string, len(seq))
	var issues []fsh.Issue

	for i, rule := range seq {
		resolved, assumed := resolveSoftPath(rule.RulePath(), counters, e.opts.StrictSliceIndexing)
		paths[i] = resolved
		if assumed {
			src := rule.RuleSource()
			issues = append(issues, fsh.WarningIssue().
				At(resolved).
				Position(src.File, src.Line, src.Column).
				Message("[=] used before any [+] on this path; index 0 assumed").
				Build())
		}
	}
	return paths, issues
}

// resolveSoftPath rewrites one path, advancing or reusing the counter for
// each marker. It reports whether any [=] had to assume index 0.
func resolveSoftPath(path string, counters map[string]int, strict bool) (string, bool) {
	if !strings.ContainsAny(path, "[") {
		return path, false
	}

	var b strings.Builder
	b.Grow(len(path))
	assumed := false
	rest := path
	for {
		idx, marker := nextMarker(rest)
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:idx])

		key := counterKey(b.String(), strict)
		n, seen := counters[key]
		switch marker {
		case '+':
			if seen {
				n++
			}
			counters[key] = n
		case '=':
			if !seen {
				counters[key] = 0
				assumed = true
			}
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(']')
		rest = rest[idx+3:]
	}
	return b.String(), assumed
}

// nextMarker finds the earliest [+] or [=] in s and returns its offset and
// marker byte, or (-1, 0).
func nextMarker(s string) (int, byte) {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == '[' && (s[i+1] == '+' || s[i+1] == '=') && s[i+2] == ']' {
			return i, s[i+1]
		}
	}
	return -1, 0
}

// counterKey normalizes a resolved path prefix into a counter key. Counters
// run per distinct prefix: resolved numeric indices stay in the key, so a
// repeated child's counter restarts under each new parent instance
// (name[0].given and name[1].given count separately). In strict mode slice
// names stay too, so component[systolic] and component[diastolic] count
// independently; otherwise slice-name brackets drop.
func counterKey(prefix string, strict bool) string {
	if strict || !strings.ContainsAny(prefix, "[") {
		return prefix
	}
	var b strings.Builder
	b.Grow(len(prefix))
	rest := prefix
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		close := strings.IndexByte(rest[open:], ']')
		if close < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		inner := rest[open+1 : open+close]
		if isAllDigits(inner) {
			b.WriteByte('[')
			b.WriteString(inner)
			b.WriteByte(']')
		}
		rest = rest[open+close+1:]
	}
	return b.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
