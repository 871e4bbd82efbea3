package classify

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no json object in model output")

// decodeLenient decodes raw as T, running Repair once if the direct decode
// fails.
func decodeLenient[T any](raw string) (*T, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errNoJSONObject
	}
	if strings.HasPrefix(trimmed, "{") {
		var direct T
		if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
			return &direct, nil
		}
	}
	fixed, ok := Repair(trimmed)
	if !ok {
		return nil, errNoJSONObject
	}
	var repaired T
	if err := json.Unmarshal([]byte(fixed), &repaired); err != nil {
		return nil, err
	}
	return &repaired, nil
}

// maxRepairCandidates bounds how many opening braces Repair tries.
const maxRepairCandidates = 32

// Repair is a best-effort cleanup of almost-JSON model output: it drops code
// fences and surrounding prose, turns single-quoted strings into
// double-quoted ones and removes trailing commas. Each "{" is tried in turn
// as the start of the object, so braces in leading prose are skipped. ok is
// false when no object braces are present at all.
func Repair(raw string) (string, bool) {
	s := stripFences(raw)
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return "", false
	}
	for i, tries := first, 0; i >= 0 && i < last && tries < maxRepairCandidates; tries++ {
		if obj, ok := firstObject(normalizeQuotesAndCommas(s[i:])); ok {
			return obj, true
		}
		next := strings.Index(s[i+1:], "{")
		if next < 0 {
			break
		}
		i += next + 1
	}
	// Nothing decodes; hand back the widest span so the caller reports why.
	return normalizeQuotesAndCommas(s[first : last+1]), true
}

// firstObject decodes the leading JSON value of s and ignores what follows.
func firstObject(s string) (string, bool) {
	var v json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&v); err != nil {
		return "", false
	}
	return string(v), true
}

func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// normalizeQuotesAndCommas walks the text once, tracking whether it is inside
// a double- or single-quoted string.
func normalizeQuotesAndCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	inDouble, inSingle := false, false

	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case inDouble:
			b.WriteRune(c)
			if c == '\\' && i+1 < len(rs) {
				i++
				b.WriteRune(rs[i])
			} else if c == '"' {
				inDouble = false
			}
		case inSingle:
			switch {
			case c == '\\' && i+1 < len(rs) && rs[i+1] == '\'':
				i++
				b.WriteRune('\'')
			case c == '\'':
				inSingle = false
				b.WriteRune('"')
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(c)
			}
		case c == '"':
			inDouble = true
			b.WriteRune(c)
		case c == '\'':
			inSingle = true
			b.WriteRune('"')
		case c == ',':
			j := i + 1
			for j < len(rs) && strings.ContainsRune(" \t\r\n", rs[j]) {
				j++
			}
			if j < len(rs) && (rs[j] == '}' || rs[j] == ']') {
				continue
			}
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
