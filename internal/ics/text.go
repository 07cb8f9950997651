package ics

import "strings"

// recognised are the property names that start a new content line even
// when indented.
var recognised = []string{
	"BEGIN", "END", "UID", "DTSTART", "DTEND",
	"SUMMARY", "LOCATION", "DESCRIPTION", "RRULE",
}

// unfold splits the payload into logical content lines, joining RFC 5545
// continuation lines (leading space or tab) onto the previous line. An
// indented line that itself begins a recognised property is kept as its
// own line, so calendars with indented blocks still parse.
func unfold(body string) []string {
	raw := strings.Split(body, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if len(l) > 0 && (l[0] == ' ' || l[0] == '\t') && len(out) > 0 {
			if trimmed := strings.TrimSpace(l); startsProperty(trimmed) {
				out = append(out, trimmed)
				continue
			}
			out[len(out)-1] += l[1:]
			continue
		}
		out = append(out, l)
	}
	return out
}

func startsProperty(line string) bool {
	upper := strings.ToUpper(line)
	for _, name := range recognised {
		if !strings.HasPrefix(upper, name) || len(upper) == len(name) {
			continue
		}
		if c := upper[len(name)]; c == ':' || c == ';' {
			return true
		}
	}
	return false
}

// splitProperty splits "NAME;PARAM=x:value" into the upper-cased name and
// the raw value. Parameters are dropped. Colons inside quoted parameter
// values do not end the name part.
func splitProperty(line string) (name, value string, ok bool) {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ':':
			if inQuote {
				continue
			}
			head := line[:i]
			if j := strings.IndexByte(head, ';'); j >= 0 {
				head = head[:j]
			}
			return strings.ToUpper(strings.TrimSpace(head)), line[i+1:], true
		}
	}
	return "", "", false
}

// unescapeText reverses TEXT value escaping (\n, \N, \, \; \\).
func unescapeText(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\\' || i+1 == len(v) {
			b.WriteByte(c)
			continue
		}
		i++
		switch v[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\', ':':
			b.WriteByte(v[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
