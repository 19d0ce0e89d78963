package nipca

import "strings"

// Attributes is the normalized key/value view of a camera's CGI responses.
// Keys are lower-cased.
type Attributes map[string]string

// Clone returns a copy that can be handed to readers.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge copies every pair of other into a, overwriting existing keys.
func (a Attributes) Merge(other Attributes) {
	for k, v := range other {
		a[k] = v
	}
}

// ParseLine extracts one key/value pair from a CGI response line. The line is
// split on the first '='; the key is trimmed and lower-cased, the value keeps
// everything after the separator except leading blanks and the line terminator.
// ok is false for lines that carry no pair.
func ParseLine(line string) (key, value string, ok bool) {
	if strings.TrimSpace(line) == "" {
		return "", "", false
	}

	k, v, found := strings.Cut(strings.TrimRight(line, "\r\n"), "=")
	if !found {
		return "", "", false
	}

	key = strings.ToLower(strings.TrimSpace(k))
	if key == "" {
		return "", "", false
	}

	return key, strings.TrimLeft(v, " \t"), true
}

// ParseLines folds lines into Attributes. Later duplicates win.
func ParseLines(lines []string) Attributes {
	attrs := make(Attributes)
	for _, line := range lines {
		if k, v, ok := ParseLine(line); ok {
			attrs[k] = v
		}
	}
	return attrs
}

// Parse splits a response body into lines and parses them.
func Parse(body string) Attributes {
	return ParseLines(strings.Split(body, "\n"))
}
