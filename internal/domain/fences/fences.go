package fences

import "strings"

const marker = "```"

// Strip removes the markdown fence lines a model tends to wrap code in.
// When the first or the last line opens with a fence, both the first and the
// last line are dropped and the remainder is trimmed. Input shorter than two
// lines is never line-stripped, except that a lone fence line yields "".
func Strip(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(t, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		if isFence(lines[0]) {
			return ""
		}
		return t
	}
	if !isFence(lines[0]) && !isFence(lines[len(lines)-1]) {
		return t
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

func isFence(line string) bool {
	return strings.HasPrefix(line, marker)
}
