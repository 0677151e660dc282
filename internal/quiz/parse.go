package quiz

import (
	"strconv"
	"strings"
)

// MaxQuestions is the number of questions a quiz asks.
const MaxQuestions = 3

// ParseQuestions extracts numbered questions from a model reply.
//
// Grammar: the reply is split into lines and each line is trimmed. A line is
// a question when its first character is '1', '2' or '3'; the question text
// is the trimmed line without its first three runes (the "N. " marker).
// Lines are kept in order and the result is cut to MaxQuestions. Replies that
// number as "1.Foo" or "10. Foo" therefore yield garbled or missing entries.
func ParseQuestions(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.ContainsRune("123", rune(line[0])) {
			continue
		}
		r := []rune(line)
		if len(r) <= 3 {
			out = append(out, "")
		} else {
			out = append(out, string(r[3:]))
		}
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

// ParseScore reads the score from an evaluation reply.
//
// Grammar: the first line containing "Score" is the score line; every ASCII
// digit on it is concatenated and parsed as a base-10 integer. The second
// result is false, and the score 0, when no such line exists or it carries
// no digits.
func ParseScore(reply string) (int, bool) {
	for _, line := range strings.Split(reply, "\n") {
		if !strings.Contains(line, "Score") {
			continue
		}
		var digits strings.Builder
		for _, c := range line {
			if c >= '0' && c <= '9' {
				digits.WriteRune(c)
			}
		}
		n, err := strconv.Atoi(digits.String())
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// field returns the text after "label:" on the first line starting with label.
func field(reply, label string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, label); ok {
			rest = strings.TrimSpace(rest)
			rest = strings.TrimPrefix(rest, ":")
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
