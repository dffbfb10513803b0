package qa

import (
	"strings"
	"unicode"
)

const maxTopicCandidates = 6

var leadingPhrases = [][]string{
	{"tell", "me", "about"},
	{"what", "is"}, {"what", "are"}, {"what's"}, {"whats"},
	{"how", "does"}, {"how", "do"}, {"how", "much"}, {"how", "many"},
	{"is", "it"}, {"is", "there"}, {"are", "there"},
	{"should", "i"}, {"can", "i"}, {"do", "i"},
	{"are"}, {"is"}, {"do"}, {"does"}, {"can"}, {"could"}, {"should"}, {"would"}, {"will"},
	{"why"}, {"how"}, {"what"}, {"which"}, {"when"},
	{"the"}, {"a"}, {"an"}, {"eating"}, {"drinking"},
}

// Words that end the subject of a question ("fried dinners | hurt my energy").
var breakWords = map[string]bool{
	"hurt": true, "hurts": true, "affect": true, "affects": true, "affecting": true,
	"cause": true, "causes": true, "causing": true, "make": true, "makes": true,
	"help": true, "helps": true, "improve": true, "improves": true,
	"raise": true, "raises": true, "lower": true, "lowers": true,
	"increase": true, "increases": true, "reduce": true, "reduces": true,
	"my": true, "me": true, "i": true, "than": true, "or": true, "vs": true, "versus": true,
	"for": true, "with": true, "in": true, "on": true, "at": true,
	"after": true, "before": true, "during": true, "if": true, "when": true,
}

var trailingIntent = map[string]bool{
	"toxic": true, "healthy": true, "unhealthy": true, "safe": true, "unsafe": true,
	"bad": true, "good": true, "harmful": true, "dangerous": true, "ok": true, "okay": true,
	"better": true, "worse": true, "really": true, "actually": true,
}

// TopicCandidates guesses encyclopedia titles for a question, most specific first.
// Each noun phrase is followed by its naive singular form.
func TopicCandidates(question string) []string {
	words := normalizeWords(question)
	words = stripLeading(words)

	for i, w := range words {
		if breakWords[w] {
			words = words[:i]
			break
		}
	}
	for len(words) > 0 && trailingIntent[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) > 4 {
		words = words[:4]
	}

	seen := map[string]bool{}
	var out []string
	add := func(phrase string) {
		if phrase == "" || seen[phrase] || len(out) >= maxTopicCandidates {
			return
		}
		seen[phrase] = true
		out = append(out, capitalize(phrase))
	}

	for i := range words {
		suffix := words[i:]
		phrase := strings.Join(suffix, " ")
		sing := append(append([]string(nil), suffix[:len(suffix)-1]...), singular(suffix[len(suffix)-1]))
		add(strings.Join(sing, " "))
		add(phrase)
	}
	return out
}

func normalizeWords(s string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Fields(mapped)
}

func stripLeading(words []string) []string {
	for {
		stripped := false
		for _, phrase := range leadingPhrases {
			if hasPrefixWords(words, phrase) && len(words) > len(phrase) {
				words = words[len(phrase):]
				stripped = true
				break
			}
		}
		if !stripped {
			return words
		}
	}
}

func hasPrefixWords(words, prefix []string) bool {
	if len(words) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if words[i] != p {
			return false
		}
	}
	return true
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "xes"),
		strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case len(w) > 3 && strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
