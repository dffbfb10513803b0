package qa

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/tuskqa/internal/core"
)

const MaxAnswerChars = 800

var fenceRe = regexp.MustCompile("(?im)^```json\\s*|^```\\s*|```$")

func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

// extractJSON returns the JSON document in s: the whole text if it parses,
// otherwise the outermost {...} span if that parses.
func extractJSON(s string) ([]byte, bool) {
	cleaned := stripFences(s)
	if json.Valid([]byte(cleaned)) {
		return []byte(cleaned), true
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		candidate := []byte(cleaned[start : end+1])
		if json.Valid(candidate) {
			return candidate, true
		}
	}
	return nil, false
}

func badJSON(raw string) core.Draft {
	return core.Draft{
		Error:      core.DraftBadJSON,
		Raw:        raw,
		Answer:     "",
		Citations:  []string{},
		Confidence: 0,
	}
}

// ParseDraft reads model output leniently. Unparseable text yields the bad_json
// sentinel; fields of the wrong type are left at their zero values.
func ParseDraft(raw string) core.Draft {
	data, ok := extractJSON(raw)
	if !ok {
		return badJSON(raw)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return core.Draft{Citations: []string{}}
	}

	var d core.Draft
	_ = json.Unmarshal(fields["answer"], &d.Answer)
	_ = json.Unmarshal(fields["confidence"], &d.Confidence)
	_ = json.Unmarshal(fields["needs_web"], &d.NeedsWeb)
	for _, c := range rawList(fields["citations"]) {
		var id string
		if json.Unmarshal(c, &id) == nil {
			d.Citations = append(d.Citations, id)
		}
	}
	if d.Citations == nil {
		d.Citations = []string{}
	}
	return d
}

func rawList(m json.RawMessage) []json.RawMessage {
	var list []json.RawMessage
	if len(m) == 0 || json.Unmarshal(m, &list) != nil {
		return nil
	}
	return list
}

// Validate parses raw and enforces the answer contract against the cited ids.
// Checks run in a fixed order and the first failure is returned. On malformed
// input the bad_json sentinel draft is returned together with ErrMalformedJSON.
func Validate(raw string, ids map[string]struct{}) (core.Draft, error) {
	data, ok := extractJSON(raw)
	if !ok {
		return badJSON(raw), fmt.Errorf("%w: %s", ErrMalformedJSON, preview(raw))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return core.Draft{}, fmt.Errorf("%w: output is not an object", ErrEmptyAnswer)
	}

	var d core.Draft

	var answer string
	if err := json.Unmarshal(fields["answer"], &answer); err != nil || strings.TrimSpace(answer) == "" {
		return core.Draft{}, ErrEmptyAnswer
	}
	d.Answer = strings.TrimSpace(answer)

	citations := rawList(fields["citations"])
	if len(citations) == 0 {
		return core.Draft{}, ErrNoCitations
	}
	for _, c := range citations {
		var id string
		if err := json.Unmarshal(c, &id); err != nil {
			return core.Draft{}, fmt.Errorf("%w: %s is not an id", ErrBadCitation, string(c))
		}
		if _, ok := ids[id]; !ok {
			return core.Draft{}, fmt.Errorf("%w: %q is not in the evidence", ErrBadCitation, id)
		}
		d.Citations = append(d.Citations, id)
	}

	if n := utf8.RuneCountInString(d.Answer); n > MaxAnswerChars {
		return core.Draft{}, fmt.Errorf("%w: %d characters", ErrTooLong, n)
	}

	var confidence float64
	rawConf := fields["confidence"]
	if len(rawConf) == 0 || string(rawConf) == "null" || json.Unmarshal(rawConf, &confidence) != nil {
		return core.Draft{}, fmt.Errorf("%w: %s", ErrConfidenceRange, preview(string(rawConf)))
	}
	if confidence < 0 || confidence > 1 {
		return core.Draft{}, fmt.Errorf("%w: %v", ErrConfidenceRange, confidence)
	}
	d.Confidence = confidence

	// needs_web is optional and only honored when it is a real boolean.
	_ = json.Unmarshal(fields["needs_web"], &d.NeedsWeb)

	return d, nil
}

// EvidenceIDs is the citation whitelist for a selection.
func EvidenceIDs(evidence []core.EvidenceItem) map[string]struct{} {
	ids := make(map[string]struct{}, len(evidence))
	for _, e := range evidence {
		ids[e.ID] = struct{}{}
	}
	return ids
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "<empty>"
	}
	if utf8.RuneCountInString(s) > 80 {
		return string([]rune(s)[:80]) + "..."
	}
	return s
}
