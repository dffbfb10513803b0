package qa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sandevgo/tuskqa/internal/core"
)

const (
	DefaultEvidenceCap = 12
	DefaultMinFacts    = 3
)

// Aggregator turns raw records into a bounded, recency-ordered evidence set.
// Selection is a pure function of its input.
type Aggregator struct {
	cap      int
	minFacts int
}

func NewAggregator(cap, minFacts int) *Aggregator {
	if cap <= 0 {
		cap = DefaultEvidenceCap
	}
	if minFacts < 0 {
		minFacts = 0
	}
	if minFacts > cap {
		minFacts = cap
	}
	return &Aggregator{cap: cap, minFacts: minFacts}
}

// Select ignores the question: there is no semantic ranking, only recency.
func (a *Aggregator) Select(_ string, facts []core.Fact, meals []core.Meal, checkIns []core.CheckIn) []core.EvidenceItem {
	ids := idAllocator{}
	var items []core.EvidenceItem

	for i, f := range facts {
		text := strings.TrimSpace(f.Content)
		if isBlankText(text) {
			continue
		}
		items = append(items, core.EvidenceItem{
			ID:         ids.take("fact_" + idPart(f.ID, i)),
			Text:       text,
			Source:     core.SourceFact,
			ObservedAt: f.At,
		})
	}

	for i, m := range meals {
		text := mealText(m)
		if isBlankText(text) {
			continue
		}
		items = append(items, core.EvidenceItem{
			ID:         ids.take("meal_" + idPart(m.ID, i)),
			Text:       text,
			Source:     core.SourceMeal,
			ObservedAt: m.At,
		})
	}

	for _, c := range checkIns {
		metric := strings.TrimSpace(c.Metric)
		if isBlankText(metric) {
			continue
		}
		stamp := "na"
		if !c.At.IsZero() {
			stamp = strconv.FormatInt(c.At.Unix(), 10)
		}
		items = append(items, core.EvidenceItem{
			ID:         ids.take("check_" + sanitizeMetric(metric) + "_" + stamp),
			Text:       checkInText(metric, c),
			Source:     core.SourceCheckIn,
			ObservedAt: c.At,
		})
	}

	sortByRecency(items)
	if len(items) <= a.cap {
		return items
	}
	return a.trim(items)
}

// trim keeps the cap most recent items, then swaps the oldest non-fact items
// for the most recent left-out facts until minFacts facts are present.
func (a *Aggregator) trim(sorted []core.EvidenceItem) []core.EvidenceItem {
	selected := append([]core.EvidenceItem(nil), sorted[:a.cap]...)
	rest := sorted[a.cap:]

	want := min(a.minFacts, countFacts(sorted))
	need := want - countFacts(selected)
	if need <= 0 {
		return selected
	}

	next := 0
	for i := len(selected) - 1; i >= 0 && need > 0; i-- {
		if selected[i].Source == core.SourceFact {
			continue
		}
		for next < len(rest) && rest[next].Source != core.SourceFact {
			next++
		}
		if next == len(rest) {
			break
		}
		selected[i] = rest[next]
		next++
		need--
	}

	sortByRecency(selected)
	return selected
}

func sortByRecency(items []core.EvidenceItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.HasTime() != b.HasTime() {
			return a.HasTime()
		}
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.After(b.ObservedAt)
		}
		if ra, rb := sourceRank(a.Source), sourceRank(b.Source); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
}

func sourceRank(s core.Source) int {
	switch s {
	case core.SourceFact:
		return 0
	case core.SourceMeal:
		return 1
	default:
		return 2
	}
}

func countFacts(items []core.EvidenceItem) int {
	n := 0
	for _, it := range items {
		if it.Source == core.SourceFact {
			n++
		}
	}
	return n
}

// isBlankText also rejects the literal placeholders some clients store for missing text.
func isBlankText(s string) bool {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return true
	}
	return false
}

func mealText(m core.Meal) string {
	var items []string
	for _, it := range m.Items {
		if it = strings.TrimSpace(it); !isBlankText(it) {
			items = append(items, it)
		}
	}
	notes := strings.TrimSpace(m.Notes)
	if isBlankText(notes) {
		notes = ""
	}

	switch {
	case len(items) == 0 && notes == "":
		return ""
	case len(items) == 0:
		return "Meal: " + notes
	case notes == "":
		return "Meal: " + strings.Join(items, ", ")
	default:
		return "Meal: " + strings.Join(items, ", ") + "; " + notes
	}
}

func checkInText(metric string, c core.CheckIn) string {
	value := strconv.FormatFloat(c.Value, 'f', -1, 64)
	if unit := strings.TrimSpace(c.Unit); unit != "" {
		return fmt.Sprintf("%s: %s %s", metric, value, unit)
	}
	return fmt.Sprintf("%s: %s", metric, value)
}

func idPart(id string, index int) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return strconv.Itoa(index + 1)
	}
	return id
}

func sanitizeMetric(metric string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(metric) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "metric"
	}
	return out
}

// idAllocator makes synthesized ids unique within one selection.
type idAllocator map[string]int

func (a idAllocator) take(base string) string {
	a[base]++
	if n := a[base]; n > 1 {
		id := fmt.Sprintf("%s_%d", base, n)
		for a[id] > 0 {
			n++
			id = fmt.Sprintf("%s_%d", base, n)
		}
		a[base] = n
		a[id]++
		return id
	}
	return base
}
