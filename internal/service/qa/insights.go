package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/log"
)

const (
	DefaultInsightWindow = 7 * 24 * time.Hour
	widenedInsightWindow = 30 * 24 * time.Hour

	maxInsights       = 8
	heuristicItems    = 3
	datasetTopFoods   = 5
	InsightFactSource = "insight"
	insightFactPrefix = "Insight: "
)

const insightPrompt = `You are a helpful coach writing a short summary of the user's meals and check-ins %s.
Return STRICT JSON: {"insights": ["...", "..."]}
Rules:
- 3 to 6 short, clear insights.
- No ids or technical terms. Use only metric names and meal words.
- Include at least one observation about meals and one about check-ins when both are present.
- Mention trends (up or down) and simple suggestions where they fit.
- Do not include dates; say "%s".
Data:
%s`

type InsightWindow struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Widened bool      `json:"widenedTo30Days,omitempty"`
}

// Period is how generated text refers to the window.
func (w InsightWindow) Period() string {
	if w.Widened {
		return "over the last 30 days"
	}
	if days := int(math.Round(w.End.Sub(w.Start).Hours() / 24)); days != 7 {
		return fmt.Sprintf("over the last %d days", days)
	}
	return "this week"
}

type MealStats struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"byType"`
	TopFoods []string       `json:"topFoods"`
}

type MetricStat struct {
	Name  string  `json:"name"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
	// Delta is the last value minus the first one in the window.
	Delta float64 `json:"delta"`
}

// InsightDataset is the aggregate the miner reasons over. No raw records or ids leave it.
type InsightDataset struct {
	Window   InsightWindow `json:"window"`
	Meals    MealStats     `json:"meals"`
	CheckIns []MetricStat  `json:"checkIns"`
}

func (d InsightDataset) Empty() bool {
	return d.Meals.Total == 0 && len(d.CheckIns) == 0
}

type InsightReport struct {
	Window    InsightWindow `json:"window"`
	Insights  []string      `json:"insights"`
	FactIDs   []string      `json:"factIds"`
	FromModel bool          `json:"fromModel"`
}

// MineInsights summarizes the owner's recent meals and check-ins and stores
// each insight as a fact with source "insight", so later asks can cite it.
// The window widens to 30 days when it holds no data. Insights already stored
// verbatim are not stored twice.
func (s *Service) MineInsights(ctx context.Context, owner string, window time.Duration) (InsightReport, error) {
	logger := log.FromCtx(ctx).With().Str("owner", owner).Logger()
	if window <= 0 {
		window = DefaultInsightWindow
	}

	var meals []core.Meal
	var checkIns []core.CheckIn
	if s.deps.Meals != nil {
		list, err := s.deps.Meals.ListMeals(ctx, owner)
		if err != nil {
			return InsightReport{}, fmt.Errorf("list meals: %w", err)
		}
		meals = list
	}
	if s.deps.CheckIns != nil {
		list, err := s.deps.CheckIns.ListCheckIns(ctx, owner)
		if err != nil {
			return InsightReport{}, fmt.Errorf("list check-ins: %w", err)
		}
		checkIns = list
	}

	now := time.Now()
	dataset := BuildInsightDataset(meals, checkIns, now.Add(-window), now)
	if dataset.Empty() && window < widenedInsightWindow {
		dataset = BuildInsightDataset(meals, checkIns, now.Add(-widenedInsightWindow), now)
		dataset.Window.Widened = true
	}
	report := InsightReport{Window: dataset.Window}
	if dataset.Empty() {
		logger.Info().Msg("no meals or check-ins to mine")
		return report, nil
	}

	if s.deps.LLM != nil {
		texts, err := s.modelInsights(ctx, dataset)
		if err != nil {
			logger.Warn().Err(err).Msg("model insights unavailable, using heuristics")
		}
		if len(texts) > 0 {
			report.Insights, report.FromModel = texts, true
		}
	}
	if !report.FromModel {
		report.Insights = HeuristicInsights(dataset)
	}

	ids, err := s.storeInsights(ctx, owner, report.Insights, now)
	report.FactIDs = ids
	if err != nil {
		return report, err
	}

	logger.Info().
		Int("insights", len(report.Insights)).
		Int("stored", len(ids)).
		Bool("model", report.FromModel).
		Msg("insights mined")
	return report, nil
}

func (s *Service) modelInsights(ctx context.Context, dataset InsightDataset) ([]string, error) {
	data, err := json.Marshal(dataset)
	if err != nil {
		return nil, err
	}
	period := dataset.Window.Period()
	raw, err := s.deps.LLM.Execute(ctx, fmt.Sprintf(insightPrompt, period, period, data))
	if err != nil {
		return nil, err
	}
	return ParseInsights(raw)
}

// ParseInsights reads {"insights": [...]} leniently: fences and surrounding
// prose are ignored, non-string and blank entries are dropped, and at most
// eight insights are kept.
func ParseInsights(raw string) ([]string, error) {
	data, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, preview(raw))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: output is not an object", ErrMalformedJSON)
	}

	var out []string
	for _, item := range rawList(fields["insights"]) {
		var text string
		if json.Unmarshal(item, &text) != nil {
			continue
		}
		if text = collapseSpace(text); !isBlankText(text) {
			out = append(out, text)
		}
		if len(out) == maxInsights {
			break
		}
	}
	return out, nil
}

// HeuristicInsights describes the dataset without a model: the dominant meal
// type, metrics trending up and down, and the most eaten foods.
func HeuristicInsights(d InsightDataset) []string {
	period := d.Window.Period()
	var out []string

	if t := dominantMealType(d.Meals.ByType); t != "" {
		out = append(out, fmt.Sprintf("Most meals were %s %s.", t, period))
	}

	var up, down []string
	for _, m := range d.CheckIns {
		switch {
		case m.Delta > 0 && len(up) < heuristicItems:
			up = append(up, m.Name)
		case m.Delta < 0 && len(down) < heuristicItems:
			down = append(down, m.Name)
		}
	}
	if len(up) > 0 {
		out = append(out, fmt.Sprintf("Trending up %s: %s.", period, strings.Join(up, ", ")))
	}
	if len(down) > 0 {
		out = append(out, fmt.Sprintf("Trending down %s: %s.", period, strings.Join(down, ", ")))
	}

	if foods := d.Meals.TopFoods[:min(heuristicItems, len(d.Meals.TopFoods))]; len(foods) > 0 {
		out = append(out, fmt.Sprintf("Often eaten: %s.", strings.Join(foods, ", ")))
	}
	return out
}

func (s *Service) storeInsights(ctx context.Context, owner string, insights []string, at time.Time) ([]string, error) {
	if s.deps.Facts == nil || len(insights) == 0 {
		return nil, nil
	}

	existing, err := s.deps.Facts.ListFacts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, f := range existing {
		seen[strings.ToLower(f.Content)] = true
	}

	var ids []string
	for _, text := range insights {
		content := insightFactPrefix + text
		if seen[strings.ToLower(content)] {
			continue
		}
		id, err := s.deps.Facts.IngestFact(ctx, owner, content, InsightFactSource, at)
		if err != nil {
			return ids, fmt.Errorf("store insight: %w", err)
		}
		seen[strings.ToLower(content)] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// BuildInsightDataset aggregates records observed in [start, end).
func BuildInsightDataset(meals []core.Meal, checkIns []core.CheckIn, start, end time.Time) InsightDataset {
	inWindow := func(t time.Time) bool {
		return !t.IsZero() && !t.Before(start) && t.Before(end)
	}

	d := InsightDataset{
		Window:   InsightWindow{Start: start, End: end},
		Meals:    MealStats{ByType: map[string]int{}, TopFoods: []string{}},
		CheckIns: []MetricStat{},
	}

	foods := map[string]int{}
	for _, m := range meals {
		if !inWindow(m.At) || mealText(m) == "" {
			continue
		}
		d.Meals.Total++
		d.Meals.ByType[mealType(m.At)]++
		for _, it := range m.Items {
			if it = strings.ToLower(strings.TrimSpace(it)); !isBlankText(it) {
				foods[it]++
			}
		}
	}
	d.Meals.TopFoods = topKeys(foods, datasetTopFoods)

	byMetric := map[string][]core.CheckIn{}
	var names []string
	for _, c := range checkIns {
		name := strings.ToLower(strings.TrimSpace(c.Metric))
		if !inWindow(c.At) || isBlankText(name) {
			continue
		}
		if _, ok := byMetric[name]; !ok {
			names = append(names, name)
		}
		byMetric[name] = append(byMetric[name], c)
	}
	sort.Strings(names)
	for _, name := range names {
		d.CheckIns = append(d.CheckIns, metricStat(name, byMetric[name]))
	}
	return d
}

func metricStat(name string, list []core.CheckIn) MetricStat {
	sort.SliceStable(list, func(i, j int) bool { return list[i].At.Before(list[j].At) })

	st := MetricStat{Name: name, Count: len(list), Min: list[0].Value, Max: list[0].Value}
	var sum float64
	for _, c := range list {
		sum += c.Value
		st.Min = math.Min(st.Min, c.Value)
		st.Max = math.Max(st.Max, c.Value)
	}
	st.Avg = math.Round(sum/float64(len(list))*100) / 100
	st.Delta = list[len(list)-1].Value - list[0].Value
	return st
}

// mealType buckets a meal by the hour it was eaten, in the timestamp's own zone.
func mealType(at time.Time) string {
	switch h := at.Hour(); {
	case h >= 5 && h < 11:
		return "breakfast"
	case h >= 11 && h < 16:
		return "lunch"
	case h >= 17 && h < 23:
		return "dinner"
	default:
		return "snack"
	}
}

func dominantMealType(byType map[string]int) string {
	top := topKeys(byType, 1)
	if len(top) == 0 {
		return ""
	}
	return top[0]
}

// topKeys orders by count, then name.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k, v := range counts {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys[:min(n, len(keys))]
}
