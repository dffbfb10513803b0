package core

import (
	"encoding/json"
	"time"
)

const (
	AppName          = "TuskQA"
	AppUserAgent     = "TuskQA/0.1 (personal grounded QA)"
	AppRepositoryURL = "https://github.com/sandevgo/tuskqa"
	AppVersion       = "0.1.0"
)

type Source string

const (
	SourceFact    Source = "fact"
	SourceMeal    Source = "meal"
	SourceCheckIn Source = "check_in"
)

// EvidenceItem is a citable unit of personal data. It only lives for one ask.
type EvidenceItem struct {
	ID         string
	Text       string
	Source     Source
	ObservedAt time.Time // zero when the record had no usable timestamp
}

func (e EvidenceItem) HasTime() bool {
	return !e.ObservedAt.IsZero()
}

// Fact is a free-text statement the user recorded. Source is a user label
// such as "note" or "insight", not an evidence Source.
type Fact struct {
	ID      string    `json:"factId"`
	Owner   string    `json:"owner"`
	Content string    `json:"content"`
	Source  string    `json:"source"`
	At      time.Time `json:"at"`
}

type Meal struct {
	ID    string    `json:"mealId"`
	Owner string    `json:"owner"`
	At    time.Time `json:"at"`
	Items []string  `json:"items"`
	Notes string    `json:"notes,omitempty"`
}

type CheckIn struct {
	ID     string    `json:"checkInId"`
	Owner  string    `json:"owner"`
	Metric string    `json:"metric"`
	Value  float64   `json:"value"`
	Unit   string    `json:"unit,omitempty"`
	At     time.Time `json:"at"`
}

// Draft is the model's candidate answer after parsing. Error is set only on the
// bad_json sentinel, in which case Raw holds the original text.
type Draft struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence float64  `json:"confidence"`
	NeedsWeb   bool     `json:"needs_web,omitempty"`

	Error string `json:"error,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

const DraftBadJSON = "bad_json"

func (d Draft) IsBadJSON() bool {
	return d.Error == DraftBadJSON
}

type QARecord struct {
	ID         int64     `json:"id"`
	Owner      string    `json:"owner"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CitedFacts []string  `json:"citedFacts"`
	Confidence *float64  `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r QARecord) MarshalIndent() string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}
