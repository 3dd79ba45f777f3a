// Package essay drafts a Statement of Purpose and keeps re-prompting the model
// until the draft fits the requested word budget or the attempt budget runs out.
package essay

import (
	"strings"

	"github.com/nikogura/sop-writer/pkg/profile"
)

// DefaultMaxAttempts is the first generation plus three corrective retries.
const DefaultMaxAttempts = 4

// State is the lifecycle of one submission.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateDone       State = "done"
	StateFatal      State = "fatal"
)

// Verdict classifies a word count against a budget.
type Verdict string

const (
	WithinBudget Verdict = "within_budget"
	TooShort     Verdict = "too_short"
	TooLong      Verdict = "too_long"
)

// Judge compares count with b.
func Judge(count int, b profile.WordBudget) (v Verdict) {
	switch {
	case count < b.Min:
		v = TooShort
	case count > b.Max:
		v = TooLong
	default:
		v = WithinBudget
	}
	return v
}

// CountWords returns the number of whitespace-delimited tokens in text.
// Runs of whitespace count as a single separator.
func CountWords(text string) (n int) {
	n = len(strings.Fields(text))
	return n
}

// Instruction is the prompt for one attempt: the base text plus every
// corrective clause accumulated so far. Values are never mutated in place.
type Instruction struct {
	Base        string
	Corrections []string
}

// Text renders the instruction sent to the backend.
func (i Instruction) Text() (text string) {
	if len(i.Corrections) == 0 {
		text = i.Base
		return text
	}
	text = i.Base + "\n" + strings.Join(i.Corrections, "\n")
	return text
}

// With returns a copy of i with clause appended.
func (i Instruction) With(clause string) (next Instruction) {
	corrections := make([]string, len(i.Corrections), len(i.Corrections)+1)
	copy(corrections, i.Corrections)
	next = Instruction{
		Base:        i.Base,
		Corrections: append(corrections, clause),
	}
	return next
}

// Attempt records one generation call.
type Attempt struct {
	Index     int     `json:"index"`
	Prompt    string  `json:"prompt"`
	Text      string  `json:"text"`
	WordCount int     `json:"word_count"`
	Verdict   Verdict `json:"verdict"`
}

// Essay is the final output handed to the presentation layer.
type Essay struct {
	Text      string             `json:"text"`
	WordCount int                `json:"word_count"`
	BudgetMet bool               `json:"budget_met"`
	Budget    profile.WordBudget `json:"budget"`
	Attempts  []Attempt          `json:"attempts"`
}
