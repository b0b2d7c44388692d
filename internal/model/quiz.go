package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Options maps an option id to its text.
//
// The backend emits options either as an object keyed by option number or as a
// plain list; a list is numbered from 1 in order.
type Options map[int]string

// UnmarshalJSON accepts both {"1":"A","2":"B"} and ["A","B"].
func (o *Options) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("options list: %w", err)
		}
		out := make(Options, len(list))
		for i, text := range list {
			out[i+1] = text
		}
		*o = out
		return nil
	}

	var m map[int]string
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return fmt.Errorf("options map: %w", err)
	}
	*o = Options(m)
	return nil
}

// IDs returns the option ids in display order.
func (o Options) IDs() []int {
	return sortedKeys(o)
}

// Question is one generated multiple-choice question.
type Question struct {
	Text    string  `json:"question"`
	Options Options `json:"options"`
	Answer  string  `json:"answer"`
	// AnswerID is set when the backend names the correct option directly.
	AnswerID int `json:"answer_id,omitempty"`
}

// CorrectOptionID locates the correct option. An explicit AnswerID wins;
// otherwise the answer text must match exactly one option.
func (q Question) CorrectOptionID() (int, error) {
	if q.AnswerID != 0 {
		if _, ok := q.Options[q.AnswerID]; !ok {
			return 0, fmt.Errorf("answer_id %d is not an option", q.AnswerID)
		}
		return q.AnswerID, nil
	}

	var matches []int
	for _, id := range q.Options.IDs() {
		if q.Options[id] == q.Answer {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("answer %q matches no option", q.Answer)
	case 1:
		return matches[0], nil
	default:
		return 0, fmt.Errorf("answer %q matches options %v", q.Answer, matches)
	}
}

// QuestionSet maps 1-based question ids to questions.
type QuestionSet map[int]Question

// IDs returns the question ids in display order.
func (s QuestionSet) IDs() []int {
	return sortedKeys(s)
}

// Validate rejects sets the review screen could not render unambiguously.
func (s QuestionSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("question set is empty")
	}
	for _, id := range s.IDs() {
		q := s[id]
		if len(q.Options) == 0 {
			return fmt.Errorf("question %d has no options", id)
		}
		if _, err := q.CorrectOptionID(); err != nil {
			return fmt.Errorf("question %d: %w", id, err)
		}
	}
	return nil
}

// AnswerSheet maps question ids to the chosen option id.
type AnswerSheet map[int]int

// Clone returns a copy safe to hand outside a lock.
func (a AnswerSheet) Clone() AnswerSheet {
	out := make(AnswerSheet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Unanswered counts questions of set with no entry in the sheet.
func (a AnswerSheet) Unanswered(set QuestionSet) int {
	n := 0
	for id := range set {
		if _, ok := a[id]; !ok {
			n++
		}
	}
	return n
}

// ScoreResult is the backend's verdict on a submitted sheet.
type ScoreResult struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Validate checks the result against the set it was scored for.
func (r ScoreResult) Validate(setSize int) error {
	if r.Total != setSize {
		return fmt.Errorf("score total %d does not match %d questions", r.Total, setSize)
	}
	if r.Correct < 0 || r.Correct > r.Total {
		return fmt.Errorf("score %d out of range [0,%d]", r.Correct, r.Total)
	}
	return nil
}

// Percentage returns the score as a percentage rounded to one decimal.
func (r ScoreResult) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return math.Round(float64(r.Correct)/float64(r.Total)*1000) / 10
}

// OptionTag marks an option row on the review screen.
type OptionTag string

const (
	TagCorrect       OptionTag = "correct"
	TagUserIncorrect OptionTag = "user-incorrect"
	TagNeutral       OptionTag = "neutral"
)

// ReviewedOption is one option row of a reviewed question.
type ReviewedOption struct {
	ID       int       `json:"id"`
	Text     string    `json:"text"`
	Tag      OptionTag `json:"tag"`
	Selected bool      `json:"selected"`
}

// ReviewedQuestion is one question of the review screen.
type ReviewedQuestion struct {
	ID        int              `json:"id"`
	Text      string           `json:"question"`
	Options   []ReviewedOption `json:"options"`
	CorrectID int              `json:"correct_option"`
	Chosen    int              `json:"chosen_option"`
	IsCorrect bool             `json:"is_correct"`
}

// Review tags every option of every question against the correct option and
// the user's choice.
func Review(set QuestionSet, sheet AnswerSheet) ([]ReviewedQuestion, error) {
	out := make([]ReviewedQuestion, 0, len(set))
	for _, qid := range set.IDs() {
		q := set[qid]
		correctID, err := q.CorrectOptionID()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", qid, err)
		}
		chosen := sheet[qid]

		rq := ReviewedQuestion{
			ID:        qid,
			Text:      q.Text,
			CorrectID: correctID,
			Chosen:    chosen,
			IsCorrect: chosen == correctID,
			Options:   make([]ReviewedOption, 0, len(q.Options)),
		}
		for _, oid := range q.Options.IDs() {
			tag := TagNeutral
			switch {
			case oid == correctID:
				tag = TagCorrect
			case oid == chosen:
				tag = TagUserIncorrect
			}
			rq.Options = append(rq.Options, ReviewedOption{
				ID:       oid,
				Text:     q.Options[oid],
				Tag:      tag,
				Selected: oid == chosen,
			})
		}
		out = append(out, rq)
	}
	return out, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
