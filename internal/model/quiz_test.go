package model

import (
	"encoding/json"
	"testing"
)

func singleQuestionSet() QuestionSet {
	return QuestionSet{
		1: {Text: "Q1", Options: Options{1: "A", 2: "B"}, Answer: "B"},
	}
}

func TestOptionsUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Options
	}{
		{"object", `{"1":"A","2":"B"}`, Options{1: "A", 2: "B"}},
		{"list", `["A","B","C"]`, Options{1: "A", 2: "B", 3: "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Options
			if err := json.Unmarshal([]byte(tt.raw), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("option %d = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestQuestionSetDecodeFromBackend(t *testing.T) {
	raw := `{"2":{"question":"Q2","options":["x","y"],"answer":"y"},"1":{"question":"Q1","options":{"1":"A","2":"B"},"answer":"B"}}`
	var set QuestionSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	ids := set.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("IDs() = %v, want [1 2]", ids)
	}
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestCorrectOptionID(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		want    int
		wantErr bool
	}{
		{"unique text", Question{Options: Options{1: "A", 2: "B"}, Answer: "B"}, 2, false},
		{"explicit id", Question{Options: Options{1: "A", 2: "A"}, Answer: "A", AnswerID: 2}, 2, false},
		{"duplicate text", Question{Options: Options{1: "A", 2: "A"}, Answer: "A"}, 0, true},
		{"no match", Question{Options: Options{1: "A"}, Answer: "Z"}, 0, true},
		{"bad explicit id", Question{Options: Options{1: "A"}, AnswerID: 5}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.q.CorrectOptionID()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateRejectsEmptySet(t *testing.T) {
	if err := (QuestionSet{}).Validate(); err == nil {
		t.Fatal("expected error for empty set")
	}
}

func TestReviewCorrectChoice(t *testing.T) {
	review, err := Review(singleQuestionSet(), AnswerSheet{1: 2})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	q := review[0]
	if !q.IsCorrect {
		t.Error("expected question to be correct")
	}
	for _, o := range q.Options {
		switch o.ID {
		case 2:
			if o.Tag != TagCorrect {
				t.Errorf("option 2 tag = %s, want correct", o.Tag)
			}
		default:
			if o.Tag != TagNeutral {
				t.Errorf("option %d tag = %s, want neutral", o.ID, o.Tag)
			}
		}
		if o.Tag == TagUserIncorrect {
			t.Errorf("unexpected user-incorrect on option %d", o.ID)
		}
	}
}

func TestReviewIncorrectChoice(t *testing.T) {
	review, err := Review(singleQuestionSet(), AnswerSheet{1: 1})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	q := review[0]
	if q.IsCorrect {
		t.Error("expected question to be incorrect")
	}
	tags := map[int]OptionTag{}
	for _, o := range q.Options {
		tags[o.ID] = o.Tag
	}
	if tags[2] != TagCorrect {
		t.Errorf("option 2 tag = %s, want correct", tags[2])
	}
	if tags[1] != TagUserIncorrect {
		t.Errorf("option 1 tag = %s, want user-incorrect", tags[1])
	}
}

func TestAnswerSheetUnanswered(t *testing.T) {
	set := QuestionSet{
		1: {Options: Options{1: "A"}, Answer: "A"},
		2: {Options: Options{1: "A"}, Answer: "A"},
		3: {Options: Options{1: "A"}, Answer: "A"},
	}
	if got := (AnswerSheet{1: 1}).Unanswered(set); got != 2 {
		t.Errorf("Unanswered() = %d, want 2", got)
	}
}

func TestScoreResult(t *testing.T) {
	if err := (ScoreResult{Correct: 1, Total: 1}).Validate(1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (ScoreResult{Correct: 2, Total: 1}).Validate(1); err == nil {
		t.Error("expected out-of-range error")
	}
	if err := (ScoreResult{Correct: 0, Total: 3}).Validate(1); err == nil {
		t.Error("expected total mismatch error")
	}
	if got := (ScoreResult{Correct: 2, Total: 3}).Percentage(); got != 66.7 {
		t.Errorf("Percentage() = %v, want 66.7", got)
	}
}

func TestAnswerSheetWireFormat(t *testing.T) {
	b, err := json.Marshal(AnswerSheet{1: 2, 10: 3})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"1":2,"10":3}` {
		t.Errorf("got %s", b)
	}
}
