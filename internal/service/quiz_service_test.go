package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
)

func readyQuiz(t *testing.T, backend *fakeBackend) *QuizController {
	t.Helper()
	if backend.fetch == nil {
		backend.fetch = func(context.Context) (model.QuestionSet, error) { return sampleQuestions(), nil }
	}
	c := NewQuizController(backend, zerolog.Nop())
	view, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if view.State != QuizReady {
		t.Fatalf("state = %s, want ready", view.State)
	}
	return c
}

func TestQuizLoad(t *testing.T) {
	c := readyQuiz(t, newFakeBackend())
	view := c.View()

	if view.Total != 2 || len(view.Questions) != 2 {
		t.Fatalf("view = %+v", view)
	}
	if view.Questions[0].ID != 1 || view.Questions[1].ID != 2 {
		t.Errorf("questions out of order: %+v", view.Questions)
	}
	if got := view.Questions[1].Options; len(got) != 3 || got[0].Text != "C" {
		t.Errorf("options = %+v", got)
	}
}

func TestQuizLoadFailures(t *testing.T) {
	tests := []struct {
		name    string
		fetch   func(context.Context) (model.QuestionSet, error)
		wantMsg string
	}{
		{
			name: "backend message",
			fetch: func(context.Context) (model.QuestionSet, error) {
				return nil, errors.Backend("No quiz found", "fallback")
			},
			wantMsg: "No quiz found",
		},
		{
			name: "empty set",
			fetch: func(context.Context) (model.QuestionSet, error) {
				return model.QuestionSet{}, nil
			},
			wantMsg: "No quiz available to display. Please generate one.",
		},
		{
			name: "ambiguous answer",
			fetch: func(context.Context) (model.QuestionSet, error) {
				return model.QuestionSet{1: {Text: "Q", Options: model.Options{1: "A", 2: "A"}, Answer: "A"}}, nil
			},
			wantMsg: "No quiz available to display. Please generate one.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.fetch = tt.fetch
			c := NewQuizController(backend, zerolog.Nop())

			view, err := c.Start(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if view.State != QuizFailed || view.Error != tt.wantMsg {
				t.Errorf("view = %+v, want failed with %q", view, tt.wantMsg)
			}
			if backend.count("fetch") != 1 {
				t.Errorf("fetch called %d times, want exactly once", backend.count("fetch"))
			}
		})
	}
}

func TestQuizIncompleteSubmitMakesNoCall(t *testing.T) {
	backend := newFakeBackend()
	c := readyQuiz(t, backend)

	c.Select(1, 2)
	view, err := c.Submit(context.Background())
	if !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if backend.count("submit") != 0 {
		t.Fatalf("submit reached the backend")
	}
	if view.State != QuizReady || view.Error != "Please answer all questions before submitting (1 out of 2 answered)." {
		t.Errorf("view = %+v", view)
	}
}

func TestQuizSelectOverwrites(t *testing.T) {
	c := readyQuiz(t, newFakeBackend())

	c.Select(1, 1)
	view, _ := c.Select(1, 2)
	if view.Answered != 1 || view.Questions[0].Selected != 2 {
		t.Errorf("view = %+v", view)
	}

	if _, err := c.Select(9, 1); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("unknown question err = %v", err)
	}
	if _, err := c.Select(1, 9); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("unknown option err = %v", err)
	}
}

func TestQuizSubmitAndReview(t *testing.T) {
	backend := newFakeBackend()
	var sent model.AnswerSheet
	backend.submit = func(_ context.Context, sheet model.AnswerSheet) (model.ScoreResult, error) {
		sent = sheet
		return model.ScoreResult{Correct: 1, Total: 2}, nil
	}
	c := readyQuiz(t, backend)

	c.Select(1, 2)
	c.Select(2, 3)
	view, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if view.State != QuizReviewing || view.Score == nil || view.Percentage != 50 {
		t.Fatalf("view = %+v", view)
	}
	if sent[1] != 2 || sent[2] != 3 {
		t.Errorf("sent sheet = %v", sent)
	}

	if _, err := c.Select(1, 1); !errors.Is(err, errors.ErrState) {
		t.Errorf("select after submit err = %v, want state error", err)
	}

	review, err := c.Review()
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if !review[0].IsCorrect || review[1].IsCorrect {
		t.Errorf("review correctness = %v, %v", review[0].IsCorrect, review[1].IsCorrect)
	}
	q2 := review[1].Options
	if q2[0].Tag != model.TagCorrect || q2[1].Tag != model.TagNeutral || q2[2].Tag != model.TagUserIncorrect {
		t.Errorf("q2 tags = %+v", q2)
	}

	view, err = c.ReviewAgain()
	if err != nil {
		t.Fatalf("ReviewAgain: %v", err)
	}
	if view.State != QuizReady || !view.ReadOnly || view.Score == nil {
		t.Errorf("review-again view = %+v", view)
	}
	if _, err := c.Select(1, 1); !errors.Is(err, errors.ErrState) {
		t.Errorf("select in read-only mode err = %v", err)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, errors.ErrState) {
		t.Errorf("submit in read-only mode err = %v", err)
	}
}

func TestQuizSubmitFailureKeepsAnswers(t *testing.T) {
	backend := newFakeBackend()
	backend.submit = func(context.Context, model.AnswerSheet) (model.ScoreResult, error) {
		return model.ScoreResult{}, errors.Backend("", "An error occurred while submitting the quiz.")
	}
	c := readyQuiz(t, backend)

	c.Select(1, 1)
	c.Select(2, 1)
	view, err := c.Submit(context.Background())
	if !errors.Is(err, errors.ErrBackend) {
		t.Fatalf("err = %v, want backend error", err)
	}
	if view.State != QuizReady || view.Answered != 2 || view.Score != nil {
		t.Errorf("view = %+v", view)
	}
	if view.Error != "An error occurred while submitting the quiz." {
		t.Errorf("error = %q", view.Error)
	}
}

func TestQuizRejectsInconsistentScore(t *testing.T) {
	backend := newFakeBackend()
	backend.submit = func(context.Context, model.AnswerSheet) (model.ScoreResult, error) {
		return model.ScoreResult{Correct: 3, Total: 2}, nil
	}
	c := readyQuiz(t, backend)

	c.Select(1, 1)
	c.Select(2, 1)
	view, err := c.Submit(context.Background())
	if err == nil || view.State != QuizReady {
		t.Fatalf("err = %v, view = %+v", err, view)
	}
}

func TestQuizStaleLoadIsDropped(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32
	backend.fetch = func(context.Context) (model.QuestionSet, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return model.QuestionSet{9: {Text: "old", Options: model.Options{1: "x"}, Answer: "x"}}, nil
		}
		return sampleQuestions(), nil
	}
	c := NewQuizController(backend, zerolog.Nop())

	done := make(chan error)
	go func() {
		_, err := c.Start(context.Background())
		done <- err
	}()
	<-started

	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, errors.ErrStale) {
		t.Fatalf("first Start err = %v, want stale", err)
	}
	if view := c.View(); view.Total != 2 || view.Questions[0].Text != "Q1" {
		t.Errorf("stale load overwrote newer state: %+v", view)
	}
}

func TestQuizHomeDropsInflightSubmit(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	started := make(chan struct{})
	backend.submit = func(context.Context, model.AnswerSheet) (model.ScoreResult, error) {
		close(started)
		<-release
		return model.ScoreResult{Correct: 2, Total: 2}, nil
	}
	c := readyQuiz(t, backend)
	c.Select(1, 2)
	c.Select(2, 1)

	done := make(chan error)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-started

	view := c.Home()
	close(release)

	if err := <-done; !errors.Is(err, errors.ErrStale) {
		t.Fatalf("submit err = %v, want stale", err)
	}
	if view.State != QuizIdle || c.View().Score != nil {
		t.Errorf("home did not tear down the session: %+v", c.View())
	}
}

func TestQuizStartClearsAnswers(t *testing.T) {
	c := readyQuiz(t, newFakeBackend())
	c.Select(1, 1)

	view, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if view.Answered != 0 {
		t.Errorf("answers survived a new session: %+v", view)
	}
}
