package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
)

// QuizState is the quiz lifecycle state.
type QuizState string

const (
	QuizIdle       QuizState = "idle"
	QuizLoading    QuizState = "loading"
	QuizReady      QuizState = "ready"
	QuizSubmitting QuizState = "submitting"
	QuizReviewing  QuizState = "reviewing"
	QuizFailed     QuizState = "failed"
)

// QuizBackend is the part of the backend the quiz controller talks to.
type QuizBackend interface {
	FetchQuiz(ctx context.Context) (model.QuestionSet, error)
	SubmitResults(ctx context.Context, sheet model.AnswerSheet) (model.ScoreResult, error)
}

// --- Views ---

// QuizOption is one selectable option.
type QuizOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// QuizQuestion is one question as displayed, options in id order.
type QuizQuestion struct {
	ID       int          `json:"id"`
	Text     string       `json:"question"`
	Options  []QuizOption `json:"options"`
	Selected int          `json:"selected,omitempty"`
}

// QuizView is a read-only copy of the controller's state.
type QuizView struct {
	State      QuizState          `json:"state"`
	Questions  []QuizQuestion     `json:"questions,omitempty"`
	Answered   int                `json:"answered"`
	Total      int                `json:"total"`
	ReadOnly   bool               `json:"read_only"`
	Score      *model.ScoreResult `json:"score,omitempty"`
	Percentage float64            `json:"percentage,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// QuizController runs one quiz session: load, answer, submit, review.
type QuizController struct {
	backend QuizBackend
	log     zerolog.Logger

	mu       sync.Mutex
	seq      sequence
	state    QuizState
	set      model.QuestionSet
	sheet    model.AnswerSheet
	score    *model.ScoreResult
	readOnly bool
	errMsg   string
}

// NewQuizController creates a controller with no session.
func NewQuizController(backend QuizBackend, log zerolog.Logger) *QuizController {
	return &QuizController{
		backend: backend,
		log:     log,
		state:   QuizIdle,
		sheet:   make(model.AnswerSheet),
	}
}

// Start begins a new session: the answer sheet is cleared and the latest
// question set is fetched. A failed load is terminal until the next Start.
func (c *QuizController) Start(ctx context.Context) (QuizView, error) {
	c.mu.Lock()
	seq := c.seq.next()
	c.state = QuizLoading
	c.set = nil
	c.sheet = make(model.AnswerSheet)
	c.score = nil
	c.readOnly = false
	c.errMsg = ""
	c.mu.Unlock()

	set, err := c.backend.FetchQuiz(ctx)
	if err == nil {
		if verr := set.Validate(); verr != nil {
			err = errors.Wrap(errors.ErrBackend, "No quiz available to display. Please generate one.", verr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seq.latest(seq) {
		c.log.Debug().Uint64("seq", seq).Msg("Dropping stale quiz load")
		return c.view(), errors.Stale("quiz load")
	}
	if err != nil {
		c.state = QuizFailed
		c.errMsg = messageOf(err)
		c.log.Warn().Err(err).Msg("Failed to load quiz")
		return c.view(), err
	}

	c.set = set
	c.state = QuizReady
	c.log.Info().Int("questions", len(set)).Msg("Quiz loaded")
	return c.view(), nil
}

// Select records the chosen option for a question, replacing any earlier choice.
func (c *QuizController) Select(questionID, optionID int) (QuizView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != QuizReady || c.readOnly {
		return c.view(), errors.State("answers can no longer be changed")
	}
	q, ok := c.set[questionID]
	if !ok {
		return c.view(), errors.Validationf("unknown question %d", questionID)
	}
	if _, ok := q.Options[optionID]; !ok {
		return c.view(), errors.Validationf("question %d has no option %d", questionID, optionID)
	}

	c.sheet[questionID] = optionID
	c.errMsg = ""
	return c.view(), nil
}

// Submit sends the answer sheet for scoring. An incomplete sheet is rejected
// without contacting the backend. On failure the sheet is kept and the quiz
// returns to Ready.
func (c *QuizController) Submit(ctx context.Context) (QuizView, error) {
	c.mu.Lock()
	if c.state != QuizReady || c.readOnly {
		defer c.mu.Unlock()
		return c.view(), errors.State("quiz is not accepting submissions")
	}
	if missing := c.sheet.Unanswered(c.set); missing > 0 {
		defer c.mu.Unlock()
		total := len(c.set)
		err := errors.Validationf("Please answer all questions before submitting (%d out of %d answered).", total-missing, total)
		c.errMsg = err.Message
		return c.view(), err
	}

	seq := c.seq.next()
	c.state = QuizSubmitting
	c.errMsg = ""
	sheet := c.sheet.Clone()
	size := len(c.set)
	c.mu.Unlock()

	score, err := c.backend.SubmitResults(ctx, sheet)
	if err == nil {
		if verr := score.Validate(size); verr != nil {
			err = errors.Wrap(errors.ErrBackend, "An error occurred while submitting the quiz.", verr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seq.latest(seq) {
		c.log.Debug().Uint64("seq", seq).Msg("Dropping stale quiz result")
		return c.view(), errors.Stale("quiz submit")
	}
	if err != nil {
		c.state = QuizReady
		c.errMsg = messageOf(err)
		c.log.Warn().Err(err).Msg("Quiz submission failed")
		return c.view(), err
	}

	c.score = &score
	c.state = QuizReviewing
	c.log.Info().Int("correct", score.Correct).Int("total", score.Total).Msg("Quiz scored")
	return c.view(), nil
}

// Review tags every option against the correct answer and the user's choice.
func (c *QuizController) Review() ([]model.ReviewedQuestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.score == nil {
		return nil, errors.State("quiz has not been scored")
	}
	return model.Review(c.set, c.sheet)
}

// ReviewAgain re-displays the answered quiz read-only, keeping the score.
func (c *QuizController) ReviewAgain() (QuizView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != QuizReviewing {
		return c.view(), errors.State("nothing to review")
	}
	c.state = QuizReady
	c.readOnly = true
	return c.view(), nil
}

// Home tears the session down. Responses still in flight are dropped.
func (c *QuizController) Home() QuizView {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq.next()
	c.state = QuizIdle
	c.set = nil
	c.sheet = make(model.AnswerSheet)
	c.score = nil
	c.readOnly = false
	c.errMsg = ""
	return c.view()
}

// View returns the current state.
func (c *QuizController) View() QuizView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *QuizController) view() QuizView {
	v := QuizView{
		State:    c.state,
		Total:    len(c.set),
		Answered: len(c.sheet),
		ReadOnly: c.readOnly,
		Error:    c.errMsg,
	}
	if c.score != nil {
		score := *c.score
		v.Score = &score
		v.Percentage = score.Percentage()
	}
	for _, qid := range c.set.IDs() {
		q := c.set[qid]
		qv := QuizQuestion{
			ID:       qid,
			Text:     q.Text,
			Selected: c.sheet[qid],
			Options:  make([]QuizOption, 0, len(q.Options)),
		}
		for _, oid := range q.Options.IDs() {
			qv.Options = append(qv.Options, QuizOption{ID: oid, Text: q.Options[oid]})
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}
