package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/model"
	"github.com/windfall/recap_client/internal/playback"
	"github.com/windfall/recap_client/internal/validator"
)

// fakeBackend records calls and answers through overridable hooks.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	summarize func(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error)
	quiz      func(ctx context.Context, sel model.UploadSelection) (string, error)
	fetch     func(ctx context.Context) (model.QuestionSet, error)
	submit    func(ctx context.Context, sheet model.AnswerSheet) (model.ScoreResult, error)
	translate func(ctx context.Context, text, target string) (string, error)
	recs      func(ctx context.Context, videoURL string) ([]model.Recommendation, error)
	clickbait func(ctx context.Context, videoURL string) (*model.ClickbaitVerdict, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) SummarizeLink(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	f.hit("link")
	return f.summarize(ctx, sel)
}

func (f *fakeBackend) SummarizeFile(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	f.hit("file")
	return f.summarize(ctx, sel)
}

func (f *fakeBackend) SummarizeText(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	f.hit("text")
	return f.summarize(ctx, sel)
}

func (f *fakeBackend) GenerateQuiz(ctx context.Context, sel model.UploadSelection) (string, error) {
	f.hit("quiz")
	return f.quiz(ctx, sel)
}

func (f *fakeBackend) FetchQuiz(ctx context.Context) (model.QuestionSet, error) {
	f.hit("fetch")
	return f.fetch(ctx)
}

func (f *fakeBackend) SubmitResults(ctx context.Context, sheet model.AnswerSheet) (model.ScoreResult, error) {
	f.hit("submit")
	return f.submit(ctx, sheet)
}

func (f *fakeBackend) Translate(ctx context.Context, text, target string) (string, error) {
	f.hit("translate")
	return f.translate(ctx, text, target)
}

func (f *fakeBackend) Recommendations(ctx context.Context, videoURL string) ([]model.Recommendation, error) {
	f.hit("recs")
	return f.recs(ctx, videoURL)
}

func (f *fakeBackend) DetectClickbait(ctx context.Context, videoURL string) (*model.ClickbaitVerdict, error) {
	f.hit("clickbait")
	return f.clickbait(ctx, videoURL)
}

// silentEngine accepts every utterance and never finishes one.
type silentEngine struct {
	mu   sync.Mutex
	last playback.Utterance
}

func (e *silentEngine) Start(u playback.Utterance, _ playback.DoneFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = u
	return nil
}

func (e *silentEngine) Pause(string)              {}
func (e *silentEngine) Resume(string)             {}
func (e *silentEngine) Cancel(string)             {}
func (e *silentEngine) SetVolume(string, float64) {}
func (e *silentEngine) SetRate(string, float64)   {}

func newTestPages(backend *fakeBackend, engine playback.Engine) *PageService {
	log := zerolog.Nop()
	return NewPageService(PageDeps{
		Backend:     backend,
		Translation: NewTranslationService(backend, "en", log),
		Insights:    NewInsightService(backend, log),
		Validator:   validator.New(),
		Engine:      engine,
		Lease:       playback.NewMemoryLease(0),
	}, log)
}

func sampleQuestions() model.QuestionSet {
	return model.QuestionSet{
		1: {Text: "Q1", Options: model.Options{1: "A", 2: "B"}, Answer: "B"},
		2: {Text: "Q2", Options: model.Options{1: "C", 2: "D", 3: "E"}, Answer: "C"},
	}
}
