package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
)

func homePage(t *testing.T, backend *fakeBackend, engine *silentEngine) *Page {
	t.Helper()
	if engine == nil {
		engine = &silentEngine{}
	}
	p, err := newTestPages(backend, engine).Page(PageHome)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	return p
}

func TestPageServiceLookup(t *testing.T) {
	pages := newTestPages(newFakeBackend(), &silentEngine{})

	want := []string{PageHome, PageUploadDoc, PageUploadImage, PageUploadPPT, PageUploadPdf}
	got := pages.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v", got)
	}
	if _, err := pages.Page("quizzz"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestPageSummarizeVideo(t *testing.T) {
	backend := newFakeBackend()
	backend.summarize = func(_ context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
		if sel.Kind != model.SourceVideo {
			t.Errorf("kind = %s, want video", sel.Kind)
		}
		return &model.SummaryResult{
			Summary:         "the summary",
			Recommendations: []model.Recommendation{{Title: "next", VideoID: "v2"}},
		}, nil
	}
	p := homePage(t, backend, nil)

	view, err := p.Summarize(context.Background(), model.UploadSelection{Link: "https://youtu.be/v1"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if view.DisplayText != "the summary" || view.VideoURL != "https://youtu.be/v1" || len(view.Recommendations) != 1 {
		t.Errorf("view = %+v", view)
	}
}

func TestPageFailedSummaryKeepsPriorState(t *testing.T) {
	backend := newFakeBackend()
	fail := false
	backend.summarize = func(context.Context, model.UploadSelection) (*model.SummaryResult, error) {
		if fail {
			return nil, errors.Backend("Video has no transcript", "Error generating summary")
		}
		return &model.SummaryResult{Summary: "first"}, nil
	}
	p := homePage(t, backend, nil)

	p.Summarize(context.Background(), model.UploadSelection{Link: "https://youtu.be/a"})
	fail = true
	view, err := p.Summarize(context.Background(), model.UploadSelection{Link: "https://youtu.be/b"})
	if !errors.Is(err, errors.ErrBackend) {
		t.Fatalf("err = %v", err)
	}
	if view.Summary != "first" || view.Notice != "Video has no transcript" {
		t.Errorf("view = %+v", view)
	}
}

func TestPageStaleSummaryIsDropped(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32
	backend.summarize = func(context.Context, model.UploadSelection) (*model.SummaryResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return &model.SummaryResult{Summary: "old"}, nil
		}
		return &model.SummaryResult{Summary: "new"}, nil
	}
	p := homePage(t, backend, nil)

	done := make(chan error)
	go func() {
		_, err := p.Summarize(context.Background(), model.UploadSelection{Kind: model.SourceText, Text: "one"})
		done <- err
	}()
	<-started

	if _, err := p.Summarize(context.Background(), model.UploadSelection{Kind: model.SourceText, Text: "two"}); err != nil {
		t.Fatalf("second Summarize: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, errors.ErrStale) {
		t.Fatalf("first Summarize err = %v, want stale", err)
	}
	if got := p.View().Summary; got != "new" {
		t.Errorf("summary = %q, want new", got)
	}
}

func TestPageTranslate(t *testing.T) {
	backend := newFakeBackend()
	backend.summarize = func(context.Context, model.UploadSelection) (*model.SummaryResult, error) {
		return &model.SummaryResult{Summary: "hello"}, nil
	}
	fail := false
	backend.translate = func(_ context.Context, text, target string) (string, error) {
		if fail {
			return "", errors.Transport(context.DeadlineExceeded)
		}
		return "bonjour", nil
	}
	p := homePage(t, backend, nil)
	p.Summarize(context.Background(), model.UploadSelection{Kind: model.SourceText, Text: "hello there"})

	view, err := p.Translate(context.Background(), "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if view.DisplayText != "bonjour" || view.Summary != "hello" || view.Language != "fr" {
		t.Errorf("view = %+v", view)
	}

	fail = true
	view, err = p.Translate(context.Background(), "de")
	if !errors.Is(err, errors.ErrTransport) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if view.DisplayText != "bonjour" || view.Language != "fr" || view.Notice != errors.MsgTransport {
		t.Errorf("failed translation changed state: %+v", view)
	}

	view, err = p.Translate(context.Background(), "en")
	if err != nil {
		t.Fatalf("Translate(en): %v", err)
	}
	if view.DisplayText != "hello" || view.TranslatedText != "" {
		t.Errorf("base language view = %+v", view)
	}
}

func TestPageSpeakUsesDisplayedText(t *testing.T) {
	backend := newFakeBackend()
	backend.summarize = func(context.Context, model.UploadSelection) (*model.SummaryResult, error) {
		return &model.SummaryResult{Summary: "hello"}, nil
	}
	backend.translate = func(context.Context, string, string) (string, error) { return "hola", nil }
	engine := &silentEngine{}
	p := homePage(t, backend, engine)

	if _, err := p.Speak(context.Background()); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("speaking an empty page err = %v", err)
	}

	p.Summarize(context.Background(), model.UploadSelection{Kind: model.SourceText, Text: "x"})
	p.Translate(context.Background(), "es")

	view, err := p.Speak(context.Background())
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if view.Playback.State != model.Playing || engine.last.Text != "hola" || engine.last.Language != "es" {
		t.Errorf("playback = %+v, utterance = %+v", view.Playback, engine.last)
	}

	// Changing the summary mid-speech does not restart it.
	p.Translate(context.Background(), "en")
	if got := p.View().Playback; got.Text != "hola" || got.State != model.Playing {
		t.Errorf("playback after translation change = %+v", got)
	}
}

func TestPageModeAndInsights(t *testing.T) {
	backend := newFakeBackend()
	backend.summarize = func(context.Context, model.UploadSelection) (*model.SummaryResult, error) {
		return &model.SummaryResult{Summary: "s"}, nil
	}
	backend.clickbait = func(_ context.Context, videoURL string) (*model.ClickbaitVerdict, error) {
		if videoURL != "https://youtu.be/v1" {
			t.Errorf("video url = %q", videoURL)
		}
		return &model.ClickbaitVerdict{Title: "t", Label: "Clickbait"}, nil
	}
	backend.recs = func(context.Context, string) ([]model.Recommendation, error) {
		return nil, errors.Backend("Invalid YouTube URL", "Could not fetch recommendations.")
	}
	p := homePage(t, backend, nil)

	if _, err := p.Clickbait(context.Background(), ""); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("clickbait without a video err = %v", err)
	}

	p.Summarize(context.Background(), model.UploadSelection{Link: "https://youtu.be/v1"})
	view, err := p.Clickbait(context.Background(), "")
	if err != nil {
		t.Fatalf("Clickbait: %v", err)
	}
	if view.Clickbait == nil || !view.Clickbait.Flagged {
		t.Errorf("clickbait = %+v", view.Clickbait)
	}
	if raw, _ := json.Marshal(view.Clickbait); !strings.Contains(string(raw), `"is_clickbait":true`) {
		t.Errorf("clickbait json = %s", raw)
	}

	view, err = p.Recommendations(context.Background(), "")
	if !errors.Is(err, errors.ErrBackend) || view.Notice != "Invalid YouTube URL" {
		t.Errorf("recommendations err = %v, notice = %q", err, view.Notice)
	}

	view, _ = p.ToggleMode()
	if view.Mode != ModeWebsite || view.Clickbait != nil {
		t.Errorf("after toggle = %+v", view)
	}
	if _, err := p.Clickbait(context.Background(), ""); !errors.Is(err, errors.ErrState) {
		t.Errorf("clickbait in website mode err = %v", err)
	}

	// Website mode routes links to the website endpoint.
	backend.summarize = func(_ context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
		if sel.Kind != model.SourceWebsite {
			t.Errorf("kind = %s, want website", sel.Kind)
		}
		return &model.SummaryResult{Summary: "article"}, nil
	}
	if _, err := p.Summarize(context.Background(), model.UploadSelection{Link: "https://example.com/a"}); err != nil {
		t.Fatalf("website Summarize: %v", err)
	}
}

func TestPageGenerateQuiz(t *testing.T) {
	backend := newFakeBackend()
	backend.quiz = func(context.Context, model.UploadSelection) (string, error) {
		return "Quiz generated successfully", nil
	}
	pages := newTestPages(backend, &silentEngine{})
	doc, _ := pages.Page(PageUploadDoc)
	image, _ := pages.Page(PageUploadImage)

	gen, err := doc.GenerateQuiz(context.Background(), model.UploadSelection{FileName: "a.docx", File: []byte("x")})
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if gen.Navigate != QuizRoute || gen.Message != "Quiz generated successfully" {
		t.Errorf("generation = %+v", gen)
	}

	if _, err := image.GenerateQuiz(context.Background(), model.UploadSelection{FileName: "a.png", File: []byte("x")}); err == nil {
		t.Error("image page generated a quiz")
	}
	if image.View().Notice == "" {
		t.Error("failed quiz generation left no notice")
	}
}

func TestPageNewSummaryDropsInflightTranslation(t *testing.T) {
	backend := newFakeBackend()
	backend.summarize = func(_ context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
		return &model.SummaryResult{Summary: sel.Text}, nil
	}
	started := make(chan struct{})
	release := make(chan struct{})
	backend.translate = func(_ context.Context, text, _ string) (string, error) {
		close(started)
		<-release
		return "ES(" + text + ")", nil
	}
	p := homePage(t, backend, nil)

	if _, err := p.Summarize(context.Background(), model.UploadSelection{Text: "first"}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	translated := make(chan error, 1)
	go func() {
		_, err := p.Translate(context.Background(), "es")
		translated <- err
	}()
	<-started

	if _, err := p.Summarize(context.Background(), model.UploadSelection{Text: "second"}); err != nil {
		t.Fatalf("second Summarize: %v", err)
	}
	close(release)

	if err := <-translated; !errors.Is(err, errors.ErrStale) {
		t.Errorf("translate err = %v, want stale", err)
	}
	view := p.View()
	if view.Summary != "second" || view.TranslatedText != "" || view.DisplayText != "second" || view.Language != "en" {
		t.Errorf("view = %+v", view)
	}
}
