package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
	"github.com/windfall/recap_client/internal/playback"
	"github.com/windfall/recap_client/internal/validator"
)

// Page routes.
const (
	PageHome        = "home"
	PageUploadImage = "uploadImage"
	PageUploadPdf   = "uploadPdf"
	PageUploadDoc   = "uploadDoc"
	PageUploadPPT   = "uploadPPT"
)

// QuizRoute is where the browser goes after a quiz is generated.
const QuizRoute = "/quiz"

// EventPage is published whenever a page's presenter state changes.
const EventPage = "page.updated"

// LinkMode selects which kind of link the home page accepts.
type LinkMode string

const (
	ModeYouTube LinkMode = "youtube"
	ModeWebsite LinkMode = "website"
)

// PageView is what the presenter renders.
type PageView struct {
	Page            string                  `json:"page"`
	Mode            LinkMode                `json:"mode,omitempty"`
	Summary         string                  `json:"summary"`
	TranslatedText  string                  `json:"translated_text"`
	DisplayText     string                  `json:"display_text"`
	Language        string                  `json:"language"`
	Notice          string                  `json:"notice,omitempty"`
	VideoURL        string                  `json:"video_url,omitempty"`
	Recommendations []model.Recommendation  `json:"recommendations,omitempty"`
	Clickbait       *model.ClickbaitVerdict `json:"clickbait,omitempty"`
	Playback        model.PlaybackSnapshot  `json:"playback"`
}

// QuizGeneration tells the browser where to go after a quiz was generated.
type QuizGeneration struct {
	Message  string `json:"message"`
	Navigate string `json:"navigate"`
}

// Page composes an upload controller, the summary presenter, translation
// and speech playback for one route.
type Page struct {
	name        string
	upload      *UploadController
	translation *TranslationService
	insights    *InsightService
	speech      *playback.Controller
	publisher   playback.Publisher
	log         zerolog.Logger

	mu              sync.Mutex
	mode            LinkMode
	summary         string
	translated      string
	language        string
	notice          string
	videoURL        string
	recommendations []model.Recommendation
	clickbait       *model.ClickbaitVerdict

	summarizeSeq sequence
	translateSeq sequence
	recsSeq      sequence
	clickbaitSeq sequence
}

// Name is the page route.
func (p *Page) Name() string {
	return p.name
}

// Speech is the page's playback controller.
func (p *Page) Speech() *playback.Controller {
	return p.speech
}

// Summarize submits a selection and, on success only, replaces the summary.
// An unset kind is inferred from the page and the home page's link mode.
func (p *Page) Summarize(ctx context.Context, sel model.UploadSelection) (PageView, error) {
	p.mu.Lock()
	p.inferKind(&sel)
	seq := p.summarizeSeq.next()
	p.mu.Unlock()

	res, err := p.upload.Summarize(ctx, sel)

	p.mu.Lock()
	if !p.summarizeSeq.latest(seq) {
		p.mu.Unlock()
		p.log.Debug().Uint64("seq", seq).Msg("Dropping stale summary")
		return p.View(), errors.Stale("summarize")
	}
	if err != nil {
		p.notice = messageOf(err)
		return p.commit(), err
	}

	p.summary = res.Summary
	p.translated = ""
	// A translation in flight was built from the old summary.
	p.translateSeq.next()
	p.language = p.translation.BaseLanguage()
	p.notice = res.Message
	p.clickbait = nil
	p.recommendations = nil
	p.videoURL = ""
	if sel.Kind == model.SourceVideo {
		p.videoURL = strings.TrimSpace(sel.Link)
		p.recommendations = res.Recommendations
	}
	return p.commit(), nil
}

// GenerateQuiz asks the backend for a quiz built from the selection.
func (p *Page) GenerateQuiz(ctx context.Context, sel model.UploadSelection) (QuizGeneration, error) {
	p.mu.Lock()
	p.inferKind(&sel)
	if sel.Kind.IsLink() {
		sel.Kind = model.SourceText
	}
	p.mu.Unlock()

	msg, err := p.upload.GenerateQuiz(ctx, sel)

	p.mu.Lock()
	if err != nil {
		p.notice = messageOf(err)
		p.commit()
		return QuizGeneration{}, err
	}
	p.notice = msg
	p.commit()
	return QuizGeneration{Message: msg, Navigate: QuizRoute}, nil
}

// Translate switches the displayed text to language. A failure keeps the
// previous translation and is recorded as the page notice.
func (p *Page) Translate(ctx context.Context, language string) (PageView, error) {
	p.mu.Lock()
	text := p.summary
	seq := p.translateSeq.next()
	p.mu.Unlock()

	translated, err := p.translation.Translate(ctx, text, language)

	p.mu.Lock()
	if !p.translateSeq.latest(seq) {
		p.mu.Unlock()
		p.log.Debug().Uint64("seq", seq).Msg("Dropping stale translation")
		return p.View(), errors.Stale("translate")
	}
	if err != nil {
		p.notice = messageOf(err)
		return p.commit(), err
	}

	p.language = strings.ToLower(strings.TrimSpace(language))
	p.translated = translated
	p.notice = ""
	return p.commit(), nil
}

// ToggleMode switches the home page between YouTube and website links.
func (p *Page) ToggleMode() (PageView, error) {
	p.mu.Lock()
	if p.mode == "" {
		defer p.mu.Unlock()
		return p.view(), errors.State("this page has no link mode")
	}
	if p.mode == ModeYouTube {
		p.mode = ModeWebsite
	} else {
		p.mode = ModeYouTube
	}
	p.recommendations = nil
	p.clickbait = nil
	p.recsSeq.next()
	p.clickbaitSeq.next()
	return p.commit(), nil
}

// Speak toggles playback of the currently displayed text.
func (p *Page) Speak(ctx context.Context) (PageView, error) {
	p.mu.Lock()
	text := displayText(p.summary, p.translated)
	language := p.language
	p.mu.Unlock()

	if _, err := p.speech.Speak(ctx, text, language); err != nil {
		return p.View(), err
	}
	return p.View(), nil
}

// Recommendations refreshes the related-videos panel. An empty videoURL
// uses the last summarized video.
func (p *Page) Recommendations(ctx context.Context, videoURL string) (PageView, error) {
	p.mu.Lock()
	if p.mode != ModeYouTube {
		defer p.mu.Unlock()
		return p.view(), errors.State("recommendations are only available in YouTube mode")
	}
	if videoURL == "" {
		videoURL = p.videoURL
	}
	seq := p.recsSeq.next()
	p.mu.Unlock()

	recs, err := p.insights.Recommendations(ctx, videoURL)

	p.mu.Lock()
	if !p.recsSeq.latest(seq) {
		p.mu.Unlock()
		return p.View(), errors.Stale("recommendations")
	}
	if err != nil {
		p.notice = messageOf(err)
		return p.commit(), err
	}
	p.recommendations = recs
	return p.commit(), nil
}

// Clickbait refreshes the clickbait panel. An empty videoURL uses the last
// summarized video.
func (p *Page) Clickbait(ctx context.Context, videoURL string) (PageView, error) {
	p.mu.Lock()
	if p.mode != ModeYouTube {
		defer p.mu.Unlock()
		return p.view(), errors.State("clickbait detection is only available in YouTube mode")
	}
	if videoURL == "" {
		videoURL = p.videoURL
	}
	seq := p.clickbaitSeq.next()
	p.mu.Unlock()

	verdict, err := p.insights.Clickbait(ctx, videoURL)

	p.mu.Lock()
	if !p.clickbaitSeq.latest(seq) {
		p.mu.Unlock()
		return p.View(), errors.Stale("clickbait")
	}
	if err != nil {
		p.notice = messageOf(err)
		return p.commit(), err
	}
	p.clickbait = verdict
	return p.commit(), nil
}

// View returns the presenter state.
func (p *Page) View() PageView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view()
}

func (p *Page) view() PageView {
	return PageView{
		Page:            p.name,
		Mode:            p.mode,
		Summary:         p.summary,
		TranslatedText:  p.translated,
		DisplayText:     displayText(p.summary, p.translated),
		Language:        p.language,
		Notice:          p.notice,
		VideoURL:        p.videoURL,
		Recommendations: p.recommendations,
		Clickbait:       p.clickbait,
		Playback:        p.speech.Snapshot(),
	}
}

// commit snapshots, unlocks and publishes. Caller holds mu.
func (p *Page) commit() PageView {
	v := p.view()
	p.mu.Unlock()
	p.publisher.Publish(EventPage, v)
	return v
}

// inferKind fills an unset kind. Caller holds mu.
func (p *Page) inferKind(sel *model.UploadSelection) {
	if sel.Kind != "" {
		return
	}
	switch {
	case len(sel.File) > 0 || sel.FileName != "":
		if k, ok := p.upload.FileKind(); ok {
			sel.Kind = k
		}
	case sel.Link != "":
		sel.Kind = model.SourceWebsite
		if p.mode == ModeYouTube {
			sel.Kind = model.SourceVideo
		}
	default:
		sel.Kind = model.SourceText
	}
}

func displayText(summary, translated string) string {
	if translated != "" {
		return translated
	}
	return summary
}

// PageDeps are the collaborators shared by every page.
type PageDeps struct {
	Backend     Summarizer
	Translation *TranslationService
	Insights    *InsightService
	Validator   *validator.Validator
	Engine      playback.Engine
	Lease       playback.Lease
	Voice       playback.VoiceFunc
	Publisher   playback.Publisher
}

// PageService holds one Page per route.
type PageService struct {
	pages map[string]*Page
}

type pageLayout struct {
	kinds   []model.SourceKind
	quizzes bool
	mode    LinkMode
}

var pageLayouts = map[string]pageLayout{
	PageHome:        {kinds: []model.SourceKind{model.SourceVideo, model.SourceWebsite, model.SourceText}, quizzes: true, mode: ModeYouTube},
	PageUploadImage: {kinds: []model.SourceKind{model.SourceImage}},
	PageUploadPdf:   {kinds: []model.SourceKind{model.SourcePDF}, quizzes: true},
	PageUploadDoc:   {kinds: []model.SourceKind{model.SourceDoc}, quizzes: true},
	PageUploadPPT:   {kinds: []model.SourceKind{model.SourcePPT}, quizzes: true},
}

// NewPageService builds every page. Each page gets its own playback
// controller on the shared engine and lease.
func NewPageService(deps PageDeps, log zerolog.Logger) *PageService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}

	pages := make(map[string]*Page, len(pageLayouts))
	for name, layout := range pageLayouts {
		pageLog := log.With().Str("page", name).Logger()
		pages[name] = &Page{
			name:        name,
			upload:      NewUploadController(layout.kinds, layout.quizzes, deps.Backend, deps.Validator, pageLog),
			translation: deps.Translation,
			insights:    deps.Insights,
			speech:      playback.NewController(name, deps.Engine, deps.Lease, deps.Voice, publisher, log),
			publisher:   publisher,
			log:         pageLog,
			mode:        layout.mode,
			language:    deps.Translation.BaseLanguage(),
		}
	}
	return &PageService{pages: pages}
}

// Page returns the page for a route.
func (s *PageService) Page(name string) (*Page, error) {
	p, ok := s.pages[name]
	if !ok {
		return nil, errors.NotFound("page " + name)
	}
	return p, nil
}

// Names lists the page routes.
func (s *PageService) Names() []string {
	names := make([]string, 0, len(s.pages))
	for name := range s.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StopAll silences every page, used on shutdown.
func (s *PageService) StopAll(ctx context.Context) {
	for _, p := range s.pages {
		p.speech.Stop(ctx)
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}
