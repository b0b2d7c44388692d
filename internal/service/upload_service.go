package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
	"github.com/windfall/recap_client/internal/validator"
)

// Summarizer is the backend's summarization and quiz-generation surface.
type Summarizer interface {
	SummarizeLink(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error)
	SummarizeFile(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error)
	SummarizeText(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error)
	GenerateQuiz(ctx context.Context, sel model.UploadSelection) (string, error)
}

// UploadController validates one page's submissions and forwards them.
type UploadController struct {
	kinds    []model.SourceKind
	quizzes  bool
	backend  Summarizer
	validate *validator.Validator
	log      zerolog.Logger
}

// NewUploadController creates a controller accepting the given kinds.
// quizzes enables quiz generation from the same inputs.
func NewUploadController(kinds []model.SourceKind, quizzes bool, backend Summarizer, v *validator.Validator, log zerolog.Logger) *UploadController {
	return &UploadController{
		kinds:    kinds,
		quizzes:  quizzes,
		backend:  backend,
		validate: v,
		log:      log,
	}
}

// Accepts reports whether the controller handles kind.
func (u *UploadController) Accepts(kind model.SourceKind) bool {
	for _, k := range u.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// FileKind is the single file kind this controller accepts, if any.
func (u *UploadController) FileKind() (model.SourceKind, bool) {
	for _, k := range u.kinds {
		if k.IsFile() {
			return k, true
		}
	}
	return "", false
}

// Validate checks a selection locally. Nothing is sent when it fails.
func (u *UploadController) Validate(sel *model.UploadSelection) error {
	sel.ApplyDefaults()
	if !u.Accepts(sel.Kind) {
		return errors.Validationf("this page does not accept %s input", sel.Kind)
	}
	if err := u.validate.Struct(sel); err != nil {
		return err
	}

	switch {
	case sel.Kind.IsFile():
		if sel.FileName == "" || len(sel.File) == 0 {
			return errors.Validationf("Please select a %s file.", sel.Kind)
		}
		if !sel.Kind.AcceptsFile(sel.FileName) {
			return errors.Validationf("Please upload a valid %s file (%s).", sel.Kind, strings.Join(sel.Kind.Extensions(), ", ")).
				WithDetails(map[string]interface{}{"file_name": sel.FileName})
		}
	case sel.Kind.IsLink():
		return validateLink(sel.Kind, sel.Link)
	case sel.Kind == model.SourceText:
		if strings.TrimSpace(sel.Text) == "" {
			return errors.Validation("Please enter some text.")
		}
	}
	return nil
}

// Summarize validates and submits a selection.
func (u *UploadController) Summarize(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	if err := u.Validate(&sel); err != nil {
		return nil, err
	}

	var (
		res *model.SummaryResult
		err error
	)
	switch {
	case sel.Kind.IsLink():
		res, err = u.backend.SummarizeLink(ctx, sel)
	case sel.Kind.IsFile():
		res, err = u.backend.SummarizeFile(ctx, sel)
	default:
		res, err = u.backend.SummarizeText(ctx, sel)
	}
	if err != nil {
		u.log.Warn().Err(err).Str("kind", string(sel.Kind)).Msg("Summarization failed")
		return nil, err
	}

	u.log.Info().Str("kind", string(sel.Kind)).Int("summary_chars", len(res.Summary)).Msg("Summary received")
	return res, nil
}

// GenerateQuiz validates a document or text and asks the backend for a quiz.
func (u *UploadController) GenerateQuiz(ctx context.Context, sel model.UploadSelection) (string, error) {
	if !u.quizzes {
		return "", errors.Validation("quizzes cannot be generated from this page")
	}
	if sel.Kind.IsLink() || sel.Kind == model.SourceImage {
		return "", errors.Validationf("cannot generate a quiz from a %s", sel.Kind)
	}
	if err := u.Validate(&sel); err != nil {
		return "", err
	}

	msg, err := u.backend.GenerateQuiz(ctx, sel)
	if err != nil {
		u.log.Warn().Err(err).Str("kind", string(sel.Kind)).Msg("Quiz generation failed")
		return "", err
	}

	u.log.Info().Str("kind", string(sel.Kind)).Msg("Quiz generated")
	return msg, nil
}

func validateLink(kind model.SourceKind, link string) error {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Validation("Please enter a valid URL.")
	}

	youtube := IsYouTubeURL(u)
	switch {
	case kind == model.SourceVideo && !youtube:
		return errors.Validation("Please enter a valid YouTube URL.")
	case kind == model.SourceWebsite && youtube:
		return errors.Validation("YouTube links must be submitted in YouTube mode.")
	}
	return nil
}

// IsYouTubeURL reports whether u points at YouTube.
func IsYouTubeURL(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}
