package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
)

// Translator is the backend translation endpoint.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Language is one entry of the language picker.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supportedLanguages = []Language{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"ru", "Russian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"hi", "Hindi"},
	{"ar", "Arabic"},
}

// TranslationService translates summaries out of the base language.
type TranslationService struct {
	backend      Translator
	baseLanguage string
	log          zerolog.Logger
}

// NewTranslationService creates a new TranslationService.
func NewTranslationService(backend Translator, baseLanguage string, log zerolog.Logger) *TranslationService {
	return &TranslationService{
		backend:      backend,
		baseLanguage: strings.ToLower(baseLanguage),
		log:          log,
	}
}

// BaseLanguage is the language summaries arrive in.
func (s *TranslationService) BaseLanguage() string {
	return s.baseLanguage
}

// Languages lists the selectable target languages.
func (s *TranslationService) Languages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// Supported reports whether code is a selectable language.
func (s *TranslationService) Supported(code string) bool {
	for _, l := range supportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Translate returns text in the target language. The base language always
// yields "" without contacting the backend.
func (s *TranslationService) Translate(ctx context.Context, text, target string) (string, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == s.baseLanguage {
		return "", nil
	}
	if !s.Supported(target) {
		return "", errors.Validationf("unsupported language %q", target)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.Validation("There is no summary to translate.")
	}

	translated, err := s.backend.Translate(ctx, text, target)
	if err != nil {
		s.log.Warn().Err(err).Str("language", target).Msg("Translation failed")
		return "", err
	}

	s.log.Debug().Str("language", target).Int("chars", len(translated)).Msg("Translated summary")
	return translated, nil
}
