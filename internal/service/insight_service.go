package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
)

// InsightBackend serves the YouTube side panels.
type InsightBackend interface {
	Recommendations(ctx context.Context, videoURL string) ([]model.Recommendation, error)
	DetectClickbait(ctx context.Context, videoURL string) (*model.ClickbaitVerdict, error)
}

// InsightService fetches related videos and clickbait verdicts.
type InsightService struct {
	backend InsightBackend
	log     zerolog.Logger
}

// NewInsightService creates a new InsightService.
func NewInsightService(backend InsightBackend, log zerolog.Logger) *InsightService {
	return &InsightService{backend: backend, log: log}
}

// Recommendations returns videos related to videoURL.
func (s *InsightService) Recommendations(ctx context.Context, videoURL string) ([]model.Recommendation, error) {
	if err := requireYouTube(videoURL); err != nil {
		return nil, err
	}

	recs, err := s.backend.Recommendations(ctx, videoURL)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to fetch recommendations")
		return nil, err
	}
	return recs, nil
}

// Clickbait returns the backend's verdict on videoURL.
func (s *InsightService) Clickbait(ctx context.Context, videoURL string) (*model.ClickbaitVerdict, error) {
	if err := requireYouTube(videoURL); err != nil {
		return nil, err
	}

	verdict, err := s.backend.DetectClickbait(ctx, videoURL)
	if err != nil {
		s.log.Warn().Err(err).Msg("Clickbait detection failed")
		return nil, err
	}

	verdict.Flagged = verdict.IsClickbait()
	s.log.Debug().Str("label", verdict.Label).Bool("clickbait", verdict.Flagged).Msg("Clickbait verdict")
	return verdict, nil
}

func requireYouTube(videoURL string) error {
	if strings.TrimSpace(videoURL) == "" {
		return errors.Validation("Submit a YouTube video first.")
	}
	u, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil || u.Host == "" || !IsYouTubeURL(u) {
		return errors.Validation("Please enter a valid YouTube URL.")
	}
	return nil
}
