package model

import (
	"path/filepath"
	"strings"
)

// SourceKind identifies what the user submitted.
type SourceKind string

const (
	SourceImage   SourceKind = "image"
	SourcePDF     SourceKind = "pdf"
	SourceDoc     SourceKind = "doc"
	SourcePPT     SourceKind = "ppt"
	SourceText    SourceKind = "text"
	SourceVideo   SourceKind = "video"
	SourceWebsite SourceKind = "website"
)

// IsFile reports whether the kind carries an uploaded file.
func (k SourceKind) IsFile() bool {
	switch k {
	case SourceImage, SourcePDF, SourceDoc, SourcePPT:
		return true
	}
	return false
}

// IsLink reports whether the kind carries a URL.
func (k SourceKind) IsLink() bool {
	return k == SourceVideo || k == SourceWebsite
}

// fileExtensions lists the extensions the backend accepts per file kind.
var fileExtensions = map[SourceKind][]string{
	SourceImage: {".jpg", ".jpeg", ".png"},
	SourcePDF:   {".pdf"},
	SourceDoc:   {".doc", ".docx"},
	SourcePPT:   {".pptx"},
}

// AcceptsFile reports whether name has an extension the kind accepts.
func (k SourceKind) AcceptsFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range fileExtensions[k] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Extensions returns the accepted extensions for a file kind.
func (k SourceKind) Extensions() []string {
	return fileExtensions[k]
}

// Summary options as sent to the backend.
const (
	SummaryAbstractive = "abstractive"
	SummaryExtractive  = "extractive"

	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"

	PerformanceFaster = "faster"
	PerformanceBetter = "better"
)

// UploadSelection is one submit cycle's worth of user input.
type UploadSelection struct {
	Kind          SourceKind `json:"kind" validate:"required,oneof=image pdf doc ppt text video website"`
	FileName      string     `json:"file_name,omitempty"`
	File          []byte     `json:"-"`
	Link          string     `json:"link,omitempty"`
	Text          string     `json:"text,omitempty"`
	SummaryType   string     `json:"summary_type" validate:"required,oneof=abstractive extractive"`
	SummaryLength string     `json:"summary_length" validate:"required,oneof=short medium long"`
	Performance   string     `json:"performance,omitempty" validate:"omitempty,oneof=faster better"`
}

// ApplyDefaults fills unset options with the form's initial choices.
func (s *UploadSelection) ApplyDefaults() {
	if s.SummaryType == "" {
		s.SummaryType = SummaryAbstractive
	}
	if s.SummaryLength == "" {
		s.SummaryLength = LengthShort
	}
	if s.Kind == SourceImage && s.Performance == "" {
		s.Performance = PerformanceFaster
	}
}

// SummaryResult is what a successful summarize call yields.
type SummaryResult struct {
	Summary         string           `json:"summary"`
	Message         string           `json:"message,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Recommendation is one related video.
type Recommendation struct {
	Title      string  `json:"title"`
	VideoID    string  `json:"videoId"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	Length     float64 `json:"length,omitempty"`
	Channel    string  `json:"channel,omitempty"`
	Views      int64   `json:"views,omitempty"`
	Likes      int64   `json:"likes,omitempty"`
	Popularity int64   `json:"popularity,omitempty"`
}

// ClickbaitVerdict is the backend's judgement of a video's title.
type ClickbaitVerdict struct {
	Title               string  `json:"title"`
	Label               string  `json:"label"`
	AvgCosineSimilarity float64 `json:"avg_cosine_similarity"`
	DislikeLikeRatio    float64 `json:"dislike_like_ratio"`
	FakeCommentRatio    float64 `json:"fake_comment_ratio"`
	// Flagged mirrors IsClickbait for the panel.
	Flagged bool `json:"is_clickbait"`
}

// IsClickbait reports the label as a boolean.
func (v ClickbaitVerdict) IsClickbait() bool {
	return strings.EqualFold(v.Label, "Clickbait")
}
