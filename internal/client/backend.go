package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
)

// BackendClient speaks the summarization backend's HTTP contract.
type BackendClient struct {
	baseURL string
	client  *http.Client
}

// NewBackendClient creates a backend client. A zero timeout leaves calls unbounded.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *BackendClient) WithHTTPClient(hc *http.Client) *BackendClient {
	c.client = hc
	return c
}

// envelope holds the status fields every backend response may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// linkRequest is the JSON body of /video-upload and /link-upload.
type linkRequest struct {
	Link          string `json:"link"`
	SummaryType   string `json:"summary_type"`
	SummaryLength string `json:"summary_length"`
}

// SummarizeLink posts a YouTube or website link.
func (c *BackendClient) SummarizeLink(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	path := "/link-upload"
	if sel.Kind == model.SourceVideo {
		path = "/video-upload"
	}

	var out model.SummaryResult
	err := c.postJSON(ctx, path, linkRequest{
		Link:          sel.Link,
		SummaryType:   sel.SummaryType,
		SummaryLength: sel.SummaryLength,
	}, "Error generating summary", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// uploadFields names the multipart fields per file kind.
var uploadFields = map[model.SourceKind]struct{ path, file string }{
	model.SourceImage: {"/upload-image", "image"},
	model.SourcePDF:   {"/upload-pdf", "pdf"},
	model.SourceDoc:   {"/upload-doc", "doc"},
	model.SourcePPT:   {"/upload-ppt", "ppt"},
}

// SummarizeFile uploads an image or document for summarization.
func (c *BackendClient) SummarizeFile(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	route, ok := uploadFields[sel.Kind]
	if !ok {
		return nil, errors.Validationf("cannot upload a %s as a file", sel.Kind)
	}

	fields := map[string]string{
		"summaryType":   sel.SummaryType,
		"summaryLength": sel.SummaryLength,
	}
	if sel.Kind == model.SourceImage {
		fields["performance"] = sel.Performance
	}

	var out model.SummaryResult
	err := c.postMultipart(ctx, route.path, route.file, sel.FileName, sel.File, fields,
		fmt.Sprintf("An error occurred while uploading the %s.", sel.Kind), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SummarizeText sends raw text as a text file.
func (c *BackendClient) SummarizeText(ctx context.Context, sel model.UploadSelection) (*model.SummaryResult, error) {
	var out model.SummaryResult
	err := c.postMultipart(ctx, "/txt-summarize", "text_file", "text_input.txt", []byte(sel.Text),
		map[string]string{
			"summary_type":   sel.SummaryType,
			"summary_length": sel.SummaryLength,
		}, "Failed to generate summary.", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var quizFields = map[model.SourceKind]struct{ path, file string }{
	model.SourcePDF: {"/quiz-pdf", "pdf"},
	model.SourceDoc: {"/quiz-doc", "doc"},
	model.SourcePPT: {"/quiz-ppt", "ppt"},
}

// GenerateQuiz asks the backend to build a quiz from a document or text.
// It returns the backend's confirmation message.
func (c *BackendClient) GenerateQuiz(ctx context.Context, sel model.UploadSelection) (string, error) {
	var out envelope
	if sel.Kind == model.SourceText {
		err := c.postMultipart(ctx, "/quizup", "quiz", "quiz.txt", []byte(sel.Text), nil,
			"Failed to generate quiz.", &out)
		return out.Message, err
	}

	route, ok := quizFields[sel.Kind]
	if !ok {
		return "", errors.Validationf("cannot generate a quiz from a %s", sel.Kind)
	}
	err := c.postMultipart(ctx, route.path, route.file, sel.FileName, sel.File, nil,
		"Failed to generate the quiz.", &out)
	return out.Message, err
}

// FetchQuiz loads the most recently generated question set.
func (c *BackendClient) FetchQuiz(ctx context.Context) (model.QuestionSet, error) {
	var out struct {
		Questions model.QuestionSet `json:"questions"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quiz", nil)
	if err != nil {
		return nil, errors.InternalWrap("failed to create request", err)
	}
	if err := c.do(req, "No quiz available to display. Please generate one.", &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// SubmitResults posts a complete answer sheet for scoring.
func (c *BackendClient) SubmitResults(ctx context.Context, sheet model.AnswerSheet) (model.ScoreResult, error) {
	var out model.ScoreResult
	err := c.postJSON(ctx, "/results", sheet, "An error occurred while submitting the quiz.", &out)
	return out, err
}

// Translate translates text into the target language.
func (c *BackendClient) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	err := c.postJSON(ctx, "/translate", map[string]string{
		"text":            text,
		"target_language": targetLanguage,
	}, "Translation failed.", &out)
	return out.TranslatedText, err
}

// DetectClickbait asks for a clickbait verdict on a YouTube video.
func (c *BackendClient) DetectClickbait(ctx context.Context, videoURL string) (*model.ClickbaitVerdict, error) {
	var out model.ClickbaitVerdict
	err := c.postJSON(ctx, "/detect_clickbait", map[string]string{"video_url": videoURL},
		"Could not analyse the video.", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommendations fetches related videos for a YouTube video.
func (c *BackendClient) Recommendations(ctx context.Context, videoURL string) ([]model.Recommendation, error) {
	var out struct {
		RecommendedVideos []model.Recommendation `json:"recommendedVideos"`
	}
	err := c.postJSON(ctx, "/get_recommendations", map[string]string{"video": videoURL},
		"Could not fetch recommendations.", &out)
	return out.RecommendedVideos, err
}

func (c *BackendClient) postJSON(ctx context.Context, path string, body interface{}, fallback string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.InternalWrap("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.InternalWrap("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, fallback, out)
}

func (c *BackendClient) postMultipart(
	ctx context.Context,
	path, fileField, fileName string,
	data []byte,
	fields map[string]string,
	fallback string,
	out interface{},
) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return errors.InternalWrap("failed to create form file", err)
	}
	if _, err := part.Write(data); err != nil {
		return errors.InternalWrap("failed to write form file", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return errors.InternalWrap("failed to write form field", err)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.InternalWrap("failed to close multipart writer", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return errors.InternalWrap("failed to create request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, fallback, out)
}

// do executes req and decodes the body into out. Transport problems and
// undecodable bodies become TRANSPORT_ERROR; non-2xx statuses, success:false
// and {error} payloads become BACKEND_ERROR carrying the backend's message.
func (c *BackendClient) do(req *http.Request, fallback string, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Transport(fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Transport(fmt.Errorf("read %s: %w", req.URL.Path, err))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return errors.Transport(fmt.Errorf("decode %s: %w", req.URL.Path, err))
		}
		return errors.Backend("", fallback).WithDetails(map[string]interface{}{"status": resp.StatusCode})
	}

	failed := resp.StatusCode < 200 || resp.StatusCode >= 300 ||
		(env.Success != nil && !*env.Success) || env.Error != ""
	if failed {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return errors.Backend(msg, fallback).WithDetails(map[string]interface{}{"status": resp.StatusCode})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Transport(fmt.Errorf("decode %s: %w", req.URL.Path, err))
	}
	return nil
}
