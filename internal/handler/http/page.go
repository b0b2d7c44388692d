package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
	"github.com/windfall/recap_client/internal/playback"
	"github.com/windfall/recap_client/internal/service"
	"github.com/windfall/recap_client/pkg/response"
)

// PageHandler serves the per-route page endpoints.
type PageHandler struct {
	log           zerolog.Logger
	pages         *service.PageService
	translation   *service.TranslationService
	maxUploadSize int64
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(log zerolog.Logger, pages *service.PageService, translation *service.TranslationService, maxUploadSize int64) *PageHandler {
	return &PageHandler{
		log:           log,
		pages:         pages,
		translation:   translation,
		maxUploadSize: maxUploadSize,
	}
}

// TranslateRequest is the body of POST /pages/{page}/translate.
type TranslateRequest struct {
	Language string `json:"language"`
}

// VideoRequest is the optional body of the insight endpoints.
type VideoRequest struct {
	VideoURL string `json:"video_url"`
}

// Languages handles GET /api/v1/languages
func (h *PageHandler) Languages(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"base":      h.translation.BaseLanguage(),
		"languages": h.translation.Languages(),
	})
}

// Get handles GET /api/v1/pages/{page}
func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, page.View())
}

// Summarize handles POST /api/v1/pages/{page}/summarize
func (h *PageHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	sel, err := h.decodeSelection(w, r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	view, err := page.Summarize(r.Context(), sel)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// GenerateQuiz handles POST /api/v1/pages/{page}/quiz
func (h *PageHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	sel, err := h.decodeSelection(w, r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	gen, err := page.GenerateQuiz(r.Context(), sel)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, gen)
}

// ToggleMode handles POST /api/v1/pages/{page}/mode
func (h *PageHandler) ToggleMode(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	view, err := page.ToggleMode()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Translate handles POST /api/v1/pages/{page}/translate
func (h *PageHandler) Translate(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
		response.BadRequest(w, "language is required")
		return
	}

	view, err := page.Translate(r.Context(), req.Language)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Speak handles POST /api/v1/pages/{page}/playback/speak
func (h *PageHandler) Speak(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	view, err := page.Speak(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view.Playback)
}

// Stop handles POST /api/v1/pages/{page}/playback/stop
func (h *PageHandler) Stop(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, page.Speech().Stop(r.Context()))
}

// Controls handles PUT /api/v1/pages/{page}/playback/controls
func (h *PageHandler) Controls(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var req playback.ControlsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	snap, err := page.Speech().Update(req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, snap)
}

// Recommendations handles POST /api/v1/pages/{page}/insights/recommendations
func (h *PageHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	req, err := decodeOptional[VideoRequest](w, r, h.maxUploadSize)
	if err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	view, err := page.Recommendations(r.Context(), req.VideoURL)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Clickbait handles POST /api/v1/pages/{page}/insights/clickbait
func (h *PageHandler) Clickbait(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	req, err := decodeOptional[VideoRequest](w, r, h.maxUploadSize)
	if err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	view, err := page.Clickbait(r.Context(), req.VideoURL)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

func (h *PageHandler) page(w http.ResponseWriter, r *http.Request) (*service.Page, bool) {
	page, err := h.pages.Page(chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, h.log, err)
		return nil, false
	}
	return page, true
}

// decodeSelection reads a size-limited JSON body, or a multipart form with the upload in
// the "file" field and options as form values.
func (h *PageHandler) decodeSelection(w http.ResponseWriter, r *http.Request) (model.UploadSelection, error) {
	var sel model.UploadSelection
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			return sel, errors.Validation("invalid request body")
		}
		return sel, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return sel, errors.Validationf("file too large, maximum size is %d MB", h.maxUploadSize>>20)
	}

	sel.Kind = model.SourceKind(r.FormValue("kind"))
	sel.Link = r.FormValue("link")
	sel.Text = r.FormValue("text")
	sel.SummaryType = r.FormValue("summary_type")
	sel.SummaryLength = r.FormValue("summary_length")
	sel.Performance = r.FormValue("performance")

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return sel, nil
	}
	if err != nil {
		return sel, errors.Validation("invalid file upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return sel, errors.Validation("failed to read uploaded file")
	}
	sel.FileName = header.Filename
	sel.File = data
	return sel, nil
}

// decodeOptional decodes a JSON body of at most limit bytes that may be empty.
func decodeOptional[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, error) {
	var out T
	if r.Body == nil {
		return out, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(&out)
	if err == io.EOF {
		return out, nil
	}
	return out, err
}
