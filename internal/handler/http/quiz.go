package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/service"
	"github.com/windfall/recap_client/pkg/response"
)

// QuizHandler handles the quiz route.
type QuizHandler struct {
	log  zerolog.Logger
	quiz *service.QuizController
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(log zerolog.Logger, quiz *service.QuizController) *QuizHandler {
	return &QuizHandler{
		log:  log,
		quiz: quiz,
	}
}

// AnswerRequest is the body of PUT /api/v1/quiz/answers.
type AnswerRequest struct {
	QuestionID int `json:"question_id"`
	OptionID   int `json:"option_id"`
}

// Start handles POST /api/v1/quiz
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.Start(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Get handles GET /api/v1/quiz
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.quiz.View())
}

// Home handles DELETE /api/v1/quiz
func (h *QuizHandler) Home(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.quiz.Home())
}

// Answer handles PUT /api/v1/quiz/answers
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	view, err := h.quiz.Select(req.QuestionID, req.OptionID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Submit handles POST /api/v1/quiz/submit
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.Submit(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

// Review handles GET /api/v1/quiz/review
func (h *QuizHandler) Review(w http.ResponseWriter, r *http.Request) {
	review, err := h.quiz.Review()
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	view := h.quiz.View()
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"score":      view.Score,
		"percentage": view.Percentage,
		"questions":  review,
	})
}

// ReviewAgain handles POST /api/v1/quiz/review-again
func (h *QuizHandler) ReviewAgain(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.ReviewAgain()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}
