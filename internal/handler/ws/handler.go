package ws

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// MessageType constants
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSpeechEnded  = "speech.ended"
	TypeSpeechError  = "speech.error"
	TypeError        = "error"
	TypeAcknowledged = "ack"
)

// SpeechCallbacks receives the browser's playback reports.
type SpeechCallbacks interface {
	Ended(utteranceID string)
	Failed(utteranceID, reason string)
}

// Handler handles WebSocket messages.
type Handler struct {
	log    zerolog.Logger
	speech SpeechCallbacks
}

// NewHandler creates a new WebSocket handler. speech may be nil when no
// engine plays audio in the browser.
func NewHandler(log zerolog.Logger, speech SpeechCallbacks) *Handler {
	return &Handler{log: log, speech: speech}
}

// Response represents a WebSocket response.
type Response struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SpeechReport is the payload of speech.ended and speech.error.
type SpeechReport struct {
	UtteranceID string `json:"utterance_id"`
	Error       string `json:"error,omitempty"`
}

// Handle processes incoming WebSocket messages.
func (h *Handler) Handle(clientID string, msgType string, payload json.RawMessage) ([]byte, error) {
	h.log.Debug().
		Str("client_id", clientID).
		Str("type", msgType).
		Msg("Handling WebSocket message")

	switch msgType {
	case TypePing:
		return h.handlePing()

	case TypeSpeechEnded, TypeSpeechError:
		return h.handleSpeech(clientID, msgType, payload)

	default:
		return h.errorResponse("unknown message type: " + msgType)
	}
}

func (h *Handler) handlePing() ([]byte, error) {
	return h.response(TypePong, map[string]string{
		"message": "pong",
	})
}

func (h *Handler) handleSpeech(clientID, msgType string, payload json.RawMessage) ([]byte, error) {
	var report SpeechReport
	if err := json.Unmarshal(payload, &report); err != nil || report.UtteranceID == "" {
		return h.errorResponse("invalid speech payload")
	}
	if h.speech == nil {
		return h.errorResponse("speech is not played in the browser")
	}

	if msgType == TypeSpeechEnded {
		h.speech.Ended(report.UtteranceID)
	} else {
		reason := report.Error
		if reason == "" {
			reason = "browser playback failed"
		}
		h.log.Warn().
			Str("client_id", clientID).
			Str("utterance_id", report.UtteranceID).
			Str("reason", reason).
			Msg("Browser reported speech error")
		h.speech.Failed(report.UtteranceID, reason)
	}

	return h.response(TypeAcknowledged, map[string]string{
		"type":         msgType,
		"utterance_id": report.UtteranceID,
	})
}

func (h *Handler) response(msgType string, payload interface{}) ([]byte, error) {
	resp := Response{
		Type:    msgType,
		Payload: payload,
	}
	return json.Marshal(resp)
}

func (h *Handler) errorResponse(message string) ([]byte, error) {
	return h.response(TypeError, map[string]string{
		"error": message,
	})
}
