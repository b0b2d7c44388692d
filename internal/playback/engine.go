package playback

import (
	"github.com/windfall/recap_client/internal/errors"
)

// Utterance is one piece of text handed to an engine.
type Utterance struct {
	ID       string
	Text     string
	Language string
	Voice    string
	Rate     float64
	Volume   float64
	Pitch    float64
}

// DoneFunc is invoked once when an utterance ends on its own or fails.
// It is never invoked for an utterance the owner cancelled.
type DoneFunc func(utteranceID string, err error)

// Engine is the single audio sink shared by every controller in the process.
// Only one utterance is active at a time: starting a new one preempts the
// current one, whose DoneFunc then receives ErrPreempted.
// Methods must not block on I/O and must not call DoneFunc synchronously.
type Engine interface {
	Start(u Utterance, done DoneFunc) error
	Pause(utteranceID string)
	Resume(utteranceID string)
	Cancel(utteranceID string)
	SetVolume(utteranceID string, volume float64)
	SetRate(utteranceID string, rate float64)
}

// ErrPreempted is reported to the owner of an utterance displaced by another.
var ErrPreempted = errors.New(errors.ErrSpeech, "utterance preempted by another controller")

// Publisher fans page events out to connected browsers.
type Publisher interface {
	Publish(eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}
