package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/client"
	"github.com/windfall/recap_client/internal/errors"
)

// Commands sent to the browser audio element.
const (
	CommandPlay   = "speech.play"
	CommandPause  = "speech.pause"
	CommandResume = "speech.resume"
	CommandCancel = "speech.cancel"
	CommandVolume = "speech.volume"
	CommandRate   = "speech.rate"
)

// Synthesizer renders an utterance to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, in client.SynthesisRequest) ([]byte, error)
}

// AudioStore keeps rendered audio where the browser can fetch it.
type AudioStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SpeechCommand is the payload of every speech.* command.
type SpeechCommand struct {
	UtteranceID  string  `json:"utterance_id"`
	URL          string  `json:"url,omitempty"`
	Volume       float64 `json:"volume"`
	PlaybackRate float64 `json:"playback_rate"`
	Paused       bool    `json:"paused,omitempty"`
}

type remoteUtterance struct {
	id       string
	done     DoneFunc
	baseRate float64
	rate     float64
	volume   float64
	paused   bool
	ready    bool
	key      string
	url      string
}

func (r *remoteUtterance) command() SpeechCommand {
	return SpeechCommand{
		UtteranceID:  r.id,
		URL:          r.url,
		Volume:       r.volume,
		PlaybackRate: r.rate / r.baseRate,
		Paused:       r.paused,
	}
}

// RemoteEngine renders speech with Azure, stores the audio and lets the
// browser play it. The browser reports completion through Ended and Failed.
type RemoteEngine struct {
	synth   Synthesizer
	store   AudioStore
	out     Publisher
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex
	active *remoteUtterance
}

// NewRemoteEngine creates a remote engine.
func NewRemoteEngine(synth Synthesizer, store AudioStore, out Publisher, log zerolog.Logger) *RemoteEngine {
	return &RemoteEngine{
		synth:   synth,
		store:   store,
		out:     out,
		timeout: 60 * time.Second,
		log:     log,
	}
}

// Start implements Engine. Rendering happens in the background.
func (e *RemoteEngine) Start(u Utterance, done DoneFunc) error {
	if u.Rate <= 0 {
		return errors.Validation("rate must be positive")
	}

	e.mu.Lock()
	e.preemptLocked()
	ru := &remoteUtterance{
		id:       u.ID,
		done:     done,
		baseRate: u.Rate,
		rate:     u.Rate,
		volume:   u.Volume,
	}
	e.active = ru
	e.mu.Unlock()

	// Full volume in the audio itself; the browser applies the live volume.
	req := client.SynthesisRequest{
		Text:     u.Text,
		Language: u.Language,
		Voice:    u.Voice,
		Rate:     u.Rate,
		Volume:   1,
		Pitch:    u.Pitch,
	}
	go e.render(ru, req)
	return nil
}

func (e *RemoteEngine) render(ru *remoteUtterance, req client.SynthesisRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	audio, err := e.synth.Synthesize(ctx, req)
	if err != nil {
		e.fail(ru, errors.Wrap(errors.ErrSpeech, "speech synthesis failed", err))
		return
	}

	key := fmt.Sprintf("speech/%s.mp3", ru.id)
	url, err := e.store.Put(ctx, key, audio, "audio/mpeg")
	if err != nil {
		e.fail(ru, errors.Wrap(errors.ErrStorage, "failed to store speech audio", err))
		return
	}

	e.mu.Lock()
	if e.active != ru {
		e.mu.Unlock()
		e.discard(key)
		return
	}
	ru.key = key
	ru.url = url
	ru.ready = true
	cmd := ru.command()
	e.mu.Unlock()

	e.log.Debug().Str("utterance_id", ru.id).Str("url", url).Msg("Speech audio ready")
	e.out.Publish(CommandPlay, cmd)
}

// Pause implements Engine.
func (e *RemoteEngine) Pause(id string) {
	e.toggle(id, true, CommandPause)
}

// Resume implements Engine.
func (e *RemoteEngine) Resume(id string) {
	e.toggle(id, false, CommandResume)
}

func (e *RemoteEngine) toggle(id string, paused bool, command string) {
	e.mu.Lock()
	ru := e.lookupLocked(id)
	if ru == nil {
		e.mu.Unlock()
		return
	}
	ru.paused = paused
	ready, cmd := ru.ready, ru.command()
	e.mu.Unlock()

	if ready {
		e.out.Publish(command, cmd)
	}
}

// Cancel implements Engine.
func (e *RemoteEngine) Cancel(id string) {
	e.mu.Lock()
	ru := e.lookupLocked(id)
	if ru == nil {
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.mu.Unlock()

	if ru.ready {
		e.out.Publish(CommandCancel, SpeechCommand{UtteranceID: id})
		go e.discard(ru.key)
	}
}

// SetVolume implements Engine.
func (e *RemoteEngine) SetVolume(id string, volume float64) {
	e.mu.Lock()
	ru := e.lookupLocked(id)
	if ru == nil {
		e.mu.Unlock()
		return
	}
	ru.volume = volume
	ready, cmd := ru.ready, ru.command()
	e.mu.Unlock()

	if ready {
		e.out.Publish(CommandVolume, cmd)
	}
}

// SetRate implements Engine.
func (e *RemoteEngine) SetRate(id string, rate float64) {
	e.mu.Lock()
	ru := e.lookupLocked(id)
	if ru == nil || rate <= 0 {
		e.mu.Unlock()
		return
	}
	ru.rate = rate
	ready, cmd := ru.ready, ru.command()
	e.mu.Unlock()

	if ready {
		e.out.Publish(CommandRate, cmd)
	}
}

// Ended is called when the browser finished playing an utterance.
func (e *RemoteEngine) Ended(id string) {
	if ru := e.take(id); ru != nil {
		go e.discard(ru.key)
		ru.done(ru.id, nil)
	}
}

// Failed is called when the browser could not play an utterance.
func (e *RemoteEngine) Failed(id, reason string) {
	if ru := e.take(id); ru != nil {
		go e.discard(ru.key)
		ru.done(ru.id, errors.New(errors.ErrSpeech, reason))
	}
}

func (e *RemoteEngine) fail(ru *remoteUtterance, err error) {
	e.mu.Lock()
	if e.active != ru {
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.mu.Unlock()

	ru.done(ru.id, err)
}

func (e *RemoteEngine) take(id string) *remoteUtterance {
	e.mu.Lock()
	defer e.mu.Unlock()

	ru := e.lookupLocked(id)
	if ru != nil {
		e.active = nil
	}
	return ru
}

func (e *RemoteEngine) preemptLocked() {
	old := e.active
	if old == nil {
		return
	}
	e.active = nil
	if old.ready {
		go e.out.Publish(CommandCancel, SpeechCommand{UtteranceID: old.id})
		go e.discard(old.key)
	}
	go old.done(old.id, ErrPreempted)
}

func (e *RemoteEngine) discard(key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.store.Delete(ctx, key); err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("Failed to delete speech audio")
	}
}

func (e *RemoteEngine) lookupLocked(id string) *remoteUtterance {
	if e.active == nil || e.active.id != id {
		return nil
	}
	return e.active
}
