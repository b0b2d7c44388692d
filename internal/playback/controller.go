package playback

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/errors"
	"github.com/windfall/recap_client/internal/model"
)

// EventState is published whenever a controller changes state or controls.
const EventState = "playback.state"

// StateEvent is the payload of EventState.
type StateEvent struct {
	Page     string                 `json:"page"`
	Playback model.PlaybackSnapshot `json:"playback"`
}

// VoiceFunc picks a voice for a language code.
type VoiceFunc func(language string) string

// ControlsUpdate carries optional control changes. Nil fields are left alone.
type ControlsUpdate struct {
	Volume *float64 `json:"volume,omitempty"`
	Rate   *float64 `json:"rate,omitempty"`
	Muted  *bool    `json:"muted,omitempty"`
}

// Controller drives spoken playback for one page.
type Controller struct {
	page      string
	engine    Engine
	lease     Lease
	voice     VoiceFunc
	publisher Publisher
	log       zerolog.Logger

	mu       sync.Mutex
	state    model.PlaybackState
	controls model.Controls
	current  *Utterance
	token    string
}

// NewController creates an idle controller with default controls.
func NewController(page string, engine Engine, lease Lease, voice VoiceFunc, publisher Publisher, log zerolog.Logger) *Controller {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if voice == nil {
		voice = func(string) string { return "" }
	}
	return &Controller{
		page:      page,
		engine:    engine,
		lease:     lease,
		voice:     voice,
		publisher: publisher,
		log:       log.With().Str("page", page).Logger(),
		controls:  model.DefaultControls(),
	}
}

// Speak toggles playback: Idle starts a new utterance of text, Playing pauses,
// Paused resumes. text and language are only read when starting.
func (c *Controller) Speak(ctx context.Context, text, language string) (model.PlaybackSnapshot, error) {
	c.mu.Lock()
	switch c.state {
	case model.Playing:
		c.engine.Pause(c.current.ID)
		c.state = model.Paused
		return c.commit()
	case model.Paused:
		c.engine.Resume(c.current.ID)
		c.state = model.Playing
		return c.commit()
	}
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return c.Snapshot(), errors.Validation("nothing to speak")
	}

	token, err := c.lease.Acquire(ctx)
	if err != nil {
		return c.Snapshot(), err
	}

	c.mu.Lock()
	if c.state != model.Idle {
		// Another Speak won the race while the lease was being acquired.
		c.mu.Unlock()
		c.releaseToken(token)
		return c.Snapshot(), errors.State("playback already started")
	}

	u := Utterance{
		ID:       uuid.NewString(),
		Text:     text,
		Language: language,
		Voice:    c.voice(language),
		Rate:     c.controls.Rate,
		Volume:   c.controls.EffectiveVolume(),
		Pitch:    model.DefaultPitch,
	}
	if err := c.engine.Start(u, c.finish); err != nil {
		c.mu.Unlock()
		c.releaseToken(token)
		c.log.Error().Err(err).Msg("Failed to start utterance")
		return c.Snapshot(), nil
	}

	c.current = &u
	c.token = token
	c.state = model.Playing
	c.log.Debug().Str("utterance_id", u.ID).Str("language", language).Msg("Utterance started")
	return c.commit()
}

// Stop cancels any playing or paused utterance.
func (c *Controller) Stop(ctx context.Context) model.PlaybackSnapshot {
	c.mu.Lock()
	if c.state == model.Idle {
		snap := c.snapshot()
		c.mu.Unlock()
		return snap
	}

	c.engine.Cancel(c.current.ID)
	token := c.reset()
	snap, _ := c.commit()

	if err := c.lease.Release(ctx, token); err != nil {
		c.log.Warn().Err(err).Msg("Failed to release speech engine")
	}
	return snap
}

// SetVolume stores the volume. While muted the change is inaudible until unmuted.
func (c *Controller) SetVolume(v float64) (model.PlaybackSnapshot, error) {
	return c.Update(ControlsUpdate{Volume: &v})
}

// SetRate changes the speaking rate, immediately for an active utterance.
func (c *Controller) SetRate(r float64) (model.PlaybackSnapshot, error) {
	return c.Update(ControlsUpdate{Rate: &r})
}

// SetMuted toggles mute without touching the stored volume.
func (c *Controller) SetMuted(m bool) (model.PlaybackSnapshot, error) {
	return c.Update(ControlsUpdate{Muted: &m})
}

// Update validates every field before applying any of them.
func (c *Controller) Update(in ControlsUpdate) (model.PlaybackSnapshot, error) {
	if in.Volume != nil && !model.ValidVolume(*in.Volume) {
		return c.Snapshot(), errors.Validationf("volume must be between %.0f and %.0f", model.MinVolume, model.MaxVolume)
	}
	if in.Rate != nil && !model.ValidRate(*in.Rate) {
		return c.Snapshot(), errors.Validationf("rate must be between %.1f and %.1f", model.MinRate, model.MaxRate)
	}

	c.mu.Lock()
	before := c.controls
	if in.Volume != nil {
		c.controls.Volume = *in.Volume
	}
	if in.Rate != nil {
		c.controls.Rate = *in.Rate
	}
	if in.Muted != nil {
		c.controls.Muted = *in.Muted
	}

	if c.current != nil {
		if c.controls.EffectiveVolume() != before.EffectiveVolume() {
			c.engine.SetVolume(c.current.ID, c.controls.EffectiveVolume())
		}
		if c.controls.Rate != before.Rate {
			c.engine.SetRate(c.current.ID, c.controls.Rate)
		}
	}
	return c.commit()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() model.PlaybackSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// finish is the engine's DoneFunc.
func (c *Controller) finish(utteranceID string, err error) {
	c.mu.Lock()
	if c.current == nil || c.current.ID != utteranceID {
		c.mu.Unlock()
		return
	}

	token := c.reset()
	if err != nil {
		c.log.Error().Err(err).Str("utterance_id", utteranceID).Msg("Utterance failed")
	} else {
		c.log.Debug().Str("utterance_id", utteranceID).Msg("Utterance finished")
	}
	c.commit()
	c.releaseToken(token)
}

// reset drops the active utterance and returns the token to release. Caller holds mu.
func (c *Controller) reset() string {
	token := c.token
	c.state = model.Idle
	c.current = nil
	c.token = ""
	return token
}

// commit snapshots, unlocks and publishes. Caller holds mu.
func (c *Controller) commit() (model.PlaybackSnapshot, error) {
	snap := c.snapshot()
	c.mu.Unlock()
	c.publisher.Publish(EventState, StateEvent{Page: c.page, Playback: snap})
	return snap, nil
}

func (c *Controller) snapshot() model.PlaybackSnapshot {
	snap := model.PlaybackSnapshot{
		State:    c.state,
		Controls: c.controls,
	}
	if c.current != nil {
		snap.UtteranceID = c.current.ID
		snap.Text = c.current.Text
		snap.Language = c.current.Language
	}
	return snap
}

func (c *Controller) releaseToken(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.lease.Release(ctx, token); err != nil {
		c.log.Warn().Err(err).Msg("Failed to release speech engine")
	}
}
