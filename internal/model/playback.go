package model

import "fmt"

// PlaybackState is the speech controller's lifecycle state.
type PlaybackState int

const (
	Idle PlaybackState = iota
	Playing
	Paused
)

func (s PlaybackState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON.
func (s PlaybackState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Playback control limits, matching the volume and speed sliders.
const (
	MinVolume = 0.0
	MaxVolume = 1.0
	MinRate   = 0.5
	MaxRate   = 2.0
	// Pitch is fixed for every utterance.
	DefaultPitch = 1.2
)

// Controls are the scalar playback settings.
type Controls struct {
	Volume float64 `json:"volume"`
	Rate   float64 `json:"rate"`
	Muted  bool    `json:"muted"`
}

// DefaultControls returns full volume, normal rate, unmuted.
func DefaultControls() Controls {
	return Controls{Volume: 1, Rate: 1}
}

// EffectiveVolume is what the engine should actually play at.
func (c Controls) EffectiveVolume() float64 {
	if c.Muted {
		return 0
	}
	return c.Volume
}

// ValidVolume reports whether v is inside the slider range.
func ValidVolume(v float64) bool {
	return v >= MinVolume && v <= MaxVolume
}

// ValidRate reports whether r is inside the slider range.
func ValidRate(r float64) bool {
	return r >= MinRate && r <= MaxRate
}

// PlaybackSnapshot is a read-only copy of a controller's state.
type PlaybackSnapshot struct {
	State       PlaybackState `json:"state"`
	Controls    Controls      `json:"controls"`
	UtteranceID string        `json:"utterance_id,omitempty"`
	Text        string        `json:"text,omitempty"`
	Language    string        `json:"language,omitempty"`
}
