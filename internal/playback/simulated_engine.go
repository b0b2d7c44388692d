package playback

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWordsPerMinute is the simulated speaking pace at rate 1.0.
const DefaultWordsPerMinute = 160

type simUtterance struct {
	id        string
	done      DoneFunc
	rate      float64
	remaining time.Duration
	startedAt time.Time
	timer     *time.Timer
	// run identifies the armed timer; callbacks of earlier runs are ignored.
	run uint64
}

// SimulatedEngine plays nothing. It finishes each utterance after the time a
// speaker would need at the utterance's rate.
type SimulatedEngine struct {
	wpm float64
	log zerolog.Logger

	mu     sync.Mutex
	active *simUtterance
}

// NewSimulatedEngine creates a timer-driven engine. A non-positive wpm uses DefaultWordsPerMinute.
func NewSimulatedEngine(wpm float64, log zerolog.Logger) *SimulatedEngine {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return &SimulatedEngine{wpm: wpm, log: log}
}

// Duration estimates how long text takes to speak at rate.
func (e *SimulatedEngine) Duration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	return time.Duration(math.Round(float64(words) / (e.wpm * rate) * float64(time.Minute)))
}

// Start implements Engine.
func (e *SimulatedEngine) Start(u Utterance, done DoneFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.preemptLocked()

	su := &simUtterance{
		id:        u.ID,
		done:      done,
		rate:      u.Rate,
		remaining: e.Duration(u.Text, u.Rate),
	}
	e.active = su
	e.runLocked(su)
	e.log.Debug().Str("utterance_id", u.ID).Dur("duration", su.remaining).Msg("Simulated utterance started")
	return nil
}

// Pause implements Engine.
func (e *SimulatedEngine) Pause(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if su := e.lookupLocked(id); su != nil {
		e.pauseLocked(su)
	}
}

// pauseLocked stops the clock and keeps the time left. A callback already
// waiting on mu finds timer unset and returns.
func (e *SimulatedEngine) pauseLocked(su *simUtterance) {
	if su.timer == nil {
		return
	}
	su.timer.Stop()
	su.timer = nil
	su.remaining -= time.Since(su.startedAt)
	if su.remaining < 0 {
		su.remaining = 0
	}
}

// Resume implements Engine.
func (e *SimulatedEngine) Resume(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	su := e.lookupLocked(id)
	if su == nil || su.timer != nil {
		return
	}
	e.runLocked(su)
}

// Cancel implements Engine.
func (e *SimulatedEngine) Cancel(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	su := e.lookupLocked(id)
	if su == nil {
		return
	}
	if su.timer != nil {
		su.timer.Stop()
	}
	e.active = nil
}

// SetVolume implements Engine. Volume has no effect on timing.
func (e *SimulatedEngine) SetVolume(string, float64) {}

// SetRate implements Engine by rescaling the time left.
func (e *SimulatedEngine) SetRate(id string, rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if su := e.lookupLocked(id); su != nil {
		e.setRateLocked(su, rate)
	}
}

func (e *SimulatedEngine) setRateLocked(su *simUtterance, rate float64) {
	if rate <= 0 || su.rate <= 0 {
		return
	}

	playing := su.timer != nil
	e.pauseLocked(su)
	su.remaining = time.Duration(math.Round(float64(su.remaining) * su.rate / rate))
	su.rate = rate
	if playing {
		e.runLocked(su)
	}
}

func (e *SimulatedEngine) runLocked(su *simUtterance) {
	su.run++
	run := su.run
	su.startedAt = time.Now()
	su.timer = time.AfterFunc(su.remaining, func() { e.complete(su, run) })
}

func (e *SimulatedEngine) complete(su *simUtterance, run uint64) {
	e.mu.Lock()
	if e.active != su || su.timer == nil || su.run != run {
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.mu.Unlock()

	su.done(su.id, nil)
}

func (e *SimulatedEngine) preemptLocked() {
	old := e.active
	if old == nil {
		return
	}
	if old.timer != nil {
		old.timer.Stop()
	}
	e.active = nil
	go old.done(old.id, ErrPreempted)
}

func (e *SimulatedEngine) lookupLocked(id string) *simUtterance {
	if e.active == nil || e.active.id != id {
		return nil
	}
	return e.active
}
