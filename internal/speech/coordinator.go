// Package speech tracks which chat answer is being read aloud. The browser
// owns a single speech engine, so at most one utterance is active per view.
package speech

import (
	"log/slog"
	"sync"
)

type Action string

const (
	ActionSpeak  Action = "speak"
	ActionCancel Action = "cancel"
	ActionResume Action = "resume"
)

// Directive is an instruction for the page's speech engine.
type Directive struct {
	Action Action `json:"action"`
	Turn   int    `json:"turn"`
}

type Reason string

const (
	ReasonUnmount Reason = "unmount"
	ReasonHidden  Reason = "hidden"
	ReasonUnload  Reason = "unload"
)

// Coordinator is safe for concurrent use.
type Coordinator struct {
	logger *slog.Logger

	mu       sync.Mutex
	active   int
	speaking bool
}

// NewCoordinator returns an idle coordinator. A nil logger uses slog.Default.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger}
}

// Start begins reading turn. Any other active utterance is cancelled first.
// Starting the turn that is already playing stops it.
func (c *Coordinator) Start(turn int) []Directive {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.speaking && c.active == turn {
		c.speaking = false
		return []Directive{{Action: ActionCancel, Turn: turn}}
	}

	var out []Directive
	if c.speaking {
		out = append(out, Directive{Action: ActionCancel, Turn: c.active})
	}
	c.active = turn
	c.speaking = true
	return append(out, Directive{Action: ActionSpeak, Turn: turn})
}

// Stop cancels the active utterance, if any.
func (c *Coordinator) Stop(reason Reason) []Directive {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.speaking {
		return nil
	}
	c.speaking = false
	c.logger.Debug("Speech stopped", "reason", reason, "turn", c.active)
	return []Directive{{Action: ActionCancel, Turn: c.active}}
}

// Ended records that the engine finished turn on its own.
func (c *Coordinator) Ended(turn int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.speaking && c.active == turn {
		c.speaking = false
	}
}

// Keepalive resumes an utterance the engine paused without finishing it,
// which some browsers do for background tabs.
func (c *Coordinator) Keepalive(paused bool) []Directive {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.speaking || !paused {
		return nil
	}
	return []Directive{{Action: ActionResume, Turn: c.active}}
}

func (c *Coordinator) Active() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.speaking
}
