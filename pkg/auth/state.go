// Package auth signs in to the site in a browser page, resolves any
// challenge on the way and persists the resulting session.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

// State is a step of a login attempt.
type State string

const (
	StateStart                State = "start"
	StateCredentialsSubmitted State = "credentials_submitted"
	StateChallengeDetected    State = "challenge_detected"
	StateRedirectPending      State = "redirect_pending"
	StateChallengeResolved    State = "challenge_resolved"
	StateVerified             State = "verified"
	StateFailed               State = "failed"
)

// transitions lists the legal next states.
var transitions = map[State][]State{
	StateStart:                {StateChallengeDetected, StateCredentialsSubmitted, StateFailed},
	StateCredentialsSubmitted: {StateChallengeDetected, StateRedirectPending, StateFailed},
	StateChallengeDetected:    {StateChallengeResolved, StateFailed},
	StateChallengeResolved:    {StateCredentialsSubmitted, StateVerified, StateFailed},
	StateRedirectPending:      {StateVerified, StateFailed},
}

// Attempt is the trace of one Login call.
type Attempt struct {
	States    []State
	Challenge string // kind of the challenge met, if any
	Solver    string // solver that resolved it
	Started   time.Time
	Err       error
}

func newAttempt() *Attempt {
	return &Attempt{States: []State{StateStart}, Started: time.Now()}
}

// State returns the current state.
func (a *Attempt) State() State {
	return a.States[len(a.States)-1]
}

// String renders the trace, e.g. "start -> credentials_submitted -> ...".
func (a *Attempt) String() string {
	parts := make([]string, len(a.States))
	for i, s := range a.States {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}

func (a *Attempt) transition(to State) error {
	from := a.State()
	legal := false
	for _, s := range transitions[from] {
		if s == to {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("illegal login transition %s -> %s", from, to)
	}
	a.States = append(a.States, to)
	logger.Debug("login state", "from", from, "to", to)
	return nil
}
