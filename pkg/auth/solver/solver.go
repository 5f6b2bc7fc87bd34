// Package solver resolves login challenges: a human in the visible
// browser, a vision model, or a paid solving service.
package solver

import (
	"context"
	"errors"
	"time"
)

// Kind identifies the challenge widget.
type Kind string

const (
	KindRecaptcha  Kind = "recaptcha"
	KindFuncaptcha Kind = "funcaptcha"
	KindPin        Kind = "pin" // emailed or app verification code
	KindUnknown    Kind = "unknown"
)

var (
	// ErrUnsupported means the solver cannot handle this kind of challenge.
	ErrUnsupported = errors.New("challenge not supported by solver")

	// ErrTimeout means the solver gave up after its deadline.
	ErrTimeout = errors.New("challenge solving timed out")

	// ErrUnavailable means the solver is not configured.
	ErrUnavailable = errors.New("solver not available")
)

// Page is what the manual solver needs from the browser tab.
type Page interface {
	Evaluate(ctx context.Context, js string, out any) error
	Location(ctx context.Context) string
}

// Challenge describes a detected challenge.
type Challenge struct {
	Kind       Kind
	SiteKey    string
	PageURL    string
	Screenshot []byte // PNG of the widget, or of the viewport
	Page       Page
}

// Solution is a solved challenge.
type Solution struct {
	Solver string
	// Token must be injected into the page unless InPage is set.
	Token string
	// InPage means the challenge was completed inside the browser, so
	// there is nothing to inject.
	InPage bool
}

// Solver resolves challenges. Solve must return promptly once ctx ends.
type Solver interface {
	Name() string
	Available() bool
	Supports(kind Kind) bool
	Solve(ctx context.Context, ch Challenge) (Solution, error)
}

// Budgeted is implemented by solvers that stop on their own deadline.
type Budgeted interface {
	Budget() time.Duration
}

// Budget returns how long s may run, or zero when it sets no deadline.
func Budget(s Solver) time.Duration {
	if b, ok := s.(Budgeted); ok {
		return b.Budget()
	}
	return 0
}
