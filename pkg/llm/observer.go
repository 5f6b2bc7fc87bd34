package llm

import (
	"context"
	"time"
)

// Observer receives a notification after every provider call, successful or
// not. Implementations must not block.
type Observer interface {
	OnCall(ctx context.Context, event CallEvent)
}

// CallEvent describes one provider call.
type CallEvent struct {
	Provider     string
	Model        string
	Attempt      int // 0 for the first attempt
	InputChars   int // size of the page content sent
	Usage        Usage
	FinishReason string
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnCall implements Observer.
func (f ObserverFunc) OnCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}

// MultiObserver fans each event out to several observers.
type MultiObserver []Observer

// OnCall implements Observer.
func (m MultiObserver) OnCall(ctx context.Context, event CallEvent) {
	for _, o := range m {
		if o != nil {
			o.OnCall(ctx, event)
		}
	}
}
