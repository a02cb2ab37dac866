package rachio

import (
	"context"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// FakeFetcher is a test double that returns scripted device states.
type FakeFetcher struct {
	// States contains scripted states to return.
	// Each call to FetchState consumes the next state; the last one repeats.
	States []logic.DeviceState

	// index tracks current position in States
	index int

	// Calls counts FetchState invocations.
	Calls int

	// FetchError, if set, will be returned by FetchState.
	FetchError error
}

// NewFakeFetcher creates a FakeFetcher with the given states.
func NewFakeFetcher(states ...logic.DeviceState) *FakeFetcher {
	return &FakeFetcher{States: states}
}

// FetchState returns the next scripted state.
func (f *FakeFetcher) FetchState(_ context.Context) (logic.DeviceState, error) {
	f.Calls++
	if f.FetchError != nil {
		return logic.DeviceState{}, f.FetchError
	}
	if len(f.States) == 0 {
		return logic.DeviceState{}, nil
	}

	st := f.States[f.index]
	if f.index < len(f.States)-1 {
		f.index++
	}
	return st, nil
}
