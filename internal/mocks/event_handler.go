package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-mcq/internal/events"
)

// MockEventHandler implements events.EventHandler and records every event.
type MockEventHandler struct {
	// HandleEventFn allows test cases to mock the HandleEvent behavior
	HandleEventFn func(ctx context.Context, event *events.RunEvent) error

	mu     sync.Mutex
	events []*events.RunEvent
}

// HandleEvent implements the events.EventHandler interface
func (m *MockEventHandler) HandleEvent(ctx context.Context, event *events.RunEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.HandleEventFn != nil {
		return m.HandleEventFn(ctx, event)
	}
	return nil
}

// Events returns the recorded events in arrival order.
func (m *MockEventHandler) Events() []*events.RunEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.RunEvent(nil), m.events...)
}

// Types returns the type of each recorded event in arrival order.
func (m *MockEventHandler) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
