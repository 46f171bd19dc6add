package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phrazzld/scry-mcq/internal/generation"
)

// MockClient implements generation.Client for testing
type MockClient struct {
	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, req generation.Request, out any) error

	// Responses holds a canned JSON document per shape, used when GenerateFn is nil
	Responses map[generation.Shape]string

	// Err is returned when neither GenerateFn nor a canned response applies
	Err error

	mu       sync.Mutex
	requests []generation.Request
}

// Generate implements the generation.Client interface
func (m *MockClient) Generate(ctx context.Context, req generation.Request, out any) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, req, out)
	}
	if doc, ok := m.Responses[req.Shape]; ok {
		if err := json.Unmarshal([]byte(doc), out); err != nil {
			return fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
		}
		return nil
	}
	if m.Err != nil {
		return m.Err
	}
	return fmt.Errorf("%w: no canned response for shape %s", generation.ErrGenerationFailed, req.Shape)
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Request(nil), m.requests...)
}

// CallCount returns how many times Generate was called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
