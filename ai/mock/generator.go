package mock

import (
	"context"
	"sync"
)

// MockGenerator is a test double for ai.Generator. It records prompts and
// returns either a scripted response or a fixed default.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// Response is returned when GenerateFunc is nil. Defaults to a fixed
	// canned answer.
	Response string

	mu      sync.Mutex
	prompts []string
}

// NewMockGenerator creates a mock generator with a canned response.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Response: "mock generated answer"}
}

// Generate records the prompt and returns the scripted response.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return m.Response, nil
}

// Prompts returns a copy of the prompts seen so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt, or "" when none was recorded.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
