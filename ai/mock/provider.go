package mock

import "github.com/poiesic/aetheris/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	MockEmbedder  *MockEmbedder
	MockGenerator *MockGenerator
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider creates a provider wired with default mocks.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder:  NewMockEmbedder(),
		MockGenerator: NewMockGenerator(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.MockGenerator
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
