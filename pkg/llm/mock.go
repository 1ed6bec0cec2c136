package llm

import "context"

// MockClient is a configurable mock for testing LLM-backed services.
// Set the function field to control behavior in tests.
type MockClient struct {
	// CompleteJSONFunc is called when CompleteJSON is invoked.
	// If nil, returns an empty object completion and nil error.
	CompleteJSONFunc func(ctx context.Context, prompt string, system string, temperature float64) (*Completion, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification.
	CompleteJSONCalls int
	LastPrompt        string
	LastSystem        string
	LastTemperature   float64
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// CompleteJSON implements Client.
func (m *MockClient) CompleteJSON(ctx context.Context, prompt string, system string, temperature float64) (*Completion, error) {
	m.CompleteJSONCalls++
	m.LastPrompt = prompt
	m.LastSystem = system
	m.LastTemperature = temperature
	if m.CompleteJSONFunc != nil {
		return m.CompleteJSONFunc(ctx, prompt, system, temperature)
	}
	return &Completion{Content: "{}", Usage: Usage{}}, nil
}

// Provider implements Client.
func (m *MockClient) Provider() string { return "mock" }

// Model implements Client.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

var _ Client = (*MockClient)(nil)

// MockFactory returns a fixed client from NewClient.
type MockFactory struct {
	Client Client
	Err    error
}

// NewClient implements Factory.
func (f *MockFactory) NewClient() (Client, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Client, nil
}

var _ Factory = (*MockFactory)(nil)
