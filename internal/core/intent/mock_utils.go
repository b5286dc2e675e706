package intent

import (
	"context"
)

type MockLLMClient struct {
	Response string
	Err      error
	Prompt   string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockStreamingLLMClient forwards the response in fixed-size chunks.
type MockStreamingLLMClient struct {
	MockLLMClient
	ChunkSize int
}

func (m *MockStreamingLLMClient) GenerateStream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	m.Prompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	size := m.ChunkSize
	if size <= 0 {
		size = 8
	}
	for i := 0; i < len(m.Response); i += size {
		end := i + size
		if end > len(m.Response) {
			end = len(m.Response)
		}
		if onDelta != nil {
			onDelta(m.Response[i:end])
		}
	}
	return m.Response, nil
}
