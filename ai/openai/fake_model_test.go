package openai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an in-process llms.Model returning canned responses, with
// optional streamed chunks delivered through the caller's streaming func.
type fakeModel struct {
	response string
	chunks   []string
	err      error
	calls    int
	messages []llms.MessageContent
}

var _ llms.Model = (*fakeModel)(nil)

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}

	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, chunk := range f.chunks {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        f.response,
				GenerationInfo: map[string]any{"TotalTokens": 321},
			},
		},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.calls++
	return f.response, f.err
}
