package runner

import (
	"context"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/go-ehon-kit/pkg/prompts"
)

type mockModel struct {
	calls        int
	generateFunc func(call int, prompt, model string) (*gemini.Response, error)
}

func (m *mockModel) GenerateContent(_ context.Context, prompt string, model string) (*gemini.Response, error) {
	m.calls++
	return m.generateFunc(m.calls, prompt, model)
}

type mockSource struct {
	getFunc func(ctx context.Context) (TextModel, error)
}

func (m *mockSource) Get(ctx context.Context) (TextModel, error) {
	return m.getFunc(ctx)
}

func staticSource(model TextModel) *mockSource {
	return &mockSource{getFunc: func(context.Context) (TextModel, error) { return model, nil }}
}

type mockPromptBuilder struct {
	buildFunc func(mode string, data prompts.TemplateData) (string, error)
}

func (m *mockPromptBuilder) Build(mode string, data prompts.TemplateData) (string, error) {
	return m.buildFunc(mode, data)
}
