package pipeline

import (
	"context"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/generator"
	"github.com/shouni/go-ehon-kit/pkg/imagehash"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/providers"
	"github.com/shouni/go-ehon-kit/pkg/similarity"
)

type mockBuilder struct{}

func (mockBuilder) BuildIllustrationPrompt(in prompts.IllustrationInput) string {
	return "prompt:" + in.ImageDescription
}

type mockRewriter struct {
	rewriteFunc func(ctx context.Context, title, name, desc string) string
}

func (m *mockRewriter) Rewrite(ctx context.Context, title, name, desc string) string {
	return m.rewriteFunc(ctx, title, name, desc)
}

// mockSource は呼び出しごとのリクエストを記録するのだ。
type mockSource struct {
	requests     []providers.Request
	generateFunc func(ctx context.Context, call int, req providers.Request) ([]domain.Candidate, error)
}

func (m *mockSource) Generate(ctx context.Context, _ domain.ProviderTag, req providers.Request) ([]domain.Candidate, error) {
	m.requests = append(m.requests, req)
	return m.generateFunc(ctx, len(m.requests), req)
}

// firstSelector は最初に画像を持つ候補を選ぶ。
type firstSelector struct{}

func (firstSelector) Select(_ *domain.ReferenceImage, pool []domain.Candidate) generator.Selection {
	for _, c := range pool {
		if c.HasImage() {
			return generator.Selection{Winner: c, Method: similarity.MethodFirstSuccess, Found: true}
		}
	}
	return generator.Selection{Method: similarity.MethodFirstSuccess}
}

type mockDecoder struct {
	capability    imagehash.Capability
	decodableFunc func(data []byte, mime string) bool
}

func (m *mockDecoder) Capability() imagehash.Capability { return m.capability }

func (m *mockDecoder) Decodable(data []byte, mime string) bool { return m.decodableFunc(data, mime) }
