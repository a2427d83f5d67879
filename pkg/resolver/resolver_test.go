package resolver

import (
	"context"
	"testing"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/providers"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider は呼び出し履歴を記録する Provider なのだ。
type mockProvider struct {
	tag    domain.ProviderTag
	result *imagedom.ImageResponse
	calls  *[]domain.ProviderTag
}

func (m *mockProvider) Tag() domain.ProviderTag { return m.tag }

func (m *mockProvider) Generate(_ context.Context, _ providers.Request) *imagedom.ImageResponse {
	*m.calls = append(*m.calls, m.tag)
	return m.result
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name    string
		primary domain.ProviderTag
		hasRef  bool
		want    domain.ProviderOrder
	}{
		{"preview 主・参照なし", domain.ProviderPreview, false, domain.ProviderOrder{"preview", "gemini", "vertex"}},
		{"gemini 主・参照なし", domain.ProviderGemini, false, domain.ProviderOrder{"gemini", "vertex", "preview"}},
		{"vertex 主・参照なし", domain.ProviderVertex, false, domain.ProviderOrder{"vertex", "gemini", "preview"}},
		{"gemini 主・参照あり", domain.ProviderGemini, true, domain.ProviderOrder{"preview", "gemini", "vertex"}},
		{"vertex 主・参照あり", domain.ProviderVertex, true, domain.ProviderOrder{"preview", "vertex", "gemini"}},
		{"preview 主・参照ありでも重複しない", domain.ProviderPreview, true, domain.ProviderOrder{"preview", "gemini", "vertex"}},
		{"未知の主は gemini 扱い", domain.ProviderTag("dalle"), false, domain.ProviderOrder{"gemini", "vertex", "preview"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Order(tt.primary, tt.hasRef)
			assert.Equal(t, tt.want, got)

			seen := map[domain.ProviderTag]bool{}
			for _, tag := range got {
				assert.False(t, seen[tag], "duplicate provider %s", tag)
				seen[tag] = true
			}
		})
	}

	t.Run("返されたスライスを変更しても表は壊れないこと", func(t *testing.T) {
		o := Order(domain.ProviderGemini, false)
		o[0] = "broken"
		assert.Equal(t, domain.ProviderGemini, Order(domain.ProviderGemini, false)[0])
	})
}

func TestResolver_Resolve(t *testing.T) {
	img := &imagedom.ImageResponse{Data: []byte("img"), MimeType: "image/png"}

	t.Run("最初に成功したプロバイダーで止まること", func(t *testing.T) {
		var calls []domain.ProviderTag
		r, err := New(
			&mockProvider{tag: domain.ProviderPreview, calls: &calls},
			&mockProvider{tag: domain.ProviderGemini, calls: &calls},
			&mockProvider{tag: domain.ProviderVertex, result: img, calls: &calls},
		)
		require.NoError(t, err)

		got, tag := r.Resolve(context.Background(), domain.ProviderGemini, providers.Request{Prompt: "x"})
		assert.Equal(t, img, got)
		assert.Equal(t, domain.ProviderVertex, tag)
		assert.Equal(t, []domain.ProviderTag{"gemini", "vertex"}, calls)
	})

	t.Run("参照画像があれば preview を最初に試すこと", func(t *testing.T) {
		var calls []domain.ProviderTag
		r, _ := New(
			&mockProvider{tag: domain.ProviderPreview, result: img, calls: &calls},
			&mockProvider{tag: domain.ProviderVertex, calls: &calls},
		)
		_, tag := r.Resolve(context.Background(), domain.ProviderVertex, providers.Request{
			Reference: &domain.ReferenceImage{Data: []byte("ref"), MimeType: "image/png"},
		})
		assert.Equal(t, domain.ProviderPreview, tag)
		assert.Equal(t, []domain.ProviderTag{"preview"}, calls)
	})

	t.Run("全滅なら fallback タグを返すこと", func(t *testing.T) {
		var calls []domain.ProviderTag
		r, _ := New(
			&mockProvider{tag: domain.ProviderPreview, calls: &calls},
			&mockProvider{tag: domain.ProviderGemini, result: &imagedom.ImageResponse{}, calls: &calls},
			&mockProvider{tag: domain.ProviderVertex, calls: &calls},
		)
		got, tag := r.Resolve(context.Background(), domain.ProviderPreview, providers.Request{})
		assert.Nil(t, got)
		assert.Equal(t, domain.ProviderFallback, tag)
		assert.Len(t, calls, 3)
	})

	t.Run("プロバイダー無しは構築エラー", func(t *testing.T) {
		_, err := New()
		assert.Error(t, err)
	})
}
