// Package resolver はプロバイダーの試行順を決め、最初に成功した結果を返します。
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/providers"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// ReferenceCapable は参照画像をインラインで受け取れるプロバイダーです。
const ReferenceCapable = domain.ProviderPreview

// preferences は各プロバイダーを主とした場合の固定の優先順です。
var preferences = map[domain.ProviderTag]domain.ProviderOrder{
	domain.ProviderPreview: {domain.ProviderPreview, domain.ProviderGemini, domain.ProviderVertex},
	domain.ProviderGemini:  {domain.ProviderGemini, domain.ProviderVertex, domain.ProviderPreview},
	domain.ProviderVertex:  {domain.ProviderVertex, domain.ProviderGemini, domain.ProviderPreview},
}

// Order は (主プロバイダー, 参照画像の有無) から試行順を導く純粋関数なのだ。
// 未知の主プロバイダーは gemini の順序として扱います。
func Order(primary domain.ProviderTag, hasReference bool) domain.ProviderOrder {
	base, ok := preferences[primary]
	if !ok {
		base = preferences[domain.ProviderGemini]
	}
	if !hasReference {
		return append(domain.ProviderOrder(nil), base...)
	}

	order := make(domain.ProviderOrder, 0, len(base)+1)
	seen := make(map[domain.ProviderTag]bool, len(base)+1)
	for _, tag := range append(domain.ProviderOrder{ReferenceCapable}, base...) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		order = append(order, tag)
	}
	return order
}

// Resolver は登録済みのプロバイダーを試行順に呼び出します。
type Resolver struct {
	providers map[domain.ProviderTag]providers.Provider
}

// New は Resolver を生成します。同じタグのプロバイダーは後勝ちです。
func New(ps ...providers.Provider) (*Resolver, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("プロバイダーは少なくとも 1 つ必須です")
	}
	m := make(map[domain.ProviderTag]providers.Provider, len(ps))
	for _, p := range ps {
		if p == nil {
			return nil, fmt.Errorf("nil のプロバイダーは登録できません")
		}
		m[p.Tag()] = p
	}
	return &Resolver{providers: m}, nil
}

// Resolve は最初に空でない画像を返したプロバイダーの結果とタグを返します。
// 全滅した場合は (nil, ProviderFallback) なのだ。
func (r *Resolver) Resolve(ctx context.Context, primary domain.ProviderTag, req providers.Request) (*imagedom.ImageResponse, domain.ProviderTag) {
	order := Order(primary, req.Reference != nil && len(req.Reference.Data) > 0)
	for _, tag := range order {
		if ctx.Err() != nil {
			break
		}
		p, ok := r.providers[tag]
		if !ok {
			continue
		}
		if img := p.Generate(ctx, req); img != nil && len(img.Data) > 0 {
			return img, tag
		}
	}
	slog.WarnContext(ctx, "すべてのプロバイダーが画像生成に失敗しました", "order", order)
	return nil, domain.ProviderFallback
}
