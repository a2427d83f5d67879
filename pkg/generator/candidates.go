// Package generator は 1 ページ分の候補画像を生成し、参照画像に最も近いものを選びます。
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/providers"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultRounds は 1 ページあたりの独立した生成ラウンド数です。
const DefaultRounds = 3

// ImageResolver はフォールバック順にプロバイダーを試行する契約です。
type ImageResolver interface {
	Resolve(ctx context.Context, primary domain.ProviderTag, req providers.Request) (*imagedom.ImageResponse, domain.ProviderTag)
}

// CandidateGenerator は同じ入力で複数ラウンドを実行し、候補のプールを作ります。
type CandidateGenerator struct {
	resolver ImageResolver
	rounds   int
	parallel bool
}

// NewCandidateGenerator は CandidateGenerator を生成します。rounds が 0 以下なら既定値を使うのだ。
func NewCandidateGenerator(resolver ImageResolver, rounds int, parallel bool) (*CandidateGenerator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver は必須です")
	}
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &CandidateGenerator{resolver: resolver, rounds: rounds, parallel: parallel}, nil
}

// Generate は rounds 個の候補を返します。候補 i の Ordinal は常に i です。
// ctx がキャンセルされた場合はプールを捨ててエラーを返します。
func (g *CandidateGenerator) Generate(ctx context.Context, primary domain.ProviderTag, req providers.Request) ([]domain.Candidate, error) {
	pool := make([]domain.Candidate, g.rounds)

	round := func(ctx context.Context, i int) {
		img, tag := g.resolver.Resolve(ctx, primary, req)
		pool[i] = domain.Candidate{Image: img, Provider: tag, Ordinal: i}
		slog.DebugContext(ctx, "候補を生成しました", "ordinal", i, "provider", tag, "ok", img != nil)
	}

	if g.parallel {
		eg, egCtx := errgroup.WithContext(ctx)
		for i := 0; i < g.rounds; i++ {
			eg.Go(func() error {
				round(egCtx, i)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i := 0; i < g.rounds; i++ {
			if ctx.Err() != nil {
				break
			}
			round(ctx, i)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("候補生成が中断されました: %w", err)
	}
	return pool, nil
}
