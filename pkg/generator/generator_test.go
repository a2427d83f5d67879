package generator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/providers"
	"github.com/shouni/go-ehon-kit/pkg/similarity"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResolver は呼び出し回数ごとの結果を返す ImageResolver なのだ。
type mockResolver struct {
	calls   atomic.Int32
	resolve func(n int32) (*imagedom.ImageResponse, domain.ProviderTag)
}

func (m *mockResolver) Resolve(_ context.Context, _ domain.ProviderTag, _ providers.Request) (*imagedom.ImageResponse, domain.ProviderTag) {
	return m.resolve(m.calls.Add(1))
}

type mockRanker struct {
	selectFunc func(ref *domain.ReferenceImage, c []domain.Candidate) (domain.Candidate, similarity.Method, bool)
}

func (m *mockRanker) Select(ref *domain.ReferenceImage, c []domain.Candidate) (domain.Candidate, similarity.Method, bool) {
	return m.selectFunc(ref, c)
}

func TestCandidateGenerator_Generate(t *testing.T) {
	img := &imagedom.ImageResponse{Data: []byte("img"), MimeType: "image/png"}

	for _, parallel := range []bool{false, true} {
		t.Run("序数はラウンド番号と一致すること", func(t *testing.T) {
			r := &mockResolver{resolve: func(n int32) (*imagedom.ImageResponse, domain.ProviderTag) {
				if n == 2 {
					return nil, domain.ProviderFallback
				}
				return img, domain.ProviderPreview
			}}
			g, err := NewCandidateGenerator(r, 0, parallel)
			require.NoError(t, err)

			pool, err := g.Generate(context.Background(), domain.ProviderPreview, providers.Request{})
			require.NoError(t, err)
			require.Len(t, pool, DefaultRounds)
			for i, c := range pool {
				assert.Equal(t, i, c.Ordinal)
			}
			assert.Equal(t, int32(DefaultRounds), r.calls.Load())
		})
	}

	t.Run("キャンセル時は候補を返さないこと", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := &mockResolver{resolve: func(n int32) (*imagedom.ImageResponse, domain.ProviderTag) {
			cancel()
			return img, domain.ProviderGemini
		}}
		g, _ := NewCandidateGenerator(r, 3, false)
		pool, err := g.Generate(ctx, domain.ProviderGemini, providers.Request{})
		assert.Error(t, err)
		assert.Nil(t, pool)
		assert.Equal(t, int32(1), r.calls.Load())
	})

	t.Run("並列実行でも完了順に関係なく序数が安定すること", func(t *testing.T) {
		r := &mockResolver{resolve: func(n int32) (*imagedom.ImageResponse, domain.ProviderTag) {
			time.Sleep(time.Duration(3-n) * 5 * time.Millisecond)
			return &imagedom.ImageResponse{Data: []byte{byte(n)}}, domain.ProviderVertex
		}}
		g, _ := NewCandidateGenerator(r, 3, true)
		pool, err := g.Generate(context.Background(), domain.ProviderVertex, providers.Request{})
		require.NoError(t, err)
		for i, c := range pool {
			assert.Equal(t, i, c.Ordinal)
		}
	})

	t.Run("resolver が nil ならエラー", func(t *testing.T) {
		_, err := NewCandidateGenerator(nil, 3, false)
		assert.Error(t, err)
	})
}

func TestConsistencySelector_Select(t *testing.T) {
	t.Run("ランカーの勝者とタグを返すこと", func(t *testing.T) {
		winner := domain.Candidate{Image: &imagedom.ImageResponse{Data: []byte("w")}, Provider: domain.ProviderGemini, Ordinal: 1}
		s := NewConsistencySelector(&mockRanker{selectFunc: func(*domain.ReferenceImage, []domain.Candidate) (domain.Candidate, similarity.Method, bool) {
			return winner, similarity.MethodFingerprint, true
		}})
		sel := s.Select(nil, nil)
		assert.True(t, sel.Found)
		assert.Equal(t, domain.ProviderGemini, sel.Provider())
	})

	t.Run("勝者が無ければ fallback", func(t *testing.T) {
		s := NewConsistencySelector(&mockRanker{selectFunc: func(*domain.ReferenceImage, []domain.Candidate) (domain.Candidate, similarity.Method, bool) {
			return domain.Candidate{}, similarity.MethodHeuristic, false
		}})
		sel := s.Select(&domain.ReferenceImage{Data: []byte("r")}, nil)
		assert.False(t, sel.Found)
		assert.Equal(t, domain.ProviderFallback, sel.Provider())
	})
}
