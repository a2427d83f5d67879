package generator

import (
	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/similarity"
)

// CandidateRanker は候補プールから勝者を選ぶ契約です。
type CandidateRanker interface {
	Select(ref *domain.ReferenceImage, candidates []domain.Candidate) (domain.Candidate, similarity.Method, bool)
}

// Selection は 1 ページ分の選択結果です。
type Selection struct {
	Winner domain.Candidate
	Method similarity.Method
	Found  bool
}

// Provider は勝者のタグを返し、勝者が無ければ fallback を返すのだ。
func (s Selection) Provider() domain.ProviderTag {
	if !s.Found {
		return domain.ProviderFallback
	}
	return s.Winner.Provider
}

// ConsistencySelector は現在の参照画像に対して候補を順位付けします。
type ConsistencySelector struct {
	ranker CandidateRanker
}

// NewConsistencySelector は ConsistencySelector を生成します。
func NewConsistencySelector(ranker CandidateRanker) *ConsistencySelector {
	return &ConsistencySelector{ranker: ranker}
}

// Select は勝者を返します。参照画像は読み取りのみです。
func (s *ConsistencySelector) Select(ref *domain.ReferenceImage, pool []domain.Candidate) Selection {
	winner, method, ok := s.ranker.Select(ref, pool)
	return Selection{Winner: winner, Method: method, Found: ok && winner.HasImage()}
}
