// Package similarity は参照画像に対して候補画像を順位付けします。
package similarity

import (
	"math"
	"sort"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// Fingerprinter は画像から指紋を計算する契約です。
type Fingerprinter interface {
	Fingerprint(data []byte, mimeType string) (string, bool)
}

// Method はどの基準で勝者が決まったかを表します。
type Method string

const (
	MethodFirstSuccess Method = "first_success"
	MethodFingerprint  Method = "fingerprint"
	MethodHeuristic    Method = "heuristic"
)

// Ranker は指紋のハミング距離で候補を選び、使えなければバイト列ヒューリスティックに切り替えます。
type Ranker struct {
	hasher Fingerprinter
}

// NewRanker は Ranker を生成します。
func NewRanker(hasher Fingerprinter) *Ranker {
	return &Ranker{hasher: hasher}
}

// Distance は位置ごとの不一致数に長さの差を加えた距離を返すのだ。
func Distance(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	d := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	if len(a) > len(b) {
		d += len(a) - len(b)
	} else {
		d += len(b) - len(a)
	}
	return d
}

// Select は参照画像に最も近い候補を返します。該当がなければ ok=false。
func (r *Ranker) Select(ref *domain.ReferenceImage, candidates []domain.Candidate) (domain.Candidate, Method, bool) {
	pool := ordered(candidates)

	if ref == nil || len(ref.Data) == 0 {
		for _, c := range pool {
			if c.HasImage() {
				return c, MethodFirstSuccess, true
			}
		}
		return domain.Candidate{}, MethodFirstSuccess, false
	}

	if refFP, ok := r.hasher.Fingerprint(ref.Data, ref.MimeType); ok {
		if c, found := r.byFingerprint(refFP, pool); found {
			return c, MethodFingerprint, true
		}
	}

	if c, found := byHeuristic(ref.Data, pool); found {
		return c, MethodHeuristic, true
	}
	return domain.Candidate{}, MethodHeuristic, false
}

func (r *Ranker) byFingerprint(refFP string, pool []domain.Candidate) (domain.Candidate, bool) {
	best := -1
	bestDist := math.MaxInt
	for i, c := range pool {
		if !c.HasImage() {
			continue
		}
		fp, ok := r.hasher.Fingerprint(c.Image.Data, c.Image.MimeType)
		if !ok {
			continue
		}
		// 厳密な < により同距離では先の序数が残る
		if d := Distance(refFP, fp); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return domain.Candidate{}, false
	}
	return pool[best], true
}

// ordered は完了順に依存しないよう序数順に並べ替えたコピーを返します。
func ordered(candidates []domain.Candidate) []domain.Candidate {
	pool := make([]domain.Candidate, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Ordinal < pool[j].Ordinal })
	return pool
}
