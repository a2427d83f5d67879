package similarity

import (
	"encoding/base64"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

const (
	headLength   = 256
	headWeight   = 0.6
	lengthWeight = 0.4
)

// byHeuristic は指紋が使えない場合のベストエフォートな比較です。
// base64 の先頭 256 文字の一致率と長さの近さを 6:4 で合成し、最大スコアを選びます。
func byHeuristic(refData []byte, pool []domain.Candidate) (domain.Candidate, bool) {
	refB64 := base64.StdEncoding.EncodeToString(refData)

	best := -1
	bestScore := -1.0
	for i, c := range pool {
		if !c.HasImage() {
			continue
		}
		s := HeuristicScore(refB64, base64.StdEncoding.EncodeToString(c.Image.Data))
		if s > bestScore {
			bestScore = s
			best = i
		}
	}
	if best < 0 {
		return domain.Candidate{}, false
	}
	return pool[best], true
}

// HeuristicScore は 2 つの base64 ペイロードの類似スコア（0..1）を返すのだ。
func HeuristicScore(refB64, candB64 string) float64 {
	var lenScore float64
	if maxLen := max(len(refB64), len(candB64)); maxLen > 0 {
		diff := len(refB64) - len(candB64)
		if diff < 0 {
			diff = -diff
		}
		lenScore = 1 - float64(diff)/float64(maxLen)
	}

	headRef := head(refB64)
	headCand := head(candB64)
	same := 0
	for j := 0; j < min(len(headRef), len(headCand)); j++ {
		if headRef[j] == headCand[j] {
			same++
		}
	}
	var headScore float64
	if len(headRef) > 0 {
		headScore = float64(same) / float64(max(len(headRef), len(headCand)))
	}

	return headWeight*headScore + lengthWeight*lenScore
}

func head(s string) string {
	if len(s) > headLength {
		return s[:headLength]
	}
	return s
}
