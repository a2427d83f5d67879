package similarity

import (
	"strings"
	"testing"

	"github.com/shouni/go-ehon-kit/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFingerprinter はバイト列をキーに事前定義した指紋を返すのだ。
type fakeFingerprinter struct {
	fps map[string]string
}

func (f *fakeFingerprinter) Fingerprint(data []byte, _ string) (string, bool) {
	fp, ok := f.fps[string(data)]
	return fp, ok
}

func candidate(ordinal int, data string, tag domain.ProviderTag) domain.Candidate {
	c := domain.Candidate{Ordinal: ordinal, Provider: tag}
	if data != "" {
		c.Image = &imagedom.ImageResponse{Data: []byte(data), MimeType: "image/png"}
	}
	return c
}

// flip は先頭 n ビットを反転させた指紋を返す
func flip(fp string, n int) string {
	b := []byte(fp)
	for i := 0; i < n; i++ {
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func TestDistance(t *testing.T) {
	x := strings.Repeat("01", 32)
	y := flip(x, 7)

	assert.Equal(t, 0, Distance(x, x))
	assert.Equal(t, 7, Distance(x, y))
	assert.Equal(t, Distance(x, y), Distance(y, x))
	// 長さの差はペナルティとして加算される
	assert.Equal(t, 4, Distance(x, x[:60]))
	assert.Equal(t, 64, Distance(x, ""))
}

func TestRanker_Select(t *testing.T) {
	ref := strings.Repeat("1100", 16)

	t.Run("距離が最小の候補を選ぶこと", func(t *testing.T) {
		f := &fakeFingerprinter{fps: map[string]string{
			"ref": ref,
			"a":   flip(ref, 5),
			"b":   flip(ref, 2),
			"c":   flip(ref, 9),
		}}
		r := NewRanker(f)
		got, method, ok := r.Select(
			&domain.ReferenceImage{Data: []byte("ref"), MimeType: "image/png"},
			[]domain.Candidate{
				candidate(0, "a", domain.ProviderPreview),
				candidate(1, "b", domain.ProviderGemini),
				candidate(2, "c", domain.ProviderVertex),
			},
		)
		require.True(t, ok)
		assert.Equal(t, 1, got.Ordinal)
		assert.Equal(t, domain.ProviderGemini, got.Provider)
		assert.Equal(t, MethodFingerprint, method)
	})

	t.Run("同距離なら完了順に関係なく先の序数を選ぶこと", func(t *testing.T) {
		f := &fakeFingerprinter{fps: map[string]string{
			"ref": ref,
			"a":   flip(ref, 3),
			"b":   flip(ref, 3),
		}}
		got, _, ok := NewRanker(f).Select(
			&domain.ReferenceImage{Data: []byte("ref")},
			[]domain.Candidate{candidate(2, "b", domain.ProviderVertex), candidate(0, "a", domain.ProviderPreview)},
		)
		require.True(t, ok)
		assert.Equal(t, 0, got.Ordinal)
	})

	t.Run("参照が無い場合は最初の成功候補を返すこと", func(t *testing.T) {
		f := &fakeFingerprinter{fps: map[string]string{"A": ref, "B": ref}}
		got, method, ok := NewRanker(f).Select(nil, []domain.Candidate{
			candidate(0, "", domain.ProviderFallback),
			candidate(1, "A", domain.ProviderPreview),
			candidate(2, "B", domain.ProviderGemini),
		})
		require.True(t, ok)
		assert.Equal(t, "A", string(got.Image.Data))
		assert.Equal(t, MethodFirstSuccess, method)
	})

	t.Run("参照の指紋が取れない場合はヒューリスティックに切り替えること", func(t *testing.T) {
		f := &fakeFingerprinter{fps: map[string]string{}}
		got, method, ok := NewRanker(f).Select(
			&domain.ReferenceImage{Data: []byte("hello picture book")},
			[]domain.Candidate{
				candidate(0, "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", domain.ProviderPreview),
				candidate(1, "hello picture boo!", domain.ProviderGemini),
			},
		)
		require.True(t, ok)
		assert.Equal(t, 1, got.Ordinal)
		assert.Equal(t, MethodHeuristic, method)
	})

	t.Run("全候補が空なら ok=false", func(t *testing.T) {
		f := &fakeFingerprinter{fps: map[string]string{"ref": ref}}
		_, _, ok := NewRanker(f).Select(
			&domain.ReferenceImage{Data: []byte("ref")},
			[]domain.Candidate{candidate(0, "", domain.ProviderFallback)},
		)
		assert.False(t, ok)
	})
}

func TestHeuristicScore(t *testing.T) {
	assert.InDelta(t, 1.0, HeuristicScore("abcd", "abcd"), 1e-9)
	// 先頭一致 2/4、長さ 1 - 0/4
	assert.InDelta(t, 0.6*0.5+0.4*1.0, HeuristicScore("abcd", "abxy"), 1e-9)
	assert.InDelta(t, 0.0, HeuristicScore("", ""), 1e-9)
}
