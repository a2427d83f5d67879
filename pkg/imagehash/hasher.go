// Package imagehash は 8x8 の平均ハッシュ（aHash）で画像の粗い指紋を計算します。
package imagehash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/image/draw"
)

const (
	// GridSize は縮小後の一辺のサンプル数です。
	GridSize = 8
	// FingerprintLength は指紋の文字数（GridSize*GridSize）です。
	FingerprintLength = GridSize * GridSize

	defaultCacheExpiration = 10 * time.Minute
	cacheCleanupInterval   = 20 * time.Minute
)

type decodeFunc func(io.Reader) (image.Image, error)

// Hasher は画像バイト列から指紋を計算します。結果は内容のハッシュをキーにメモ化されます。
type Hasher struct {
	capability Capability
	memo       *cache.Cache
}

// NewHasher はデコーダーの可否を一度だけ判定して Hasher を生成するのだ。
func NewHasher() *Hasher {
	return NewHasherWithCapability(DetectCapability())
}

// NewHasherWithCapability は判定済みの Capability を使って Hasher を生成します。
func NewHasherWithCapability(c Capability) *Hasher {
	return &Hasher{
		capability: c,
		memo:       cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// Capability は起動時に判定したデコーダーの可否を返します。
func (h *Hasher) Capability() Capability {
	return h.capability
}

// Fingerprint は画像の 64 文字の 0/1 指紋を返します。
// デコードできない場合は ok=false を返し、エラーにはしません。
func (h *Hasher) Fingerprint(data []byte, mimeType string) (string, bool) {
	if len(data) == 0 || !h.capability.CanHash() {
		return "", false
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if v, found := h.memo.Get(key); found {
		fp, _ := v.(string)
		return fp, fp != ""
	}

	img, err := h.decode(data, mimeType)
	if err != nil {
		// 失敗も記録して同じバイト列の再デコードを避ける
		h.memo.Set(key, "", cache.DefaultExpiration)
		return "", false
	}

	fp := AverageHash(img)
	h.memo.Set(key, fp, cache.DefaultExpiration)
	return fp, true
}

// Decodable は指紋を計算できる画像かどうかを返します。
func (h *Hasher) Decodable(data []byte, mimeType string) bool {
	_, ok := h.Fingerprint(data, mimeType)
	return ok
}

// decode は宣言された形式を先に試し、失敗したらもう一方の形式を一度だけ試すのだ。
func (h *Hasher) decode(data []byte, mimeType string) (image.Image, error) {
	var order []decodeFunc
	pngFirst := !strings.Contains(strings.ToLower(mimeType), "jpeg") && !strings.Contains(strings.ToLower(mimeType), "jpg")
	if pngFirst {
		order = h.appendIf(order, png.Decode, h.capability.PNG)
		order = h.appendIf(order, jpeg.Decode, h.capability.JPEG)
	} else {
		order = h.appendIf(order, jpeg.Decode, h.capability.JPEG)
		order = h.appendIf(order, png.Decode, h.capability.PNG)
	}

	var lastErr error
	for _, dec := range order {
		img, err := dec(bytes.NewReader(data))
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("利用可能なデコーダーがありません")
	}
	return nil, fmt.Errorf("画像のデコードに失敗しました (mime=%s): %w", mimeType, lastErr)
}

func (h *Hasher) appendIf(order []decodeFunc, f decodeFunc, enabled bool) []decodeFunc {
	if enabled {
		return append(order, f)
	}
	return order
}

// AverageHash はデコード済み画像を 8x8 に最近傍縮小し、平均輝度との比較でビット列を作ります。
func AverageHash(img image.Image) string {
	grid := image.NewRGBA(image.Rect(0, 0, GridSize, GridSize))
	draw.NearestNeighbor.Scale(grid, grid.Bounds(), img, img.Bounds(), draw.Src, nil)

	lumas := make([]float64, 0, FingerprintLength)
	var total float64
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			i := grid.PixOffset(x, y)
			r, g, b := float64(grid.Pix[i]), float64(grid.Pix[i+1]), float64(grid.Pix[i+2])
			l := 0.299*r + 0.587*g + 0.114*b
			lumas = append(lumas, l)
			total += l
		}
	}
	mean := total / float64(len(lumas))

	var sb strings.Builder
	sb.Grow(FingerprintLength)
	for _, l := range lumas {
		if l >= mean {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
