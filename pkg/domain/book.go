package domain

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// PageCount は 1 冊の絵本を構成する固定のページ数です。
const PageCount = 10

// DefaultAspectRatio は絵本らしさを優先した全ページ共通の比率なのだ。
const DefaultAspectRatio = "3:4"

var dataURLRegex = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// ReferenceImage は次の生成呼び出しを誘導する参照画像です。
// パイプラインだけが所有し、プロバイダーは読み取りのみ行います。
type ReferenceImage struct {
	Data     []byte
	MimeType string
}

// Candidate は 1 ページ分の生成ラウンドで得られた 1 つの候補画像です。
type Candidate struct {
	Image    *imagedom.ImageResponse
	Provider ProviderTag
	Ordinal  int
}

// HasImage は候補が空でない画像バイト列を持つかどうかを返します。
func (c Candidate) HasImage() bool {
	return c.Image != nil && len(c.Image.Data) > 0
}

// PageResult は外部に公開される 1 ページ分の出力です。
type PageResult struct {
	Index            int         `json:"idx"`
	Text             string      `json:"text"`
	ImageDataURL     string      `json:"imageDataUrl"`
	Provider         ProviderTag `json:"engine,omitempty"`
	PromptUsed       string      `json:"promptFull,omitempty"`
	PromptPreview    string      `json:"promptPreview,omitempty"`
	ImageDescription string      `json:"leftImageDesc,omitempty"`
}

// Reference は PageResult の画像を次ページ用の参照画像として取り出します。
// data URL でない場合や image/ 以外の MIME の場合は nil を返すのだ。
func (r PageResult) Reference() *ReferenceImage {
	ref, err := ParseDataURL(r.ImageDataURL)
	if err != nil || !strings.HasPrefix(ref.MimeType, "image/") {
		return nil
	}
	return ref
}

// EncodeDataURL はバイト列を base64 の data URL に変換します。
func EncodeDataURL(mimeType string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURL は data URL を MIME タイプとデコード済みバイト列に分解します。
func ParseDataURL(dataURL string) (*ReferenceImage, error) {
	m := dataURLRegex.FindStringSubmatch(dataURL)
	if m == nil {
		return nil, fmt.Errorf("data URL の形式ではありません")
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("data URL の base64 デコードに失敗しました: %w", err)
	}
	return &ReferenceImage{Data: data, MimeType: m[1]}, nil
}
