package providers

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/shouni/go-ehon-kit/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// DefaultPreviewModel は参照画像付きで直接生成できるプレビューモデルです。
const DefaultPreviewModel = "gemini-2.5-flash-image-preview"

const (
	canvasLineFormat   = "キャンバス比率: %s（縦構図）"
	referenceDirective = "参照画像の雰囲気・色味・主人公の外見（髪型・服装・配色）を保ちつつ、上記の内容に従って新しい場面を水彩で描いてください。"
)

type previewPart struct {
	Text       string             `json:"text,omitempty"`
	InlineData *previewInlineData `json:"inlineData,omitempty"`
}

type previewInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type previewContent struct {
	Role  string        `json:"role"`
	Parts []previewPart `json:"parts"`
}

type previewRequest struct {
	Contents         []previewContent `json:"contents"`
	GenerationConfig map[string]any   `json:"generationConfig"`
}

// PreviewProvider は generateContent でインライン画像を返すモデルのアダプターです。
// 3 種の中で唯一、参照画像を受け取れます。
type PreviewProvider struct {
	caller
	apiKey string
}

// NewPreviewProvider は PreviewProvider を生成します。
func NewPreviewProvider(client HTTPClient, apiKey string, opts Options) (*PreviewProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	return &PreviewProvider{
		caller: caller{tag: domain.ProviderPreview, client: client, opts: opts.withDefaults(DefaultPreviewModel)},
		apiKey: apiKey,
	}, nil
}

func (p *PreviewProvider) Tag() domain.ProviderTag { return domain.ProviderPreview }

// Generate は参照画像があれば先頭のパーツとして添付して生成するのだ。
func (p *PreviewProvider) Generate(ctx context.Context, req Request) *imagedom.ImageResponse {
	if p.apiKey == "" {
		return p.skip(ctx, "GEMINI_API_KEY が設定されていません")
	}

	body := previewRequest{
		Contents: []previewContent{{Role: "user", Parts: buildPreviewParts(req)}},
		// プレビューモデルは response_mime_type に画像 MIME を指定できない
		GenerationConfig: map[string]any{
			"temperature":     0.7,
			"topK":            1,
			"topP":            1,
			"maxOutputTokens": 1024,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.opts.BaseURL, p.opts.Model)
	resp, err := p.postJSON(ctx, url, body, map[string]string{"x-goog-api-key": p.apiKey})
	if err != nil {
		return p.finish(ctx, nil, err)
	}
	img, err := extractInlineImage(resp)
	return p.finish(ctx, img, err)
}

func buildPreviewParts(req Request) []previewPart {
	canvas := fmt.Sprintf(canvasLineFormat, req.AspectRatio)
	if req.Reference == nil || len(req.Reference.Data) == 0 {
		return []previewPart{{Text: req.Prompt + "\n" + canvas}}
	}
	return []previewPart{
		{InlineData: &previewInlineData{
			MimeType: req.Reference.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Reference.Data),
		}},
		{Text: req.Prompt + "\n" + canvas + "\n" + referenceDirective},
	}
}
