package providers

import (
	"context"
	"fmt"

	"github.com/shouni/go-ehon-kit/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// DefaultImagenModel はテキストから画像を生成する既定モデルです。
const DefaultImagenModel = "imagen-3.0-fast-generate-001"

// GeminiImagesProvider は Gemini API の images エンドポイントを呼び出すアダプターです。
// モデルは URL ではなくボディで指定します。参照画像は使いません。
type GeminiImagesProvider struct {
	caller
	apiKey string
}

// NewGeminiImagesProvider は GeminiImagesProvider を生成します。
func NewGeminiImagesProvider(client HTTPClient, apiKey string, opts Options) (*GeminiImagesProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	return &GeminiImagesProvider{
		caller: caller{tag: domain.ProviderGemini, client: client, opts: opts.withDefaults(DefaultImagenModel)},
		apiKey: apiKey,
	}, nil
}

func (g *GeminiImagesProvider) Tag() domain.ProviderTag { return domain.ProviderGemini }

func (g *GeminiImagesProvider) Generate(ctx context.Context, req Request) *imagedom.ImageResponse {
	if g.apiKey == "" {
		return g.skip(ctx, "GEMINI_API_KEY が設定されていません")
	}

	body := map[string]any{
		"model":  g.opts.Model,
		"prompt": map[string]string{"text": req.Prompt},
		"imageGenerationConfig": map[string]any{
			"numberOfImages": 1,
			"aspectRatio":    req.AspectRatio,
		},
	}
	if g.opts.NegativePrompt != "" {
		body["negativePrompt"] = g.opts.NegativePrompt
	}

	url := g.opts.BaseURL + "/models/imagegeneration:generate"
	resp, err := g.postJSON(ctx, url, body, map[string]string{"x-goog-api-key": g.apiKey})
	if err != nil {
		return g.finish(ctx, nil, err)
	}
	img, err := extractGeneratedImage(resp)
	return g.finish(ctx, img, err)
}
