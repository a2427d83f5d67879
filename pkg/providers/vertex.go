package providers

import (
	"context"
	"fmt"

	"github.com/shouni/go-ehon-kit/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// DefaultVertexLocation は Vertex AI の既定リージョンです。
const DefaultVertexLocation = "us-central1"

// VertexProvider は Vertex AI の公開モデルを predict で呼び出すアダプターです。
type VertexProvider struct {
	caller
	creds    Credentials
	location string
}

// NewVertexProvider は VertexProvider を生成します。
// opts.BaseURL を指定した場合はリージョン別のホストの代わりに使います。
func NewVertexProvider(client HTTPClient, creds Credentials, location string, opts Options) (*VertexProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	if creds == nil {
		return nil, fmt.Errorf("credentials は必須です")
	}
	if location == "" {
		location = DefaultVertexLocation
	}
	if opts.BaseURL == "" {
		opts.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", location)
	}
	return &VertexProvider{
		caller:   caller{tag: domain.ProviderVertex, client: client, opts: opts.withDefaults(DefaultImagenModel)},
		creds:    creds,
		location: location,
	}, nil
}

func (v *VertexProvider) Tag() domain.ProviderTag { return domain.ProviderVertex }

func (v *VertexProvider) Generate(ctx context.Context, req Request) *imagedom.ImageResponse {
	projectID, err := v.creds.ProjectID(ctx)
	if err != nil {
		return v.skip(ctx, err.Error())
	}
	token, err := v.creds.AccessToken(ctx)
	if err != nil {
		return v.skip(ctx, err.Error())
	}

	instance := map[string]any{"prompt": req.Prompt}
	if v.opts.NegativePrompt != "" {
		instance["negativePrompt"] = v.opts.NegativePrompt
	}
	body := map[string]any{
		"instances": []any{instance},
		"parameters": map[string]any{
			"sampleCount": 1,
			"aspectRatio": req.AspectRatio,
		},
	}

	url := fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:predict",
		v.opts.BaseURL, projectID, v.location, v.opts.Model)
	resp, err := v.postJSON(ctx, url, body, map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return v.finish(ctx, nil, err)
	}
	img, err := extractGeneratedImage(resp)
	return v.finish(ctx, img, err)
}
