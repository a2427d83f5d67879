// Package providers は外部の画像生成エンドポイントを共通の契約で包むアダプター群です。
// どのアダプターも失敗をログに残して nil を返し、エラーを境界の外へ出しません。
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout は 1 回のプロバイダー呼び出しのタイムアウトです。
	DefaultTimeout = 90 * time.Second
	// DefaultBaseURL は Gemini API のベース URL です。
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultMimeType = "image/png"
)

// Request はすべてのアダプターに共通の入力です。
type Request struct {
	Prompt      string
	AspectRatio string
	// Reference は読み取り専用なのだ。アダプターは変更してはいけない。
	Reference *domain.ReferenceImage
}

// Provider は 1 つの外部画像生成呼び出しの契約です。
// 失敗時は nil を返します。
type Provider interface {
	Tag() domain.ProviderTag
	Generate(ctx context.Context, req Request) *imagedom.ImageResponse
}

// HTTPClient は httpkit.ClientInterface のうちアダプターが使う部分です。
// 2xx 以外のステータスはエラーとして返される前提なのだ。
type HTTPClient interface {
	DoRequest(req *http.Request) ([]byte, error)
}

// Options はアダプター共通の設定です。
type Options struct {
	BaseURL        string
	Model          string
	Timeout        time.Duration
	Limiter        *rate.Limiter
	NegativePrompt string
}

func (o Options) withDefaults(model string) Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = model
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}
