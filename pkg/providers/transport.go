package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/metrics"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// caller は全アダプターが共有する送信処理（レート制御・タイムアウト・計測）です。
type caller struct {
	tag    domain.ProviderTag
	client HTTPClient
	opts   Options
}

// postJSON は JSON ボディを POST し、レスポンスボディを返します。
func (c *caller) postJSON(ctx context.Context, url string, body any, headers map[string]string) ([]byte, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("レート制限の待機中に中断されました: %w", err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストの JSON 変換に失敗しました: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.DoRequest(req)
	metrics.ProviderDuration.WithLabelValues(string(c.tag)).Observe(time.Since(start).Seconds())
	return resp, err
}

// finish は結果を計測・ログし、失敗を nil に変換するのだ。
func (c *caller) finish(ctx context.Context, img *imagedom.ImageResponse, err error) *imagedom.ImageResponse {
	switch {
	case err != nil:
		metrics.ProviderAttemptsTotal.WithLabelValues(string(c.tag), metrics.StatusError).Inc()
		slog.WarnContext(ctx, "画像生成プロバイダーの呼び出しに失敗しました", "provider", c.tag, "error", err)
		return nil
	case img == nil || len(img.Data) == 0:
		metrics.ProviderAttemptsTotal.WithLabelValues(string(c.tag), metrics.StatusEmpty).Inc()
		slog.WarnContext(ctx, "レスポンスから画像を抽出できませんでした", "provider", c.tag)
		return nil
	default:
		metrics.ProviderAttemptsTotal.WithLabelValues(string(c.tag), metrics.StatusSuccess).Inc()
		slog.DebugContext(ctx, "画像を生成しました", "provider", c.tag, "mime", img.MimeType, "bytes", len(img.Data))
		return img
	}
}

// skip は資格情報不足などで呼び出し自体を行わなかった場合の記録です。
func (c *caller) skip(ctx context.Context, reason string) *imagedom.ImageResponse {
	metrics.ProviderAttemptsTotal.WithLabelValues(string(c.tag), metrics.StatusSkipped).Inc()
	slog.WarnContext(ctx, "プロバイダーをスキップします", "provider", c.tag, "reason", reason)
	return nil
}
