package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// testHTTPClient は httpkit の DoRequest と同じく 2xx 以外をエラーにする最小実装なのだ。
type testHTTPClient struct {
	client *http.Client
}

func (c *testHTTPClient) DoRequest(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// mockCredentials は Credentials を実装します。
type mockCredentials struct {
	projectFunc func(ctx context.Context) (string, error)
	tokenFunc   func(ctx context.Context) (string, error)
}

func (m *mockCredentials) ProjectID(ctx context.Context) (string, error) {
	return m.projectFunc(ctx)
}

func (m *mockCredentials) AccessToken(ctx context.Context) (string, error) {
	return m.tokenFunc(ctx)
}
