package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// DefaultMetadataURL は GCE / Cloud Run のメタデータサーバーです。
	DefaultMetadataURL = "http://metadata.google.internal/computeMetadata/v1"
	metadataTokenPath   = "/instance/service-accounts/default/token"
	metadataProjectPath = "/project/project-id"
)

// Credentials は Vertex 呼び出しに必要なプロジェクト ID とアクセストークンを解決します。
type Credentials interface {
	ProjectID(ctx context.Context) (string, error)
	AccessToken(ctx context.Context) (string, error)
}

// MetadataCredentials は明示的な値を優先し、無ければメタデータサーバーに問い合わせるのだ。
type MetadataCredentials struct {
	client      HTTPClient
	projectID   string
	accessToken string
	metadataURL string
}

// NewMetadataCredentials は MetadataCredentials を生成します。
func NewMetadataCredentials(client HTTPClient, projectID, accessToken, metadataURL string) *MetadataCredentials {
	if metadataURL == "" {
		metadataURL = DefaultMetadataURL
	}
	return &MetadataCredentials{
		client:      client,
		projectID:   projectID,
		accessToken: accessToken,
		metadataURL: strings.TrimRight(metadataURL, "/"),
	}
}

func (m *MetadataCredentials) ProjectID(ctx context.Context) (string, error) {
	if m.projectID != "" {
		return m.projectID, nil
	}
	body, err := m.get(ctx, metadataProjectPath)
	if err != nil {
		return "", fmt.Errorf("プロジェクト ID の自動取得に失敗しました: %w", err)
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", fmt.Errorf("メタデータサーバーが空のプロジェクト ID を返しました")
	}
	return id, nil
}

func (m *MetadataCredentials) AccessToken(ctx context.Context) (string, error) {
	if m.accessToken != "" {
		return m.accessToken, nil
	}
	body, err := m.get(ctx, metadataTokenPath)
	if err != nil {
		return "", fmt.Errorf("アクセストークンの自動取得に失敗しました: %w", err)
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("メタデータ応答に access_token が含まれていません")
	}
	return token, nil
}

func (m *MetadataCredentials) get(ctx context.Context, path string) ([]byte, error) {
	if m.client == nil {
		return nil, fmt.Errorf("httpClient が設定されていません")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.metadataURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Metadata-Flavor", "Google")
	return m.client.DoRequest(req)
}
