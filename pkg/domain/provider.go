package domain

import "strings"

// ProviderTag は画像生成プロバイダーの識別子です。
type ProviderTag string

const (
	// ProviderPreview は参照画像をインラインで受け取れる直接生成モデルなのだ。
	ProviderPreview ProviderTag = "preview"
	// ProviderGemini は Gemini API 経由のテキストからの画像生成です。
	ProviderGemini ProviderTag = "gemini"
	// ProviderVertex は Vertex AI の predict エンドポイントです。
	ProviderVertex ProviderTag = "vertex"
	// ProviderFallback は全プロバイダーが失敗したことを示す番兵値です。
	ProviderFallback ProviderTag = "fallback"
)

// ProviderOrder は試行するプロバイダーの順序付きリストです。
type ProviderOrder []ProviderTag

// ParseProviderTag は文字列を ProviderTag に変換します。未知の値は ok=false。
func ParseProviderTag(s string) (ProviderTag, bool) {
	switch tag := ProviderTag(strings.ToLower(strings.TrimSpace(s))); tag {
	case ProviderPreview, ProviderGemini, ProviderVertex:
		return tag, true
	default:
		return "", false
	}
}
