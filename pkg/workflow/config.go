package workflow

import (
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/generator"
	"github.com/shouni/go-ehon-kit/pkg/providers"
)

// デフォルト値の定義なのだ
const (
	DefaultStoryModel         = "gemini-2.5-flash"
	DefaultImagenModel        = providers.DefaultImagenModel
	DefaultPreviewModel       = providers.DefaultPreviewModel
	DefaultLocation           = providers.DefaultVertexLocation
	DefaultPrimary            = domain.ProviderGemini
	DefaultRateInterval       = time.Second
	DefaultRequestTimeout     = providers.DefaultTimeout
	DefaultStoryTemperature   = float32(0.8)
	DefaultRewriteTemperature = float32(0.6)
)

// Config は絵本生成の各工程を動作させるための基本設定なのだ。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	StoryModel   string
	ImagenModel  string
	PreviewModel string

	// --- Vertex AI Settings ---
	ProjectID   string
	Location    string
	AccessToken string
	MetadataURL string

	// --- Generation Settings ---
	Primary             domain.ProviderTag
	Rounds              int
	ParallelRounds      bool
	RewriteDescriptions bool
	DebugPrompt         bool
	RateInterval        time.Duration

	// --- Storage & Output Settings ---
	OutputDir string

	// --- Timeout & Retries ---
	RequestTimeout time.Duration
}

// NewConfig はデフォルト値で初期化された Config を作成し、API キーをセットして返すのだ。
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = apiKey
	return cfg
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数なのだ。
func DefaultConfig() Config {
	return Config{
		StoryModel:          DefaultStoryModel,
		ImagenModel:         DefaultImagenModel,
		PreviewModel:        DefaultPreviewModel,
		Location:            DefaultLocation,
		MetadataURL:         providers.DefaultMetadataURL,
		Primary:             DefaultPrimary,
		Rounds:              generator.DefaultRounds,
		ParallelRounds:      true,
		RewriteDescriptions: true,
		RateInterval:        DefaultRateInterval,
		RequestTimeout:      DefaultRequestTimeout,
	}
}

// ResolvePrimary はリクエスト単位のエンジン指定を解決します。
// 不明な値や空の場合は設定の主プロバイダーを使うのだ。
func (c Config) ResolvePrimary(engine string) domain.ProviderTag {
	if tag, ok := domain.ParseProviderTag(engine); ok && tag != domain.ProviderFallback {
		return tag
	}
	if c.Primary == "" {
		return DefaultPrimary
	}
	return c.Primary
}
