package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/workflow"
)

// デフォルト値の定義なのだ
const (
	DefaultHTTPTimeout     = 60 * time.Second
	DefaultPort            = "8080"
	DefaultOutputDir       = "output"
	DefaultOutputFile      = "" // 空なら標準出力なのだ
	DefaultStoryID         = "momotaro"
	DefaultShutdownTimeout = 15 * time.Second
)

// Config はアプリケーション全体の環境設定（APIキーやクラウド設定）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey string
	StoryModel   string
	ImagenModel  string
	PreviewModel string

	ProjectID   string
	LocationID  string
	AccessToken string
	Primary     string

	OutputDir       string
	DebugPrompt     bool
	Port            string
	ShutdownTimeout time.Duration

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	projectID := envutil.GetEnv("GEHON_IMAGEN_PROJECT_ID", "")
	if projectID == "" {
		projectID = envutil.GetEnv("GOOGLE_CLOUD_PROJECT", "")
	}

	return &Config{
		GeminiAPIKey:    envutil.GetEnv("GEMINI_API_KEY", ""),
		StoryModel:      envutil.GetEnv("GEHON_STORY_MODEL", workflow.DefaultStoryModel),
		ImagenModel:     envutil.GetEnv("GEHON_IMAGEN_MODEL", workflow.DefaultImagenModel),
		PreviewModel:    envutil.GetEnv("GEHON_PREVIEW_MODEL", workflow.DefaultPreviewModel),
		ProjectID:       projectID,
		LocationID:      envutil.GetEnv("GEHON_IMAGEN_LOCATION", workflow.DefaultLocation),
		AccessToken:     envutil.GetEnv("GEHON_IMAGEN_ACCESS_TOKEN", ""),
		Primary:         envutil.GetEnv("GEHON_IMAGE_PRIMARY", string(workflow.DefaultPrimary)),
		OutputDir:       envutil.GetEnv("GEHON_OUTPUT_DIR", ""),
		DebugPrompt:     parseBool(envutil.GetEnv("GEHON_DEBUG_PROMPT", "")),
		Port:            envutil.GetEnv("PORT", DefaultPort),
		ShutdownTimeout: DefaultShutdownTimeout,
		Options: GenerateOptions{
			Rounds:       workflow.DefaultConfig().Rounds,
			Parallel:     true,
			Rewrite:      true,
			RateInterval: workflow.DefaultRateInterval,
			HTTPTimeout:  DefaultHTTPTimeout,
		},
	}
}

// ValidateEssentialConfig はアプリケーション実行に不可欠な設定を検証します。
func ValidateEssentialConfig(cfg *Config) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	if cfg.Primary != "" {
		if _, ok := domain.ParseProviderTag(cfg.Primary); !ok {
			return fmt.Errorf("GEHON_IMAGE_PRIMARY の値が不正です: '%s' (preview, gemini, vertex のいずれか)", cfg.Primary)
		}
	}
	return nil
}

// WorkflowConfig は絵本生成の設定に変換するのだ。
func (c *Config) WorkflowConfig() workflow.Config {
	wc := workflow.NewConfig(c.GeminiAPIKey)
	wc.StoryModel = orDefault(c.StoryModel, wc.StoryModel)
	wc.ImagenModel = orDefault(c.ImagenModel, wc.ImagenModel)
	wc.PreviewModel = orDefault(c.PreviewModel, wc.PreviewModel)
	wc.ProjectID = c.ProjectID
	wc.Location = orDefault(c.LocationID, wc.Location)
	wc.AccessToken = c.AccessToken
	if tag, ok := domain.ParseProviderTag(c.Primary); ok {
		wc.Primary = tag
	}
	wc.OutputDir = c.OutputDir
	wc.DebugPrompt = c.DebugPrompt

	opts := c.Options
	if opts.Rounds > 0 {
		wc.Rounds = opts.Rounds
	}
	wc.ParallelRounds = opts.Parallel
	wc.RewriteDescriptions = opts.Rewrite
	wc.RateInterval = opts.RateInterval
	return wc
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力関連
	ChildName   string // --name
	Honorific   string // --honorific
	StoryID     string // --story
	CustomStory string // --custom
	StoryFile   string // --story-file: 生成済みの本文 JSON
	Hero        string // --hero: data URL、URL、ローカルパス、gs://
	Engine      string // --engine

	// 出力関連
	OutputFile string // --output-file

	// 生成の挙動
	Rounds       int           // --rounds
	Parallel     bool          // --parallel
	Rewrite      bool          // --rewrite
	RateInterval time.Duration // --rate-interval

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
