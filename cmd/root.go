package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

var (
	opts    config.GenerateOptions
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "go-ehon-kit",
	Short: "昔話やオリジナルのあらすじから 10 ページの絵本を生成するのだ。",
	Long: `主人公の名前と物語を指定すると、AI が 10 ページ分の本文を書き、
前のページの絵を参照しながら 1 ページずつ挿絵を描くのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ログ ---
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログ（プロンプト全文を含む）を出力するのだ。")

	// --- 主人公と物語 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ChildName, "name", "n", "", "主人公の名前なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Honorific, "honorific", string(domain.HonorificNone), "呼称（kun, chan, none）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.StoryID, "story", "s", config.DefaultStoryID, "昔話の ID、または custom なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.CustomStory, "custom", "", "--story custom のときのあらすじなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Hero, "hero", "", "主人公の写真（data URL、URL、ローカルパス、gs://）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Engine, "engine", "e", "", "主エンジン（preview, gemini, vertex）なのだ。空なら GEHON_IMAGE_PRIMARY を使うのだ。")

	// --- 出力 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultOutputFile, "結果の JSON の保存先なのだ。空なら標準出力なのだ。")

	// --- 生成の挙動 ---
	rootCmd.PersistentFlags().IntVar(&opts.Rounds, "rounds", workflow.DefaultConfig().Rounds, "1 ページあたりの候補数なのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.Parallel, "parallel", true, "候補生成を並列に実行するのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.Rewrite, "rewrite", true, "場面説明を AI で短く書き直すのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", workflow.DefaultRateInterval, "プロバイダーごとの呼び出し間隔なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "HTTP リクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前にログの設定を行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig は環境変数を読み込み、フラグで上書きした設定を返すのだ。
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	cfg.Options = opts
	if opts.Engine != "" {
		cfg.Primary = opts.Engine
	}
	if verbose {
		cfg.DebugPrompt = true
	}
	if err := config.ValidateEssentialConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildApp は設定の読み込みから AppContext の構築までをまとめて行うのだ。
func buildApp(ctx context.Context) (*builder.AppContext, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return builder.BuildAppContext(ctx, cfg)
}

// writeJSON は結果を --output-file または標準出力へ書き出すのだ。
func writeJSON(v any) error {
	var w io.Writer = os.Stdout
	if opts.OutputFile != "" {
		f, err := os.Create(opts.OutputFile)
		if err != nil {
			return fmt.Errorf("出力ファイルの作成に失敗しました: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("結果の書き出しに失敗しました: %w", err)
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// Ctrl+C で生成中のページも含めて中断できるのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, storyCmd, pageCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
