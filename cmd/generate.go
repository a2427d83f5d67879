package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

// generateCmd は、本文生成から挿絵生成、保存までを一気に実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "AI に絵本の本文と挿絵を生成させますなのだ。",
	Long: `昔話（またはオリジナルのあらすじ）と主人公の名前から 10 ページの本文を書き、
前のページの絵を参照しながら挿絵を描くのだ。
--story-file を指定すると、本文の生成を飛ばして保存済みの JSON に挿絵だけを付けるのだよ。`,
	Example: "  go-ehon-kit generate -n はると --honorific kun -s momotaro --hero hero.png -o book.json",
	RunE:    generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "生成済みの本文 JSON（ローカル or gs://...）なのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.ChildName == "" {
		return fmt.Errorf("主人公の名前（--name）を指定してほしいのだ")
	}

	appCtx, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	req, err := bookRequest(ctx, appCtx)
	if err != nil {
		return err
	}

	slog.Info("絵本生成パイプラインを起動するのだ！",
		"story", req.StoryID,
		"engine", appCtx.Config.Primary,
		"hero", req.Hero != nil,
		"story_file", opts.StoryFile)

	var res workflow.BookResult
	if opts.StoryFile != "" {
		res, err = illustrateStoryFile(ctx, appCtx, req)
	} else {
		res, err = appCtx.Workflow.GenerateBook(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	logSummary(res)
	return writeJSON(res)
}

// bookRequest はフラグから BookRequest を組み立てるのだ。
func bookRequest(ctx context.Context, appCtx *builder.AppContext) (domain.BookRequest, error) {
	hero, err := appCtx.HeroLoader.Load(ctx, opts.Hero)
	if err != nil {
		return domain.BookRequest{}, err
	}
	return domain.BookRequest{
		ChildName:   opts.ChildName,
		Honorific:   domain.ParseHonorific(opts.Honorific),
		StoryID:     opts.StoryID,
		CustomStory: opts.CustomStory,
		Engine:      opts.Engine,
		Hero:        hero,
	}, nil
}

func illustrateStoryFile(ctx context.Context, appCtx *builder.AppContext, req domain.BookRequest) (workflow.BookResult, error) {
	story, err := prompts.LookupStory(req.StoryID, req.CustomStory)
	if err != nil {
		return workflow.BookResult{}, err
	}
	resp, err := appCtx.StoryParser.ParseFromPath(ctx, opts.StoryFile)
	if err != nil {
		return workflow.BookResult{}, err
	}
	return appCtx.Workflow.Illustrate(ctx, req, story, resp)
}

func logSummary(res workflow.BookResult) {
	fallbacks := 0
	for _, p := range res.Pages {
		if p.Provider == domain.ProviderFallback {
			fallbacks++
		}
	}
	slog.Info("すべての生成工程が完了したのだ！",
		"key", res.Key,
		"title", res.Title,
		"pages", len(res.Pages),
		"fallback_pages", fallbacks,
		"book", res.BookPath)
}
