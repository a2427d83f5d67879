package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// pageFlags は page コマンド固有の入力なのだ。
var pageFlags struct {
	index          int
	title          string
	description    string
	text           string
	previous       string
	previousPrompt string
}

// pageCmd は、1 ページだけを再生成するのだ。
var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "1 ページだけ挿絵を再生成するのだ。",
	Long: `前のページの画像（なければ --hero の写真）を参照にして、指定したページの挿絵を 1 枚だけ描くのだ。
他のページには一切触れないので、気に入らないページだけ描き直せるのだよ。`,
	Example: "  go-ehon-kit page --idx 3 -n はると --desc '川辺で桃を拾う場面' --previous page-2.png",
	RunE:    pageCommand,
}

func init() {
	pageCmd.Flags().IntVar(&pageFlags.index, "idx", 1, "ページ番号なのだ。")
	pageCmd.Flags().StringVar(&pageFlags.title, "title", "", "物語のタイトルなのだ。")
	pageCmd.Flags().StringVar(&pageFlags.description, "desc", "", "挿絵の場面説明なのだ。")
	pageCmd.Flags().StringVar(&pageFlags.text, "text", "", "ページの本文なのだ。")
	pageCmd.Flags().StringVar(&pageFlags.previous, "previous", "", "前ページの画像（data URL、URL、ローカルパス、gs://）なのだ。")
	pageCmd.Flags().StringVar(&pageFlags.previousPrompt, "previous-prompt", "", "前ページで使ったプロンプトなのだ。")
}

func pageCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	appCtx, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	req := domain.PageRequest{
		Index:            pageFlags.index,
		StoryTitle:       pageFlags.title,
		ChildName:        opts.ChildName,
		Honorific:        opts.Honorific,
		ImageDescription: pageFlags.description,
		Text:             pageFlags.text,
		PreviousPrompt:   pageFlags.previousPrompt,
		Engine:           opts.Engine,
	}
	if req.PreviousDataURL, err = loadDataURL(ctx, appCtx, pageFlags.previous); err != nil {
		return err
	}
	if req.HeroDataURL, err = loadDataURL(ctx, appCtx, opts.Hero); err != nil {
		return err
	}

	res, err := appCtx.Workflow.GeneratePage(ctx, req)
	if err != nil {
		return fmt.Errorf("ページの生成に失敗したのだ: %w", err)
	}
	slog.Info("ページを生成したのだ", "page", res.Index, "engine", res.Provider)
	return writeJSON(res)
}

func loadDataURL(ctx context.Context, appCtx *builder.AppContext, location string) (string, error) {
	ref, err := appCtx.HeroLoader.Load(ctx, location)
	if err != nil || ref == nil {
		return "", err
	}
	return domain.EncodeDataURL(ref.MimeType, ref.Data), nil
}
