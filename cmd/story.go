package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// storyCmd は、挿絵を描かずに本文だけを生成するのだ。
var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "絵本の本文だけを生成するのだ。",
	Long: `画像生成を行わず、10 ページ分の本文と場面説明だけを出力するのだ。
出力した JSON は page コマンドで 1 ページずつ挿絵を付けるときの素材になるのだよ。`,
	Example: "  go-ehon-kit story -n ゆい --honorific chan -s kaguyahime -o story.json",
	RunE:    storyCommand,
}

// storyCommand は、story サブコマンドの実行ロジック本体なのだ。
func storyCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	req.TextOnly = true

	slog.Info("本文だけを生成するのだ", "story", req.StoryID)
	res, err := appCtx.Workflow.GenerateBook(ctx, req)
	if err != nil {
		return fmt.Errorf("本文の生成に失敗したのだ: %w", err)
	}
	return writeJSON(res)
}
