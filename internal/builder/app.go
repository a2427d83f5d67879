package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/lazy"
	"github.com/shouni/go-ehon-kit/pkg/parser"
	"github.com/shouni/go-ehon-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを CLI と HTTP サーバーの両方に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config      *config.Config          // Configは、環境変数とフラグから組み立てた設定です。
	Workflow    workflow.Workflow       // Workflowは、本文生成から挿絵生成、保存までを担う司令塔です。
	HeroLoader  *workflow.HeroLoader    // HeroLoaderは、ヒーロー画像を URL やパスから読み込みます。
	StoryParser *parser.StoryFileParser // StoryParserは、生成済みの本文 JSON を読み込みます。
	httpClient  httpkit.ClientInterface // httpClient は外部APIとの通信に使う共通クライアント
	ioFactory   *lazy.Cell[remoteio.IOFactory]
}

// Close は、AppContext が保持する外部接続リソースを解放します。
func (a *AppContext) Close() {
	if a.ioFactory == nil || !a.ioFactory.Ready() {
		return
	}
	factory, err := a.ioFactory.Get(context.Background())
	if err != nil {
		return
	}
	if err := factory.Close(); err != nil {
		slog.Error("IOFactory のクローズに失敗しました", "error", err)
	}
}

// lazyReader は最初の Open で IOFactory を生成する InputReader の代わりなのだ。
// 読み込みが不要なコマンドでは GCS の認証情報を要求しません。
type lazyReader struct {
	factory *lazy.Cell[remoteio.IOFactory]
}

func (r lazyReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	factory, err := r.factory.Get(ctx)
	if err != nil {
		return nil, err
	}
	reader, err := factory.InputReader()
	if err != nil {
		return nil, fmt.Errorf("InputReader の作成に失敗しました: %w", err)
	}
	return reader.Open(ctx, path)
}
