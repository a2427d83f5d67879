package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/lazy"
	"github.com/shouni/go-ehon-kit/pkg/parser"
	"github.com/shouni/go-ehon-kit/pkg/publisher"
	"github.com/shouni/go-ehon-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// BuildAppContext は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	// 1. 基盤クライアントの初期化
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	// 2. I/O インフラ (GCS等) は初回利用時に初期化するのだ
	ioFactory := lazy.New(func(ctx context.Context) (remoteio.IOFactory, error) {
		factory, err := gcsfactory.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("GCS ファクトリーの作成に失敗しました: %w", err)
		}
		return factory, nil
	})
	reader := lazyReader{factory: ioFactory}

	// 3. 保存先が指定されている場合だけパブリッシャーを構築します
	var pub workflow.BookPublisher
	if cfg.OutputDir != "" {
		p, err := buildPublisher(ctx, ioFactory, cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		pub = p
	}

	// 4. ワークフローの構築
	manager, err := workflow.New(workflow.ManagerArgs{
		Config:     cfg.WorkflowConfig(),
		HTTPClient: httpClient,
		Publisher:  pub,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}

	return &AppContext{
		Config:      cfg,
		Workflow:    manager,
		HeroLoader:  workflow.NewHeroLoader(httpClient, reader),
		StoryParser: parser.NewStoryFileParser(reader),
		httpClient:  httpClient,
		ioFactory:   ioFactory,
	}, nil
}

func buildPublisher(ctx context.Context, ioFactory *lazy.Cell[remoteio.IOFactory], outputDir string) (*publisher.BookPublisher, error) {
	factory, err := ioFactory.Get(ctx)
	if err != nil {
		return nil, err
	}
	writer, err := factory.OutputWriter()
	if err != nil {
		return nil, fmt.Errorf("OutputWriter の作成に失敗しました: %w", err)
	}
	var signer publisher.URLSigner
	if s, err := factory.URLSigner(); err != nil {
		slog.WarnContext(ctx, "URLSigner の取得に失敗しました。保存パスをそのまま返します", "error", err)
	} else {
		signer = s
	}
	return publisher.NewBookPublisher(writer, signer, publisher.Options{
		OutputDir:           outputDir,
		SignedURLExpiration: publisher.DefaultSignedURLExpiration,
	})
}
