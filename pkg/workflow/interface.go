package workflow

import (
	"context"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
)

// Workflow は絵本生成の外部向け操作をまとめた契約なのだ。HTTP サーバーと CLI はこれだけに依存します。
type Workflow interface {
	// Story は本文のみを生成します。
	Story(ctx context.Context, req domain.BookRequest) (prompts.Story, domain.StoryResponse, error)
	// GenerateBook は本文生成から挿絵生成、保存までを実行します。
	GenerateBook(ctx context.Context, req domain.BookRequest) (BookResult, error)
	// Illustrate は生成済みの本文に挿絵を付けます。
	Illustrate(ctx context.Context, req domain.BookRequest, story prompts.Story, resp domain.StoryResponse) (BookResult, error)
	// GeneratePage は単一ページを再生成します。
	GeneratePage(ctx context.Context, req domain.PageRequest) (domain.PageResult, error)
}

var _ Workflow = (*Manager)(nil)
