package pipeline

import (
	"context"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
)

// Page は単一ページ再生成の入力です。
type Page struct {
	Spec       domain.PageSpec
	StoryTitle string
	ChildName  string
	HeroName   string
	// Reference は前ページの画像、なければヒーロー画像です。
	Reference      *domain.ReferenceImage
	PreviousPrompt string
	Primary        domain.ProviderTag
}

// RunPage は外部から与えられた素材と参照画像で 1 ページだけ生成します。
// 他のページの状態には一切触れないのだ。
func (p *Pipeline) RunPage(ctx context.Context, page Page) (domain.PageResult, error) {
	ref := page.Reference
	if ref != nil && len(ref.Data) == 0 {
		ref = nil
	}
	res, _, err := p.render(ctx, pageInput{
		spec:       page.Spec,
		storyTitle: page.StoryTitle,
		childName:  page.ChildName,
		heroName:   page.HeroName,
		primary:    page.Primary,
		reference:  ref,
		hint:       prompts.PreviousPromptHint(page.PreviousPrompt),
	})
	return res, err
}
