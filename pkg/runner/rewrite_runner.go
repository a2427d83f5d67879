package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/prompts"
)

// DescriptionRewriter は挿絵の説明を水彩絵本向けの 1 文に書き換えます。
// どこかで失敗した場合はサニタイズした説明を返すのだ。
type DescriptionRewriter struct {
	models    ModelSource
	builder   prompts.PromptBuilder
	modelName string
}

// NewDescriptionRewriter は DescriptionRewriter を生成します。models が nil ならサニタイズのみ行います。
func NewDescriptionRewriter(models ModelSource, builder prompts.PromptBuilder, modelName string) *DescriptionRewriter {
	return &DescriptionRewriter{models: models, builder: builder, modelName: modelName}
}

// Rewrite は書き換え後の説明を返します。
func (r *DescriptionRewriter) Rewrite(ctx context.Context, storyTitle, childName, description string) string {
	fallback := func(reason string, err error) string {
		if err != nil {
			slog.WarnContext(ctx, "挿絵説明の書き換えに失敗しました", "reason", reason, "error", err)
		}
		return prompts.SanitizeImageDescription(description)
	}
	if r.models == nil || r.builder == nil {
		return fallback("disabled", nil)
	}

	prompt, err := r.builder.Build(prompts.ModeRewrite, prompts.TemplateData{
		StoryTitle:  storyTitle,
		HeroName:    childName,
		Description: description,
	})
	if err != nil {
		return fallback("prompt", err)
	}
	model, err := r.models.Get(ctx)
	if err != nil {
		return fallback("client", err)
	}
	resp, err := model.GenerateContent(ctx, prompt, r.modelName)
	if err != nil {
		return fallback("generate", err)
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" {
		return fallback("empty", nil)
	}
	return out
}
