// Package pipeline はページを順番に生成し、前ページの勝者画像を次ページの参照画像として引き継ぎます。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/generator"
	"github.com/shouni/go-ehon-kit/pkg/imagehash"
	"github.com/shouni/go-ehon-kit/pkg/metrics"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/providers"

	"github.com/google/uuid"
)

const promptPreviewLength = 160

// IllustrationPromptBuilder は挿絵プロンプトを構築するインターフェースです。
type IllustrationPromptBuilder interface {
	BuildIllustrationPrompt(in prompts.IllustrationInput) string
}

// DescriptionRewriter は挿絵の説明を整えるインターフェースです。失敗時も必ず文字列を返します。
type DescriptionRewriter interface {
	Rewrite(ctx context.Context, storyTitle, childName, description string) string
}

// CandidateSource は 1 ページ分の候補プールを作るインターフェースです。
type CandidateSource interface {
	Generate(ctx context.Context, primary domain.ProviderTag, req providers.Request) ([]domain.Candidate, error)
}

// WinnerSelector は候補プールから勝者を選ぶインターフェースです。
type WinnerSelector interface {
	Select(ref *domain.ReferenceImage, pool []domain.Candidate) generator.Selection
}

// ImageDecoder は勝者画像を次の参照にできるか判定します。
type ImageDecoder interface {
	Capability() imagehash.Capability
	Decodable(data []byte, mimeType string) bool
}

// Options はパイプラインの実行時オプションです。
type Options struct {
	AspectRatio string
	// DebugPrompt が true なら PageResult にプロンプトの先頭を含めます。
	DebugPrompt bool
}

// Book は 1 冊分の実行入力です。
type Book struct {
	StoryTitle string
	ChildName  string
	// HeroName は呼称付きの表示名です。
	HeroName string
	Pages    []domain.PageSpec
	Hero     *domain.ReferenceImage
	Primary  domain.ProviderTag
}

// Pipeline はページ単位の生成を直列に実行する司令塔なのだ。
type Pipeline struct {
	builder  IllustrationPromptBuilder
	rewriter DescriptionRewriter
	source   CandidateSource
	selector WinnerSelector
	decoder  ImageDecoder
	opts     Options
}

// New は Pipeline を生成します。rewriter は nil でもよく、その場合はサニタイズのみ行います。
func New(
	builder IllustrationPromptBuilder,
	rewriter DescriptionRewriter,
	source CandidateSource,
	selector WinnerSelector,
	decoder ImageDecoder,
	opts Options,
) (*Pipeline, error) {
	if builder == nil || source == nil || selector == nil || decoder == nil {
		return nil, fmt.Errorf("builder, source, selector, decoder は必須です")
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = domain.DefaultAspectRatio
	}
	return &Pipeline{
		builder:  builder,
		rewriter: rewriter,
		source:   source,
		selector: selector,
		decoder:  decoder,
		opts:     opts,
	}, nil
}

// Run は全ページを番号順に生成します。
// ctx がキャンセルされた場合は、完了済みのページと ctx のエラーを返します。
func (p *Pipeline) Run(ctx context.Context, book Book) ([]domain.PageResult, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID)

	pages := slices.Clone(book.Pages)
	slices.SortStableFunc(pages, func(a, b domain.PageSpec) int { return a.Index - b.Index })

	ref := book.Hero
	if ref != nil && len(ref.Data) == 0 {
		ref = nil
	}
	logger.InfoContext(ctx, "絵本の生成を開始します",
		"pages", len(pages), "primary", book.Primary, "hero", ref != nil)

	results := make([]domain.PageResult, 0, len(pages))
	for _, spec := range pages {
		res, winner, err := p.render(ctx, pageInput{
			spec:       spec,
			storyTitle: book.StoryTitle,
			childName:  book.ChildName,
			heroName:   book.HeroName,
			primary:    book.Primary,
			reference:  ref,
		})
		if err != nil {
			logger.WarnContext(ctx, "生成が中断されました", "page", spec.Index, "completed", len(results), "error", err)
			return results, err
		}
		results = append(results, res)

		ref = p.nextReference(winner)
		logger.InfoContext(ctx, "ページを生成しました",
			"page", spec.Index, "provider", res.Provider, "has_image", res.ImageDataURL != "", "chained", ref != nil)
	}
	return results, nil
}

// nextReference は勝者が画像として読めるときだけ参照画像として返します。
func (p *Pipeline) nextReference(winner *domain.ReferenceImage) *domain.ReferenceImage {
	if winner == nil || len(winner.Data) == 0 {
		return nil
	}
	if p.decoder.Capability().CanHash() {
		if !p.decoder.Decodable(winner.Data, winner.MimeType) {
			return nil
		}
		return winner
	}
	// デコーダーが使えない環境では MIME タイプで判定するのだ。
	if !strings.HasPrefix(winner.MimeType, "image/") {
		return nil
	}
	return winner
}

type pageInput struct {
	spec       domain.PageSpec
	storyTitle string
	childName  string
	heroName   string
	primary    domain.ProviderTag
	reference  *domain.ReferenceImage
	hint       string
}

// render は BuildPrompt → GenerateCandidates → SelectWinner の 1 ページ分を実行します。
// 勝者の画像を ReferenceImage として返しますが、参照に使えるかどうかは呼び出し側が判断します。
func (p *Pipeline) render(ctx context.Context, in pageInput) (domain.PageResult, *domain.ReferenceImage, error) {
	text := prompts.SanitizeText(in.spec.Text)
	desc := p.describe(ctx, in)

	prompt := p.builder.BuildIllustrationPrompt(prompts.IllustrationInput{
		StoryTitle:       in.storyTitle,
		HeroName:         in.heroName,
		ImageDescription: desc,
		StorySnippet:     prompts.StorySnippet(text),
	}) + in.hint
	slog.DebugContext(ctx, "挿絵プロンプト", "page", in.spec.Index, "prompt", prompt)

	pool, err := p.source.Generate(ctx, in.primary, providers.Request{
		Prompt:      prompt,
		AspectRatio: p.opts.AspectRatio,
		Reference:   in.reference,
	})
	if err != nil {
		return domain.PageResult{}, nil, fmt.Errorf("ページ %d の候補生成に失敗しました: %w", in.spec.Index, err)
	}

	sel := p.selector.Select(in.reference, pool)
	if err := ctx.Err(); err != nil {
		return domain.PageResult{}, nil, err
	}

	res := domain.PageResult{
		Index:            in.spec.Index,
		Text:             text,
		Provider:         sel.Provider(),
		PromptUsed:       prompt,
		ImageDescription: desc,
	}
	if p.opts.DebugPrompt {
		res.PromptPreview = truncateRunes(prompt, promptPreviewLength)
	}
	metrics.PagesTotal.WithLabelValues(string(res.Provider), string(sel.Method)).Inc()

	if !sel.Found {
		return res, nil, nil
	}
	img := sel.Winner.Image
	res.ImageDataURL = domain.EncodeDataURL(img.MimeType, img.Data)
	return res, &domain.ReferenceImage{Data: img.Data, MimeType: img.MimeType}, nil
}

func (p *Pipeline) describe(ctx context.Context, in pageInput) string {
	if p.rewriter == nil {
		return prompts.SanitizeImageDescription(in.spec.ImageDescription)
	}
	return p.rewriter.Rewrite(ctx, in.storyTitle, in.childName, in.spec.ImageDescription)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
