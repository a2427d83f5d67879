package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/pkg/asset"
	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/generator"
	"github.com/shouni/go-ehon-kit/pkg/imagehash"
	"github.com/shouni/go-ehon-kit/pkg/lazy"
	"github.com/shouni/go-ehon-kit/pkg/pipeline"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/providers"
	"github.com/shouni/go-ehon-kit/pkg/publisher"
	"github.com/shouni/go-ehon-kit/pkg/resolver"
	"github.com/shouni/go-ehon-kit/pkg/runner"
	"github.com/shouni/go-ehon-kit/pkg/similarity"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// PageRequest の省略時の既定値です。
const (
	defaultPageTitle       = "昔話"
	defaultPageChildName   = "たろう"
	defaultPageDescription = "やわらかな水彩の一場面"
)

// StoryGenerator は本文生成の契約です。
type StoryGenerator interface {
	Run(ctx context.Context, story prompts.Story, childName string) (domain.StoryResponse, error)
}

// Illustrator はページの挿絵生成の契約です。
type Illustrator interface {
	Run(ctx context.Context, book pipeline.Book) ([]domain.PageResult, error)
	RunPage(ctx context.Context, page pipeline.Page) (domain.PageResult, error)
}

// BookPublisher は成果物の保存の契約です。
type BookPublisher interface {
	Publish(ctx context.Context, book publisher.Book) (publisher.PublishResult, error)
}

// ManagerArgs は Manager の構築に必要な依存関係です。
type ManagerArgs struct {
	Config     Config
	HTTPClient providers.HTTPClient
	// 以下は省略可能です。nil の場合は Config から構築します。
	TextModels  runner.ModelSource
	Credentials providers.Credentials
	Hasher      *imagehash.Hasher
	Publisher   BookPublisher
}

// Manager は本文生成、挿絵生成、保存を束ねる司令塔なのだ。
type Manager struct {
	cfg         Config
	story       StoryGenerator
	illustrator Illustrator
	publisher   BookPublisher
}

// BookResult は 1 冊分の生成結果です。
type BookResult struct {
	Key      string              `json:"key"`
	Title    string              `json:"title"`
	Pages    []domain.PageResult `json:"pages"`
	BookPath string              `json:"bookPath,omitempty"`
}

// New は、設定を基に新しい Manager を初期化します。
// AI クライアントは最初の呼び出しまで生成しません。
func New(args ManagerArgs) (*Manager, error) {
	if args.HTTPClient == nil {
		return nil, fmt.Errorf("httpClient は必須です")
	}
	cfg := args.Config

	textBuilder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	storyModels := args.TextModels
	rewriteModels := args.TextModels
	if storyModels == nil {
		storyModels = newLazyModel(cfg.GeminiAPIKey, DefaultStoryTemperature)
		rewriteModels = newLazyModel(cfg.GeminiAPIKey, DefaultRewriteTemperature)
	}

	storyRunner, err := runner.NewStoryRunner(storyModels, textBuilder, cfg.StoryModel)
	if err != nil {
		return nil, err
	}

	var rewriter pipeline.DescriptionRewriter
	if cfg.RewriteDescriptions {
		rewriter = runner.NewDescriptionRewriter(rewriteModels, textBuilder, cfg.StoryModel)
	}

	imageResolver, err := buildResolver(cfg, args.HTTPClient, args.Credentials)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}
	candidates, err := generator.NewCandidateGenerator(imageResolver, cfg.Rounds, cfg.ParallelRounds)
	if err != nil {
		return nil, err
	}

	hasher := args.Hasher
	if hasher == nil {
		hasher = imagehash.NewHasher()
	}
	if !hasher.Capability().CanHash() {
		slog.Warn("画像デコーダーが利用できません。類似度はヒューリスティックで判定します")
	}
	selector := generator.NewConsistencySelector(similarity.NewRanker(hasher))

	pl, err := pipeline.New(
		prompts.NewIllustrationBuilder(prompts.DefaultArtDirection),
		rewriter,
		candidates,
		selector,
		hasher,
		pipeline.Options{AspectRatio: domain.DefaultAspectRatio, DebugPrompt: cfg.DebugPrompt},
	)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:         cfg,
		story:       storyRunner,
		illustrator: pl,
		publisher:   args.Publisher,
	}, nil
}

// newLazyModel は初回利用時に gemini クライアントを生成するセルを返します。
func newLazyModel(apiKey string, temperature float32) *lazy.Cell[runner.TextModel] {
	return lazy.New(func(ctx context.Context) (runner.TextModel, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
		}
		clientConfig := gemini.Config{
			APIKey:      apiKey,
			Temperature: genai.Ptr(temperature),
		}
		aiClient, err := gemini.NewClient(ctx, clientConfig)
		if err != nil {
			return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
		}
		return aiClient, nil
	})
}

// buildResolver は 3 つのプロバイダーをプロバイダーごとのレート制限付きで組み立てます。
func buildResolver(cfg Config, client providers.HTTPClient, creds providers.Credentials) (*resolver.Resolver, error) {
	opts := func(model string) providers.Options {
		o := providers.Options{
			Model:          model,
			Timeout:        cfg.RequestTimeout,
			NegativePrompt: prompts.NegativePrompt,
		}
		if cfg.RateInterval > 0 {
			o.Limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), 1)
		}
		return o
	}

	preview, err := providers.NewPreviewProvider(client, cfg.GeminiAPIKey, opts(cfg.PreviewModel))
	if err != nil {
		return nil, err
	}
	images, err := providers.NewGeminiImagesProvider(client, cfg.GeminiAPIKey, opts(cfg.ImagenModel))
	if err != nil {
		return nil, err
	}
	if creds == nil {
		creds = providers.NewMetadataCredentials(client, cfg.ProjectID, cfg.AccessToken, cfg.MetadataURL)
	}
	vertex, err := providers.NewVertexProvider(client, creds, cfg.Location, opts(cfg.ImagenModel))
	if err != nil {
		return nil, err
	}
	return resolver.New(preview, images, vertex)
}

// Story は本文のみを生成します。画像生成は行いません。
func (m *Manager) Story(ctx context.Context, req domain.BookRequest) (prompts.Story, domain.StoryResponse, error) {
	story, err := prompts.LookupStory(req.StoryID, req.CustomStory)
	if err != nil {
		return prompts.Story{}, domain.StoryResponse{}, err
	}
	resp, err := m.story.Run(ctx, story, req.ChildName)
	if err != nil {
		return story, domain.StoryResponse{}, err
	}
	return story, resp, nil
}

// GenerateBook は本文生成から挿絵生成、保存までを一気通貫で実行します。
func (m *Manager) GenerateBook(ctx context.Context, req domain.BookRequest) (BookResult, error) {
	if req.ChildName == "" {
		return BookResult{}, fmt.Errorf("主人公の名前は必須です")
	}
	story, resp, err := m.Story(ctx, req)
	if err != nil {
		return BookResult{}, err
	}
	return m.Illustrate(ctx, req, story, resp)
}

// Illustrate は生成済みの本文に挿絵を付けます。TextOnly の場合は本文だけを整えて返すのだ。
func (m *Manager) Illustrate(ctx context.Context, req domain.BookRequest, story prompts.Story, resp domain.StoryResponse) (BookResult, error) {
	result := BookResult{
		Key:   asset.StoryKey(req.ChildName, req.StoryID, req.CustomStory),
		Title: story.Title,
	}
	heroName := req.Honorific.DisplayName(req.ChildName)

	if req.TextOnly {
		result.Pages = textOnlyPages(resp.Pages)
		return result, nil
	}

	pages, err := m.illustrator.Run(ctx, pipeline.Book{
		StoryTitle: story.Title,
		ChildName:  req.ChildName,
		HeroName:   heroName,
		Pages:      resp.Pages,
		Hero:       req.Hero,
		Primary:    m.cfg.ResolvePrimary(req.Engine),
	})
	if err != nil {
		return BookResult{}, err
	}
	result.Pages = pages

	if m.publisher == nil {
		return result, nil
	}
	published, err := m.publisher.Publish(ctx, publisher.Book{
		Key:   result.Key,
		Title: result.Title,
		Hero:  heroName,
		Pages: pages,
	})
	if err != nil {
		slog.WarnContext(ctx, "絵本の保存に失敗しました。生成結果はそのまま返します", "key", result.Key, "error", err)
	}
	if len(published.Pages) == len(pages) {
		result.Pages = published.Pages
	}
	result.BookPath = published.BookPath
	return result, nil
}

// GeneratePage は単一ページを再生成します。前ページの画像があればそれを、なければヒーロー画像を参照にします。
func (m *Manager) GeneratePage(ctx context.Context, req domain.PageRequest) (domain.PageResult, error) {
	if req.Index <= 0 {
		req.Index = 1
	}
	if req.StoryTitle == "" {
		req.StoryTitle = defaultPageTitle
	}
	if req.ChildName == "" {
		req.ChildName = defaultPageChildName
	}
	if req.ImageDescription == "" {
		req.ImageDescription = defaultPageDescription
	}

	return m.illustrator.RunPage(ctx, pipeline.Page{
		Spec: domain.PageSpec{
			Index:            req.Index,
			Text:             req.Text,
			ImageDescription: req.ImageDescription,
		},
		StoryTitle:     req.StoryTitle,
		ChildName:      req.ChildName,
		HeroName:       domain.ParseHonorific(req.Honorific).DisplayName(req.ChildName),
		Reference:      req.Reference(),
		PreviousPrompt: req.PreviousPrompt,
		Primary:        m.cfg.ResolvePrimary(req.Engine),
	})
}

func textOnlyPages(specs []domain.PageSpec) []domain.PageResult {
	pages := make([]domain.PageResult, 0, len(specs))
	for _, s := range specs {
		pages = append(pages, domain.PageResult{
			Index:            s.Index,
			Text:             prompts.SanitizeText(s.Text),
			ImageDescription: prompts.SanitizeImageDescription(s.ImageDescription),
		})
	}
	return pages
}
