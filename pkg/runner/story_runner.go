// Package runner はテキスト生成モデルを呼び出す処理をまとめます。
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/metrics"
	"github.com/shouni/go-ehon-kit/pkg/parser"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
)

const (
	// DefaultStoryAttempts は本文生成の呼び出し回数の上限（初回を含む）です。
	DefaultStoryAttempts = 2
	defaultRetryDelay    = time.Second
)

// TextModel はテキスト生成モデルの契約です。
type TextModel interface {
	GenerateContent(ctx context.Context, prompt string, model string) (*gemini.Response, error)
}

// ModelSource は必要になった時点でモデルを返します。初期化の失敗は次回の呼び出しで再試行されます。
type ModelSource interface {
	Get(ctx context.Context) (TextModel, error)
}

// StoryError は再試行しても構造化された本文を得られなかったことを示す終端エラーです。
type StoryError struct {
	Raw      string
	Attempts int
	Err      error
}

func (e *StoryError) Error() string {
	return fmt.Sprintf("%d 回試行しましたが絵本の本文を取得できませんでした: %v", e.Attempts, e.Err)
}

func (e *StoryError) Unwrap() error { return e.Err }

// StoryRunner は昔話の材料から 10 ページ分の本文を生成します。
type StoryRunner struct {
	models    ModelSource
	builder   prompts.PromptBuilder
	modelName string
	attempts  uint
	delay     time.Duration
}

// NewStoryRunner は StoryRunner を生成します。
func NewStoryRunner(models ModelSource, builder prompts.PromptBuilder, modelName string) (*StoryRunner, error) {
	if models == nil {
		return nil, fmt.Errorf("ModelSource は必須です")
	}
	if builder == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	return &StoryRunner{
		models:    models,
		builder:   builder,
		modelName: modelName,
		attempts:  DefaultStoryAttempts,
		delay:     defaultRetryDelay,
	}, nil
}

// Run は本文を生成して解析します。解析に失敗した場合は生成呼び出しごとやり直すのだ。
func (r *StoryRunner) Run(ctx context.Context, story prompts.Story, childName string) (domain.StoryResponse, error) {
	prompt, err := r.builder.Build(prompts.ModeStory, prompts.TemplateData{
		HeroName:  childName,
		Materials: story.Materials(),
	})
	if err != nil {
		return domain.StoryResponse{}, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	var (
		result   domain.StoryResponse
		lastRaw  string
		attempts int
	)
	err = retry.Do(
		func() error {
			attempts++
			model, err := r.models.Get(ctx)
			if err != nil {
				metrics.StoryAttemptsTotal.WithLabelValues(metrics.StatusError).Inc()
				return fmt.Errorf("AIクライアントの取得に失敗しました: %w", err)
			}

			slog.InfoContext(ctx, "本文を生成しています", "model", r.modelName, "story", story.ID, "attempt", attempts)
			resp, err := model.GenerateContent(ctx, prompt, r.modelName)
			if err != nil {
				metrics.StoryAttemptsTotal.WithLabelValues(metrics.StatusError).Inc()
				return fmt.Errorf("本文の生成に失敗しました: %w", err)
			}
			lastRaw = resp.Text

			parsed, err := parser.Parse(resp.Text)
			if err != nil {
				metrics.StoryAttemptsTotal.WithLabelValues(metrics.StatusEmpty).Inc()
				slog.WarnContext(ctx, "本文の解析に失敗しました", "attempt", attempts, "error", err)
				return err
			}
			metrics.StoryAttemptsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
			result = parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.StoryResponse{}, ctxErr
	}
	return domain.StoryResponse{}, &StoryError{Raw: lastRaw, Attempts: attempts, Err: err}
}
