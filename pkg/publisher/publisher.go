// Package publisher は生成されたページを保存し、参照先を保存済みのパスに差し替えます。
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/asset"
	"github.com/shouni/go-ehon-kit/pkg/domain"
)

const (
	// DefaultSignedURLExpiration は GCS に保存した画像の署名付き URL の有効期限です。
	DefaultSignedURLExpiration = time.Hour
	defaultBookMarkdown        = "book.md"
)

// OutputWriter は成果物の書き出し先です。remoteio.OutputWriter が満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// URLSigner は保存済みオブジェクトの署名付き URL を発行します。remoteio.URLSigner が満たします。
type URLSigner interface {
	GenerateSignedURL(ctx context.Context, path, method string, expiration time.Duration) (string, error)
}

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// SignedURLExpiration が 0 の場合は既定値を使います。
	SignedURLExpiration time.Duration
}

// Book は保存する絵本 1 冊分の内容です。
type Book struct {
	Key   string              `json:"key"`
	Title string              `json:"title"`
	Hero  string              `json:"hero"`
	Pages []domain.PageResult `json:"pages"`
}

// PublishResult はパブリッシュ処理の結果です。
type PublishResult struct {
	BookPath     string
	MarkdownPath string
	// Pages は画像の参照先を保存済みのパスに差し替えたページです。
	Pages []domain.PageResult
}

// BookPublisher は成果物の永続化を担います。
type BookPublisher struct {
	writer OutputWriter
	signer URLSigner
	opts   Options
}

// NewBookPublisher は BookPublisher を生成します。signer は nil でもよいのだ。
func NewBookPublisher(writer OutputWriter, signer URLSigner, opts Options) (*BookPublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("出力先ディレクトリは必須です")
	}
	if opts.SignedURLExpiration <= 0 {
		opts.SignedURLExpiration = DefaultSignedURLExpiration
	}
	return &BookPublisher{writer: writer, signer: signer, opts: opts}, nil
}

// Publish はページ画像、book.json、book.md を書き出します。
// 画像の保存に失敗したページは data URL のまま返すのだ。
func (p *BookPublisher) Publish(ctx context.Context, book Book) (PublishResult, error) {
	result := PublishResult{Pages: p.PublishPages(ctx, book.Key, book.Pages)}
	book.Pages = result.Pages

	bookPath, err := asset.BookPath(p.opts.OutputDir, book.Key)
	if err != nil {
		return result, err
	}
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return result, fmt.Errorf("絵本 JSON の生成に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, bookPath, bytes.NewReader(data), "application/json"); err != nil {
		return result, fmt.Errorf("絵本 JSON の書き込みに失敗しました: %w", err)
	}
	result.BookPath = bookPath

	dir, err := asset.StoryDir(p.opts.OutputDir, book.Key)
	if err != nil {
		return result, err
	}
	mdPath, err := asset.ResolveOutputPath(dir, defaultBookMarkdown)
	if err != nil {
		return result, err
	}
	if err := p.writer.Write(ctx, mdPath, strings.NewReader(buildMarkdown(book)), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = mdPath

	slog.InfoContext(ctx, "絵本を保存しました", "key", book.Key, "path", bookPath)
	return result, nil
}

// PublishPages はページ画像だけを保存し、差し替え済みのコピーを返します。入力は変更しません。
func (p *BookPublisher) PublishPages(ctx context.Context, key string, pages []domain.PageResult) []domain.PageResult {
	out := make([]domain.PageResult, len(pages))
	copy(out, pages)
	for i := range out {
		stored, err := p.publishPage(ctx, key, out[i])
		if err != nil {
			slog.WarnContext(ctx, "画像の保存に失敗しました。data URL を返します", "page", out[i].Index, "error", err)
			continue
		}
		if stored != "" {
			out[i].ImageDataURL = stored
		}
	}
	return out
}

func (p *BookPublisher) publishPage(ctx context.Context, key string, page domain.PageResult) (string, error) {
	ref := page.Reference()
	if ref == nil {
		return "", nil
	}
	fullPath, err := asset.PagePath(p.opts.OutputDir, key, page.Index, ref.MimeType)
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, fullPath, bytes.NewReader(ref.Data), ref.MimeType); err != nil {
		return "", fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
	}

	if p.signer != nil && strings.HasPrefix(strings.ToLower(fullPath), "gs://") {
		u, err := p.signer.GenerateSignedURL(ctx, fullPath, http.MethodGet, p.opts.SignedURLExpiration)
		if err == nil {
			return u, nil
		}
		slog.WarnContext(ctx, "署名付き URL の発行に失敗しました", "path", fullPath, "error", err)
	}
	return fullPath, nil
}

// buildMarkdown は読み物として確認できる Markdown を返します。
func buildMarkdown(book Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", book.Title)
	if book.Hero != "" {
		fmt.Fprintf(&sb, "主人公: %s\n\n", book.Hero)
	}
	for _, page := range book.Pages {
		fmt.Fprintf(&sb, "## %d\n\n", page.Index)
		if link := imageLink(page.ImageDataURL); link != "" {
			fmt.Fprintf(&sb, "![page-%d](%s)\n\n", page.Index, link)
		}
		sb.WriteString(page.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// imageLink は Markdown から参照できる画像リンクを返します。ローカル保存の場合は同じディレクトリの相対パスなのだ。
func imageLink(location string) string {
	switch {
	case location == "", strings.HasPrefix(location, "data:"):
		return ""
	case strings.Contains(location, "://"):
		return location
	default:
		return filepath.Base(location)
	}
}
