// Package parser は AI の応答テキストから絵本本文の構造を取り出します。
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// ErrUnparseable は応答から 10 ページ分の本文を取り出せなかったことを示します。
var ErrUnparseable = errors.New("構造化された本文を取り出せませんでした")

var codeFenceRegex = regexp.MustCompile("```(?:json|JSON)?")

// Parse はコードフェンスを除去し、直接の解析、最外の {…} の解析の順に試します。
// スキーマに合わない場合も ErrUnparseable を返すのだ。
func Parse(raw string) (domain.StoryResponse, error) {
	text := strings.TrimSpace(codeFenceRegex.ReplaceAllString(raw, ""))

	story, err := decode(text)
	if err == nil {
		return story, nil
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		var inner domain.StoryResponse
		if inner, err = decode(text[first : last+1]); err == nil {
			return inner, nil
		}
	}
	return domain.StoryResponse{}, fmt.Errorf("%w (応答抜粋: %q): %v", ErrUnparseable, truncateString(raw, 200), err)
}

func decode(text string) (domain.StoryResponse, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return domain.StoryResponse{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.StoryResponse{}, fmt.Errorf("JSON の後ろに余分なデータがあります")
	}
	if err := compiledStorySchema.Validate(doc); err != nil {
		return domain.StoryResponse{}, err
	}

	var story domain.StoryResponse
	if err := json.Unmarshal([]byte(text), &story); err != nil {
		return domain.StoryResponse{}, err
	}
	return story, nil
}

// Reader はパスからコンテンツを開く契約です。remoteio.InputReader が満たします。
type Reader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// StoryFileParser は保存済みの本文 JSON をローカルや GCS から読み込みます。
type StoryFileParser struct {
	reader Reader
}

// NewStoryFileParser は新しい StoryFileParser を生成します。
func NewStoryFileParser(r Reader) *StoryFileParser {
	return &StoryFileParser{reader: r}
}

// ParseFromPath は指定パスの内容を読み込み、Parse と同じ規則で解析します。
func (p *StoryFileParser) ParseFromPath(ctx context.Context, path string) (domain.StoryResponse, error) {
	slog.InfoContext(ctx, "本文ファイルを読み込んでいます", "path", path)
	rc, err := p.reader.Open(ctx, path)
	if err != nil {
		return domain.StoryResponse{}, fmt.Errorf("本文ファイルのオープンに失敗しました (%s): %w", path, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return domain.StoryResponse{}, fmt.Errorf("本文ファイルの読み込みに失敗しました: %w", err)
	}
	return Parse(buf.String())
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
