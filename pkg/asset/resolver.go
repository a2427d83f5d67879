package asset

import (
	"fmt"
	"path"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultStoriesDir は絵本ごとの成果物を格納するディレクトリ名です。
	DefaultStoriesDir = "stories"
	// DefaultBookJSON は生成された絵本全体の JSON ファイル名です。
	DefaultBookJSON = "book.json"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ExtensionFor は MIME タイプから保存用の拡張子を決めます。
func ExtensionFor(mimeType string) string {
	switch m := strings.ToLower(mimeType); {
	case strings.Contains(m, "png"):
		return "png"
	case strings.Contains(m, "jpeg"), strings.Contains(m, "jpg"):
		return "jpg"
	default:
		return "bin"
	}
}

// StoryDir は絵本 1 冊分の出力ディレクトリです。例: "out/stories/12345"
func StoryDir(baseDir, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("ストーリーキーが空です")
	}
	return ResolveOutputPath(baseDir, path.Join(DefaultStoriesDir, key))
}

// PagePath はページ画像の保存先を返します。例: "out/stories/12345/page-3.png"
func PagePath(baseDir, key string, index int, mimeType string) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("ページ番号は 1 以上である必要があります: %d", index)
	}
	dir, err := StoryDir(baseDir, key)
	if err != nil {
		return "", err
	}
	return ResolveOutputPath(dir, fmt.Sprintf("page-%d.%s", index, ExtensionFor(mimeType)))
}

// BookPath は絵本全体の JSON の保存先を返します。
func BookPath(baseDir, key string) (string, error) {
	dir, err := StoryDir(baseDir, key)
	if err != nil {
		return "", err
	}
	return ResolveOutputPath(dir, DefaultBookJSON)
}
