package prompts

import (
	"regexp"
	"strings"
)

// DefaultImageDescription はサニタイズ後に何も残らなかった場合の挿絵説明です。
const DefaultImageDescription = "やわらかな水彩で描かれた、昔話の一場面。"

const (
	previousPromptHintLength = 240
	storySnippetLength       = 120
)

var (
	alnumRunRegex     = regexp.MustCompile(`[A-Za-z0-9#_\-]{2,}`)
	cameraTermRegex   = regexp.MustCompile(`(カメラ|レンズ|ボケ|被写界深度|スタジオ照明|スタジオ|撮影|フォト|写真|RAW|JPEG|背景紙)`)
	descGadgetRegex   = regexp.MustCompile(`(スマホ|スマートフォン|パソコン|PC|ノートPC|タブレット|テレビ|ブランド|ロゴ)`)
	textGadgetRegex   = regexp.MustCompile(`(スマホ|スマートフォン|ディスプレイ|オーディオ|カメラ|レンズ|テレビ|パソコン|PC|ノートPC|タブレット|ブランド|ロゴ)`)
	symbolRegex       = regexp.MustCompile(`[©®™]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	commaSpacingRegex = regexp.MustCompile(`\s*、\s*`)
)

// CollapseWhitespace は連続する空白を 1 つの半角スペースにまとめます。
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// SanitizeImageDescription は挿絵の説明から英数字、撮影用語、現代の機器を取り除きます。
func SanitizeImageDescription(s string) string {
	t := alnumRunRegex.ReplaceAllString(s, "")
	t = cameraTermRegex.ReplaceAllString(t, "")
	t = descGadgetRegex.ReplaceAllString(t, "")
	t = strings.TrimSpace(CollapseWhitespace(t))
	if t == "" {
		return DefaultImageDescription
	}
	return t
}

// SanitizeText は本文から型番風の英数字やブランド系の語、記号を取り除くのだ。
func SanitizeText(s string) string {
	t := alnumRunRegex.ReplaceAllString(s, "")
	t = textGadgetRegex.ReplaceAllString(t, "")
	t = symbolRegex.ReplaceAllString(t, "")
	t = CollapseWhitespace(t)
	t = commaSpacingRegex.ReplaceAllString(t, "、")
	return strings.TrimSpace(t)
}

// PreviousPromptHint は前ページのプロンプトを要点として追記する 1 行を返します。
// 空の場合は空文字です。
func PreviousPromptHint(previous string) string {
	if previous == "" {
		return ""
	}
	hint := truncateRunes(CollapseWhitespace(previous), previousPromptHintLength)
	return "\n参考: 前ページの指示の要点（スタイル継承の参考）: " + hint
}

// StorySnippet は本文の先頭をプロンプト用に切り出します。
func StorySnippet(text string) string {
	return truncateRunes(text, storySnippetLength)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
