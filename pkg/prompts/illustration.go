package prompts

import (
	"fmt"
	"strings"
)

// Swatch は和色パレットの 1 色です。
type Swatch struct {
	Name string
	Hex  string
}

// ArtDirection は全ページで共有する絵柄の指定なのだ。
type ArtDirection struct {
	StyleTitle  string
	Keywords    []string
	Palette     []Swatch
	Composition []string
	Avoid       []string
}

// DefaultArtDirection は日本の昔話・水彩絵本スタイルです。
var DefaultArtDirection = ArtDirection{
	StyleTitle: "日本の昔話・水彩絵本スタイル",
	Keywords: []string{
		"やわらかな水彩",
		"手描きのラフな線",
		"低コントラスト",
		"和紙の質感",
		"子ども向けの簡潔な形状",
		"落ち着いた和色",
	},
	Palette: []Swatch{
		{"生成り", "#F3EAD3"},
		{"藍色", "#274A78"},
		{"朱色", "#E95464"},
		{"松葉色", "#6B8E23"},
		{"墨色", "#2B2B2B"},
	},
	Composition: []string{
		"主人公を画面中央〜やや下に配置",
		"背景は簡素化し、余白を活かす",
		"やわらかな陰影と淡い彩度",
	},
	Avoid: []string{
		"写真風・フォトリアル・実写",
		"3D・CGI・レンダリング・ハイパーリアル",
		"過度なディテール・高コントラスト",
		"現代的な機械・電子機器・英字/数字・ブランド名・型番",
		"©記号・署名・ロゴ・ウォーターマーク",
		"暴力的・恐怖を与える表現・成人向け表現",
		"獣耳・ケモ耳・擬人化・獣人・半人半獣・ヒト型の動物",
	},
}

// NegativePrompt はネガティブプロンプトに対応するプロバイダーへ渡す除外語です。
const NegativePrompt = "photo, photograph, real photo, stock photo, snapshot, camera, lens, depth of field, dof, " +
	"photorealistic, realistic, CGI, 3D, render, hyperrealistic, signature, watermark, logo, text, letters, numbers, " +
	"brand, model number, modern device, phone, smartphone, pc, laptop, keyboard, screen, monitor, display, " +
	"audio device, television, gore, blood, violence, scary, horror, realistic fur, real fur, animal photograph, " +
	"anthropomorphic, furry, kemono, animal ears, beast ears, human-animal hybrid, kemomimi"

// IllustrationInput は 1 ページ分の挿絵プロンプトの材料です。
type IllustrationInput struct {
	StoryTitle       string
	HeroName         string
	ImageDescription string
	StorySnippet     string
}

// IllustrationBuilder はアートディレクションに沿って挿絵プロンプトを組み立てます。
type IllustrationBuilder struct {
	direction ArtDirection
}

// NewIllustrationBuilder は IllustrationBuilder を生成します。
func NewIllustrationBuilder(direction ArtDirection) *IllustrationBuilder {
	return &IllustrationBuilder{direction: direction}
}

// BuildIllustrationPrompt は挿絵生成用のプロンプトを返します。
func (b *IllustrationBuilder) BuildIllustrationPrompt(in IllustrationInput) string {
	d := b.direction
	palette := make([]string, 0, len(d.Palette))
	for _, p := range d.Palette {
		palette = append(palette, fmt.Sprintf("%s(%s)", p.Name, p.Hex))
	}
	name := in.HeroName

	var sb strings.Builder
	fmt.Fprintf(&sb, "スタイル: %s。%s。 children's book watercolor illustration, hand-drawn, soft brush.\n",
		d.StyleTitle, strings.Join(d.Keywords, "、"))
	fmt.Fprintf(&sb, "和色パレット: %s を基調。\n", strings.Join(palette, "、"))
	fmt.Fprintf(&sb, "画面構成: %s。背景はやや抽象化し、塗りのにじみを活かす。\n", strings.Join(d.Composition, "、"))
	fmt.Fprintf(&sb, "主人公: 「%s」。毎ページで同一人物として描写し、髪型・服装・体型・配色を一貫させる。\n", name)
	fmt.Fprintf(&sb, "前提: 主人公は人間の子ども「%s」。動物を主役にしない（動物は脇役にとどめる）。\n", name)
	fmt.Fprintf(&sb, "物語の題材: 「%s」の日本の昔話風解釈。\n", in.StoryTitle)
	if in.StorySnippet != "" {
		fmt.Fprintf(&sb, "物語本文の要点: %s\n", in.StorySnippet)
	}
	fmt.Fprintf(&sb, "ページの内容指示: %s。\n", in.ImageDescription)
	fmt.Fprintf(&sb, "主人公「%s」が場面の中心で何らかの役割や行動を担っている様子を明確に描写。\n", name)
	sb.WriteString("質感: 和紙の紙地に水彩で淡く着彩。手描きの筆致。描き込みは控えめ。\n")
	sb.WriteString("重要: これは写真ではなく、水彩の手描きイラストです。実写やカメラ/レンズ/被写界深度の表現は禁止。写実的な毛並みや肌質も禁止。\n")
	fmt.Fprintf(&sb, "避けるべき表現: %s（英数字や英語文字列、カメラ/レンズ用語、ブランド名・型番、現代ガジェットの描写を含めない）。\n",
		strings.Join(d.Avoid, "、"))
	sb.WriteString("最終画像はイラストのみ（文字・サイン・フレームなし）。")
	return sb.String()
}
