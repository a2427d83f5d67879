package prompts

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// StoryIDCustom は利用者が自由にあらすじを書くストーリーの ID です。
const StoryIDCustom = "custom"

// customArtTitle はオリジナルストーリーの挿絵に使う題材名です。
const customArtTitle = "オリジナル"

// Story は絵本の元になる昔話の定義です。
type Story struct {
	ID      string
	Title   string
	Summary string
}

var library = map[string]Story{
	"north_wind_and_sun": {
		Title:   "北風と太陽",
		Summary: "旅人の上着を脱がせようと競い合う北風と太陽の物語。力ではなく温かさが勝つことを教えてくれます。",
	},
	"golden_axe": {
		Title:   "金の斧",
		Summary: "正直者の木こりが誠実さを試され、金銀の斧を授かる寓話。正直さと善行の大切さを伝えます。",
	},
	"hare_and_tortoise": {
		Title:   "うさぎとかめ",
		Summary: "速さを自慢するうさぎと、地道に歩むかめのかけっこ。最後まで諦めず続ける価値を語る物語。",
	},
	"momotaro": {
		Title:   "桃太郎",
		Summary: "桃から生まれた桃太郎が犬・猿・雉とともに鬼退治へ向かい、宝を取り戻す冒険譚。勇気と仲間の力を描きます。",
	},
	"urashima_taro": {
		Title:   "浦島太郎",
		Summary: "亀を助けた浦島太郎が竜宮城で歓迎され、不思議な玉手箱を授かる物語。時間と選択の不思議さがテーマです。",
	},
	"kaguyahime": {
		Title:   "かぐや姫",
		Summary: "竹から生まれた美しいかぐや姫が、育ての親に幸せをもたらし、月へ帰る哀しい昔話。優しさと別れが描かれます。",
	},
	"issun_boshi": {
		Title:   "一寸法師",
		Summary: "小さな体で都へ旅立った一寸法師が、知恵と勇気で鬼を退治し、立派な侍になる物語。努力と成長を伝えます。",
	},
}

// StoryIDs は組み込みストーリーの ID をソート済みで返します。
func StoryIDs() []string {
	ids := slices.Collect(maps.Keys(library))
	slices.Sort(ids)
	return ids
}

// LookupStory は ID からストーリーを引きます。custom の場合は customSummary が必須なのだ。
func LookupStory(id, customSummary string) (Story, error) {
	if id == StoryIDCustom {
		summary := strings.TrimSpace(customSummary)
		if summary == "" {
			return Story{}, fmt.Errorf("オリジナルストーリーの内容が空です")
		}
		return Story{ID: StoryIDCustom, Title: customArtTitle, Summary: summary}, nil
	}

	s, ok := library[id]
	if !ok {
		return Story{}, fmt.Errorf("サポートされていないストーリーです: '%s'。サポートされている ID は [%s] です",
			id, strings.Join(StoryIDs(), ", "))
	}
	s.ID = id
	return s, nil
}

// Materials は物語生成プロンプトに埋め込む「ストーリーの材料」を返します。
func (s Story) Materials() string {
	if s.ID == StoryIDCustom {
		return "ユーザーが希望するオリジナルストーリーの概要:\n" + s.Summary
	}
	return fmt.Sprintf("元となる昔話のタイトル: %s\nあらすじ: %s", s.Title, s.Summary)
}
