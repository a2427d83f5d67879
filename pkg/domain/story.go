package domain

// StoryResponse は AI モデルから返される絵本本文全体の構造です。
type StoryResponse struct {
	Pages []PageSpec `json:"pages"`
}

// PageSpec は検証済みの 1 ページ分の素材です。
type PageSpec struct {
	Index            int    `json:"idx"`
	Text             string `json:"right_text_ja"`
	ImageDescription string `json:"left_image_desc"`
}

// Honorific は主人公の呼称です。
type Honorific string

const (
	HonorificKun  Honorific = "kun"
	HonorificChan Honorific = "chan"
	HonorificNone Honorific = "none"
)

// ParseHonorific は未知の値を HonorificNone に丸めます。
func ParseHonorific(s string) Honorific {
	switch h := Honorific(s); h {
	case HonorificKun, HonorificChan:
		return h
	default:
		return HonorificNone
	}
}

// DisplayName は呼称付きの表示名を返すのだ。
func (h Honorific) DisplayName(name string) string {
	if name == "" {
		return name
	}
	switch h {
	case HonorificKun:
		return name + "くん"
	case HonorificChan:
		return name + "ちゃん"
	default:
		return name
	}
}

// BookRequest は 1 冊分の生成リクエストです。
type BookRequest struct {
	ChildName   string
	Honorific   Honorific
	StoryID     string
	CustomStory string
	Engine      string
	Hero        *ReferenceImage
	TextOnly    bool
}

// PageRequest は単一ページ再生成（ステップ生成）の入力です。
type PageRequest struct {
	Index            int    `json:"idx"`
	StoryTitle       string `json:"storyTitle"`
	ChildName        string `json:"childName"`
	Honorific        string `json:"honorific"`
	ImageDescription string `json:"leftImageDesc"`
	Text             string `json:"rightText"`
	PreviousDataURL  string `json:"previousDataUrl"`
	HeroDataURL      string `json:"heroDataUrl"`
	PreviousPrompt   string `json:"previousPrompt"`
	Engine           string `json:"engine"`
}

// Reference は前ページ画像を優先し、なければヒーロー画像を参照として返します。
func (r PageRequest) Reference() *ReferenceImage {
	for _, u := range []string{r.PreviousDataURL, r.HeroDataURL} {
		if u == "" {
			continue
		}
		if ref, err := ParseDataURL(u); err == nil {
			return ref
		}
	}
	return nil
}
