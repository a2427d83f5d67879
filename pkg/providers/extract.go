package providers

import (
	"encoding/base64"
	"fmt"
	"strings"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/tidwall/gjson"
)

// 画像生成系エンドポイントで過去に観測された、画像リストの置き場所
var imageListPaths = []string{"generatedImages.0", "predictions.0", "images.0"}

// 候補要素の中で base64 ペイロードが置かれうるフィールド
var imagePayloadPaths = []string{
	"image.base64Data",
	"image.inlineData.data",
	"bytesBase64Encoded",
	"imageBytes",
	"b64_json",
	"image.bytesBase64Encoded",
	"image.imageBytes",
}

// extractInlineImage は generateContent 形式の応答から最初のインライン画像を取り出します。
// camelCase と snake_case の両方、および一部実装の代替フィールドを許容するのだ。
func extractInlineImage(body []byte) (*imagedom.ImageResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("レスポンスが JSON ではありません")
	}
	root := gjson.ParseBytes(body)

	var found *imagedom.ImageResponse
	root.Get("candidates").ForEach(func(_, cand gjson.Result) bool {
		cand.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
			mime := firstString(part, "inlineData.mimeType", "inline_data.mime_type")
			b64 := firstString(part, "inlineData.data", "inline_data.data")
			if mime == "" || b64 == "" {
				return true
			}
			if data, err := decodeBase64(b64); err == nil {
				found = &imagedom.ImageResponse{Data: data, MimeType: mime}
				return false
			}
			return true
		})
		return found == nil
	})
	if found != nil {
		return found, nil
	}

	if b64 := firstString(root, "image.base64Data", "bytesBase64Encoded"); b64 != "" {
		data, err := decodeBase64(b64)
		if err != nil {
			return nil, err
		}
		return &imagedom.ImageResponse{Data: data, MimeType: defaultMimeType}, nil
	}
	return nil, fmt.Errorf("レスポンスにインライン画像が含まれていません (抜粋: %q)", truncate(string(body), 200))
}

// extractGeneratedImage は images/predict 形式の応答から最初の画像を取り出します。
func extractGeneratedImage(body []byte) (*imagedom.ImageResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("レスポンスが JSON ではありません")
	}
	root := gjson.ParseBytes(body)

	var item gjson.Result
	for _, p := range imageListPaths {
		if r := root.Get(p); r.Exists() {
			item = r
			break
		}
	}
	if !item.Exists() {
		return nil, fmt.Errorf("レスポンスに画像が含まれていません (抜粋: %q)", truncate(string(body), 200))
	}

	b64 := firstString(item, imagePayloadPaths...)
	if b64 == "" {
		return nil, fmt.Errorf("レスポンスから base64 画像を抽出できませんでした")
	}
	data, err := decodeBase64(b64)
	if err != nil {
		return nil, err
	}

	mime := firstString(item, "mimeType", "image.mimeType")
	if mime == "" {
		mime = defaultMimeType
	}
	return &imagedom.ImageResponse{Data: data, MimeType: mime}, nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("base64 のデコードに失敗しました: %w", err)
	}
	return data, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
