package workflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// ByteFetcher は URL から画像を取得します。httpkit.ClientInterface が満たします。
type ByteFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Opener はローカルパスや gs:// のオブジェクトを開きます。remoteio.InputReader が満たします。
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// HeroLoader はヒーロー画像を data URL、http(s) URL、ローカルパス、gs:// のいずれからでも読み込むのだ。
type HeroLoader struct {
	fetcher ByteFetcher
	opener  Opener
}

// NewHeroLoader は HeroLoader を生成します。opener は nil でもよく、その場合はファイルを読めません。
func NewHeroLoader(fetcher ByteFetcher, opener Opener) *HeroLoader {
	return &HeroLoader{fetcher: fetcher, opener: opener}
}

// Load はヒーロー画像を読み込みます。location が空なら nil を返します。
func (l *HeroLoader) Load(ctx context.Context, location string) (*domain.ReferenceImage, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, nil
	}
	if strings.HasPrefix(location, "data:") {
		return domain.ParseDataURL(location)
	}

	data, err := l.read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("ヒーロー画像の読み込みに失敗しました (%s): %w", location, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ヒーロー画像が空です: %s", location)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("ヒーロー画像の形式が画像ではありません: %s", mimeType)
	}
	return &domain.ReferenceImage{Data: data, MimeType: mimeType}, nil
}

func (l *HeroLoader) read(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if l.fetcher == nil {
			return nil, fmt.Errorf("HTTP クライアントが設定されていません")
		}
		return l.fetcher.FetchBytes(ctx, location)
	}
	if l.opener == nil {
		return nil, fmt.Errorf("InputReader が設定されていません")
	}
	rc, err := l.opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
