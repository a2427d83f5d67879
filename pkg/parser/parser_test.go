package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storyJSON(n int) string {
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, fmt.Sprintf(`{"idx":%d,"right_text_ja":"本文%d","left_image_desc":"説明%d"}`, i, i, i))
	}
	return `{"pages":[` + strings.Join(pages, ",") + `]}`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"そのままの JSON", storyJSON(10), false},
		{"コードフェンス付き", "```json\n" + storyJSON(10) + "\n```", false},
		{"前後に説明文がある", "はい、どうぞ。\n" + storyJSON(10) + "\n以上です。", false},
		{"9 ページは失敗", "```json\n" + storyJSON(9) + "\n```", true},
		{"11 ページは失敗", storyJSON(11), true},
		{"必須項目が欠けている", `{"pages":[` + strings.Repeat(`{"idx":1},`, 9) + `{"idx":1}]}`, true},
		{"JSON ではない", "ごめんなさい", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story, err := Parse(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnparseable))
				return
			}
			require.NoError(t, err)
			require.Len(t, story.Pages, 10)
			assert.Equal(t, 1, story.Pages[0].Index)
			assert.Equal(t, "本文10", story.Pages[9].Text)
			assert.Equal(t, "説明3", story.Pages[2].ImageDescription)
		})
	}
}

type mockReader struct {
	openFunc func(ctx context.Context, path string) (io.ReadCloser, error)
}

func (m *mockReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return m.openFunc(ctx, path)
}

func TestStoryFileParser_ParseFromPath(t *testing.T) {
	t.Run("ファイルの内容を解析すること", func(t *testing.T) {
		p := NewStoryFileParser(&mockReader{openFunc: func(_ context.Context, path string) (io.ReadCloser, error) {
			assert.Equal(t, "gs://bucket/story.json", path)
			return io.NopCloser(strings.NewReader(storyJSON(10))), nil
		}})
		story, err := p.ParseFromPath(context.Background(), "gs://bucket/story.json")
		require.NoError(t, err)
		assert.Len(t, story.Pages, 10)
	})

	t.Run("オープン失敗はエラー", func(t *testing.T) {
		p := NewStoryFileParser(&mockReader{openFunc: func(context.Context, string) (io.ReadCloser, error) {
			return nil, errors.New("not found")
		}})
		_, err := p.ParseFromPath(context.Background(), "missing.json")
		assert.ErrorContains(t, err, "not found")
	})
}
