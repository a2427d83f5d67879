package asset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagePath(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		index   int
		mime    string
		want    string
	}{
		{"ローカル PNG", "out", 3, "image/png", filepath.Join("out", "stories", "42", "page-3.png")},
		{"GCS JPEG", "gs://bucket/books", 10, "image/jpeg", "gs://bucket/books/stories/42/page-10.jpg"},
		{"不明な形式", "out", 1, "application/octet-stream", filepath.Join("out", "stories", "42", "page-1.bin")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PagePath(tt.baseDir, "42", tt.index, tt.mime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("不正な入力", func(t *testing.T) {
		_, err := PagePath("out", "42", 0, "image/png")
		assert.Error(t, err)
		_, err = PagePath("out", "", 1, "image/png")
		assert.Error(t, err)
	})
}

func TestStoryKey(t *testing.T) {
	a := StoryKey("たろう", "momotaro", "")
	assert.Equal(t, a, StoryKey("たろう", "momotaro", ""))
	assert.NotEqual(t, a, StoryKey("はな", "momotaro", ""))
	assert.NotEmpty(t, a)
	assert.NotContains(t, a, "-")
}
