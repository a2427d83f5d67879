package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/workflow"
)

func TestLoadConfig(t *testing.T) {
	t.Run("環境変数を読み込むこと", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "key")
		t.Setenv("GEHON_IMAGE_PRIMARY", "vertex")
		t.Setenv("GEHON_IMAGEN_PROJECT_ID", "")
		t.Setenv("GOOGLE_CLOUD_PROJECT", "proj")
		t.Setenv("GEHON_DEBUG_PROMPT", "1")
		t.Setenv("GEHON_OUTPUT_DIR", "gs://bucket/books")

		cfg := LoadConfig()
		assert.Equal(t, "key", cfg.GeminiAPIKey)
		assert.Equal(t, "proj", cfg.ProjectID)
		assert.True(t, cfg.DebugPrompt)
		require.NoError(t, ValidateEssentialConfig(cfg))

		wc := cfg.WorkflowConfig()
		assert.Equal(t, domain.ProviderVertex, wc.Primary)
		assert.Equal(t, "gs://bucket/books", wc.OutputDir)
		assert.Equal(t, workflow.DefaultStoryModel, wc.StoryModel)
		assert.True(t, wc.DebugPrompt)
	})

	t.Run("GEHON_IMAGEN_PROJECT_ID を優先すること", func(t *testing.T) {
		t.Setenv("GEHON_IMAGEN_PROJECT_ID", "gehon")
		t.Setenv("GOOGLE_CLOUD_PROJECT", "proj")
		assert.Equal(t, "gehon", LoadConfig().ProjectID)
	})
}

func TestValidateEssentialConfig(t *testing.T) {
	assert.Error(t, ValidateEssentialConfig(&Config{}))
	assert.Error(t, ValidateEssentialConfig(&Config{GeminiAPIKey: "k", Primary: "dalle"}))
	assert.NoError(t, ValidateEssentialConfig(&Config{GeminiAPIKey: "k"}))
}

func TestConfig_WorkflowConfig(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "k", Options: GenerateOptions{Rounds: 5, Parallel: false, Rewrite: false}}
	wc := cfg.WorkflowConfig()
	assert.Equal(t, 5, wc.Rounds)
	assert.False(t, wc.ParallelRounds)
	assert.False(t, wc.RewriteDescriptions)
	assert.Equal(t, workflow.DefaultPrimary, wc.Primary)
	assert.Equal(t, workflow.DefaultLocation, wc.Location)
}
