package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	c := Load()
	assert.Equal(t, "auto", c.TTS.Engine)
	assert.Equal(t, "en-US", c.TTS.Language)
	assert.Equal(t, 0.5, c.TTS.Rate)
	assert.Equal(t, 0.5, c.Story.CommitThreshold)
	assert.Equal(t, 24*time.Hour, c.Library.MaxAge)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestInitReadsFileAndEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	path := filepath.Join(t.TempDir(), "storybook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tts:
  engine: mock
  language: fr-FR
  rate: 0.8
story:
  start_page: 2
library:
  max_age: 1h
log:
  level: debug
`), 0644))
	t.Setenv("STORYBOOK_TTS_VOICE", "mock-fr")

	require.NoError(t, Init(path))

	c := Load()
	assert.Equal(t, "mock", c.TTS.Engine)
	assert.Equal(t, "fr-FR", c.TTS.Language)
	assert.Equal(t, 0.8, c.TTS.Rate)
	assert.Equal(t, "mock-fr", c.TTS.Voice)
	assert.Equal(t, 2, c.Story.StartPage)
	assert.Equal(t, time.Hour, c.Library.MaxAge)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestInitRejectsBadLogLevel(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "storybook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: chatty\n"), 0644))

	assert.ErrorContains(t, Init(path), "invalid log level")
}

func TestInitRejectsMissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Error(t, Init(filepath.Join(t.TempDir(), "missing.yaml")))
}
