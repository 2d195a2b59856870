package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is a typed snapshot of the viper settings.
type Config struct {
	TTS      TTS
	Story    Story
	Library  Library
	LogLevel string
}

type TTS struct {
	Engine    string
	Voice     string
	Language  string
	Rate      float64
	Volume    float64
	CachePath string
}

type Story struct {
	CommitThreshold float64
	StartPage       int
	Dir             string
}

type Library struct {
	CacheDir    string
	MaxAge      time.Duration
	GutendexURL string
}

// SetDefaults registers every default value.
func SetDefaults() {
	viper.SetDefault("tts.engine", "auto") // Auto-select best engine
	viper.SetDefault("tts.voice", "default")
	viper.SetDefault("tts.language", "en-US")
	viper.SetDefault("tts.rate", 0.5)
	viper.SetDefault("tts.volume", 1.0)
	viper.SetDefault("tts.cache_path", filepath.Join(cacheDirectory(), "tts"))

	viper.SetDefault("story.commit_threshold", 0.5)
	viper.SetDefault("story.start_page", 0)
	viper.SetDefault("story.dir", filepath.Join(homeDirectory(), "stories"))

	viper.SetDefault("library.cache_dir", cacheDirectory())
	viper.SetDefault("library.max_age", 24*time.Hour)
	viper.SetDefault("library.gutendex_url", "https://gutendex.com")

	viper.SetDefault("log.level", "warn")
}

// Init sets defaults, binds STORYBOOK_* environment variables and reads the
// config file. A missing config file is not an error.
func Init(cfgFile string) error {
	SetDefaults()

	viper.SetEnvPrefix("storybook")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("storybook")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(homeDirectory())
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return SetupLogging()
}

// Load returns the current settings.
func Load() Config {
	return Config{
		TTS: TTS{
			Engine:    viper.GetString("tts.engine"),
			Voice:     viper.GetString("tts.voice"),
			Language:  viper.GetString("tts.language"),
			Rate:      viper.GetFloat64("tts.rate"),
			Volume:    viper.GetFloat64("tts.volume"),
			CachePath: viper.GetString("tts.cache_path"),
		},
		Story: Story{
			CommitThreshold: viper.GetFloat64("story.commit_threshold"),
			StartPage:       viper.GetInt("story.start_page"),
			Dir:             viper.GetString("story.dir"),
		},
		Library: Library{
			CacheDir:    viper.GetString("library.cache_dir"),
			MaxAge:      viper.GetDuration("library.max_age"),
			GutendexURL: viper.GetString("library.gutendex_url"),
		},
		LogLevel: viper.GetString("log.level"),
	}
}

// SetupLogging applies log.level to the standard logrus logger.
func SetupLogging() error {
	level, err := logrus.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// Watch reloads the config file on change and hands the new settings to fn.
// It does nothing when no config file was read.
func Watch(fn func(Config)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		logrus.WithField("file", e.Name).Info("Config file changed")
		if err := SetupLogging(); err != nil {
			logrus.WithError(err).Warn("Keeping previous log level")
		}
		fn(Load())
	})
	viper.WatchConfig()
}

// homeDirectory is where the config file and local stories live.
func homeDirectory() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".storybook")
	}
	return ".storybook"
}

// cacheDirectory returns the appropriate cache directory
func cacheDirectory() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "storybook")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".storybook", "cache")
	}
	return "cache"
}
