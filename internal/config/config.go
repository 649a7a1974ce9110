package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every engine and server setting, loaded once from the
// environment (optionally pre-populated by a .env file) at startup.
type Config struct {
	ImagesDirectory string
	BufferSize      int
	Threads         int
	ImageSize       int
	GapSize         int
	GridLength      int

	Port             string
	AnswerTTL        time.Duration
	LogLevel         string
	SourceByteBudget int64

	Watcher WatcherConfig
	Mirror  MirrorConfig
}

type WatcherConfig struct {
	Enabled  bool
	Debounce time.Duration
}

type MirrorConfig struct {
	Enabled   bool
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	BaseURL   string
	Prefix    string

	ManifestDir string
	ManifestTTL time.Duration
}

func Load() *Config {
	return &Config{
		ImagesDirectory: getEnv("IMAGES_DIRECTORY", "./images"),
		BufferSize:      getEnvInt("BUFFER_SIZE", 8),
		Threads:         getEnvInt("THREADS", 8),
		ImageSize:       getEnvInt("IMAGE_SIZE", 96),
		GapSize:         getEnvInt("GAP_SIZE", 8),
		GridLength:      getEnvInt("GRID_LENGTH", 3),

		Port:             getEnv("PORT", "8080"),
		AnswerTTL:        getEnvDurationSeconds("ANSWER_TTL_SECONDS", 600),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SourceByteBudget: int64(getEnvInt("SOURCE_BYTE_CACHE_MB", 64)) << 20,

		Watcher: WatcherConfig{
			Enabled:  getEnvBool("WATCHER_ENABLED", false),
			Debounce: getEnvDurationMillis("WATCHER_DEBOUNCE_MS", 500),
		},

		Mirror: MirrorConfig{
			Enabled:   getEnvBool("MIRROR_ENABLED", false),
			Region:    getEnv("MIRROR_S3_REGION", "us-east-1"),
			AccessKey: getEnv("MIRROR_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("MIRROR_S3_SECRET_KEY", ""),
			Bucket:    getEnv("MIRROR_S3_BUCKET", ""),
			BaseURL:   getEnv("MIRROR_S3_BASE_URL", ""),
			Prefix:    getEnv("MIRROR_S3_PREFIX", ""),

			ManifestDir: getEnv("MIRROR_MANIFEST_DIR", "./.mirror-manifest"),
			ManifestTTL: getEnvDurationSeconds("MIRROR_MANIFEST_TTL_SECONDS", 86400),
		},
	}
}

// Validate reports the minimal cross-field checks Load cannot express as
// per-field defaults (e.g. a mirror that is enabled but has no bucket).
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	if c.Mirror.Enabled && c.Mirror.Bucket == "" {
		return fmt.Errorf("MIRROR_ENABLED is set but MIRROR_S3_BUCKET is empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return defaultValue
	}

	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvDurationMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}
