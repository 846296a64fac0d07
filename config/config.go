package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/camden-git/dancereg/logging"
	"go.uber.org/zap"
)

const (
	DefaultProfileImagesSubDir = "profile_images"
	DefaultThumbnailsSubDir    = "thumbnails"
)

const (
	defaultThumbnailQueueSize  = 200
	defaultNumThumbnailWorkers = 2
	defaultThumbnailMaxSize    = 150
	defaultMaxUploadSize       = 2 * 1024 * 1024
	defaultPort                = "8080"
	defaultLocale              = "en"
)

type Config struct {
	// database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath  string // root for uploaded originals and generated thumbnails
	ProfileImagesPath string // full-calculated path for uploaded profile images
	ThumbnailsPath    string // full-calculated path for thumbnails

	// thumbnail generation settings
	ThumbnailMaxSize int

	// upload limits, enforced by the profile_image rules
	MaxUploadSize  int64
	ImageMinWidth  int
	ImageMinHeight int
	ImageMaxWidth  int
	ImageMaxHeight int

	// worker settings
	ThumbnailQueueSize  int
	NumThumbnailWorkers int

	// optional YAML file replacing the built in person labels, scenarios and rules
	PersonExtendedConfigPath string

	// default locale used when a request does not ask for one
	DefaultLocale string

	AllowedOrigins []string
	Port           string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		logging.Logger().Warn("invalid integer setting, using default",
			zap.String("key", envVar),
			zap.String("value", valStr),
			zap.Int("default", defaultVal),
			zap.Error(err))
		return defaultVal
	}
	return val
}

// getEnvDimension reads an optional pixel limit. zero disables the limit.
func getEnvDimension(envVar string) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return 0
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		logging.Logger().Warn("invalid image dimension limit, ignoring",
			zap.String("key", envVar),
			zap.String("value", valStr))
		return 0
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "people.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	profileSubDir := getEnvOrDefault("PROFILE_IMAGES_SUBDIR", DefaultProfileImagesSubDir)
	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	if profileSubDir == thumbSubDir {
		return Config{}, fmt.Errorf("profile images and thumbnails must use different subdirectories, both are '%s'", thumbSubDir)
	}

	var origins []string
	for _, o := range strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"), ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	cfg := Config{
		DatabasePath:             dbPath,
		MediaStoragePath:         absMediaStorage,
		ProfileImagesPath:        filepath.Join(absMediaStorage, profileSubDir),
		ThumbnailsPath:           filepath.Join(absMediaStorage, thumbSubDir),
		ThumbnailMaxSize:         getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		MaxUploadSize:            int64(getEnvIntOrDefault("MAX_UPLOAD_SIZE", defaultMaxUploadSize)),
		ImageMinWidth:            getEnvDimension("IMAGE_MIN_WIDTH"),
		ImageMinHeight:           getEnvDimension("IMAGE_MIN_HEIGHT"),
		ImageMaxWidth:            getEnvDimension("IMAGE_MAX_WIDTH"),
		ImageMaxHeight:           getEnvDimension("IMAGE_MAX_HEIGHT"),
		ThumbnailQueueSize:       getEnvIntOrDefault("THUMBNAIL_QUEUE_SIZE", defaultThumbnailQueueSize),
		NumThumbnailWorkers:      getEnvIntOrDefault("NUM_THUMBNAIL_WORKERS", defaultNumThumbnailWorkers),
		PersonExtendedConfigPath: os.Getenv("PERSON_EXTENDED_CONFIG"),
		DefaultLocale:            getEnvOrDefault("DEFAULT_LOCALE", defaultLocale),
		AllowedOrigins:           origins,
		Port:                     getEnvOrDefault("PORT", defaultPort),
	}

	return cfg, nil
}
