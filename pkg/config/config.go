package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "config.yaml"
	defaultTikTokBaseURL = "https://open.tiktokapis.com/v2"
	defaultCacheDir      = "./.cache"
	defaultS3Region      = "auto"
)

const (
	EnvTikTokAccessToken   = "TIKTOK_ACCESS_TOKEN"
	EnvTikTokClientKey     = "TIKTOK_CLIENT_KEY"
	EnvTikTokClientSecret  = "TIKTOK_CLIENT_SECRET"
	EnvYouTubeClientID     = "YOUTUBE_CLIENT_ID"
	EnvYouTubeClientSecret = "YOUTUBE_CLIENT_SECRET"
	EnvYouTubeRefreshToken = "YOUTUBE_REFRESH_TOKEN"
	EnvGCPProject          = "GOOGLE_CLOUD_PROJECT"
	EnvS3AccessKey         = "S3_ACCESS_KEY_ID"
	EnvS3SecretKey         = "S3_SECRET_ACCESS_KEY"
)

// Platform names accepted by Load to limit which credentials it resolves.
const (
	PlatformTikTok  = "tiktok"
	PlatformYouTube = "youtube"
)

type Config struct {
	GCPProject string `yaml:"-"`

	TikTok  TikTok  `yaml:"tiktok"`
	YouTube YouTube `yaml:"youtube"`
	Storage Storage `yaml:"storage"`
}

type TikTok struct {
	AccessToken  string `yaml:"-"`
	ClientKey    string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	BaseURL      string `yaml:"base_url"`
}

type YouTube struct {
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RefreshToken string `yaml:"-"`
}

// Storage configures where gs:// and s3:// sources are downloaded to. The S3
// keys are optional; without them the default AWS credential chain is used.
type Storage struct {
	CacheDir    string `yaml:"cache_dir"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"-"`
	S3SecretKey string `yaml:"-"`
}

// MissingCredentialsError reports required credentials that were not found
// in the environment (or in Secret Manager).
type MissingCredentialsError struct {
	Platform string
	Vars     []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing %s API credentials in environment variables: %s",
		e.Platform, strings.Join(e.Vars, ", "))
}

func (t TikTok) Validate() error {
	var missing []string
	if t.AccessToken == "" {
		missing = append(missing, EnvTikTokAccessToken)
	}
	if t.ClientKey == "" {
		missing = append(missing, EnvTikTokClientKey)
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: "TikTok", Vars: missing}
	}
	return nil
}

func (y YouTube) Validate() error {
	var missing []string
	if y.ClientID == "" {
		missing = append(missing, EnvYouTubeClientID)
	}
	if y.ClientSecret == "" {
		missing = append(missing, EnvYouTubeClientSecret)
	}
	if y.RefreshToken == "" {
		missing = append(missing, EnvYouTubeRefreshToken)
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: "YouTube", Vars: missing}
	}
	return nil
}

// Load reads credentials from .env and the process environment and overlays
// settings from config.yaml. When GOOGLE_CLOUD_PROJECT is set, credentials of
// the given platforms that are still empty are looked up in Secret Manager;
// with no platforms every credential is considered.
func Load(ctx context.Context, platforms ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := fromEnv()

	if err := loadYAMLConfig(cfg, defaultConfigPath); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.GCPProject != "" && cfg.hasMissingSecrets(platforms) {
		fillFromSecretManager(ctx, cfg, platforms)
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		GCPProject: os.Getenv(EnvGCPProject),
		TikTok: TikTok{
			AccessToken:  os.Getenv(EnvTikTokAccessToken),
			ClientKey:    os.Getenv(EnvTikTokClientKey),
			ClientSecret: os.Getenv(EnvTikTokClientSecret),
		},
		YouTube: YouTube{
			ClientID:     os.Getenv(EnvYouTubeClientID),
			ClientSecret: os.Getenv(EnvYouTubeClientSecret),
			RefreshToken: os.Getenv(EnvYouTubeRefreshToken),
		},
		Storage: Storage{
			S3AccessKey: os.Getenv(EnvS3AccessKey),
			S3SecretKey: os.Getenv(EnvS3SecretKey),
		},
	}
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No config.yaml found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyTikTokDefaults(cfg)
	applyStorageDefaults(cfg)
}

func applyTikTokDefaults(cfg *Config) {
	if cfg.TikTok.BaseURL == "" {
		cfg.TikTok.BaseURL = defaultTikTokBaseURL
	}
	cfg.TikTok.BaseURL = strings.TrimRight(cfg.TikTok.BaseURL, "/")
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = defaultCacheDir
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = defaultS3Region
	}
}
