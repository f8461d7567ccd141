package config

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretSource looks up a credential by its environment variable name.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

type SecretManager struct {
	client  *secretmanager.Client
	project string
}

// newSecretSource is replaced in tests.
var newSecretSource = func(ctx context.Context, project string) (secretSourceCloser, error) {
	return NewSecretManager(ctx, project)
}

type secretSourceCloser interface {
	SecretSource
	Close() error
}

func NewSecretManager(ctx context.Context, project string) (*SecretManager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &SecretManager{client: client, project: project}, nil
}

func (s *SecretManager) Secret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *SecretManager) Close() error {
	return s.client.Close()
}

type secretField struct {
	platform string
	env      string
	value    *string
}

// secretFields lists the credentials of the given platforms, or all of them
// when platforms is empty.
func (c *Config) secretFields(platforms []string) []secretField {
	all := []secretField{
		{PlatformTikTok, EnvTikTokAccessToken, &c.TikTok.AccessToken},
		{PlatformTikTok, EnvTikTokClientKey, &c.TikTok.ClientKey},
		{PlatformTikTok, EnvTikTokClientSecret, &c.TikTok.ClientSecret},
		{PlatformYouTube, EnvYouTubeClientID, &c.YouTube.ClientID},
		{PlatformYouTube, EnvYouTubeClientSecret, &c.YouTube.ClientSecret},
		{PlatformYouTube, EnvYouTubeRefreshToken, &c.YouTube.RefreshToken},
	}
	if len(platforms) == 0 {
		return all
	}

	var fields []secretField
	for _, f := range all {
		if slices.Contains(platforms, f.platform) {
			fields = append(fields, f)
		}
	}
	return fields
}

func (c *Config) hasMissingSecrets(platforms []string) bool {
	for _, f := range c.secretFields(platforms) {
		if *f.value == "" {
			return true
		}
	}
	return false
}

// fillFromSecretManager never fails: the uploader constructors report
// whatever is still missing.
func fillFromSecretManager(ctx context.Context, cfg *Config, platforms []string) {
	secrets, err := newSecretSource(ctx, cfg.GCPProject)
	if err != nil {
		slog.Warn("Secret Manager unavailable", "project", cfg.GCPProject, "error", err)
		return
	}
	defer func() { _ = secrets.Close() }()

	resolveSecrets(ctx, cfg, secrets, platforms)
}

// resolveSecrets fills empty credentials from src. Lookup failures are only
// logged.
func resolveSecrets(ctx context.Context, cfg *Config, src SecretSource, platforms []string) {
	for _, f := range cfg.secretFields(platforms) {
		if *f.value != "" {
			continue
		}
		value, err := src.Secret(ctx, f.env)
		if err != nil {
			slog.Debug("Secret not resolved", "name", f.env, "error", err)
			continue
		}
		*f.value = value
	}
}
