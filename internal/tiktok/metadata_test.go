package tiktok

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelpost/internal/uploader"
)

func writeMetadata(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}
	return path
}

func TestLoadMetadata(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    Metadata
		wantErr bool
	}{
		{
			name:    "empty",
			file:    "meta.json",
			content: `{}`,
			want: Metadata{
				Title:            "Untitled Video",
				PrivacyLevel:     PrivacyPublic,
				CoverTimestampMs: 1000,
			},
		},
		{
			name:    "emptyStringsFallBack",
			file:    "meta.json",
			content: `{"title":"","privacyLevel":"","coverTimestamp":0}`,
			want: Metadata{
				Title:            "Untitled Video",
				PrivacyLevel:     PrivacyPublic,
				CoverTimestampMs: 1000,
			},
		},
		{
			name: "full",
			file: "meta.json",
			content: `{"title":"Hola","description":"desc","privacyLevel":"SELF_ONLY",
				"disableDuet":true,"disableComment":true,"disableStitch":true,"coverTimestamp":2500}`,
			want: Metadata{
				Title:            "Hola",
				Description:      "desc",
				PrivacyLevel:     PrivacySelfOnly,
				DisableDuet:      true,
				DisableComment:   true,
				DisableStitch:    true,
				CoverTimestampMs: 2500,
			},
		},
		{
			name:    "yaml",
			file:    "meta.yaml",
			content: "title: From YAML\nprivacyLevel: MUTUAL_FOLLOW_FRIENDS\n",
			want: Metadata{
				Title:            "From YAML",
				PrivacyLevel:     PrivacyFriends,
				CoverTimestampMs: 1000,
			},
		},
		{
			name:    "unknownPrivacyKept",
			file:    "meta.json",
			content: `{"privacyLevel":"EVERYONE"}`,
			want: Metadata{
				Title:            "Untitled Video",
				PrivacyLevel:     "EVERYONE",
				CoverTimestampMs: 1000,
			},
		},
		{
			name:    "malformed",
			file:    "meta.json",
			content: `{"title":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadMetadata(writeMetadata(t, tt.file, tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadMetadata() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("LoadMetadata() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadMetadataMissingFile(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, uploader.ErrFileNotFound) {
		t.Errorf("LoadMetadata() error = %v, want ErrFileNotFound", err)
	}
}

func TestMetadataValidate(t *testing.T) {
	if err := (Metadata{PrivacyLevel: PrivacySelfOnly}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (Metadata{PrivacyLevel: "EVERYONE"}).Validate(); err == nil {
		t.Error("Validate() = nil, want error for unknown privacy level")
	}
}
