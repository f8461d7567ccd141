package tiktok

import (
	"fmt"
	"log/slog"

	"reelpost/internal/uploader"
)

type PrivacyLevel string

const (
	PrivacyPublic   PrivacyLevel = "PUBLIC_TO_EVERYONE"
	PrivacyFriends  PrivacyLevel = "MUTUAL_FOLLOW_FRIENDS"
	PrivacySelfOnly PrivacyLevel = "SELF_ONLY"
)

const (
	defaultTitle            = "Untitled Video"
	defaultCoverTimestampMs = 1000
)

type Metadata struct {
	Title            string       `json:"title" yaml:"title"`
	Description      string       `json:"description" yaml:"description"`
	PrivacyLevel     PrivacyLevel `json:"privacyLevel" yaml:"privacyLevel"`
	DisableDuet      bool         `json:"disableDuet" yaml:"disableDuet"`
	DisableComment   bool         `json:"disableComment" yaml:"disableComment"`
	DisableStitch    bool         `json:"disableStitch" yaml:"disableStitch"`
	CoverTimestampMs int          `json:"coverTimestamp" yaml:"coverTimestamp"`
}

// LoadMetadata reads a JSON (or YAML) metadata file and resolves every
// missing field to its default. Init always posts fixed post_info, so an
// unknown privacy level is only logged.
func LoadMetadata(path string) (Metadata, error) {
	var meta Metadata
	if err := uploader.DecodeFile(path, &meta); err != nil {
		return Metadata{}, err
	}

	applyDefaults(&meta)

	if err := meta.Validate(); err != nil {
		slog.Warn("Unrecognised TikTok metadata", "path", path, "error", err)
	}
	return meta, nil
}

func applyDefaults(meta *Metadata) {
	if meta.Title == "" {
		meta.Title = defaultTitle
	}
	if meta.PrivacyLevel == "" {
		meta.PrivacyLevel = PrivacyPublic
	}
	if meta.CoverTimestampMs == 0 {
		meta.CoverTimestampMs = defaultCoverTimestampMs
	}
}

func (m Metadata) Validate() error {
	switch m.PrivacyLevel {
	case PrivacyPublic, PrivacyFriends, PrivacySelfOnly:
		return nil
	default:
		return fmt.Errorf("invalid privacy level: %s", m.PrivacyLevel)
	}
}
