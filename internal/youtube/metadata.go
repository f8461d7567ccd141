package youtube

import (
	"fmt"

	"reelpost/internal/uploader"
)

const (
	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
)

const (
	defaultTitle      = "Untitled Video"
	defaultCategoryID = "22" // People & Blogs
)

type Metadata struct {
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description" yaml:"description"`
	Tags          []string `json:"tags" yaml:"tags"`
	CategoryID    string   `json:"categoryId" yaml:"categoryId"`
	PrivacyStatus string   `json:"privacyStatus" yaml:"privacyStatus"`
	ThumbnailPath string   `json:"thumbnailPath,omitempty" yaml:"thumbnailPath"`
}

func LoadMetadata(path string) (Metadata, error) {
	var meta Metadata
	if err := uploader.DecodeFile(path, &meta); err != nil {
		return Metadata{}, err
	}

	applyDefaults(&meta)

	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func applyDefaults(meta *Metadata) {
	if meta.Title == "" {
		meta.Title = defaultTitle
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	if meta.CategoryID == "" {
		meta.CategoryID = defaultCategoryID
	}
	if meta.PrivacyStatus == "" {
		meta.PrivacyStatus = PrivacyPublic
	}
}

func (m Metadata) Validate() error {
	switch m.PrivacyStatus {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return nil
	default:
		return fmt.Errorf("invalid privacy status: %s", m.PrivacyStatus)
	}
}
