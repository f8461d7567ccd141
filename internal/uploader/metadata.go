package uploader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"gopkg.in/yaml.v3"
)

// DecodeFile reads a metadata file into v. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("metadata %w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse metadata %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse metadata %s: %w", path, err)
		}
	}

	return nil
}

// DetectMIME sniffs the media type from the file header. It returns an empty
// string when the type is not recognised.
func DetectMIME(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == types.Unknown {
		return ""
	}
	return kind.MIME.Value
}
