package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var ErrFileNotFound = errors.New("file not found")

// Result is the outcome of a single upload attempt. A failed attempt carries
// only Error; IsDraft marks a video the platform accepted but has not yet
// confirmed as published.
type Result struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	VideoID  string `json:"videoId,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
	IsDraft  bool   `json:"isDraft,omitempty"`
}

// Uploader publishes one local video file with platform specific metadata M.
type Uploader[M any] interface {
	UploadVideo(ctx context.Context, videoPath string, meta M) *Result
	Platform() string
}

func Failed(platform string, err error) *Result {
	return &Result{
		Platform: platform,
		Success:  false,
		Error:    err.Error(),
	}
}

// StatFile returns the size of the regular file at path, or an error
// wrapping ErrFileNotFound when nothing exists there.
func StatFile(kind, path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("%s %w: %s", kind, ErrFileNotFound, path)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", kind, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory: %s", kind, path)
	}
	return info.Size(), nil
}

func FileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func FormatSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}
