package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"reelpost/internal/storage"
	"reelpost/internal/uploader"
	"reelpost/internal/youtube"
	"reelpost/pkg/config"
)

func newYouTubeCmd(use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Upload a video to YouTube",
		Long: `Upload a video through the YouTube Data API v3.

Requires YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_REFRESH_TOKEN.
Run "reelpost auth youtube" to obtain a refresh token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, youtubeTarget)
		},
	}
}

var youtubeTarget = uploadTarget[youtube.Metadata]{
	platform: config.PlatformYouTube,
	newUploader: func(ctx context.Context, cfg *config.Config) (uploader.Uploader[youtube.Metadata], error) {
		u, err := youtube.New(ctx, cfg.YouTube)
		if err != nil {
			return nil, err
		}
		return u, nil
	},
	loadMetadata: youtube.LoadMetadata,
	resolveAssets: resolveThumbnail,
}

// resolveThumbnail downloads a remote thumbnail. A failed download drops the
// thumbnail and the video is uploaded without it.
func resolveThumbnail(ctx context.Context, r *storage.Resolver, meta *youtube.Metadata) error {
	if meta.ThumbnailPath == "" {
		return nil
	}
	path, err := r.Resolve(ctx, meta.ThumbnailPath)
	if err != nil {
		slog.Warn("Skipping thumbnail", "thumbnail", meta.ThumbnailPath, "error", err)
		meta.ThumbnailPath = ""
		return nil
	}
	meta.ThumbnailPath = path
	return nil
}
