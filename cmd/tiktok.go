package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"reelpost/internal/tiktok"
	"reelpost/internal/uploader"
	"reelpost/pkg/config"
)

func newTikTokCmd(use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Upload a video to TikTok",
		Long: `Upload a video through the TikTok Content Posting API.

Requires TIKTOK_ACCESS_TOKEN and TIKTOK_CLIENT_KEY. The video is published
directly when the account allows it, otherwise it is left as a draft.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, tiktokTarget)
		},
	}
}

var tiktokTarget = uploadTarget[tiktok.Metadata]{
	platform: config.PlatformTikTok,
	newUploader: func(_ context.Context, cfg *config.Config) (uploader.Uploader[tiktok.Metadata], error) {
		u, err := tiktok.New(cfg.TikTok)
		if err != nil {
			return nil, err
		}
		return u, nil
	},
	loadMetadata: tiktok.LoadMetadata,
	showStatus:   true,
}
