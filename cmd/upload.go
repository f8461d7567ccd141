package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reelpost/internal/storage"
	"reelpost/internal/uploader"
	"reelpost/pkg/config"
)

// uploadTarget wires one platform into the shared upload command.
type uploadTarget[M any] struct {
	// platform limits which credentials config.Load resolves.
	platform     string
	newUploader  func(ctx context.Context, cfg *config.Config) (uploader.Uploader[M], error)
	loadMetadata func(path string) (M, error)
	// resolveAssets downloads remote files referenced from the metadata.
	resolveAssets func(ctx context.Context, r *storage.Resolver, meta *M) error
	// showStatus prints the published/draft status line on success.
	showStatus bool
}

func runUpload[M any](cmd *cobra.Command, args []string, target uploadTarget[M]) error {
	if len(args) < 2 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Usage: %s <video-path> <metadata-json-path>\n", cmd.CommandPath())
		return errReported
	}
	ctx := cmd.Context()

	cfg, err := config.Load(ctx, target.platform)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	up, err := target.newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	resolver := storage.NewResolver(cfg.Storage)
	defer func() {
		if err := resolver.Close(); err != nil {
			slog.Warn("Failed to clean up downloads", "error", err)
		}
	}()

	videoPath, err := resolver.Resolve(ctx, args[0])
	if err != nil {
		return err
	}

	metaPath, err := resolver.Resolve(ctx, args[1])
	if err != nil {
		return err
	}

	meta, err := target.loadMetadata(metaPath)
	if err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	if target.resolveAssets != nil {
		if err := target.resolveAssets(ctx, resolver, &meta); err != nil {
			return err
		}
	}

	slog.Debug("Uploading", "platform", up.Platform(), "video", videoPath, "metadata", metaPath)
	result := up.UploadVideo(ctx, videoPath, meta)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, target.showStatus)
}
