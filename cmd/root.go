package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	jsonOutput bool
)

// errReported is returned once the failure has already been written to
// stderr, so Execute only has to set the exit code.
var errReported = errors.New("failure already reported")

var rootCmd = &cobra.Command{
	Use:   "reelpost",
	Short: "Upload videos to TikTok and YouTube",
	Long: `Reelpost uploads a single local (or gs:// / s3://) video to TikTok or YouTube,
using a JSON or YAML metadata file for title, description and privacy settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addGlobalFlags(rootCmd)
	rootCmd.AddCommand(newTikTokCmd("tiktok <video-path> <metadata-json-path>"))
	rootCmd.AddCommand(newYouTubeCmd("youtube <video-path> <metadata-json-path>"))
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the upload result as JSON")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	return execute(rootCmd)
}

// ExecuteTikTok runs the TikTok upload as a program of its own:
// tiktok-upload <video-path> <metadata-json-path>.
func ExecuteTikTok() error {
	cmd := newTikTokCmd("tiktok-upload <video-path> <metadata-json-path>")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	addGlobalFlags(cmd)
	return execute(cmd)
}

// ExecuteYouTube runs the YouTube upload as a program of its own:
// youtube-upload <video-path> <metadata-json-path>.
func ExecuteYouTube() error {
	cmd := newYouTubeCmd("youtube-upload <video-path> <metadata-json-path>")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	addGlobalFlags(cmd)
	return execute(cmd)
}

func execute(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("Fatal error: "+err.Error()))
	}
	return err
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
