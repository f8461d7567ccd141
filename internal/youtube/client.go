package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"reelpost/internal/uploader"
	"reelpost/pkg/config"
)

const (
	platform       = "youtube"
	watchURLFormat = "https://www.youtube.com/watch?v=%s"
	contentLang    = "es"
)

var _ uploader.Uploader[Metadata] = (*Uploader)(nil)

type Uploader struct {
	service videoService
	logger  *slog.Logger
}

type options struct {
	clientOpts []option.ClientOption
	service    videoService
	logger     *slog.Logger
}

type Option func(*options)

// WithClientOptions is appended after the OAuth token source when the
// YouTube service is built.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func withService(s videoService) Option {
	return func(o *options) {
		o.service = s
	}
}

// New builds an uploader authenticated by the configured refresh token.
// Access tokens are minted on demand; there is no interactive flow here.
func New(ctx context.Context, cfg config.YouTube, opts ...Option) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	u := &Uploader{
		service: o.service,
		logger:  o.logger.With("platform", platform),
	}
	if u.service != nil {
		return u, nil
	}

	oauthCfg := OAuthConfig(cfg.ClientID, cfg.ClientSecret)
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}

	clientOpts := append([]option.ClientOption{
		option.WithTokenSource(oauthCfg.TokenSource(ctx, token)),
	}, o.clientOpts...)

	svc, err := ytapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	u.service = &apiService{svc: svc}

	return u, nil
}

func (u *Uploader) Platform() string {
	return platform
}

func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLFormat, videoID)
}

func (u *Uploader) UploadVideo(ctx context.Context, videoPath string, meta Metadata) *uploader.Result {
	result, err := u.upload(ctx, videoPath, meta)
	if err != nil {
		u.logger.Error("Upload failed", "error", err)
		return uploader.Failed(platform, err)
	}
	return result
}

func (u *Uploader) upload(ctx context.Context, videoPath string, meta Metadata) (*uploader.Result, error) {
	u.logger.Info("Starting upload", "path", videoPath, "title", meta.Title)

	size, err := uploader.StatFile("video file", videoPath)
	if err != nil {
		return nil, err
	}
	u.logger.Info("Video file found", "size", uploader.FormatSize(size))

	file, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	inserted, err := u.service.Insert(ctx, newVideo(meta), file, uploader.DetectMIME(videoPath))
	if err != nil {
		return nil, insertError(err)
	}
	u.logger.Info("Video uploaded", "video_id", inserted.Id)

	if meta.ThumbnailPath != "" {
		u.setThumbnail(ctx, inserted.Id, meta.ThumbnailPath)
	}

	return &uploader.Result{
		Platform: platform,
		Success:  true,
		VideoID:  inserted.Id,
		URL:      WatchURL(inserted.Id),
	}, nil
}

func newVideo(meta Metadata) *ytapi.Video {
	return &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      contentLang,
			DefaultAudioLanguage: contentLang,
		},
		Status: &ytapi.VideoStatus{
			PrivacyStatus:           meta.PrivacyStatus,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
}

// setThumbnail never fails the upload: the video already exists by the
// time it runs.
func (u *Uploader) setThumbnail(ctx context.Context, videoID, path string) {
	if !uploader.FileExists(path) {
		u.logger.Warn("Thumbnail not found, skipping", "path", path)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		u.logger.Warn("Failed to open thumbnail", "path", path, "error", err)
		return
	}
	defer func() { _ = file.Close() }()

	if err := u.service.SetThumbnail(ctx, videoID, file, uploader.DetectMIME(path)); err != nil {
		u.logger.Warn("Failed to set thumbnail", "error", err)
		return
	}
	u.logger.Info("Thumbnail set", "video_id", videoID)
}

func insertError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return fmt.Errorf("failed to insert video: %w", err)
}
