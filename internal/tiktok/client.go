package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelpost/internal/uploader"
	"reelpost/pkg/config"
)

const (
	platform       = "tiktok"
	defaultBaseURL = "https://open.tiktokapis.com/v2"
	initPath       = "/post/publish/video/init/"
	statusPath     = "/post/publish/status/fetch/"
	shareURLFormat = "https://www.tiktok.com/@user/video/%s"

	sourceFileUpload = "FILE_UPLOAD"
	initTitle        = "Video Upload"
	videoContentType = "video/mp4"

	statusPublishComplete  = "PUBLISH_COMPLETE"
	statusProcessingUpload = "PROCESSING_UPLOAD"
)

var _ uploader.Uploader[Metadata] = (*Uploader)(nil)

type Uploader struct {
	accessToken  string
	clientKey    string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

type Option func(*Uploader)

func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) {
		u.httpClient = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = l.With("platform", platform)
	}
}

// New returns an Uploader for the TikTok Content Posting API. The access
// token and client key are required; the client secret is kept but unused.
func New(cfg config.TikTok, opts ...Option) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u := &Uploader{
		accessToken:  cfg.AccessToken,
		clientKey:    cfg.ClientKey,
		clientSecret: cfg.ClientSecret,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{},
		logger:       slog.Default().With("platform", platform),
	}
	if u.baseURL == "" {
		u.baseURL = defaultBaseURL
	}

	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

func (u *Uploader) Platform() string {
	return platform
}

func ShareURL(videoID string) string {
	return fmt.Sprintf(shareURLFormat, videoID)
}

// UploadVideo runs the three step publish flow: initialize, send the file to
// the returned upload URL, then fetch the publish status. Failures are
// reported in the Result, never returned.
func (u *Uploader) UploadVideo(ctx context.Context, videoPath string, meta Metadata) *uploader.Result {
	result, err := u.upload(ctx, videoPath, meta)
	if err != nil {
		u.logger.Error("Upload failed", "error", err)
		return uploader.Failed(platform, err)
	}
	if !result.Success {
		u.logger.Error("Upload failed", "error", result.Error)
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

	session, err := u.initializeUpload(ctx, size)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload: %w", err)
	}
	u.logger.Info("Upload initialized", "publish_id", session.publishID)

	if err := u.uploadVideoFile(ctx, videoPath, session.uploadURL); err != nil {
		return nil, fmt.Errorf("failed to upload video file: %w", err)
	}
	u.logger.Info("Video file uploaded")

	result := u.publishStatus(ctx, session.publishID)
	if result.Success {
		u.logger.Info("Upload complete", "video_id", result.VideoID, "draft", result.IsDraft)
	}
	return result, nil
}

type uploadSession struct {
	publishID string
	uploadURL string
}

// initializeUpload declares a single chunk upload of size bytes. The post
// info is fixed; metadata from the caller is not sent.
func (u *Uploader) initializeUpload(ctx context.Context, size int64) (*uploadSession, error) {
	reqBody := initRequest{
		PostInfo: postInfo{
			Title:                 initTitle,
			PrivacyLevel:          string(PrivacyPublic),
			VideoCoverTimestampMs: defaultCoverTimestampMs,
		},
		SourceInfo: sourceInfo{
			Source:          sourceFileUpload,
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	}

	var resp initResponse
	if err := u.postJSON(ctx, initPath, reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Data.UploadURL == "" || resp.Data.PublishID == "" {
		return nil, errors.New("response missing upload_url or publish_id")
	}

	return &uploadSession{
		publishID: resp.Data.PublishID,
		uploadURL: resp.Data.UploadURL,
	}, nil
}

// uploadVideoFile streams the file as a multipart "video" field. The
// Content-Type header is video/mp4 even though the body is form encoded.
func (u *Uploader) uploadVideoFile(ctx context.Context, videoPath, uploadURL string) error {
	file, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	body, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", videoContentType)

	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("video", filepath.Base(videoPath))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(form.Close())
	}()

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send video: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, respBody)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// publishStatus asks TikTok whether the upload went live. The file has
// already been accepted at this point, so a failed status call yields a
// draft result instead of an error.
func (u *Uploader) publishStatus(ctx context.Context, publishID string) *uploader.Result {
	var resp statusResponse
	if err := u.postJSON(ctx, statusPath, statusRequest{PublishID: publishID}, &resp); err != nil {
		u.logger.Warn("Direct publish not available, video created as draft", "error", err)
		return draft(publishID)
	}

	switch status := resp.Data.Status; status {
	case statusPublishComplete:
		return &uploader.Result{
			Platform: platform,
			Success:  true,
			VideoID:  resp.Data.VideoID,
			URL:      ShareURL(resp.Data.VideoID),
		}
	case statusProcessingUpload:
		u.logger.Info("Video still processing, created as draft")
		return draft(publishID)
	default:
		return &uploader.Result{
			Platform: platform,
			Success:  false,
			Error:    "Upload status: " + status,
		}
	}
}

func draft(publishID string) *uploader.Result {
	return &uploader.Result{
		Platform: platform,
		Success:  true,
		VideoID:  publishID,
		IsDraft:  true,
	}
}

func (u *Uploader) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// apiError prefers the message TikTok puts in the error envelope and falls
// back to the HTTP status.
func apiError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.LogID = env.Error.LogID
		apiErr.Message = env.Error.Message
		if apiErr.Message == "" {
			apiErr.Message = env.Message
		}
	}
	return apiErr
}
