package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"reelpost/internal/uploader"
	"reelpost/pkg/config"
)

type fakeTikTok struct {
	initCalls   atomic.Int32
	uploadCalls atomic.Int32
	statusCalls atomic.Int32

	initStatus   int
	initBody     string
	statusStatus int
	statusBody   string
	statusDrop   bool

	gotInit        initRequest
	gotAuth        string
	gotUploadType  string
	gotUploadField string
	gotUploadBytes []byte
	gotPublishID   string
}

func newFakeTikTok(t *testing.T, f *fakeTikTok) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc(initPath, func(w http.ResponseWriter, r *http.Request) {
		f.initCalls.Add(1)
		f.gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&f.gotInit)

		if f.initStatus != 0 {
			w.WriteHeader(f.initStatus)
			_, _ = w.Write([]byte(f.initBody))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"publish_id":"pub-123","upload_url":"` + server.URL + `/upload"},"error":{"code":"ok"}}`))
	})

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.uploadCalls.Add(1)
		f.gotUploadType = r.Header.Get("Content-Type")

		// The declared type is video/mp4, so parse the body by its boundary.
		data, _ := io.ReadAll(r.Body)
		boundary := strings.TrimPrefix(strings.SplitN(string(data), "\r\n", 2)[0], "--")
		r.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
		r.Body = io.NopCloser(strings.NewReader(string(data)))

		file, header, err := r.FormFile("video")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()
		f.gotUploadField = header.Filename
		f.gotUploadBytes, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc(statusPath, func(w http.ResponseWriter, r *http.Request) {
		f.statusCalls.Add(1)
		var req statusRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.gotPublishID = req.PublishID

		if f.statusDrop {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		if f.statusStatus != 0 {
			w.WriteHeader(f.statusStatus)
		}
		_, _ = w.Write([]byte(f.statusBody))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestUploader(t *testing.T, serverURL string) *Uploader {
	t.Helper()
	u, err := New(config.TikTok{AccessToken: "test-token", ClientKey: "test-key", BaseURL: serverURL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return u
}

func writeVideo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write video: %v", err)
	}
	return path
}

func TestUploadVideoPublished(t *testing.T) {
	fake := &fakeTikTok{statusBody: `{"data":{"status":"PUBLISH_COMPLETE","video_id":"7300"}}`}
	server := newFakeTikTok(t, fake)
	u := newTestUploader(t, server.URL)

	videoPath := writeVideo(t, "fake mp4 bytes")
	meta := Metadata{Title: "Ignored title", PrivacyLevel: PrivacySelfOnly, CoverTimestampMs: 5000}

	result := u.UploadVideo(context.Background(), videoPath, meta)

	if !result.Success {
		t.Fatalf("UploadVideo() failed: %s", result.Error)
	}
	if result.VideoID != "7300" {
		t.Errorf("VideoID = %q, want 7300", result.VideoID)
	}
	if result.URL != "https://www.tiktok.com/@user/video/7300" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.IsDraft {
		t.Error("IsDraft = true, want false")
	}
	if result.Platform != "tiktok" {
		t.Errorf("Platform = %q, want tiktok", result.Platform)
	}

	if fake.gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", fake.gotAuth)
	}
	if fake.gotInit.PostInfo.Title != "Video Upload" {
		t.Errorf("post_info.title = %q, want fixed title", fake.gotInit.PostInfo.Title)
	}
	if fake.gotInit.PostInfo.PrivacyLevel != "PUBLIC_TO_EVERYONE" {
		t.Errorf("post_info.privacy_level = %q", fake.gotInit.PostInfo.PrivacyLevel)
	}
	if fake.gotInit.PostInfo.VideoCoverTimestampMs != 1000 {
		t.Errorf("post_info.video_cover_timestamp_ms = %d, want 1000", fake.gotInit.PostInfo.VideoCoverTimestampMs)
	}

	src := fake.gotInit.SourceInfo
	size := int64(len("fake mp4 bytes"))
	if src.Source != "FILE_UPLOAD" || src.VideoSize != size || src.ChunkSize != size || src.TotalChunkCount != 1 {
		t.Errorf("source_info = %+v, want FILE_UPLOAD of %d bytes in one chunk", src, size)
	}

	if fake.gotUploadType != "video/mp4" {
		t.Errorf("upload Content-Type = %q, want video/mp4", fake.gotUploadType)
	}
	if fake.gotUploadField != "clip.mp4" {
		t.Errorf("upload filename = %q, want clip.mp4", fake.gotUploadField)
	}
	if string(fake.gotUploadBytes) != "fake mp4 bytes" {
		t.Errorf("uploaded bytes = %q", fake.gotUploadBytes)
	}
	if fake.gotPublishID != "pub-123" {
		t.Errorf("status publish_id = %q, want pub-123", fake.gotPublishID)
	}
}

func TestUploadVideoStatus(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		statusBody  string
		statusDrop  bool
		wantSuccess bool
		wantDraft   bool
		wantVideoID string
		wantError   string
	}{
		{
			name:        "processing",
			statusBody:  `{"data":{"status":"PROCESSING_UPLOAD"}}`,
			wantSuccess: true,
			wantDraft:   true,
			wantVideoID: "pub-123",
		},
		{
			name:       "failed",
			statusBody: `{"data":{"status":"FAILED"}}`,
			wantError:  "Upload status: FAILED",
		},
		{
			name:        "statusCallError",
			statusCode:  http.StatusForbidden,
			statusBody:  `{"error":{"code":"scope_not_authorized","message":"no scope"}}`,
			wantSuccess: true,
			wantDraft:   true,
			wantVideoID: "pub-123",
		},
		{
			name:        "statusConnectionDropped",
			statusDrop:  true,
			wantSuccess: true,
			wantDraft:   true,
			wantVideoID: "pub-123",
		},
		{
			name:        "statusCallGarbage",
			statusBody:  `not json`,
			wantSuccess: true,
			wantDraft:   true,
			wantVideoID: "pub-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTikTok{statusStatus: tt.statusCode, statusBody: tt.statusBody, statusDrop: tt.statusDrop}
			server := newFakeTikTok(t, fake)
			u := newTestUploader(t, server.URL)

			result := u.UploadVideo(context.Background(), writeVideo(t, "data"), Metadata{})

			if result.Success != tt.wantSuccess {
				t.Fatalf("Success = %v, want %v (error %q)", result.Success, tt.wantSuccess, result.Error)
			}
			if result.IsDraft != tt.wantDraft {
				t.Errorf("IsDraft = %v, want %v", result.IsDraft, tt.wantDraft)
			}
			if result.VideoID != tt.wantVideoID {
				t.Errorf("VideoID = %q, want %q", result.VideoID, tt.wantVideoID)
			}
			if result.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", result.Error, tt.wantError)
			}
			if tt.wantDraft && result.URL != "" {
				t.Errorf("URL = %q, want empty for draft", result.URL)
			}
			if got := fake.statusCalls.Load(); got != 1 {
				t.Errorf("status calls = %d, want 1", got)
			}
		})
	}
}

func TestUploadVideoInitError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{
			name:      "envelopeMessage",
			status:    http.StatusUnauthorized,
			body:      `{"error":{"code":"access_token_invalid","message":"The access token is invalid"}}`,
			wantError: "The access token is invalid",
		},
		{
			name:      "topLevelMessage",
			status:    http.StatusBadRequest,
			body:      `{"message":"bad request"}`,
			wantError: "bad request",
		},
		{
			name:      "noBody",
			status:    http.StatusInternalServerError,
			body:      ``,
			wantError: "request failed with status code 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTikTok{initStatus: tt.status, initBody: tt.body}
			server := newFakeTikTok(t, fake)
			u := newTestUploader(t, server.URL)

			result := u.UploadVideo(context.Background(), writeVideo(t, "data"), Metadata{})

			if result.Success {
				t.Fatal("UploadVideo() succeeded, want failure")
			}
			if !strings.Contains(result.Error, tt.wantError) {
				t.Errorf("Error = %q, want it to contain %q", result.Error, tt.wantError)
			}
			if !strings.HasPrefix(result.Error, "failed to initialize upload") {
				t.Errorf("Error = %q, want initialize prefix", result.Error)
			}
			if fake.uploadCalls.Load() != 0 || fake.statusCalls.Load() != 0 {
				t.Error("no further calls expected after init failure")
			}
		})
	}
}

func TestUploadVideoMissingFile(t *testing.T) {
	fake := &fakeTikTok{}
	server := newFakeTikTok(t, fake)
	u := newTestUploader(t, server.URL)

	result := u.UploadVideo(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), Metadata{})

	if result.Success {
		t.Fatal("UploadVideo() succeeded, want failure")
	}
	if !strings.Contains(result.Error, "file not found") {
		t.Errorf("Error = %q, want file not found", result.Error)
	}
	total := fake.initCalls.Load() + fake.uploadCalls.Load() + fake.statusCalls.Load()
	if total != 0 {
		t.Errorf("network calls = %d, want 0", total)
	}
}

func TestUploadVideoTransferError(t *testing.T) {
	var statusCalls atomic.Int32
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc(initPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"publish_id":"p","upload_url":"` + server.URL + `/upload"}}`))
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	})
	mux.HandleFunc(statusPath, func(w http.ResponseWriter, r *http.Request) {
		statusCalls.Add(1)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	u := newTestUploader(t, server.URL)
	result := u.UploadVideo(context.Background(), writeVideo(t, "data"), Metadata{})

	if result.Success {
		t.Fatal("UploadVideo() succeeded, want failure")
	}
	if !strings.Contains(result.Error, "413") {
		t.Errorf("Error = %q, want status code", result.Error)
	}
	if statusCalls.Load() != 0 {
		t.Error("status should not be fetched after a failed transfer")
	}
}

func TestNewMissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.TikTok
		wantVars []string
	}{
		{
			name:     "accessToken",
			cfg:      config.TikTok{ClientKey: "k"},
			wantVars: []string{config.EnvTikTokAccessToken},
		},
		{
			name:     "clientKey",
			cfg:      config.TikTok{AccessToken: "a", ClientSecret: "s"},
			wantVars: []string{config.EnvTikTokClientKey},
		},
		{
			name:     "both",
			cfg:      config.TikTok{},
			wantVars: []string{config.EnvTikTokAccessToken, config.EnvTikTokClientKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)

			var missing *config.MissingCredentialsError
			if !errors.As(err, &missing) {
				t.Fatalf("New() error = %v, want *MissingCredentialsError", err)
			}
			if strings.Join(missing.Vars, ",") != strings.Join(tt.wantVars, ",") {
				t.Errorf("Vars = %v, want %v", missing.Vars, tt.wantVars)
			}
			for _, v := range tt.wantVars {
				if !strings.Contains(err.Error(), v) {
					t.Errorf("error = %q, want %s", err.Error(), v)
				}
			}
		})
	}
}

func TestNewDefaultBaseURL(t *testing.T) {
	u, err := New(config.TikTok{AccessToken: "a", ClientKey: "k"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if u.baseURL != "https://open.tiktokapis.com/v2" {
		t.Errorf("baseURL = %q", u.baseURL)
	}
}

func TestUploaderImplementsInterface(t *testing.T) {
	var u uploader.Uploader[Metadata] = newTestUploader(t, "http://localhost")
	if u.Platform() != "tiktok" {
		t.Errorf("Platform() = %q, want tiktok", u.Platform())
	}
}
