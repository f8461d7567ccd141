package youtube

import (
	"context"
	"io"

	"google.golang.org/api/googleapi"
	ytapi "google.golang.org/api/youtube/v3"
)

var insertParts = []string{"snippet", "status"}

type videoService interface {
	Insert(ctx context.Context, video *ytapi.Video, media io.Reader, contentType string) (*ytapi.Video, error)
	SetThumbnail(ctx context.Context, videoID string, media io.Reader, contentType string) error
}

type apiService struct {
	svc *ytapi.Service
}

func (s *apiService) Insert(ctx context.Context, video *ytapi.Video, media io.Reader, contentType string) (*ytapi.Video, error) {
	return s.svc.Videos.Insert(insertParts, video).
		Media(media, mediaOptions(contentType)...).
		Context(ctx).
		Do()
}

func (s *apiService) SetThumbnail(ctx context.Context, videoID string, media io.Reader, contentType string) error {
	_, err := s.svc.Thumbnails.Set(videoID).
		Media(media, mediaOptions(contentType)...).
		Context(ctx).
		Do()
	return err
}

func mediaOptions(contentType string) []googleapi.MediaOption {
	if contentType == "" {
		return nil
	}
	return []googleapi.MediaOption{googleapi.ContentType(contentType)}
}
