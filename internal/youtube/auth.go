package youtube

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	ytapi "google.golang.org/api/youtube/v3"
)

const (
	CallbackAddr = "localhost:3000"
	CallbackPath = "/oauth2callback"
	RedirectURL  = "http://" + CallbackAddr + CallbackPath
)

var scopes = []string{
	ytapi.YoutubeUploadScope,
	ytapi.YoutubeScope,
}

// OAuthConfig is shared by the uploader, which only ever refreshes, and the
// interactive consent flow that obtains the refresh token.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
		RedirectURL:  RedirectURL,
	}
}

// AuthCodeURL asks for offline access with a forced consent screen so the
// exchange always returns a refresh token.
func AuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}
