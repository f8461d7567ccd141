package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"reelpost/internal/youtube"
	"reelpost/pkg/config"
)

const (
	envFile     = ".env"
	authTimeout = 5 * time.Minute
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with the upload platforms",
	Long:  `Obtain or inspect the credentials the uploaders read from .env.`,
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Obtain a YouTube refresh token (OAuth)",
	Long: `Run the YouTube OAuth consent flow using YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET,
then store the refresh token in .env as YOUTUBE_REFRESH_TOKEN.`,
	RunE: runAuthYouTube,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which credentials are configured",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authYouTubeCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, infoStyle.Render("\nCredential Status:\n"))
	printCredentialStatus(out, "TikTok", cfg.TikTok.Validate())
	printCredentialStatus(out, "YouTube", cfg.YouTube.Validate())

	if cfg.GCPProject != "" {
		_, _ = fmt.Fprintln(out, successStyle.Render("✓ Secret Manager: project "+cfg.GCPProject))
	} else {
		_, _ = fmt.Fprintln(out, infoStyle.Render("○ Secret Manager: not configured (optional)"))
	}

	_, _ = fmt.Fprintln(out)
	return nil
}

func printCredentialStatus(w io.Writer, platform string, err error) {
	var missing *config.MissingCredentialsError
	switch {
	case err == nil:
		_, _ = fmt.Fprintln(w, successStyle.Render("✓ "+platform+": configured"))
	case errors.As(err, &missing):
		_, _ = fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %s: missing %v", platform, missing.Vars)))
		if platform == "YouTube" && len(missing.Vars) == 1 && missing.Vars[0] == config.EnvYouTubeRefreshToken {
			_, _ = fmt.Fprintln(w, infoStyle.Render("  Run: reelpost auth youtube"))
		}
	default:
		_, _ = fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %s: %v", platform, err)))
	}
}

func runAuthYouTube(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context(), config.PlatformYouTube)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.YouTube.ClientID == "" || cfg.YouTube.ClientSecret == "" {
		return errors.New("YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET must be set in .env")
	}

	token, err := runYouTubeOAuthFlow(cmd.Context(), cfg.YouTube.ClientID, cfg.YouTube.ClientSecret)
	if err != nil {
		return err
	}

	if err := saveEnv(envFile, map[string]string{config.EnvYouTubeRefreshToken: token}); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ YouTube authentication complete"))
	fmt.Println(successStyle.Render("  Refresh token saved to " + envFile + " as " + config.EnvYouTubeRefreshToken))
	return nil
}

// runYouTubeOAuthFlow serves the redirect URI on localhost, opens the consent
// page and returns the refresh token from the code exchange.
func runYouTubeOAuthFlow(ctx context.Context, clientID, clientSecret string) (string, error) {
	oauthConfig := youtube.OAuthConfig(clientID, clientSecret)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	listener, err := net.Listen("tcp", youtube.CallbackAddr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}

	state := fmt.Sprintf("reelpost-%d", time.Now().UnixNano())

	server := &http.Server{
		Handler:           callbackHandler(state, codeChan, errChan),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	authURL := youtube.AuthCodeURL(oauthConfig, state)
	fmt.Println(infoStyle.Render("\nOpening browser for YouTube authentication..."))
	fmt.Println(infoStyle.Render("If browser doesn't open, visit:\n" + authURL))

	_ = browser.OpenURL(authURL)

	fmt.Println(infoStyle.Render("\nWaiting for authentication..."))

	select {
	case code := <-codeChan:
		token, err := oauthConfig.Exchange(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to exchange code: %w", err)
		}
		if token.RefreshToken == "" {
			return "", errors.New("no refresh token returned; revoke the app's access and try again")
		}
		return token.RefreshToken, nil

	case err := <-errChan:
		return "", err

	case <-ctx.Done():
		return "", ctx.Err()

	case <-time.After(authTimeout):
		return "", errors.New("authentication timed out")
	}
}

// callbackHandler serves the OAuth redirect. Only the first result is kept;
// later requests never block on the channels.
func callbackHandler(state string, codeChan chan<- string, errChan chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != youtube.CallbackPath {
			http.NotFound(w, r)
			return
		}

		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errChan <- errors.New("no code in callback"):
			default:
			}
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprintf(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})
}

// saveEnv merges values into the dotenv file at path, keeping existing keys.
func saveEnv(path string, values map[string]string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		env = make(map[string]string)
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for k, v := range values {
		if v != "" {
			env[k] = v
		}
	}

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
