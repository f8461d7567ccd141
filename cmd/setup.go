package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"reelpost/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Reelpost",
	Long:  `Collect TikTok and YouTube credentials, write them to .env and verify the result.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
			return errors.New("setup must be run from an interactive terminal")
		}
		return nil
	},
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 Reelpost Setup"))

	ctx := cmd.Context()
	env := make(map[string]string)

	steps := []struct {
		name string
		fn   func(map[string]string) error
	}{
		{"Configuring TikTok", configureTikTok},
		{"Configuring YouTube", func(env map[string]string) error { return configureYouTube(ctx, env) }},
		{"Configuring Google Cloud", configureGCP},
	}

	for _, step := range steps {
		if err := step.fn(env); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if err := saveEnv(envFile, env); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Updated " + envFile))

	return verifySetup(cmd)
}

func configureTikTok(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup TikTok?").
		Description("Uses the Content Posting API (https://developers.tiktok.com)").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	var token, clientKey, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("TikTok Access Token").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(required("Access Token")),
			huh.NewInput().
				Title("TikTok Client Key").
				Value(&clientKey).
				Validate(required("Client Key")),
			huh.NewInput().
				Title("TikTok Client Secret").
				Description("Optional").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env[config.EnvTikTokAccessToken] = strings.TrimSpace(token)
	env[config.EnvTikTokClientKey] = strings.TrimSpace(clientKey)
	env[config.EnvTikTokClientSecret] = strings.TrimSpace(clientSecret)
	return nil
}

func configureYouTube(ctx context.Context, env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup YouTube?").
		Description("Uses the YouTube Data API v3 with an OAuth refresh token").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Web application" and add http://localhost:3000/oauth2callback as redirect URI
4. Copy the Client ID and Client Secret
`))

	var clientID, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("YouTube Client ID").
				Value(&clientID).
				Validate(required("Client ID")),
			huh.NewInput().
				Title("YouTube Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret).
				Validate(required("Client Secret")),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	env[config.EnvYouTubeClientID] = clientID
	env[config.EnvYouTubeClientSecret] = clientSecret

	var authenticate bool
	if err := huh.NewConfirm().
		Title("Authenticate with YouTube now?").
		Description("Opens browser to obtain a refresh token").
		Value(&authenticate).
		Run(); err != nil {
		return err
	}

	if !authenticate {
		return nil
	}

	token, err := runYouTubeOAuthFlow(ctx, clientID, clientSecret)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
		fmt.Println(infoStyle.Render("You can retry later with: reelpost auth youtube"))
		return nil
	}
	env[config.EnvYouTubeRefreshToken] = token
	return nil
}

func configureGCP(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Use Google Cloud?").
		Description("Optional: Secret Manager for credentials and gs:// video sources").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	project := getActiveProject()
	if err := huh.NewInput().
		Title("Project ID").
		Value(&project).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}

	project = strings.TrimSpace(project)
	env[config.EnvGCPProject] = project

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found, enable the YouTube Data and Secret Manager APIs manually"))
		return nil
	}

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}
	return nil
}

func getActiveProject() string {
	if !commandExists("gcloud") {
		return ""
	}
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

// verifySetup reloads the configuration the way the uploaders will see it.
func verifySetup(cmd *cobra.Command) error {
	var cfg *config.Config
	err := runWithSpinner("Verifying configuration", func() error {
		var err error
		cfg, err = config.Load(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printCredentialStatus(out, "TikTok", cfg.TikTok.Validate())
	printCredentialStatus(out, "YouTube", cfg.YouTube.Validate())

	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Write a metadata file, e.g. {\"title\": \"My video\", \"privacyLevel\": \"SELF_ONLY\"}")
	fmt.Println("  2. Run: reelpost tiktok video.mp4 tiktok.json")
	fmt.Println("  3. Run: reelpost youtube video.mp4 youtube.json")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
