package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"reelpost/internal/uploader"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// printResult writes the summary block: success to stdout, failure to
// stderr. A failed result returns errReported.
func printResult(stdout, stderr io.Writer, result *uploader.Result, showStatus bool) error {
	if !result.Success {
		_, _ = fmt.Fprintln(stderr, errorStyle.Render("\n=== Upload Failed ==="))
		_, _ = fmt.Fprintf(stderr, "Error: %s\n", result.Error)
		return errReported
	}

	_, _ = fmt.Fprintln(stdout, successStyle.Render("\n=== Upload Successful ==="))

	if result.IsDraft {
		_, _ = fmt.Fprintln(stdout, warnStyle.Render("Status: Created as DRAFT (requires manual publish)"))
		_, _ = fmt.Fprintf(stdout, "Upload ID: %s\n", result.VideoID)
		return nil
	}

	if showStatus {
		_, _ = fmt.Fprintln(stdout, "Status: Published")
	}
	_, _ = fmt.Fprintf(stdout, "Video ID: %s\n", result.VideoID)
	_, _ = fmt.Fprintf(stdout, "URL: %s\n", result.URL)
	return nil
}

func printJSON(w io.Writer, result *uploader.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if !result.Success {
		return errReported
	}
	return nil
}
