/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spinlog/spinlog/internal/config"
)

// nowTrack is the /current-track payload in display form.
type nowTrack struct {
	TrackName     string `json:"track_name"`
	Artists       string `json:"artists"`
	AlbumName     string `json:"album_name"`
	SecondsPlayed int64  `json:"seconds_played"`
	Duration      int64  `json:"duration"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display the currently playing track",
	Long: `Query a running spinlog server and display the currently playing track.

The output format is a Go template. Available fields: .TrackName,
.Artists, .AlbumName, .SecondsPlayed, .Duration

Exit codes:
  0 - Track is currently playing
  1 - No track playing, not authenticated, or server unreachable`,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	nowCmd.Flags().StringP("format", "f", "{{.Artists}} - {{.TrackName}}", "Output format template")
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled)")
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	track, err := fetchCurrentTrack(ctx, cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}

	// Not authenticated or nothing playing: exit with code 1
	if track.Error != "" || track.Message != "" || track.TrackName == "" {
		os.Exit(1)
		return nil
	}

	format, _ := cmd.Flags().GetString("format")
	output, err := formatTrack(track, format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	width, _ := cmd.Flags().GetInt("width")
	if width > 0 {
		output = padToWidth(output, width)
	}

	fmt.Println(output)
	return nil
}

// fetchCurrentTrack queries the local server's current-track endpoint.
func fetchCurrentTrack(ctx context.Context, addr string) (*nowTrack, error) {
	url := "http://" + addr + "/current-track"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var track nowTrack
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &track, nil
}

// formatTrack applies the template to the track data
func formatTrack(track *nowTrack, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, track); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
// If text is shorter than width, pads with spaces.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		truncated := runewidth.Truncate(text, width-ellipsisWidth, "")
		result := truncated + ellipsis

		// Ensure we land exactly on the target width
		resultWidth := runewidth.StringWidth(result)
		if resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		} else if resultWidth > width {
			return runewidth.Truncate(result, width, "")
		}
		return result
	} else if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	return text
}
