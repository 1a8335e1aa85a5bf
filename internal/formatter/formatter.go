// package formatter renders track lists and exports playlists to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/vibes/internal/models"
)

// Format is an export format accepted by the export command.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "text"
)

// ParseFormat accepts csv, md/markdown and text/txt.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported format %q (want csv, md or text)", s)
}

// WriteTable writes a numbered, tab-aligned track table. marker returns the prefix for a row,
// e.g. "▶" for the track that is playing; it may be nil.
func WriteTable(w io.Writer, tracks []models.Track, marker func(models.Track) string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tTITLE\tARTIST\tALBUM\tTIME\tPREVIEW\tID")
	for i, t := range tracks {
		info := t.Info()
		prefix := " "
		if marker != nil {
			if m := marker(t); m != "" {
				prefix = m
			}
		}
		preview := "-"
		if info.HasPreview() {
			preview = "yes"
		}
		fmt.Fprintf(tw, "%s %d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			prefix, i+1, info.Name, info.Artist, info.Album, info.Duration, preview, info.ID)
	}
	return tw.Flush()
}

// Summary renders "12 tracks, 42m".
func Summary(p *models.Playlist) string {
	noun := "tracks"
	if p.Len() == 1 {
		noun = "track"
	}
	return fmt.Sprintf("%d %s, %s", p.Len(), noun, models.FormatTotalDuration(p.TotalDuration()))
}

// ExportToCSV converts a playlist to CSV with columns: ID, Name, Artist, Album, Duration, Preview URL, URI
func ExportToCSV(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artist", "Album", "Duration", "Preview URL", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range p.Tracks {
		info := track.Info()
		record := []string{
			info.ID,
			info.Name,
			info.Artist,
			info.Album,
			info.Duration,
			info.PlayURLs.PreviewURL,
			info.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown with an optional cover image
func ExportToMarkdown(p *models.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %s\n\n", Summary(p))

	buf.WriteString("## Tracks\n\n")
	for i, track := range p.Tracks {
		info := track.Info()
		name := info.Name
		if info.PlayURLs.SpotifyWeb != "" {
			name = fmt.Sprintf("[%s](%s)", info.Name, info.PlayURLs.SpotifyWeb)
		}
		fmt.Fprintf(&buf, "%d. %s - %s (%s) [%s]\n", i+1, info.Artist, name, info.Album, info.Duration)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %s\n\n", Summary(p))

	for i, track := range p.Tracks {
		info := track.Info()
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, info, info.Duration)
	}

	return buf.Bytes(), nil
}

// CoverURL returns the first album image among the playlist's tracks.
func CoverURL(p *models.Playlist) string {
	for _, t := range p.Tracks {
		if u := t.Info().ImageURL; u != "" {
			return u
		}
	}
	return ""
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ExportResult lists the files written by [Write].
type ExportResult struct {
	Files      []string
	CoverImage string
	Warnings   []string
}

// Write exports p in format under dest. CSV and text write a single file at dest; Markdown
// creates the directory dest holding README.md and, when a cover can be fetched, cover.jpg.
func Write(ctx context.Context, client *http.Client, p *models.Playlist, format Format, dest string) (*ExportResult, error) {
	switch format {
	case FormatCSV:
		return writeFile(dest, ".csv", func() ([]byte, error) { return ExportToCSV(p) })
	case FormatText:
		return writeFile(dest, ".txt", func() ([]byte, error) { return ExportToText(p) })
	case FormatMarkdown:
		return writeMarkdown(ctx, client, p, dest)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func writeFile(dest, ext string, render func() ([]byte, error)) (*ExportResult, error) {
	if filepath.Ext(dest) == "" {
		dest += ext
	}

	data, err := render()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return &ExportResult{Files: []string{dest}}, nil
}

func writeMarkdown(ctx context.Context, client *http.Client, p *models.Playlist, dir string) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ExportResult{Files: []string{}}

	var cover string
	if imageURL := CoverURL(p); imageURL != "" {
		data, err := DownloadImage(ctx, client, imageURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download cover image: %v", err))
		} else {
			path := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save cover image: %v", err))
			} else {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	data, err := ExportToMarkdown(p, cover)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, readme)

	return result, nil
}
