// package formatter provides functions to export movie data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
)

// Stars renders a 0-5 rating as filled and empty stars, rounding to the nearest whole star.
func Stars(rating float64) string {
	n := int(math.Round(rating))
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// FormatRating renders an aggregate rating with one decimal place, or "-" when unrated.
func FormatRating(rating float64) string {
	if rating <= 0 {
		return "-"
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ExportToCSV converts a movie's comments to CSV format with columns: ID, User, UserID, Rating, Text, CreatedAt
func ExportToCSV(movie *models.Movie) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "User", "UserID", "Rating", "Text", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range movie.Comments {
		record := []string{
			c.ID,
			c.User,
			c.UserID,
			strconv.Itoa(c.Rating),
			c.Text,
			formatTime(c.CreatedAt),
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

// ExportCatalogCSV converts a catalog listing to CSV with columns: ID, Title, Genre, Rating, Comments, Favorite
func ExportCatalogCSV(movies []models.Movie) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Genre", "Rating", "Comments", "Favorite"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range movies {
		record := []string{
			m.ID,
			m.Title,
			m.Genre,
			strconv.FormatFloat(m.Rating, 'f', -1, 64),
			strconv.Itoa(len(m.Comments)),
			strconv.FormatBool(m.Favorite),
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

// ExportToMarkdown converts a movie to Markdown format with optional poster image
func ExportToMarkdown(movie *models.Movie, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", movie.Title))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Poster](%s)\n\n", imageFilename))
	}

	if movie.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", movie.Description))
	}

	if movie.Genre != "" {
		buf.WriteString(fmt.Sprintf("**Genre**: %s\n", movie.Genre))
	}
	buf.WriteString(fmt.Sprintf("**Rating**: %s %s\n", Stars(movie.Rating), FormatRating(movie.Rating)))
	buf.WriteString(fmt.Sprintf("**Comments**: %d\n\n", len(movie.Comments)))

	if len(movie.Subtitles) > 0 {
		buf.WriteString("## Subtitles\n\n")
		for _, s := range movie.Subtitles {
			buf.WriteString(fmt.Sprintf("- %s (%s)\n", s.Label, s.Lang))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Comments\n\n")
	if len(movie.Comments) == 0 {
		buf.WriteString("_No comments yet._\n")
	}
	for i, c := range movie.Comments {
		buf.WriteString(fmt.Sprintf("%d. **%s** %s: %s\n", i+1, c.User, Stars(float64(c.Rating)), c.Text))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a movie to plain text format
func ExportToText(movie *models.Movie) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Movie: %s\n", movie.Title))
	if movie.Genre != "" {
		buf.WriteString(fmt.Sprintf("Genre: %s\n", movie.Genre))
	}
	if movie.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", movie.Description))
	}
	buf.WriteString(fmt.Sprintf("Rating: %s\n", FormatRating(movie.Rating)))
	buf.WriteString(fmt.Sprintf("Comments: %d\n\n", len(movie.Comments)))

	for i, c := range movie.Comments {
		buf.WriteString(fmt.Sprintf("%d. [%d/5] %s - %s\n", i+1, c.Rating, c.User, c.Text))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
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

// ToMetadataJSON generates a JSON representation of movie metadata (without comments)
func ToMetadataJSON(movie *models.Movie) ([]byte, error) {
	meta := *movie
	meta.Comments = nil
	return shared.MarshalJSON(struct {
		*models.Movie
		Comments     []models.Comment `json:"comments,omitempty"`
		CommentCount int              `json:"commentCount"`
	}{Movie: &meta, CommentCount: len(movie.Comments)}, true)
}

// FileName returns id when it is safe to use as a single path element.
// Server ids are untrusted, so separators and dot segments are rejected.
func FileName(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\\x00") || !filepath.IsLocal(id) || id == "." {
		return "", fmt.Errorf("%w: movie id %q is not a valid file name", shared.ErrInvalidInput, id)
	}
	return id, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	CommentsFile string
	MetadataFile string
}

// WriteCSVExport exports a movie's comments to CSV format with accompanying metadata JSON file.
//
// Defaults to the movie ID as the base filename & creates {base}_comments.csv and {base}_metadata.json
func WriteCSVExport(movie *models.Movie, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		name, err := FileName(movie.ID)
		if err != nil {
			return nil, err
		}
		baseFilepath = name
	}

	csvData, err := ExportToCSV(movie)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	commentsFile := baseFilepath + "_comments.csv"
	if err := os.WriteFile(commentsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(movie)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		CommentsFile: commentsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Poster    string
}

// posterFilename keeps the image extension from the URL, defaulting to .jpg.
func posterFilename(imageURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(imageURL, "?", 2)[0]))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return "poster" + ext
	default:
		return "poster.jpg"
	}
}

// WriteMarkdownExport exports a movie to Markdown format in a dedicated directory.
//
// Directory name defaults to the movie ID.
// The imageURL parameter is optional - if provided, attempts to download the poster.
// Creates a directory structure: {dir}/README.md and optionally {dir}/poster.{ext}
func WriteMarkdownExport(movie *models.Movie, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		name, err := FileName(movie.ID)
		if err != nil {
			return nil, err
		}
		outputDir = name
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var posterName string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download poster: %v\n", err)
		} else {
			posterName = posterFilename(imageURL)
			posterPath := filepath.Join(outputDir, posterName)
			if err := os.WriteFile(posterPath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save poster: %v\n", err)
				posterName = ""
			} else {
				result.Poster = posterPath
				result.Files = append(result.Files, posterPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(movie, posterName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a movie to plain text format.
//
// Defaults to {movie.ID}.txt as the filename.
func WriteTextExport(movie *models.Movie, dest string) (string, error) {
	if dest == "" {
		name, err := FileName(movie.ID)
		if err != nil {
			return "", err
		}
		dest = name + ".txt"
	}

	textData, err := ExportToText(movie)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(dest, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return dest, nil
}

// WriteBulkExportManifest writes a pretty-printed JSON manifest describing a bulk export.
func WriteBulkExportManifest(result any, format, manifestPath string) error {
	if format == "" {
		format = "json"
	}

	manifest := struct {
		Format      string    `json:"format"`
		GeneratedAt time.Time `json:"generated_at"`
		Result      any       `json:"result"`
	}{Format: format, GeneratedAt: time.Now().UTC(), Result: result}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
