package output

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// DefaultPreviewSize is the longest edge of a preview thumbnail
const DefaultPreviewSize = 256

// normalizeFormat maps a format name or file extension to a lowercase name without the dot
func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}

// Encode writes img to w in the named format ("ppm", "png", "jpg", "gif", "tif", "bmp")
func Encode(w io.Writer, img image.Image, format string) error {
	name := normalizeFormat(format)
	if name == "ppm" {
		return WritePPM(w, img)
	}

	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return fmt.Errorf("encode %q: %w", format, err)
	}
	if err := imaging.Encode(w, img, f); err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// ContentType returns the media type for a supported format
func ContentType(format string) (string, error) {
	name := normalizeFormat(format)
	if name == "ppm" {
		return PPMContentType, nil
	}

	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return "", fmt.Errorf("content type %q: %w", format, err)
	}
	return "image/" + strings.ToLower(f.String()), nil
}

// Save writes img to path, choosing the encoding from the file extension
func Save(img image.Image, path string) error {
	if normalizeFormat(filepath.Ext(path)) != "ppm" {
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePPM(file, img); err != nil {
		file.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return file.Close()
}

// Thumbnail scales img down to fit within maxSize x maxSize, keeping its aspect ratio.
// Images already small enough are returned unchanged.
func Thumbnail(img image.Image, maxSize uint) image.Image {
	return resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)
}

// PreviewPath returns the path a preview of outputPath is written to
func PreviewPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".preview.png"
}
