package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	ext := GetFileExtension(filename)
	imageExts := []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}

	for _, imgExt := range imageExts {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// IsImageUpload reports whether an upload is an image, trusting the content type first
func IsImageUpload(filename, contentType string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	return IsImageFile(filename)
}

// IsZipUpload reports whether an upload is a ZIP archive
func IsZipUpload(filename, contentType string) bool {
	if contentType == "application/zip" || contentType == "application/x-zip-compressed" {
		return true
	}
	return GetFileExtension(filename) == "zip"
}

// BaseName strips any directory and the last extension from a file name.
// "dir/cat.v2.jpg" becomes "cat.v2".
func BaseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CaptionNames returns the caption file names accepted for an image, in the
// image's own directory: "dir/cat.jpg" pairs with "dir/cat.txt" or "dir/cat.TXT".
func CaptionNames(imageName string) []string {
	stem := strings.TrimSuffix(imageName, path.Ext(imageName))
	return []string{stem + ".txt", stem + ".TXT"}
}

// SanitizeFilename makes a name safe for a Content-Disposition header or a file
// system: separators, reserved and control characters become "_", and leading or
// trailing dots and spaces are dropped.
func SanitizeFilename(filename string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, filename)
	return strings.Trim(clean, " .")
}

// TimestampedName builds names like images-2024-01-02T15-04-05.zip
func TimestampedName(prefix, ext string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("%s%s.%s", prefix, stamp, ext)
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}
