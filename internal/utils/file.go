package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// inputExts are the formats the loader can decode
var inputExts = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the lowercase file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has a decodable image extension
func IsImageFile(filename string) bool {
	return slices.Contains(inputExts, GetFileExtension(filename))
}

// IsRemote reports whether source is an http(s) URL rather than a path
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// OutputPath names an output file after its input: <dir>/<base><suffix>[_<stage>].<format>.
// URL inputs use the last path segment as base.
func OutputPath(input, outputDir, suffix, stage, format string) string {
	base := input
	if IsRemote(input) {
		base = strings.TrimRight(input, "/")
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
	}
	base = filepath.Base(filepath.FromSlash(base))
	name := SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "photo"
	}

	if format == "" {
		format = "jpg"
	}
	if stage != "" {
		suffix += "_" + stage
	}

	return filepath.Join(outputDir, fmt.Sprintf("%s%s.%s", name, suffix, format))
}

// ListImageFiles recursively lists all image files in a directory, sorted
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})

	slices.Sort(files)
	return files, err
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return strings.Trim(replacer.Replace(filename), " .")
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
