package files

import (
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/codexmonitor/apperr"
)

// MaxImageBytes caps the size of images converted to data URLs.
const MaxImageBytes = 20 << 20

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".svg":  "image/svg+xml",
}

// NormalizePath trims path, strips a file:// prefix and expands a leading
// "~/" to the user's home directory.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "file://")
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ReadImageAsDataURL returns the image at path encoded as a
// data:<mime>;base64 URL.
func ReadImageAsDataURL(path string) (string, error) {
	path = NormalizePath(path)
	if path == "" {
		return "", apperr.Message(apperr.KindValidation, "Image path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", apperr.New(apperr.KindRouting, "read_image", err)
	}
	if info.IsDir() {
		return "", apperr.Newf(apperr.KindValidation, "", "Image path is a directory: %s", path)
	}
	if info.Size() > MaxImageBytes {
		return "", apperr.Newf(apperr.KindValidation, "", "Image is too large (%d bytes, limit %d)", info.Size(), MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.New(apperr.KindRouting, "read_image", err)
	}
	mime := imageMIME(path, data)
	if mime == "" {
		return "", apperr.Newf(apperr.KindValidation, "", "Unsupported image type: %s", filepath.Base(path))
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// imageMIME prefers the extension and falls back to content sniffing.
func imageMIME(path string, data []byte) string {
	if mime, ok := imageTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}
