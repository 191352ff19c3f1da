package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashContent creates a SHA256 hash of a content string.
// This is useful for creating consistent, safe keys for Redis.
func HashContent(content string) string {
	h := sha256.New()
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// SanitizeFilename strips characters that are unsafe in a filesystem path
// from a browser-suggested download filename.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "download"
	}
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"\x00", "",
	)
	return replacer.Replace(name)
}
