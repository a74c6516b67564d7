package dirwatch

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackMIME = "application/octet-stream"

// DetectMIME classifies audio by content, falling back to the file extension
// when the content is not recognized.
func DetectMIME(name string, audio []byte) string {
	detected := mimetype.Detect(audio)
	if detected != nil && !detected.Is(fallbackMIME) && !strings.HasPrefix(detected.String(), "text/plain") {
		return detected.String()
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	if detected != nil {
		return detected.String()
	}
	return fallbackMIME
}
