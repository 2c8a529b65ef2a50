package validation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/username/dolarhistorico/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/xml":                 true,
	"application/xml":          true,
	"text/plain":               true,
	"application/octet-stream": false,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false, // .xlsx explicitly disallow
}

var xmlEncodingDecl = regexp.MustCompile(`^\s*<\?xml[^>]*encoding\s*=\s*["']([A-Za-z0-9._-]+)["']`)

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(ctx context.Context, contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	if allowed, exists := AllowedClientContentTypes[strings.ToLower(mediaType)]; !exists || !allowed {
		logger.FromContext(ctx).Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for XML upload", ErrValidationFailed, contentType)
	}
	return nil
}

// isBinaryContent reports null bytes, and invalid UTF-8 unless the XML prolog declares
// a single-byte encoding such as ISO-8859-1.
func isBinaryContent(buf []byte, truncated bool) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	if m := xmlEncodingDecl.FindSubmatch(buf); m != nil && !strings.EqualFold(string(m[1]), "utf-8") {
		return false
	}
	// Tolerate a multi-byte rune cut by the sniff window.
	trimmed := buf
	for i := 0; truncated && i < utf8.UTFMax-1 && len(trimmed) > 0 && !utf8.Valid(trimmed); i++ {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return !utf8.Valid(trimmed)
}

// ValidateFileContentByMagicBytes checks the file content signature (magic bytes)
// and inspects the content to ensure it is text-based XML.
func ValidateFileContentByMagicBytes(ctx context.Context, file io.ReadSeeker) (string, error) {
	log := logger.FromContext(ctx)
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	// Read first 1024 bytes (1KB) for detection
	buffer := make([]byte, 1024)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	if isBinaryContent(buffer[:n], n == len(buffer)) {
		log.Warn("File rejected: Binary content detected in text upload")
		return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not XML", ErrValidationFailed)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/xml":        true,
		"application/xml": true,
		"text/plain":      true,
	}
	if !allowedDetectedTypes[detectedContentType] {
		log.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detectedContentType)
	}

	log.Debug("File content type validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
