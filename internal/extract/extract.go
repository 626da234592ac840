package extract

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	defaultMimeType = "application/octet-stream"
	placeholderHead = "Attachment: "
	maxTitleRunes   = 80
)

// Result is the text recovered from an uploaded payload plus its source metadata.
type Result struct {
	Text      string
	MimeType  string
	FileName  string
	SizeBytes int64
}

// FromBytes turns an uploaded payload into document text. Payloads declared as text/*
// are decoded as UTF-8; anything else is represented by a one-line placeholder.
func FromBytes(data []byte, mimeType, fileName string) Result {
	normalized := strings.TrimSpace(mimeType)
	if normalized == "" {
		normalized = defaultMimeType
	}
	res := Result{
		MimeType:  normalized,
		FileName:  fileName,
		SizeBytes: int64(len(data)),
	}
	if IsText(normalized) {
		res.Text = decodeUTF8(data)
		return res
	}
	res.Text = Placeholder(fileName, normalized, res.SizeBytes)
	return res
}

// IsText reports whether the MIME type belongs to the text/* family.
func IsText(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	return strings.HasPrefix(strings.ToLower(mediaType), "text/")
}

// Placeholder is the stand-in text stored for payloads that are not parsed.
func Placeholder(fileName, mimeType string, size int64) string {
	return fmt.Sprintf("%s%s (%s), size %d bytes", placeholderHead, fileName, mimeType, size)
}

// InferTitle derives a display title from the first non-empty line of text, falling back
// to the filename without its extension. ok is false when neither yields a title.
func InferTitle(fileName, text string) (string, bool) {
	if !strings.HasPrefix(text, placeholderHead) {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			line = strings.TrimSpace(line)
			if line != "" {
				return truncateRunes(line, maxTitleRunes), true
			}
		}
	}

	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if base != "" {
		return truncateRunes(base, maxTitleRunes), true
	}
	return "", false
}

func decodeUTF8(data []byte) string {
	s := string(data)
	s = strings.TrimPrefix(s, "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
