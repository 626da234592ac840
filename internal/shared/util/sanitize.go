package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned when nothing usable remains of a client filename.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces a client-supplied filename to its last path element and strips
// control characters.
func SanitizeFileName(name string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = path.Base(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." || s == "/" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
