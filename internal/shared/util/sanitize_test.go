package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.txt", "report.txt"},
		{"  notes v2.md ", "notes v2.md"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\ops\incident.log`, "incident.log"},
		{"budget..final.csv", "budget..final.csv"},
		{"line\nbreak.txt", "linebreak.txt"},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "..", "/", "dir/.."} {
		if _, err := SanitizeFileName(in); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("SanitizeFileName(%q): expected ErrInvalidFileName, got %v", in, err)
		}
	}
}
