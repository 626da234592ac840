package extract

import (
	"strings"
	"testing"
)

func TestFromBytesTextDecodesVerbatim(t *testing.T) {
	payload := []byte("Track inspection\nLine 2 closed")
	got := FromBytes(payload, "text/plain; charset=utf-8", "notice.txt")

	if got.Text != string(payload) {
		t.Fatalf("expected verbatim text, got %q", got.Text)
	}
	if got.SizeBytes != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), got.SizeBytes)
	}
	if got.MimeType != "text/plain; charset=utf-8" {
		t.Fatalf("mime type should be kept as declared, got %q", got.MimeType)
	}
}

func TestFromBytesReplacesInvalidUTF8(t *testing.T) {
	got := FromBytes([]byte{0xEF, 0xBB, 0xBF, 'o', 'k', 0xff}, "text/markdown", "a.md")
	if got.Text != "ok\ufffd" {
		t.Fatalf("unexpected decode: %q", got.Text)
	}
}

func TestFromBytesBinaryPlaceholder(t *testing.T) {
	got := FromBytes([]byte{0x25, 0x50, 0x44, 0x46}, "application/pdf", "report.pdf")
	want := "Attachment: report.pdf (application/pdf), size 4 bytes"
	if got.Text != want {
		t.Fatalf("expected %q, got %q", want, got.Text)
	}
}

func TestFromBytesEmptyMimeDefaults(t *testing.T) {
	got := FromBytes([]byte("abc"), "", "blob")
	if got.MimeType != "application/octet-stream" {
		t.Fatalf("expected octet-stream default, got %q", got.MimeType)
	}
	if !strings.HasPrefix(got.Text, "Attachment: blob") {
		t.Fatalf("expected placeholder, got %q", got.Text)
	}
}

func TestInferTitle(t *testing.T) {
	long := strings.Repeat("é", 100)
	tests := []struct {
		name     string
		fileName string
		text     string
		want     string
		wantOK   bool
	}{
		{name: "first non-empty line", fileName: "x.txt", text: "\n\n  Safety Circular 12 \nbody", want: "Safety Circular 12", wantOK: true},
		{name: "markdown heading", fileName: "x.md", text: "# Budget review\n", want: "Budget review", wantOK: true},
		{name: "placeholder uses filename", fileName: "docs/Invoice-2024.pdf", text: Placeholder("Invoice-2024.pdf", "application/pdf", 10), want: "Invoice-2024", wantOK: true},
		{name: "blank text uses filename", fileName: "memo.txt", text: "   \n", want: "memo", wantOK: true},
		{name: "truncates runes", fileName: "", text: long, want: strings.Repeat("é", 80), wantOK: true},
		{name: "nothing usable", fileName: "", text: "", want: "", wantOK: false},
		{name: "extension only", fileName: ".txt", text: "", want: "", wantOK: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferTitle(tt.fileName, tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("InferTitle(%q) = %q,%v want %q,%v", tt.fileName, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
