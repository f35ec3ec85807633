package files

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name kept", "report.pdf", "report.pdf"},
		{"spaces replaced", "my summer photos.jpg", "my_summer_photos.jpg"},
		{"path components stripped", "../../etc/passwd", "passwd"},
		{"windows path stripped", `C:\Users\alice\notes.txt`, "notes.txt"},
		{"special characters replaced", "résumé (final)!.docx", "r_sum___final__.docx"},
		{"dots and dashes kept", "backup-2026.08.30.tar.gz", "backup-2026.08.30.tar.gz"},
		{"empty becomes fallback", "", "file"},
		{"bare dot becomes fallback", ".", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeFilename(long)

	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasSuffix(got, ".pdf"), "extension must survive truncation, got %q", got)
}

func TestContentTypeForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.png", "image/png"},
		{"data.json", "application/json"},
		{"report.pdf", "application/pdf"},
		{"mystery.xyzzy", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := ContentTypeForFilename(tt.filename)
			// mime.TypeByExtension may append parameters such as charset.
			assert.True(t, strings.HasPrefix(got, tt.want), "got %q, want prefix %q", got, tt.want)
		})
	}
}
