package files

import (
	"mime"
	"path/filepath"
	"strings"
)

// maxFilenameLength caps sanitized filenames, preserving the extension.
const maxFilenameLength = 255

// SanitizeFilename strips path components and replaces characters that
// are unsafe in storage keys and Content-Disposition headers. Word
// characters, dash, underscore and dot survive; everything else becomes
// an underscore. Overlong names are truncated, keeping the extension.
func SanitizeFilename(filename string) string {
	// Drop any directory part, whichever separator the client used.
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()

	if name == "" || name == "." || name == ".." {
		return "file"
	}

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) >= maxFilenameLength {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}

// ContentTypeForFilename guesses a MIME type from the file extension.
// Unknown extensions map to application/octet-stream.
func ContentTypeForFilename(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
