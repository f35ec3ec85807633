package storage

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pagination cursors encode the sort position of the last file returned:
// creation time (newest-first ordering) plus the file id as a tiebreaker.
// The token is opaque to callers and stable across store implementations.

// EncodeCursor builds the pagination token pointing just past file.
func EncodeCursor(file *File) string {
	raw := fmt.Sprintf("%d:%s", file.CreatedAt.UnixNano(), file.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a pagination token produced by EncodeCursor.
// Returns ErrInvalidArgument for tokens that were not produced by us.
func DecodeCursor(cursor string) (createdAt time.Time, fileID string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", InvalidArgument("invalid pagination cursor")
	}

	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return time.Time{}, "", InvalidArgument("invalid pagination cursor")
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", InvalidArgument("invalid pagination cursor")
	}

	return time.Unix(0, n), id, nil
}

// After reports whether a file at (createdAt, fileID) sorts strictly after
// the cursor position in the newest-first listing order.
func After(cursorCreatedAt time.Time, cursorFileID string, f *File) bool {
	if f.CreatedAt.Before(cursorCreatedAt) {
		return true
	}
	if f.CreatedAt.Equal(cursorCreatedAt) {
		return f.ID > cursorFileID
	}
	return false
}
