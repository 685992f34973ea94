// Package pagination implements the opaque, base64url-encoded cursors used
// by every list operation (tools/list, and any future .../list method) to
// page through a slice without exposing offsets to clients.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultPageSize and MaxPageSize bound the pageSize argument accepted by
// Paginate; callers clamp rather than reject out-of-range requests.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// cursorPayload is the decoded JSON shape carried inside a cursor. The
// version field lets a future cursor format evolve without breaking
// clients holding an old opaque string.
type cursorPayload struct {
	Offset int `json:"offset"`
	V      int `json:"v"`
}

const cursorVersion = 1

// Cursor is the result of parsing a client-supplied cursor string.
type Cursor struct {
	Valid  bool
	Offset int
	Err    error
}

// CreateCursor encodes offset as an opaque base64url cursor.
func CreateCursor(offset int) string {
	raw, err := json.Marshal(cursorPayload{Offset: offset, V: cursorVersion})
	if err != nil {
		// offset/V are always marshalable; a failure here is a programmer error.
		panic(fmt.Sprintf("pagination: cursor payload marshal: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a client-supplied cursor. An empty string is not a
// valid cursor; callers treat "no cursor" as a distinct, prior case.
func ParseCursor(s string) Cursor {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{Err: fmt.Errorf("cursor is not valid base64url: %w", err)}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Cursor{Err: fmt.Errorf("cursor is not a valid JSON object: %w", err)}
	}
	if _, ok := fields["offset"]; !ok {
		return Cursor{Err: fmt.Errorf("cursor is missing required field %q", "offset")}
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Cursor{Err: fmt.Errorf("cursor is not a valid JSON object: %w", err)}
	}
	if payload.Offset < 0 {
		return Cursor{Err: fmt.Errorf("cursor offset must be non-negative, got %d", payload.Offset)}
	}
	return Cursor{Valid: true, Offset: payload.Offset}
}

// ClampPageSize applies spec's [1, 200] bound, defaulting a non-positive
// requestedSize to DefaultPageSize rather than rejecting it.
func ClampPageSize(requestedSize int) int {
	switch {
	case requestedSize <= 0:
		return DefaultPageSize
	case requestedSize > MaxPageSize:
		return MaxPageSize
	default:
		return requestedSize
	}
}

// Page is one slice of a paginated listing, plus the cursor to fetch the
// next page (empty when this is the last page).
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Paginate slices items starting at cursor's offset (0 if cursor is empty),
// returning up to ClampPageSize(pageSize) items and a NextCursor iff more
// items remain beyond this page.
func Paginate[T any](items []T, cursor string, pageSize int) (Page[T], error) {
	offset := 0
	if cursor != "" {
		parsed := ParseCursor(cursor)
		if !parsed.Valid {
			return Page[T]{}, fmt.Errorf("invalid cursor: %w", parsed.Err)
		}
		offset = parsed.Offset
	}

	size := ClampPageSize(pageSize)

	if offset > len(items) {
		return Page[T]{}, fmt.Errorf("cursor offset %d is out of range for %d items", offset, len(items))
	}

	end := offset + size
	if end > len(items) {
		end = len(items)
	}

	page := Page[T]{Items: items[offset:end]}
	if end < len(items) {
		page.NextCursor = CreateCursor(end)
	}
	return page, nil
}
