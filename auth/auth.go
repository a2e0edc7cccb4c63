// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingIdentity = errors.New("missing user identity")
	ErrInvalidIdentity = errors.New("invalid user identity")
)

// maxUserIDLen bounds identifiers from the external identity provider.
const maxUserIDLen = 64

// UserID extracts the calling user's ID from the X-User-Id header.
// Authentication itself happens upstream (gateway / identity provider);
// the server only requires a well-formed identifier.
func UserID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		return "", ErrMissingIdentity
	}
	if !ValidUserID(id) {
		return "", ErrInvalidIdentity
	}
	return id, nil
}

// OptionalUserID is UserID for read endpoints: no header means an anonymous
// view, but a malformed header is still rejected.
func OptionalUserID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		return "", nil
	}
	if !ValidUserID(id) {
		return "", ErrInvalidIdentity
	}
	return id, nil
}

// ValidUserID reports whether id is a plausible identity-provider ID:
// non-empty, bounded, and free of whitespace and control characters.
func ValidUserID(id string) bool {
	if id == "" || len(id) > maxUserIDLen {
		return false
	}
	for _, r := range id {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	return true
}
