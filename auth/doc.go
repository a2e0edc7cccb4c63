// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth extracts and validates the calling user's identity.

Authentication itself happens upstream (gateway / identity provider); the
poll server trusts the X-User-Id header and only requires a well-formed
identifier.

	userID, err := auth.UserID(r)         // required, for voting endpoints
	userID, err := auth.OptionalUserID(r) // empty string means anonymous

A malformed header is rejected in both cases.
*/
package auth
