// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and credential checks.

# Admin Key

Admin endpoints compare the X-Admin-Key header with the configured key in
constant time:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

An unconfigured (empty) key rejects everything.

# Voter Tokens

Voter tokens are random 24-byte (192-bit) secrets issued when a voter is added:

	token, err := auth.GenerateVoterToken()

Tokens are URL-safe base64 encoded without padding. They travel in vote links
and in the X-Voter-Token header. ValidateVoterToken rejects malformed tokens
before a database lookup.

# IP Hashing

Ballots keep a salted hash of the submitting address, never the address:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
