// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoOpenCycle      = errors.New("no open cycle")
	ErrCycleClosed      = errors.New("cycle is closed")
	ErrIncompleteBallot = errors.New("ballot must rate every choice")
	ErrInvalidRating    = errors.New("rating out of range")
	ErrUnknownVoter     = errors.New("unknown voter")
	ErrConflict         = errors.New("conflict")
)
