// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package indexer

import "errors"

// Store errors
var (
	// ErrNotFound is returned when no record exists for a swap id.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a swap id is recorded twice.
	ErrDuplicateKey = errors.New("duplicate key: swap already recorded")

	// ErrAlreadySettled is returned when a settled swap is settled again.
	ErrAlreadySettled = errors.New("swap already settled")

	// ErrInvalidInput is returned when a record fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
