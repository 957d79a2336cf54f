// Copyright 2025 Certen Protocol
//
// Sentinel errors for repository operations.

package database

import "errors"

var ErrNotFound = errors.New("entity not found")
