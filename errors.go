// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error Alloc, New, or Free returns wraps one of
// these via fmt.Errorf("...: %w", ...), so callers compare with errors.Is
// rather than string-matching messages.
var (
	// ErrInvalidArgument is returned by Alloc for a non-positive size or an
	// alignment that is zero, not a power of two, or greater than 256.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceAcquisitionFailed is returned by New when the OS refuses
	// the region mapping.
	ErrResourceAcquisitionFailed = errors.New("resource acquisition failed")

	// ErrInvalidOperation is returned by Free for a nil pointer or a
	// pointer whose header fails the sentinel check.
	ErrInvalidOperation = errors.New("invalid operation")
)

func joinResourceErr(cause error) error {
	return fmt.Errorf("%w: %v", ErrResourceAcquisitionFailed, cause)
}

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func invalidOperation(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, msg)
}
