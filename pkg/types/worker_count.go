// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultWorkerCount is used when no usable worker count is configured.
const DefaultWorkerCount WorkerCount = 1

// ErrInvalidWorkerCount is the sentinel error wrapped by InvalidWorkerCountError.
var ErrInvalidWorkerCount = errors.New("invalid worker count")

type (
	// WorkerCount is the number of worker processes the default server forks.
	// Valid values are >= 1.
	WorkerCount int

	// InvalidWorkerCountError is returned when a raw worker count cannot be
	// used. Raw holds the original configuration text.
	InvalidWorkerCountError struct {
		Raw string
	}
)

// ParseWorkerCount parses a configured worker count.
// Empty input yields DefaultWorkerCount with no error. Non-numeric or
// non-positive input yields DefaultWorkerCount together with an
// *InvalidWorkerCountError so callers can warn and carry on.
func ParseWorkerCount(raw string) (WorkerCount, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultWorkerCount, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return DefaultWorkerCount, &InvalidWorkerCountError{Raw: raw}
	}
	return WorkerCount(n), nil
}

// Validate returns an error if the WorkerCount is below one.
func (w WorkerCount) Validate() error {
	if w < 1 {
		return &InvalidWorkerCountError{Raw: w.String()}
	}
	return nil
}

// String returns the decimal string representation of the WorkerCount.
func (w WorkerCount) String() string { return strconv.Itoa(int(w)) }

// Error implements the error interface.
func (e *InvalidWorkerCountError) Error() string {
	return fmt.Sprintf("invalid worker count %q: must be a positive integer", e.Raw)
}

// Unwrap returns ErrInvalidWorkerCount for errors.Is() compatibility.
func (e *InvalidWorkerCountError) Unwrap() error { return ErrInvalidWorkerCount }
