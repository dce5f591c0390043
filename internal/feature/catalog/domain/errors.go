// Package domain defines domain-level errors for the catalog feature.
package domain

import "errors"

var (
	// ErrInvalidInterval indicates a non-positive collection interval.
	ErrInvalidInterval = errors.New("collection interval must be positive")

	// ErrStorage indicates the settings or log tables rejected a read or write.
	ErrStorage = errors.New("catalog storage failure")
)
