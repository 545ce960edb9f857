// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotDirectory  = errors.New("not a directory")
	ErrIndexDisabled = errors.New("post index disabled")
)
