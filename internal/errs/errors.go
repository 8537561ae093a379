// Package errs holds the failure categories surfaced by the wardrobe core.
// Callers wrap a cause with one of these so both stay inspectable:
//
//	fmt.Errorf("%w: %w", errs.ErrUploadFailed, err)
package errs

import "errors"

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrNotFound           = errors.New("item not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrResourceUnreadable = errors.New("image resource unreadable")
	ErrUploadFailed       = errors.New("image upload failed")
	ErrRemoteWriteFailed  = errors.New("remote write failed")
	ErrCollaboratorFailed = errors.New("background removal failed")
	ErrTimeout            = errors.New("operation timed out")
)
