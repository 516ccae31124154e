package catalog

import (
	"errors"
	"fmt"
)

// modelNotFoundError is returned when an id is not in the catalog.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found in catalog: " + e.id }

// IsModelNotFound reports whether the error indicates an unknown model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// notDownloadedError is returned when a catalog model has missing files.
type notDownloadedError struct{ id string }

func (e notDownloadedError) Error() string { return fmt.Sprintf("model %s is not downloaded", e.id) }

// IsNotDownloaded reports whether the model's files are missing on disk.
func IsNotDownloaded(err error) bool {
	var e notDownloadedError
	return errors.As(err, &e)
}

// policyError is a request refused by a model management rule.
type policyError struct {
	msg    string
	active bool
}

func (e policyError) Error() string { return e.msg }

var (
	errDeleteActive = policyError{msg: "Cannot delete the currently active model", active: true}
	errDeleteLegacy = policyError{msg: "Cannot delete legacy model through this interface"}
)

// IsPolicy reports whether err is a refused request (e.g. deleting the
// active model). The HTTP layer maps it to 409.
func IsPolicy(err error) bool {
	var e policyError
	return errors.As(err, &e)
}

// IsActiveModel reports whether err refused an operation on the model the
// server is currently serving.
func IsActiveModel(err error) bool {
	var e policyError
	return errors.As(err, &e) && e.active
}

// invalidIDError rejects ids that could escape the models directory.
type invalidIDError struct{ id string }

func (e invalidIDError) Error() string { return fmt.Sprintf("invalid model id %q", e.id) }

// IsInvalidID reports whether err rejects a malformed model id.
func IsInvalidID(err error) bool {
	var e invalidIDError
	return errors.As(err, &e)
}
