package download

import (
	"errors"
	"fmt"
)

// alreadyDownloadingError rejects a second download of the same model.
type alreadyDownloadingError struct{ modelID string }

func (e alreadyDownloadingError) Error() string {
	return fmt.Sprintf("model %s is already downloading", e.modelID)
}

// IsAlreadyDownloading reports whether err rejected a duplicate download.
func IsAlreadyDownloading(err error) bool {
	var e alreadyDownloadingError
	return errors.As(err, &e)
}

// cancelledError is returned when a download stopped on request.
type cancelledError struct{ modelID string }

func (e cancelledError) Error() string { return "Download cancelled" }

// IsCancelled reports whether the download was cancelled.
func IsCancelled(err error) bool {
	var e cancelledError
	return errors.As(err, &e)
}

// httpStatusError is a non-2xx response for one file.
type httpStatusError struct {
	filename string
	status   int
}

func (e httpStatusError) Error() string {
	return fmt.Sprintf("Failed to download %s: HTTP %d", e.filename, e.status)
}

// IsHTTPStatus reports whether a file request returned a non-2xx status.
func IsHTTPStatus(err error) bool {
	var e httpStatusError
	return errors.As(err, &e)
}
