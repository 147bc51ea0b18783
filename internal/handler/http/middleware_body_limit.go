package http

import (
	"errors"
	"net/http"
)

// maxBodyBytes bounds every request body once decompressed. Routes enforce
// it with chi's RequestSize placed after withGZip.
const maxBodyBytes = 4 << 20

// isBodyTooLarge reports whether a body read stopped at maxBodyBytes.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
