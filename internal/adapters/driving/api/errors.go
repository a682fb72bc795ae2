// Package api provides the HTTP adapter for ragbox: collection management,
// file upload with change-aware confirmation, document listing and deletion,
// and question answering over a collection.
package api

import "errors"

// ErrMissingService is returned when a required driving port is not provided.
var ErrMissingService = errors.New("api: collection, ingest, document and query services are required")
