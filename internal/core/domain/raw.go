package domain

// RawDocument represents opaque uploaded bytes before normalisation.
type RawDocument struct {
	// Collection is the handle of the target collection.
	Collection string

	// URI is the original location (file name or path).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains upload-specific key-value pairs.
	Metadata map[string]any
}
