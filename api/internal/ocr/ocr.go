// Package ocr defines the photo-to-text boundary of the pipeline.
package ocr

import "context"

// Recognizer extracts plain text from raw image bytes. An unreadable image,
// a failed call or a response without text is an error; the router turns it
// into a fixed guidance reply.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
