// Package ocr turns receipt images into raw text.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Engine recognizes the text in a local PNG file.
type Engine interface {
	// Recognize returns the raw text found in the image at path
	Recognize(ctx context.Context, path string) (string, error)
	// Close releases the engine
	Close() error
}

// EngineFactory creates a fresh Engine. The bridge calls it once per image
// and closes the result before returning.
type EngineFactory func(ctx context.Context) (Engine, error)

// ErrUnsupportedFormat is returned when downloaded bytes are not an image
// or PDF the bridge can decode.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrImageTooLarge is returned when a download exceeds the size limit.
var ErrImageTooLarge = errors.New("image too large")

// ErrRedirectRefused is returned when a download redirects to anything but
// http or https.
var ErrRedirectRefused = errors.New("redirect refused")

// DownloadError reports that an image could not be fetched after every
// attempt was used.
type DownloadError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// RecognitionError reports a failure inside the OCR engine.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognizing text: %v", e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}
