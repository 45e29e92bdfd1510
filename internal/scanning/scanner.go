package scanning

import (
	"context"
	"errors"
)

// ErrNoTextDetected means the provider processed the image but found no text.
// Usually the image, not the service, is at fault.
var ErrNoTextDetected = errors.New("no text detected in the image")

// ScanResult contains the recognized text for a receipt image
type ScanResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TextExtractor defines the interface for OCR operations
type TextExtractor interface {
	// ExtractText recognizes text in a receipt image
	ExtractText(ctx context.Context, image []byte) (*ScanResult, error)
	// Close closes the extractor and releases resources
	Close() error
}
