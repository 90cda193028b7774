package scanning

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// Detector defines the interface for QR code detection backends
type Detector interface {
	// Detect finds QR codes in img and returns their payloads in emission order
	Detect(ctx context.Context, img image.Image) ([]string, error)
	// Close closes the detector and releases resources
	Close() error
}

// BarcodeScanner runs a Detector on a background goroutine and reports
// whatever payloads it decoded. Detector failures are never surfaced.
type BarcodeScanner struct {
	detector Detector
}

// NewBarcodeScanner creates a new BarcodeScanner backed by detector
func NewBarcodeScanner(detector Detector) *BarcodeScanner {
	return &BarcodeScanner{detector: detector}
}

type scanResult struct {
	codes []string
	err   error
}

// Scan detects QR codes in img. It blocks until the detection pass signals
// completion or ctx is done. The result is empty when nothing was found or
// the detector failed.
func (s *BarcodeScanner) Scan(ctx context.Context, img image.Image) []string {
	// Buffered so the detection goroutine can always complete its single send
	done := make(chan scanResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- scanResult{err: fmt.Errorf("detector panic: %v", r)}
			}
		}()
		codes, err := s.detector.Detect(ctx, img)
		done <- scanResult{codes: codes, err: err}
	}()

	var res scanResult
	select {
	case res = <-done:
	case <-ctx.Done():
		slog.Debug("QR scan abandoned", "error", ctx.Err())
		return nil
	}

	if res.err != nil {
		slog.Debug("QR detection failed", "error", res.err)
		return nil
	}

	codes := make([]string, 0, len(res.codes))
	for _, code := range res.codes {
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

// Close closes the underlying detector
func (s *BarcodeScanner) Close() error {
	return s.detector.Close()
}
