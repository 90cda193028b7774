package photo

import (
	"context"
	"image"
	"log/slog"

	"github.com/zombor/photo-metadata/internal/scanning"
)

// QRScanner finds QR payloads in a decoded image
type QRScanner interface {
	Scan(ctx context.Context, img image.Image) []string
}

// ImageAnalyzer produces the Record for one image's bytes
type ImageAnalyzer interface {
	Analyze(ctx context.Context, data []byte) Record
}

// Analyzer combines EXIF extraction and QR scanning. Either half failing
// leaves the other untouched.
type Analyzer struct {
	scanner QRScanner
	extract func([]byte) scanning.Metadata
	decode  func([]byte) (image.Image, error)
}

// NewAnalyzer creates a new Analyzer using the default EXIF extractor and image decoder
func NewAnalyzer(scanner QRScanner) *Analyzer {
	return &Analyzer{
		scanner: scanner,
		extract: scanning.ExtractMetadata,
		decode:  scanning.DecodeImage,
	}
}

// Analyze extracts everything it can from data. It never fails; an
// unreadable image yields an empty Record.
func (a *Analyzer) Analyze(ctx context.Context, data []byte) Record {
	var record Record
	record.Merge(fromMetadata(a.extract(data)))

	img, err := a.decode(data)
	if err != nil {
		// Indistinguishable from "no codes" in the output; keep the reason in the logs
		slog.Debug("QR scan skipped", "size", len(data), "error", err)
		return record
	}

	if codes := a.scanner.Scan(ctx, img); len(codes) > 0 {
		record.Merge(Record{QRCodes: codes})
	}
	return record
}
