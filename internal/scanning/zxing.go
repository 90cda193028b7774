package scanning

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXing implements the Detector interface using the pure Go zxing port.
// Only the QR symbology is enabled.
type ZXing struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXing creates a new ZXing Detector instance
func NewZXing() *ZXing {
	return &ZXing{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER:       true,
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{gozxing.BarcodeFormat_QR_CODE},
		},
	}
}

// Detect decodes every QR code it can find in img. Readers are created per
// call so one ZXing can serve concurrent scans.
func (z *ZXing) Detect(ctx context.Context, img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarizing image: %w", err)
	}

	results, multiErr := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, z.hints)
	if multiErr == nil && len(results) > 0 {
		codes := make([]string, 0, len(results))
		for _, r := range results {
			codes = append(codes, r.GetText())
		}
		return codes, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The multi detector needs three clean finder patterns per code; the
	// single reader copes better with one tilted or partially occluded code.
	result, err := qrcode.NewQRCodeReader().Decode(bmp, z.hints)
	if err != nil {
		var readerErr gozxing.ReaderException
		if errors.As(err, &readerErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding QR code: %w", err)
	}
	return []string{result.GetText()}, nil
}

// Close closes the ZXing detector (no-op, readers hold no resources)
func (z *ZXing) Close() error {
	return nil
}
