package scanning

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Location is a signed decimal-degree coordinate pair.
// South latitudes and west longitudes are negative.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Metadata is the part of a record that comes from the embedded EXIF block.
// A nil field means the value was absent or unusable.
type Metadata struct {
	DateTimeOriginal *string
	Location         *Location
}

// ExtractMetadata reads the EXIF capture timestamp and GPS position from
// encoded image bytes. Unrecognised or corrupt input yields empty Metadata.
func ExtractMetadata(data []byte) (meta Metadata) {
	if len(data) == 0 {
		return meta
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Corrupt EXIF data", "panic", r)
			meta = Metadata{}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		slog.Debug("No EXIF data", "error", err)
		return meta
	}
	if err != nil {
		// Sub-IFD failures still leave the readable tags in x
		slog.Debug("Partial EXIF data", "error", err)
	}

	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if v, err := tag.StringVal(); err == nil {
			meta.DateTimeOriginal = &v
		}
	}

	if loc, err := gpsLocation(x); err == nil {
		meta.Location = loc
	} else {
		slog.Debug("No usable GPS position", "error", err)
	}

	return meta
}

// gpsLocation requires both magnitudes and both hemisphere references.
// Only an exact "S" or "W" reference flips the sign.
func gpsLocation(x *exif.Exif) (*Location, error) {
	lat, err := gpsDegrees(x, exif.GPSLatitude)
	if err != nil {
		return nil, err
	}
	long, err := gpsDegrees(x, exif.GPSLongitude)
	if err != nil {
		return nil, err
	}
	latRef, err := gpsRef(x, exif.GPSLatitudeRef)
	if err != nil {
		return nil, err
	}
	longRef, err := gpsRef(x, exif.GPSLongitudeRef)
	if err != nil {
		return nil, err
	}

	// Subtracting from zero keeps a zero magnitude at +0 rather than -0
	if latRef == "S" {
		lat = 0 - lat
	}
	if longRef == "W" {
		long = 0 - long
	}
	return &Location{Latitude: lat, Longitude: long}, nil
}

// gpsDegrees converts a degrees[, minutes[, seconds]] rational tag to decimal degrees
func gpsDegrees(x *exif.Exif, name exif.FieldName) (float64, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, err
	}
	if tag.Format() != tiff.RatVal || tag.Count == 0 {
		return 0, fmt.Errorf("%s: want rational, got %v", name, tag.Type)
	}

	divisors := []float64{1, 60, 3600}
	var deg float64
	for i := 0; i < int(tag.Count) && i < len(divisors); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		if den == 0 {
			return 0, fmt.Errorf("%s: zero denominator", name)
		}
		deg += float64(num) / float64(den) / divisors[i]
	}
	return deg, nil
}

func gpsRef(x *exif.Exif, name exif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		return "", err
	}
	ref, err := tag.StringVal()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return ref, nil
}
