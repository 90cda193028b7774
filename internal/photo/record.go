package photo

import (
	"encoding/json"
	"time"

	"github.com/zombor/photo-metadata/internal/scanning"
)

// Record is the extraction outcome for one image. Nil fields are unknown
// and are left out of the JSON entirely.
type Record struct {
	DateTimeOriginal *string
	Location         *scanning.Location
	QRCodes          []string
}

// recordJSON is the wire shape of a Record
type recordJSON struct {
	DateTimeOriginal *string  `json:"datetimeoriginal,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	QRCodes          []string `json:"qrcodes,omitempty"`
}

// MarshalJSON flattens the location into latitude/longitude keys
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		DateTimeOriginal: r.DateTimeOriginal,
		QRCodes:          r.QRCodes,
	}
	if r.Location != nil {
		lat, long := r.Location.Latitude, r.Location.Longitude
		out.Latitude = &lat
		out.Longitude = &long
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a record back. A lone latitude or longitude is dropped.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Record{DateTimeOriginal: in.DateTimeOriginal}
	if in.Latitude != nil && in.Longitude != nil {
		r.Location = &scanning.Location{Latitude: *in.Latitude, Longitude: *in.Longitude}
	}
	if len(in.QRCodes) > 0 {
		r.QRCodes = in.QRCodes
	}
	return nil
}

// Merge overlays the fields present in other onto r
func (r *Record) Merge(other Record) {
	if other.DateTimeOriginal != nil {
		r.DateTimeOriginal = other.DateTimeOriginal
	}
	if other.Location != nil {
		r.Location = other.Location
	}
	if len(other.QRCodes) > 0 {
		r.QRCodes = other.QRCodes
	}
}

// fromMetadata lifts an EXIF partial into a Record
func fromMetadata(m scanning.Metadata) Record {
	return Record{
		DateTimeOriginal: m.DateTimeOriginal,
		Location:         m.Location,
	}
}

// Batch is one processed batch as kept in history. Only the serialized
// document is stored, never the records themselves.
type Batch struct {
	ID        string    `json:"id"`
	Images    int       `json:"images"`
	Skipped   int       `json:"skipped"`
	Document  []byte    `json:"-"` // stored byte for byte, outside the batch entry
	CreatedAt time.Time `json:"created_at"`
}
