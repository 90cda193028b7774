// Package fixture builds synthetic images with known EXIF and QR content.
package fixture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var le = binary.LittleEndian

// TIFF tag data types used by the fixtures
const (
	TypeASCII    uint16 = 2
	TypeShort    uint16 = 3
	TypeLong     uint16 = 4
	TypeRational uint16 = 5
)

// Entry is one raw IFD entry
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte
}

// ASCII returns a NUL terminated ASCII entry
func ASCII(tag uint16, s string) Entry {
	v := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(v)), Value: v}
}

// Rational returns a RATIONAL entry from numerator/denominator pairs
func Rational(tag uint16, pairs ...[2]uint32) Entry {
	var buf bytes.Buffer
	for _, p := range pairs {
		binary.Write(&buf, le, p[0])
		binary.Write(&buf, le, p[1])
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(pairs)), Value: buf.Bytes()}
}

// Short returns a single SHORT entry
func Short(tag uint16, v uint16) Entry {
	b := make([]byte, 2)
	le.PutUint16(b, v)
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Value: b}
}

func long(tag uint16, v uint32) Entry {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return Entry{Tag: tag, Type: TypeLong, Count: 1, Value: b}
}

// Degrees encodes a non-negative decimal degree value as a single
// rational with a 1e6 denominator.
func Degrees(tag uint16, deg float64) Entry {
	return Rational(tag, [2]uint32{uint32(deg*1e6 + 0.5), 1e6})
}

// GPS tag IDs
const (
	GPSLatitudeRef  uint16 = 0x0001
	GPSLatitude     uint16 = 0x0002
	GPSLongitudeRef uint16 = 0x0003
	GPSLongitude    uint16 = 0x0004
)

// GPS returns the four GPS entries for a position given as magnitudes and refs
func GPS(lat float64, latRef string, long float64, longRef string) []Entry {
	return []Entry{
		ASCII(GPSLatitudeRef, latRef),
		Degrees(GPSLatitude, lat),
		ASCII(GPSLongitudeRef, longRef),
		Degrees(GPSLongitude, long),
	}
}

// EXIF describes the metadata blocks to encode
type EXIF struct {
	// DateTimeOriginal is written to the Exif sub-IFD when non-empty
	DateTimeOriginal string
	// GPS entries are written to the GPS sub-IFD when non-empty
	GPS []Entry
}

func ifdSize(entries []Entry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.Value) > 4 {
			n += len(e.Value)
		}
	}
	return n
}

// writeIFD appends an IFD followed by its out-of-line values. Offsets are
// relative to the start of buf, which must be the TIFF header.
func writeIFD(buf *bytes.Buffer, entries []Entry) {
	dataOff := buf.Len() + 2 + 12*len(entries) + 4
	var data bytes.Buffer

	binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, le, e.Tag)
		binary.Write(buf, le, e.Type)
		binary.Write(buf, le, e.Count)
		if len(e.Value) > 4 {
			binary.Write(buf, le, uint32(dataOff+data.Len()))
			data.Write(e.Value)
		} else {
			v := make([]byte, 4)
			copy(v, e.Value)
			buf.Write(v)
		}
	}
	binary.Write(buf, le, uint32(0))
	buf.Write(data.Bytes())
}

// TIFF encodes a little-endian TIFF structure holding only metadata IFDs
func TIFF(x EXIF) []byte {
	var exifEntries []Entry
	if x.DateTimeOriginal != "" {
		exifEntries = append(exifEntries, ASCII(0x9003, x.DateTimeOriginal))
	}

	// Pointer entries are inline LONGs, so IFD0's size is known before offsets
	nPointers := 0
	if len(exifEntries) > 0 {
		nPointers++
	}
	if len(x.GPS) > 0 {
		nPointers++
	}
	offset := 8 + 2 + 12*nPointers + 4

	var ifd0 []Entry
	if len(exifEntries) > 0 {
		ifd0 = append(ifd0, long(0x8769, uint32(offset)))
		offset += ifdSize(exifEntries)
	}
	if len(x.GPS) > 0 {
		ifd0 = append(ifd0, long(0x8825, uint32(offset)))
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(8))
	writeIFD(&buf, ifd0)
	if len(exifEntries) > 0 {
		writeIFD(&buf, exifEntries)
	}
	if len(x.GPS) > 0 {
		writeIFD(&buf, x.GPS)
	}
	return buf.Bytes()
}

// WithEXIF splices an APP1 EXIF segment right after the SOI marker of a JPEG
func WithEXIF(jpegData []byte, x EXIF) ([]byte, error) {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil, fmt.Errorf("not a JPEG")
	}
	payload := append([]byte("Exif\x00\x00"), TIFF(x)...)
	if len(payload)+2 > 0xFFFF {
		return nil, fmt.Errorf("EXIF segment too large")
	}

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes(), nil
}

// QRImage renders each payload as a QR code, left to right on a white canvas
func QRImage(size int, payloads ...string) (image.Image, error) {
	gap := size / 2
	width := gap
	if len(payloads) > 0 {
		width = len(payloads)*(size+gap) + gap
	}
	canvas := image.NewGray(image.Rect(0, 0, width, size+2*gap))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	writer := qrcode.NewQRCodeWriter()
	for i, p := range payloads {
		code, err := writer.Encode(p, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", p, err)
		}
		at := image.Pt(gap+i*(size+gap), gap)
		draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, code, image.Point{}, draw.Src)
	}
	return canvas, nil
}

// PNG encodes img as PNG
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEG encodes img as a maximum quality JPEG
func JPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Photo builds a JPEG carrying the given EXIF block and QR payloads
func Photo(x EXIF, payloads ...string) ([]byte, error) {
	img, err := QRImage(200, payloads...)
	if err != nil {
		return nil, err
	}
	data, err := JPEG(img)
	if err != nil {
		return nil, err
	}
	return WithEXIF(data, x)
}
