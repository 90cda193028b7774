package photo

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/photo-metadata/internal/fixture"
	"github.com/zombor/photo-metadata/internal/scanning"
)

var _ = Describe("Analyzer", func() {
	var (
		scanner  *stubScanner
		analyzer *Analyzer
		data     []byte
		record   Record
	)

	BeforeEach(func() {
		scanner = &stubScanner{}
		analyzer = NewAnalyzer(scanner)
	})

	JustBeforeEach(func() {
		record = analyzer.Analyze(context.Background(), data)
	})

	asJSON := func() string {
		out, err := json.Marshal(record)
		Expect(err).NotTo(HaveOccurred())
		return string(out)
	}

	When("the image only carries a capture timestamp", func() {
		BeforeEach(func() {
			var err error
			data, err = fixture.Photo(fixture.EXIF{DateTimeOriginal: "2023:05:01 12:00:00"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report just the timestamp", func() {
			Expect(asJSON()).To(MatchJSON(`{"datetimeoriginal": "2023:05:01 12:00:00"}`))
		})
	})

	When("the image carries a GPS position", func() {
		BeforeEach(func() {
			var err error
			data, err = fixture.Photo(fixture.EXIF{GPS: fixture.GPS(37.7749, "N", 122.4194, "W")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report signed coordinates", func() {
			Expect(record.Location).NotTo(BeNil())
			Expect(record.Location.Latitude).To(BeNumerically("~", 37.7749, 1e-9))
			Expect(record.Location.Longitude).To(BeNumerically("~", -122.4194, 1e-9))
			Expect(record.DateTimeOriginal).To(BeNil())
		})
	})

	When("the buffer is empty", func() {
		BeforeEach(func() {
			data = nil
		})

		It("should report an empty record", func() {
			Expect(asJSON()).To(MatchJSON(`{}`))
		})

		It("should not scan", func() {
			Expect(scanner.calls).To(BeZero())
		})
	})

	When("the scanner finds codes", func() {
		BeforeEach(func() {
			scanner.codes = []string{"A123", "B456"}
			var err error
			data, err = fixture.Photo(fixture.EXIF{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report them in order", func() {
			Expect(asJSON()).To(MatchJSON(`{"qrcodes": ["A123", "B456"]}`))
		})
	})

	When("the scanner finds nothing", func() {
		BeforeEach(func() {
			scanner.codes = []string{}
			var err error
			data, err = fixture.Photo(fixture.EXIF{DateTimeOriginal: "2021:07:04 09:15:00"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should leave qrcodes out", func() {
			Expect(scanner.calls).To(Equal(1))
			Expect(record.QRCodes).To(BeNil())
			Expect(asJSON()).NotTo(ContainSubstring("qrcodes"))
		})
	})

	When("the bytes are not a decodable image", func() {
		BeforeEach(func() {
			scanner.codes = []string{"NEVER"}
			data = []byte("definitely not an image")
		})

		It("should skip the scan and report an empty record", func() {
			Expect(scanner.calls).To(BeZero())
			Expect(asJSON()).To(MatchJSON(`{}`))
		})
	})

	When("the bytes hold EXIF but no pixels", func() {
		BeforeEach(func() {
			scanner.codes = []string{"NEVER"}
			data = fixture.TIFF(fixture.EXIF{DateTimeOriginal: "2023:05:01 12:00:00"})
		})

		It("should keep the metadata without scanning", func() {
			Expect(scanner.calls).To(BeZero())
			Expect(asJSON()).To(MatchJSON(`{"datetimeoriginal": "2023:05:01 12:00:00"}`))
		})
	})

	When("a real detector reads a photo", func() {
		BeforeEach(func() {
			analyzer = NewAnalyzer(scanning.NewBarcodeScanner(scanning.NewZXing()))
			var err error
			data, err = fixture.Photo(fixture.EXIF{
				DateTimeOriginal: "2023:05:01 12:00:00",
				GPS:              fixture.GPS(33.8688, "S", 151.2093, "E"),
			}, "A123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should combine EXIF and QR content", func() {
			Expect(*record.DateTimeOriginal).To(Equal("2023:05:01 12:00:00"))
			Expect(record.Location.Latitude).To(BeNumerically("~", -33.8688, 1e-9))
			Expect(record.Location.Longitude).To(BeNumerically("~", 151.2093, 1e-9))
			Expect(record.QRCodes).To(Equal([]string{"A123"}))
		})
	})
})
