package scanning

import (
	"context"
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/photo-metadata/internal/fixture"
)

var _ = Describe("ZXing", func() {
	var (
		detector *ZXing
		img      image.Image
		codes    []string
		err      error
	)

	BeforeEach(func() {
		detector = NewZXing()
	})

	JustBeforeEach(func() {
		codes, err = detector.Detect(context.Background(), img)
	})

	When("the image holds one QR code", func() {
		BeforeEach(func() {
			var qrErr error
			img, qrErr = fixture.QRImage(200, "A123")
			Expect(qrErr).NotTo(HaveOccurred())
		})

		It("decodes the payload", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(Equal([]string{"A123"}))
		})
	})

	When("the image holds two QR codes", func() {
		BeforeEach(func() {
			var qrErr error
			img, qrErr = fixture.QRImage(200, "A123", "B456")
			Expect(qrErr).NotTo(HaveOccurred())
		})

		It("decodes both payloads", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(ConsistOf("A123", "B456"))
		})
	})

	When("the image has no QR code", func() {
		BeforeEach(func() {
			var qrErr error
			img, qrErr = fixture.QRImage(200)
			Expect(qrErr).NotTo(HaveOccurred())
		})

		It("reports nothing without an error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(BeEmpty())
		})
	})

	When("the image survived JPEG encoding", func() {
		BeforeEach(func() {
			data, photoErr := fixture.Photo(fixture.EXIF{}, "https://example.com/p/42")
			Expect(photoErr).NotTo(HaveOccurred())
			var decodeErr error
			img, decodeErr = DecodeImage(data)
			Expect(decodeErr).NotTo(HaveOccurred())
		})

		It("decodes the payload", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(Equal([]string{"https://example.com/p/42"}))
		})
	})

	Describe("Close", func() {
		It("succeeds", func() {
			Expect(detector.Close()).To(Succeed())
		})
	})
})
