package scanning

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func encodeTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())
	return buf.Bytes()
}

func encodeTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Normalize", func() {
	var (
		data        []byte
		contentType string
		out         []byte
		fallback    bool
	)

	JustBeforeEach(func() {
		out, fallback = Normalize(data, contentType)
	})

	When("the source is a large landscape JPEG", func() {
		BeforeEach(func() {
			data = encodeTestJPEG(1600, 1200)
			contentType = "image/jpeg"
		})

		It("should not fall back", func() {
			Expect(fallback).To(BeFalse())
		})

		It("should bound the longer edge", func() {
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
			Expect(cfg.Width).To(Equal(800))
		})

		It("should preserve the aspect ratio within rounding tolerance", func() {
			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Height).To(Equal(600))
		})
	})

	When("the source is a large portrait JPEG", func() {
		BeforeEach(func() {
			data = encodeTestJPEG(1200, 1600)
			contentType = "image/jpeg"
		})

		It("should bound the height instead", func() {
			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Height).To(Equal(800))
			Expect(cfg.Width).To(Equal(600))
		})
	})

	When("the source is already within the bound", func() {
		BeforeEach(func() {
			data = encodeTestJPEG(400, 300)
			contentType = "image/jpeg"
		})

		It("should not upscale", func() {
			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Width).To(Equal(400))
			Expect(cfg.Height).To(Equal(300))
		})

		It("should not fall back", func() {
			Expect(fallback).To(BeFalse())
		})
	})

	When("the source is a PNG", func() {
		BeforeEach(func() {
			data = encodeTestPNG(1000, 500)
			contentType = "image/png"
		})

		It("should re-encode as JPEG", func() {
			_, format, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
		})

		It("should bound the longer edge", func() {
			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Width).To(Equal(800))
			Expect(cfg.Height).To(Equal(400))
		})
	})

	When("the source cannot be decoded", func() {
		BeforeEach(func() {
			data = []byte("not an image at all")
			contentType = "image/jpeg"
		})

		It("should report the fallback", func() {
			Expect(fallback).To(BeTrue())
		})

		It("should return the original bytes unmodified", func() {
			Expect(out).To(Equal(data))
		})
	})

	When("the content type lies about the format", func() {
		BeforeEach(func() {
			data = encodeTestPNG(100, 100)
			contentType = "image/jpeg"
		})

		It("should decode by sniffing, not by content type", func() {
			Expect(fallback).To(BeFalse())
			_, format, err := image.DecodeConfig(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("jpeg"))
		})
	})
})
