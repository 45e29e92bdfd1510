package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"
)

const (
	// maxEdge bounds the longer edge of a normalized image. Images already
	// within the bound are never upscaled.
	maxEdge = 800

	// jpegQuality is the lossy re-encode quality for normalized images.
	jpegQuality = 70
)

// Normalize downsamples an arbitrary source image to bounded dimensions and
// re-encodes it as JPEG to control payload size. If the source cannot be
// decoded it returns the original bytes unmodified with fallback=true; this is
// the documented availability-over-strictness fallback, not an error.
func Normalize(data []byte, contentType string) (out []byte, fallback bool) {
	img, err := decodeSource(data, contentType)
	if err != nil {
		return data, true
	}

	img = downscale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return data, true
	}
	return buf.Bytes(), false
}

// decodeSource decodes JPEG, PNG, GIF, HEIC/HEIF photos and PDFs (first page)
func decodeSource(data []byte, contentType string) (image.Image, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case mimeType == "application/pdf" || isPDFData(data):
		return pdfFirstPage(data)
	case isHEICData(data) || isHEICMimeType(mimeType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		return img, nil
	}
}

// pdfFirstPage renders the first page of a PDF. Most receipts are single page.
func pdfFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// downscale bounds the longer edge to maxEdge preserving aspect ratio
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	var nw, nh int
	if w > h {
		nw = maxEdge
		nh = int(float64(h)*float64(maxEdge)/float64(w) + 0.5)
	} else {
		nh = maxEdge
		nw = int(float64(w)*float64(maxEdge)/float64(h) + 0.5)
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func isPDFData(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// isHEICData checks the ftyp box brands phone cameras use
func isHEICData(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
