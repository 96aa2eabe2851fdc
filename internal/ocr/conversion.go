package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// toPNG normalizes downloaded bytes into a PNG the engines can read.
// contentType may be empty, in which case the bytes are sniffed.
func toPNG(data []byte, contentType string) ([]byte, error) {
	mimeType := mediaType(data, contentType)

	switch {
	case bytes.HasPrefix(data, pngMagic):
		return data, nil
	case mimeType == "application/pdf":
		return pdfToPNG(data)
	case isHEIC(data) || strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif"):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return encodePNG(img)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w (%s): supported formats are JPEG, PNG, GIF, HEIC, HEIF, PDF", ErrUnsupportedFormat, mimeType)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return encodePNG(img)
}

func mediaType(data []byte, contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType
}

// pdfToPNG renders the first page; receipts are almost always one page
func pdfToPNG(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks for an ftyp box with a HEIF family brand at offset 4
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
