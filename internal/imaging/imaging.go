// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging turns an uploaded bottle photo into the JPEG variants
// served by the catalogue: a small one for lists and a medium one for the
// detail view. Variants never upscale the source.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ContentType is the media type of every generated variant.
const ContentType = "image/jpeg"

// maxImagePixels caps the number of pixels to prevent memory bombs.
// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
const maxImagePixels = 100_000_000

// ErrUnsupported is returned for payloads that are not a decodable image.
var ErrUnsupported = errors.New("unsupported image format")

// Variant describes a single output size.
type Variant struct {
	Name    string // key suffix, e.g. "sm"
	Width   int    // maximum width in pixels
	Quality int    // JPEG quality 1-100
}

// DefaultVariants are the sizes stored for every alcohol image.
var DefaultVariants = []Variant{
	{Name: "sm", Width: 320, Quality: 80},
	{Name: "md", Width: 800, Quality: 85},
}

// ProcessedImage holds one generated variant ready for upload.
type ProcessedImage struct {
	Name   string
	Width  int
	Height int
	Data   []byte
}

// GenerateVariants decodes original and encodes one JPEG per variant.
func GenerateVariants(original []byte, variants []Variant) ([]ProcessedImage, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}

	// Check for image bombs before the full decode.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: %w", ErrUnsupported)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("imaging: image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	results := make([]ProcessedImage, 0, len(variants))
	for _, v := range variants {
		img := resize(src, v.Width)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: v.Quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode %s: %w", v.Name, err)
		}
		b := img.Bounds()
		results = append(results, ProcessedImage{
			Name:   v.Name,
			Width:  b.Dx(),
			Height: b.Dy(),
			Data:   buf.Bytes(),
		})
	}
	return results, nil
}

// resize scales src down to maxWidth preserving the aspect ratio. Images
// already narrow enough are copied at their own size.
func resize(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxWidth {
		height = max(1, int(float64(height)*float64(maxWidth)/float64(width)))
		width = maxWidth
	}

	// JPEG has no alpha; paint onto white so transparent PNGs stay legible.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
