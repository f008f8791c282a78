// Package imaging normalizes chart images before analysis.
//
// Normalization is a pure, stateless transform: decode, downscale so
// the long edge does not exceed the configured bound, re-encode as
// JPEG. The result is what gets shipped to the analysis model.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// DefaultMaxEdge is the default bound on the long edge in pixels.
const DefaultMaxEdge = 1280

const jpegQuality = 85

// Image is a normalized chart image ready for analysis.
type Image struct {
	Data []byte
	MIME string
}

// DataURL returns the image as a base64 data URL, the wire form the
// analysis collaborator expects.
func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIME, base64.StdEncoding.EncodeToString(i.Data))
}

// Normalize decodes raw image bytes and re-encodes them as JPEG with
// the long edge capped at DefaultMaxEdge.
func Normalize(data []byte) (Image, error) {
	return NormalizeToEdge(data, DefaultMaxEdge)
}

// NormalizeToEdge is Normalize with an explicit long-edge bound.
func NormalizeToEdge(data []byte, maxEdge int) (Image, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Image{}, fmt.Errorf("image has empty bounds")
	}

	if longEdge := max(w, h); longEdge > maxEdge {
		scale := float64(maxEdge) / float64(longEdge)
		nw := int(float64(w)*scale + 0.5)
		nh := int(float64(h)*scale + 0.5)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return Image{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// NormalizeFile reads and normalizes an image file.
func NormalizeFile(path string, maxEdge int) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image file: %w", err)
	}
	return NormalizeToEdge(data, maxEdge)
}
