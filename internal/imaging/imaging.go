// Package imaging normalizes uploaded item photos and stores them as blobs.
package imaging

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"net/http"

	"github.com/zeebo/blake3"
	"golang.org/x/image/draw"

	"github.com/erazemk/lostfound/internal/blob"
)

// MaxDimension is the maximum width or height for stored images.
const MaxDimension = 1200

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 80

// KeyPrefix is prepended to every stored image key.
const KeyPrefix = "images/"

// ErrUnsupported is returned for input that is not a JPEG or PNG image.
var ErrUnsupported = errors.New("unsupported image format")

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Process reads image data, validates the format by sniffing bytes,
// downscales if larger than MaxDimension and re-encodes as JPEG.
func Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG and PNG accepted)", ErrUnsupported, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrUnsupported, err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Store processes an image and saves it under a content-addressed key,
// which it returns as the image reference. Storing the same picture twice
// yields the same reference.
func Store(ctx context.Context, s blob.Store, r io.Reader) (string, error) {
	data, err := Process(r)
	if err != nil {
		return "", err
	}

	sum := blake3.Sum256(data)
	ref := KeyPrefix + hex.EncodeToString(sum[:]) + ".jpg"

	if err := s.Put(ctx, ref, data); err != nil && !errors.Is(err, blob.ErrExists) {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return ref, nil
}

// downscale fits the image inside a maxDim square, keeping the aspect ratio.
// Images already within bounds are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
