package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains a cropped region encoded for transport.
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropRegion returns the part of img inside r as a new image, optionally
// scaled.
//
// Parameters:
//   - img: Source image.
//   - r: Requested region. It is intersected with img's bounds first, so a
//     region that hangs off the edge is trimmed rather than rejected.
//   - scale: Resize factor applied after cropping; 1.0 or <= 0 keeps size.
//
// Returns an error if r does not overlap img at all.
func CropRegion(img image.Image, r image.Rectangle, scale float64) (image.Image, error) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, img.Bounds())
	}

	var out image.Image = imaging.Crop(img, clipped)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(clipped.Dx()) * scale)
		newHeight := int(float64(clipped.Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %v too small for %dx%d region", scale, clipped.Dx(), clipped.Dy())
		}
		out = imaging.Resize(out, newWidth, newHeight, imaging.Lanczos)
	}
	return out, nil
}

// Crop crops img to r and returns it as a base64-encoded PNG. See CropRegion.
func Crop(img image.Image, r image.Rectangle, scale float64) (*CropResult, error) {
	cropped, err := CropRegion(img, r, scale)
	if err != nil {
		return nil, err
	}

	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	clipped := r.Intersect(img.Bounds())
	return &CropResult{
		X:           clipped.Min.X,
		Y:           clipped.Min.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
