package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"
)

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, image.Rect(0, 0, 50, 50), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if _, err := base64.StdEncoding.DecodeString(result.ImageBase64); err != nil {
		t.Errorf("failed to decode base64: %v", err)
	}
}

func TestCrop_WithScale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	result, err := Crop(img, image.Rect(0, 0, 50, 50), 2.0)
	if err != nil {
		t.Fatalf("Crop with scale failed: %v", err)
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("scaled dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
}

func TestCrop_ClipsToBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	result, err := Crop(img, image.Rect(-40, 60, 80, 140), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.X != 0 || result.Y != 60 || result.Width != 80 || result.Height != 40 {
		t.Errorf("clipped region: got (%d,%d) %dx%d, want (0,60) 80x40",
			result.X, result.Y, result.Width, result.Height)
	}
}

func TestCrop_NoOverlap(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	if _, err := Crop(img, image.Rect(200, 200, 300, 300), 1.0); err == nil {
		t.Error("Crop should fail when the region misses the image")
	}
}

func TestCropRegion_VerifyContent(t *testing.T) {
	img := createPatternImage(100, 100)

	// bottom-right quadrant is white
	out, err := CropRegion(img, image.Rect(50, 50, 100, 100), 1.0)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	r, g, b, _ := out.At(10, 10).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("expected white, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}
