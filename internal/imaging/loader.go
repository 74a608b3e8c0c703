package imaging

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when EncodeOptions.JPEGQuality is zero.
const DefaultJPEGQuality = 95

// supportedExtensions lists the upload formats accepted for processing.
var supportedExtensions = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".tif":  "tiff",
	".tiff": "tiff",
	".bmp":  "bmp",
}

// SupportedExtensions returns the accepted file extensions, lower case with
// leading dot.
func SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp"}
}

// SupportedExtension reports whether name has an accepted image extension.
// The comparison is case-insensitive.
func SupportedExtension(name string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FormatName returns "jpeg", "png", "tiff", "bmp", or "unknown" for name's
// extension.
func FormatName(name string) string {
	if f, ok := supportedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return "unknown"
}

// Decode reads an image and returns it as a mutable RGBA buffer.
//
// Parameters:
//   - r: Encoded image data. JPEG, PNG, TIFF, BMP and GIF are recognised by
//     content, not by name.
//
// Returns:
//   - *image.RGBA: A freshly allocated, fully opaque buffer owned by the
//     caller. EXIF orientation is applied so the buffer is upright. Any alpha
//     channel is dropped: each pixel keeps its stored (straight) color and
//     gets A=255, so transparent areas show the color they were saved with.
//   - error: Non-nil if the data cannot be decoded.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return clone.AsRGBA(flatten(img)), nil
}

// flatten returns a non-premultiplied copy of img with every alpha set to
// opaque.
func flatten(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Load opens and decodes the image at path. See Decode.
func Load(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// EncodeOptions controls output encoding.
type EncodeOptions struct {
	// JPEGQuality is 1-100. Zero means DefaultJPEGQuality.
	JPEGQuality int
}

// Encode writes img in the format implied by filename's extension.
//
// Parameters:
//   - w: Destination writer.
//   - img: Image to encode.
//   - filename: Only the extension is used; it selects JPEG, PNG, TIFF, BMP
//     or GIF.
//   - opts: Encoder settings.
//
// Returns an error if the extension is not a known format or encoding fails.
func Encode(w io.Writer, img image.Image, filename string, opts EncodeOptions) error {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return fmt.Errorf("unsupported output format for %s: %w", filename, err)
	}

	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}

	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// Save encodes img to path, choosing the format from the extension.
func Save(img image.Image, path string, opts EncodeOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := Encode(f, img, path, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is derived from the file extension: "jpeg", "png", "tiff",
	// "bmp", or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Info reads the header of the image at path and returns its dimensions
// without decoding pixel data.
func Info(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        FormatName(path),
		FileSizeBytes: stat.Size(),
	}, nil
}
