package verify

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/scalebar-mcp/internal/imaging"
	"github.com/ironsheep/scalebar-mcp/internal/overlay"
)

// labelPad is added around the label's ink box before OCR; Tesseract reads
// glyphs touching the crop edge poorly.
const labelPad = 8

// whitelist covers every character a rendered label can contain. 'u' is
// allowed because the micro sign is often read as u.
const whitelist = "0123456789. µum"

// Options configures a verification pass.
type Options struct {
	// Language is the Tesseract language code. Empty means "eng".
	Language string

	// Background is the expected box color. Zero means white.
	Background color.Color
}

// Result is the outcome of reading a label back.
type Result struct {
	// Want is the label that was rendered.
	Want string `json:"want"`

	// Text is what Tesseract read, trimmed.
	Text string `json:"text"`

	// Match is true when Text equals Want after normalization.
	Match bool `json:"match"`

	// BoxCoverage is the fraction of the box outside the bar and label
	// rectangles that has the background color.
	BoxCoverage float64 `json:"box_coverage"`
}

// Label crops the label area described by g out of img and reads it with
// Tesseract. A mismatch is reported in Result, not as an error; errors mean
// OCR itself could not run.
func Label(img image.Image, g overlay.Geometry, opts Options) (*Result, error) {
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}

	region := g.TextRect().Inset(-labelPad)
	cropped, err := imaging.CropRegion(img, region, 1.0)
	if err != nil {
		return nil, fmt.Errorf("label region: %w", err)
	}
	data, err := imaging.EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	text, err := readLine(data, lang)
	if err != nil {
		return nil, err
	}

	return &Result{
		Want:        g.Label,
		Text:        text,
		Match:       normalize(text) == normalize(g.Label),
		BoxCoverage: backgroundCoverage(img, g, bg),
	}, nil
}

func readLine(png []byte, lang string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page segmentation: %w", err)
	}
	if err := client.SetWhitelist(whitelist); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// normalize drops whitespace and folds the micro sign and Greek mu to 'u'.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r == 'µ' || r == 'μ':
			b.WriteRune('u')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// backgroundCoverage samples the box strip above the bar, which holds only
// background.
func backgroundCoverage(img image.Image, g overlay.Geometry, bg color.Color) float64 {
	strip := image.Rectangle{
		Min: g.Box.Min,
		Max: image.Pt(g.Box.Max.X, g.Line.Min.Y),
	}
	return imaging.Coverage(img, strip, bg, 0.05).Fraction
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}
