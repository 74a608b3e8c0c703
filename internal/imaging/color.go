package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseHexColor parses "#RRGGBB" or "#RGB" into an opaque RGBA color. The
// leading '#' is optional.
func ParseHexColor(hex string) (color.RGBA, error) {
	s := strings.TrimSpace(hex)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if s[0] != '#' {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RGB or #RRGGBB", hex)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexString formats c as "#RRGGBB", ignoring alpha.
func HexString(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return strings.ToUpper(cf.Hex())
}

// CoverageResult reports how much of a region matches a color.
type CoverageResult struct {
	Hex      string  `json:"hex"`
	Matching int     `json:"matching"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
}

// Coverage counts the pixels of img inside r (clipped to the image) whose
// color is within tolerance of want, measured as CIE76 distance in Lab space
// (colorful's DistanceLab; roughly 0.01 is imperceptible).
func Coverage(img image.Image, r image.Rectangle, want color.Color, tolerance float64) CoverageResult {
	target, _ := colorful.MakeColor(want)
	r = r.Intersect(img.Bounds())

	res := CoverageResult{Hex: HexString(want)}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			res.Total++
			c, ok := colorful.MakeColor(img.At(x, y))
			if ok && c.DistanceLab(target) <= tolerance {
				res.Matching++
			}
		}
	}
	if res.Total > 0 {
		res.Fraction = float64(res.Matching) / float64(res.Total)
	}
	return res
}
