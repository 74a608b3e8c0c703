package overlay

import (
	"fmt"
	"image"
)

// LayoutSpec holds the fixed pixel constants of the scale-bar box.
type LayoutSpec struct {
	PaddingH      int `json:"padding_h" yaml:"padding_h"`
	PaddingV      int `json:"padding_v" yaml:"padding_v"`
	LineTextGap   int `json:"line_text_gap" yaml:"line_text_gap"`
	Margin        int `json:"margin" yaml:"margin"`
	LineThickness int `json:"line_thickness" yaml:"line_thickness"`
}

// DefaultLayout returns the layout used for the lab's reference outputs.
func DefaultLayout() LayoutSpec {
	return LayoutSpec{
		PaddingH:      20,
		PaddingV:      20,
		LineTextGap:   10,
		Margin:        20,
		LineThickness: 10,
	}
}

// Validate rejects negative spacing and a non-positive line thickness.
func (s LayoutSpec) Validate() error {
	for name, v := range map[string]int{
		"padding_h":     s.PaddingH,
		"padding_v":     s.PaddingV,
		"line_text_gap": s.LineTextGap,
		"margin":        s.Margin,
	} {
		if v < 0 {
			return fmt.Errorf("layout %s must be >= 0, got %d", name, v)
		}
	}
	if s.LineThickness <= 0 {
		return fmt.Errorf("layout line_thickness must be > 0, got %d", s.LineThickness)
	}
	return nil
}

// Geometry describes one rendered scale bar. Rectangles are half-open: Min is
// inclusive, Max exclusive. Coordinates are not clamped to the image, so a
// bar wider than the image yields a negative Box.Min.X.
//
// Older reference images were drawn with an inclusive end pixel, so their
// box is one column wider and one row taller than Box. Their label was also
// positioned by its ascender line rather than its ink, which puts it lower
// than TextOrigin by the font's top bearing. Pixel comparisons against those
// images must allow for both offsets.
type Geometry struct {
	Label         string `json:"label"`
	ScaleLengthPx int    `json:"scale_length_px"`
	TextWidth     int    `json:"text_width"`
	TextHeight    int    `json:"text_height"`
	BoxWidth      int    `json:"box_width"`
	BoxHeight     int    `json:"box_height"`

	// Box is the background rectangle, anchored Margin pixels in from the
	// bottom-right corner.
	Box image.Rectangle `json:"box"`

	// LineStart and LineEnd are the bar's endpoints on its center row.
	LineStart image.Point `json:"line_start"`
	LineEnd   image.Point `json:"line_end"`

	// Line is the painted bar, LineThickness rows centered on LineStart.Y.
	Line image.Rectangle `json:"line"`

	// TextOrigin is the top-left corner of the label's ink bounds.
	TextOrigin image.Point `json:"text_origin"`
}

// TextRect returns the label's ink rectangle.
func (g Geometry) TextRect() image.Rectangle {
	return image.Rectangle{
		Min: g.TextOrigin,
		Max: g.TextOrigin.Add(image.Pt(g.TextWidth, g.TextHeight)),
	}
}

// InBounds reports whether the whole box lies inside r.
func (g Geometry) InBounds(r image.Rectangle) bool {
	return g.Box.In(r)
}

// Arrange computes the box, bar and label positions for an image with the
// given bounds, a bar of scaleLengthPx pixels and a label of textW x textH
// pixels. Centering offsets use integer division, so an odd slack puts the
// extra pixel on the right.
func (s LayoutSpec) Arrange(bounds image.Rectangle, scaleLengthPx, textW, textH int) Geometry {
	boxW := max(scaleLengthPx, textW) + 2*s.PaddingH
	boxH := textH + s.LineTextGap + s.LineThickness + 2*s.PaddingV

	xEnd := bounds.Max.X - s.Margin
	yEnd := bounds.Max.Y - s.Margin
	xStart := xEnd - boxW
	yStart := yEnd - boxH

	lineX1 := xStart + (boxW-scaleLengthPx)/2
	lineX2 := lineX1 + scaleLengthPx
	lineY := yStart + s.PaddingV
	lineTop := lineY - s.LineThickness/2

	textX := xStart + (boxW-textW)/2
	textY := lineY + s.LineTextGap

	return Geometry{
		ScaleLengthPx: scaleLengthPx,
		TextWidth:     textW,
		TextHeight:    textH,
		BoxWidth:      boxW,
		BoxHeight:     boxH,
		Box:           image.Rectangle{Min: image.Pt(xStart, yStart), Max: image.Pt(xEnd, yEnd)},
		LineStart:     image.Pt(lineX1, lineY),
		LineEnd:       image.Pt(lineX2, lineY),
		Line: image.Rectangle{
			Min: image.Pt(lineX1, lineTop),
			Max: image.Pt(lineX2, lineTop+s.LineThickness),
		},
		TextOrigin: image.Pt(textX, textY),
	}
}
