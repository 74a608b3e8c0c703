// Package overlay lays out and draws calibrated scale bars on images.
//
// A scale bar is a white box anchored near the bottom-right corner holding a
// horizontal black bar of known physical length and, below it, a label such
// as "20 µm". The bar's pixel length comes from a calibration.Entry; the box
// grows to fit whichever of bar and label is wider.
//
// # Geometry
//
// All coordinates follow the image convention: origin at top-left, X to the
// right, Y down, rectangles half-open. With W x H image bounds:
//
//	box_width  = max(bar_px, text_width) + 2*padding_h
//	box_height = text_height + line_text_gap + line_thickness + 2*padding_v
//	box        = (W-margin-box_width, H-margin-box_height) .. (W-margin, H-margin)
//
// The bar's center row sits padding_v below the box top and the label's ink
// top sits line_text_gap below that row. Both are centered horizontally using
// integer division, so an odd slack leaves the extra pixel on the right.
//
// Geometry is never clamped. When the box is larger than the image its
// coordinates go negative and drawing simply clips at the image edge.
//
// # Fonts
//
// LoadFont tries the preferred font file first and falls back to the
// embedded Go Regular face, reporting the substitution through Font.Degraded
// rather than an error.
package overlay
