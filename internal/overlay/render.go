package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/scalebar-mcp/internal/calibration"
)

// Style sets the overlay colors.
type Style struct {
	Box color.RGBA // background fill
	Ink color.RGBA // bar and label
}

// DefaultStyle is black ink on an opaque white box.
func DefaultStyle() Style {
	return Style{
		Box: color.RGBA{255, 255, 255, 255},
		Ink: color.RGBA{0, 0, 0, 255},
	}
}

// Compositor draws scale bars. It holds only read-only configuration, but the
// underlying font.Face is not safe for concurrent use, so a Compositor must
// not be shared between goroutines.
type Compositor struct {
	spec  LayoutSpec
	font  *Font
	style Style
}

// NewCompositor returns a compositor using the given layout, font and colors.
func NewCompositor(spec LayoutSpec, f *Font, style Style) *Compositor {
	return &Compositor{spec: spec, font: f, style: style}
}

// Spec returns the compositor's layout constants.
func (c *Compositor) Spec() LayoutSpec { return c.spec }

// Font returns the compositor's label font.
func (c *Compositor) Font() *Font { return c.font }

// Style returns the compositor's colors.
func (c *Compositor) Style() Style { return c.style }

// Label returns the scale-bar caption for an entry, e.g. "20 µm".
func Label(e calibration.Entry) string {
	return strconv.FormatFloat(e.ScaleLengthUM, 'f', -1, 64) + " µm"
}

// MeasureText returns the ink width and height of s in whole pixels.
func (c *Compositor) MeasureText(s string) (width, height int) {
	b := c.inkBounds(s)
	return b.Dx(), b.Dy()
}

// inkBounds returns the pixel-aligned ink rectangle of s relative to a dot at
// the origin.
func (c *Compositor) inkBounds(s string) image.Rectangle {
	b, _ := font.BoundString(c.font.Face, s)
	return image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
}

// Layout computes the scale-bar geometry for an image of the given bounds
// without touching any pixels.
func (c *Compositor) Layout(bounds image.Rectangle, e calibration.Entry) Geometry {
	label := Label(e)
	tw, th := c.MeasureText(label)
	g := c.spec.Arrange(bounds, e.ScaleLengthPx(), tw, th)
	g.Label = label
	return g
}

// Render draws the scale bar for e onto img in place and returns its
// geometry. Drawing is clipped to img's bounds; geometry is not.
func (c *Compositor) Render(img *image.RGBA, e calibration.Entry) Geometry {
	g := c.Layout(img.Bounds(), e)

	draw.Draw(img, g.Box, image.NewUniform(c.style.Box), image.Point{}, draw.Src)
	draw.Draw(img, g.Line, image.NewUniform(c.style.Ink), image.Point{}, draw.Src)

	ink := c.inkBounds(g.Label)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.style.Ink),
		Face: c.font.Face,
		Dot:  fixed.P(g.TextOrigin.X-ink.Min.X, g.TextOrigin.Y-ink.Min.Y),
	}
	d.DrawString(g.Label)

	return g
}
