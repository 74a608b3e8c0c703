package overlay

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArrange_BoxAnchoring(t *testing.T) {
	spec := DefaultLayout()
	bounds := image.Rect(0, 0, 1000, 800)

	// bar 360 px, label 200x90 -> box 400x150
	g := spec.Arrange(bounds, 360, 200, 90)

	if g.BoxWidth != 400 || g.BoxHeight != 150 {
		t.Fatalf("box size: got %dx%d, want 400x150", g.BoxWidth, g.BoxHeight)
	}
	want := image.Rectangle{Min: image.Pt(580, 630), Max: image.Pt(980, 780)}
	if g.Box != want {
		t.Errorf("Box: got %v, want %v", g.Box, want)
	}
}

func TestArrange_BarAndLabelPositions(t *testing.T) {
	spec := DefaultLayout()
	g := spec.Arrange(image.Rect(0, 0, 1000, 800), 360, 200, 90)

	want := Geometry{
		ScaleLengthPx: 360,
		TextWidth:     200,
		TextHeight:    90,
		BoxWidth:      400,
		BoxHeight:     150,
		Box:           image.Rectangle{Min: image.Pt(580, 630), Max: image.Pt(980, 780)},
		LineStart:     image.Pt(600, 650),
		LineEnd:       image.Pt(960, 650),
		Line:          image.Rectangle{Min: image.Pt(600, 645), Max: image.Pt(960, 655)},
		TextOrigin:    image.Pt(680, 660),
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("Arrange mismatch (-want +got):\n%s", diff)
	}
}

func TestArrange_LabelWiderThanBar(t *testing.T) {
	spec := DefaultLayout()
	g := spec.Arrange(image.Rect(0, 0, 1000, 800), 100, 300, 50)

	if g.BoxWidth != 340 {
		t.Errorf("BoxWidth: got %d, want 340", g.BoxWidth)
	}
	if g.TextOrigin.X != g.Box.Min.X+20 {
		t.Errorf("label should sit at padding_h: got x=%d, box x=%d", g.TextOrigin.X, g.Box.Min.X)
	}
	if g.LineStart.X != g.Box.Min.X+120 {
		t.Errorf("bar offset: got %d, want %d", g.LineStart.X-g.Box.Min.X, 120)
	}
}

func TestArrange_OddSlackFloorsLeft(t *testing.T) {
	spec := DefaultLayout()
	// bar 361 -> box 401; label 200 leaves 201 slack -> offset 100
	g := spec.Arrange(image.Rect(0, 0, 1000, 800), 361, 200, 90)

	if got := g.LineStart.X - g.Box.Min.X; got != 20 {
		t.Errorf("bar offset: got %d, want 20", got)
	}
	if got := g.TextOrigin.X - g.Box.Min.X; got != 100 {
		t.Errorf("label offset: got %d, want 100", got)
	}
	if got := g.Box.Max.X - g.TextRect().Max.X; got != 101 {
		t.Errorf("right slack: got %d, want 101", got)
	}
}

func TestArrange_OversizedBarNotClamped(t *testing.T) {
	spec := DefaultLayout()
	g := spec.Arrange(image.Rect(0, 0, 100, 100), 248, 120, 60)

	if g.Box.Min.X >= 0 {
		t.Errorf("Box.Min.X should be negative, got %d", g.Box.Min.X)
	}
	if g.Box.Max != image.Pt(80, 80) {
		t.Errorf("Box.Max: got %v, want (80,80)", g.Box.Max)
	}
	if g.InBounds(image.Rect(0, 0, 100, 100)) {
		t.Error("InBounds should be false for an oversized box")
	}
}

func TestArrange_NonZeroOrigin(t *testing.T) {
	spec := DefaultLayout()
	g := spec.Arrange(image.Rect(50, 50, 1050, 850), 360, 200, 90)

	if g.Box.Max != image.Pt(1030, 830) {
		t.Errorf("Box.Max: got %v, want (1030,830)", g.Box.Max)
	}
}

func TestLayoutSpec_Validate(t *testing.T) {
	if err := DefaultLayout().Validate(); err != nil {
		t.Errorf("default layout invalid: %v", err)
	}

	bad := DefaultLayout()
	bad.Margin = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative margin should fail")
	}

	bad = DefaultLayout()
	bad.LineThickness = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero line thickness should fail")
	}
}
