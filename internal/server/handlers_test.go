package server

import (
	"archive/zip"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/scalebar-mcp/internal/batch"
	"github.com/ironsheep/scalebar-mcp/internal/calibration"
	"github.com/ironsheep/scalebar-mcp/internal/imaging"
)

// createTestImageFile writes a solid PNG named name into a temp dir and
// returns its path.
func createTestImageFile(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tool through executeTool and decodes its result into v.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, v interface{}) {
	t.Helper()
	argsJSON, _ := json.Marshal(args)
	result, err := s.executeTool(name, argsJSON)
	if err != nil {
		t.Fatalf("executeTool(%s) failed: %v", name, err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
}

func TestHandleToolsCall_Resolve(t *testing.T) {
	s := newTestServer(t)

	params := map[string]interface{}{
		"name": "scalebar_resolve",
		"arguments": map[string]interface{}{
			"filename": "/data/run1/Quartz_40X_polarised.jpg",
		},
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: paramsJSON})
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", result["content"])
	}

	var got resolveResult
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &got); err != nil {
		t.Fatalf("bad result text: %v", err)
	}
	if got.Filename != "Quartz_40X_polarised.jpg" {
		t.Errorf("Filename: got %q", got.Filename)
	}
	if got.Entry == nil || got.Entry.Magnification != 40 {
		t.Fatalf("Entry: got %+v", got.Entry)
	}
	if got.Label != "20 µm" {
		t.Errorf("Label: got %q, want %q", got.Label, "20 µm")
	}
	if got.ScaleLengthPx != 248 {
		t.Errorf("ScaleLengthPx: got %d, want 248", got.ScaleLengthPx)
	}
}

func TestHandleResolve_Skips(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		filename   string
		wantReason string
		wantMsg    string
	}{
		{"plain.jpg", calibration.ReasonNotFound, "plain.jpg: Magnification not found in filename."},
		{"slide_99x.png", calibration.ReasonNotInSettings, "slide_99x.png: Magnification 99x not in settings."},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			var got resolveResult
			callTool(t, s, "scalebar_resolve", map[string]interface{}{"filename": tt.filename}, &got)
			if got.Skip == nil {
				t.Fatal("expected a skip")
			}
			if got.Skip.Reason != tt.wantReason || got.Skip.Message != tt.wantMsg {
				t.Errorf("skip: got %+v", got.Skip)
			}
			if got.Entry != nil {
				t.Error("skipped file should have no entry")
			}
		})
	}
}

func TestHandleResolve_Ambiguous(t *testing.T) {
	s := newTestServer(t)

	var got resolveResult
	callTool(t, s, "scalebar_resolve", map[string]interface{}{"filename": "cmp_10x_vs_40x.png"}, &got)
	if !got.Ambiguous {
		t.Error("two tokens should be flagged ambiguous")
	}
	if got.Entry == nil || got.Entry.Magnification != 10 {
		t.Errorf("leftmost token should win, got %+v", got.Entry)
	}
}

func TestHandleResolve_MissingFilename(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.executeTool("scalebar_resolve", json.RawMessage(`{}`)); err == nil {
		t.Error("resolve without filename should fail")
	}
}

func TestHandleCalibrations(t *testing.T) {
	s := newTestServer(t)

	var got calibrationsResult
	callTool(t, s, "scalebar_calibrations", nil, &got)

	if len(got.Entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(got.Entries))
	}
	// Sorted by nominal magnification: 2.5x first
	if got.Entries[0].Magnification != 25 || got.Entries[0].ScaleLengthPx != 160 {
		t.Errorf("first entry: got %+v", got.Entries[0])
	}
	if !got.Font.Degraded {
		t.Error("test server uses the fallback font")
	}
	if got.Colors.Box != "#ffffff" && got.Colors.Box != "#FFFFFF" {
		t.Errorf("box color: got %s", got.Colors.Box)
	}
	if got.Layout.Margin != 20 {
		t.Errorf("layout margin: got %d", got.Layout.Margin)
	}
}

func TestHandleLayout(t *testing.T) {
	s := newTestServer(t)

	var got layoutResult
	callTool(t, s, "scalebar_layout", map[string]interface{}{
		"filename": "grain_20x.tif",
		"width":    1000,
		"height":   800,
	}, &got)

	if got.Skip != nil {
		t.Fatalf("unexpected skip: %+v", got.Skip)
	}
	g := got.Geometry
	if g == nil {
		t.Fatal("missing geometry")
	}
	if g.Box.Max != image.Pt(980, 780) {
		t.Errorf("box should end margin pixels from the corner, got %v", g.Box.Max)
	}
	if g.ScaleLengthPx != 310 {
		t.Errorf("ScaleLengthPx: got %d, want 310", g.ScaleLengthPx)
	}
	if !got.InBounds {
		t.Error("box should fit a 1000x800 image")
	}
}

func TestHandleLayout_TooSmall(t *testing.T) {
	s := newTestServer(t)

	var got layoutResult
	callTool(t, s, "scalebar_layout", map[string]interface{}{
		"filename": "grain_25x.png",
		"width":    100,
		"height":   60,
	}, &got)

	if got.Geometry == nil {
		t.Fatal("geometry is computed even when it does not fit")
	}
	if got.InBounds {
		t.Error("box cannot fit a 100x60 image")
	}
}

func TestHandleLayout_InvalidSize(t *testing.T) {
	s := newTestServer(t)
	args := json.RawMessage(`{"filename":"a_40x.png","width":0,"height":10}`)
	if _, err := s.executeTool("scalebar_layout", args); err == nil {
		t.Error("zero width should fail")
	}
}

func TestHandleRender(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, "mica_10x.png", 1200, 900, color.RGBA{40, 80, 120, 255})
	outDir := filepath.Join(t.TempDir(), "out")

	var got renderResult
	callTool(t, s, "scalebar_render", map[string]interface{}{"path": src, "output_dir": outDir}, &got)

	if got.Skip != nil {
		t.Fatalf("unexpected skip: %+v", got.Skip)
	}
	if got.OutputPath != filepath.Join(outDir, "mica_10x.png") {
		t.Errorf("OutputPath: got %s", got.OutputPath)
	}
	if !got.FontDegraded {
		t.Error("FontDegraded should be reported")
	}

	out, err := imaging.Load(got.OutputPath)
	if err != nil {
		t.Fatalf("failed to load output: %v", err)
	}
	if c := out.RGBAAt(got.Geometry.Box.Min.X, got.Geometry.Box.Min.Y); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("box corner: got %v, want white", c)
	}

	// Source is never modified
	orig, err := imaging.Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if c := orig.RGBAAt(got.Geometry.Box.Min.X, got.Geometry.Box.Min.Y); c != (color.RGBA{40, 80, 120, 255}) {
		t.Errorf("source changed: got %v", c)
	}
}

func TestHandleRender_Skipped(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, "nomag.png", 50, 50, color.White)

	var got renderResult
	callTool(t, s, "scalebar_render", map[string]interface{}{"path": src}, &got)
	if got.Skip == nil || got.Skip.Reason != calibration.ReasonNotFound {
		t.Errorf("expected not-found skip, got %+v", got.Skip)
	}
	if got.OutputPath != "" {
		t.Error("skipped file should not be written")
	}
}

func TestHandleRender_UnsupportedFormat(t *testing.T) {
	s := newTestServer(t)

	var got renderResult
	callTool(t, s, "scalebar_render", map[string]interface{}{"path": "/nowhere/slide_40x.webp"}, &got)
	if got.Skip == nil || got.Skip.Reason != batch.ReasonUnsupportedFormat {
		t.Errorf("expected unsupported-format skip, got %+v", got.Skip)
	}
}

func TestHandleRender_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	args := json.RawMessage(`{"path":"/nonexistent/image_40x.png"}`)
	if _, err := s.executeTool("scalebar_render", args); err == nil {
		t.Error("render of a missing file should fail")
	}
}

func TestHandleProcessBatch(t *testing.T) {
	s := newTestServer(t)
	a := createTestImageFile(t, "a_40x.png", 800, 600, color.Black)
	b := createTestImageFile(t, "b.png", 100, 100, color.Black)
	outDir := filepath.Join(t.TempDir(), "processed")

	var got batch.Result
	callTool(t, s, "scalebar_process_batch", map[string]interface{}{
		"paths":        []string{a, b},
		"output_dir":   outDir,
		"archive_name": "slides.zip",
	}, &got)

	if len(got.Processed) != 1 || got.Processed[0].Name != "a_40x.png" {
		t.Fatalf("processed: %+v", got.Processed)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].File != "b.png" {
		t.Errorf("diagnostics: %+v", got.Diagnostics)
	}
	if filepath.Base(got.ArchivePath) != "slides.zip" {
		t.Errorf("ArchivePath: got %s", got.ArchivePath)
	}

	zr, err := zip.OpenReader(got.ArchivePath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].Name != "a_40x.png" {
		t.Errorf("archive entries: %d", len(zr.File))
	}
}

func TestHandleProcessBatch_NoPaths(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.executeTool("scalebar_process_batch", json.RawMessage(`{"paths":[]}`)); err == nil {
		t.Error("empty batch should fail")
	}
}

func TestHandlePreview(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, "pv_25x.png", 900, 700, color.RGBA{0, 128, 0, 255})

	var got previewResult
	callTool(t, s, "scalebar_preview", map[string]interface{}{"path": src, "context": 10}, &got)

	if got.Crop == nil || got.Geometry == nil {
		t.Fatalf("preview missing crop or geometry: %+v", got)
	}
	if got.Crop.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", got.Crop.MimeType)
	}

	// Box plus context on the left and top; the right and bottom context
	// still fit inside the margin.
	wantW := got.Geometry.BoxWidth + 20
	wantH := got.Geometry.BoxHeight + 20
	if got.Crop.Width != wantW || got.Crop.Height != wantH {
		t.Errorf("crop size: got %dx%d, want %dx%d", got.Crop.Width, got.Crop.Height, wantW, wantH)
	}

	data, err := base64.StdEncoding.DecodeString(got.Crop.ImageBase64)
	if err != nil {
		t.Fatalf("bad base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("bad png: %v", err)
	}
	if img.Bounds().Dx() != wantW {
		t.Errorf("decoded width: got %d, want %d", img.Bounds().Dx(), wantW)
	}

	// Nothing written next to the source
	entries, _ := os.ReadDir(filepath.Dir(src))
	if len(entries) != 1 {
		t.Errorf("preview should not write files, dir has %d entries", len(entries))
	}
}

func TestHandleVerify_Skipped(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, "none.png", 40, 40, color.White)

	var got verifyResult
	callTool(t, s, "scalebar_verify", map[string]interface{}{"path": src}, &got)
	if got.Skip == nil {
		t.Error("expected a skip for a name without magnification")
	}
}

func TestHandleVerify(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, "ver_40x.png", 1200, 900, color.RGBA{90, 90, 90, 255})

	var rendered renderResult
	callTool(t, s, "scalebar_render", map[string]interface{}{"path": src, "output_dir": t.TempDir()}, &rendered)

	argsJSON, _ := json.Marshal(map[string]interface{}{"path": rendered.OutputPath})
	result, err := s.executeTool("scalebar_verify", argsJSON)
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	got := result.(*verifyResult)
	if got.Result == nil {
		t.Fatal("missing OCR result")
	}
	if got.Result.Want != "20 µm" {
		t.Errorf("Want: got %q", got.Result.Want)
	}
	if got.Result.BoxCoverage < 0.9 {
		t.Errorf("BoxCoverage: got %v, want mostly background", got.Result.BoxCoverage)
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer(t)

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	_, err := s.executeTool("scalebar_resolve", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: json.RawMessage(`"oops"`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_ToolError(t *testing.T) {
	s := newTestServer(t)

	paramsJSON, _ := json.Marshal(map[string]interface{}{"name": "nope"})
	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: paramsJSON})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected -32000, got %+v", resp.Error)
	}
}
