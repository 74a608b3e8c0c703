package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ironsheep/scalebar-mcp/internal/calibration"
	"github.com/ironsheep/scalebar-mcp/internal/imaging"
	"github.com/ironsheep/scalebar-mcp/internal/overlay"
	"github.com/ironsheep/scalebar-mcp/internal/verify"
)

// Diagnostic reasons that are not calibration skips.
const (
	ReasonUnsupportedFormat = "unsupported image format"
	ReasonVerifyFailed      = "label verification failed"
)

// Input is one image to process. Name is the original file name; only its
// base is used for the output.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileInput returns an Input reading the file at path.
func FileInput(path string) Input {
	return Input{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Diagnostic is a per-file warning. The batch continues past it.
type Diagnostic struct {
	File    string `json:"file"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ProcessedFile describes one written output.
type ProcessedFile struct {
	Name          string           `json:"name"`
	Path          string           `json:"path"`
	Magnification int              `json:"magnification"`
	Geometry      overlay.Geometry `json:"geometry"`
	Verification  *verify.Result   `json:"verification,omitempty"`
}

// Result summarises a batch run.
type Result struct {
	StagingDir   string          `json:"staging_dir"`
	ArchivePath  string          `json:"archive_path"`
	Processed    []ProcessedFile `json:"processed"`
	Diagnostics  []Diagnostic    `json:"diagnostics"`
	FontDegraded bool            `json:"font_degraded"`
}

// Options configures a Processor.
type Options struct {
	// OutputDir receives processed images. Empty means a new temporary
	// directory "<tmp>/scalebar-*/processed".
	OutputDir string

	// ArchiveName is the zip file written inside OutputDir, or next to the
	// temporary staging directory when OutputDir is empty.
	ArchiveName string

	// Encode controls output encoding.
	Encode imaging.EncodeOptions

	// Verify reads each label back with OCR after rendering.
	Verify bool

	// VerifyLanguage is the Tesseract language for Verify.
	VerifyLanguage string

	// Logger receives per-file progress. Nil means log.Default().
	Logger *log.Logger
}

// Processor runs batches one image at a time.
type Processor struct {
	table      *calibration.Table
	compositor *overlay.Compositor
	opts       Options
	logger     *log.Logger
}

// New returns a Processor that resolves with table and draws with c.
func New(table *calibration.Table, c *overlay.Compositor, opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = "processed_images.zip"
	}
	return &Processor{table: table, compositor: c, opts: opts, logger: logger}
}

// Run processes inputs in order and zips the results.
//
// Files without a usable magnification or with an unsupported extension are
// reported as diagnostics and skipped. Decode, encode and write failures abort
// the run. ctx is checked between images.
func (p *Processor) Run(ctx context.Context, inputs []Input) (*Result, error) {
	stagingDir, err := p.stagingDir()
	if err != nil {
		return nil, err
	}

	result := &Result{
		StagingDir:   stagingDir,
		Processed:    []ProcessedFile{},
		Diagnostics:  []Diagnostic{},
		FontDegraded: p.compositor.Font().Degraded,
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(in.Name)
		pf, diag, err := p.processOne(name, in, stagingDir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if diag != nil {
			p.logger.Print(diag.Message)
			result.Diagnostics = append(result.Diagnostics, *diag)
		}
		if pf != nil {
			p.logger.Printf("processed %s (%dx, bar %d px)", name, pf.Magnification, pf.Geometry.ScaleLengthPx)
			result.Processed = append(result.Processed, *pf)
		}
	}

	archivePath := p.archivePath(stagingDir)
	if err := WriteArchive(archivePath, outputPaths(result.Processed, archivePath)); err != nil {
		return nil, err
	}
	result.ArchivePath = archivePath

	return result, nil
}

// processOne handles a single input. It returns a diagnostic for skipped
// files, and may return both a processed file and a diagnostic when the
// verification pass disagrees.
func (p *Processor) processOne(name string, in Input, stagingDir string) (*ProcessedFile, *Diagnostic, error) {
	entry, err := p.table.Resolve(name)
	if err != nil {
		var skip *calibration.SkipError
		if errors.As(err, &skip) {
			return nil, &Diagnostic{File: name, Reason: skip.Reason, Message: skip.Message(name)}, nil
		}
		return nil, nil, err
	}

	if !imaging.SupportedExtension(name) {
		return nil, &Diagnostic{
			File:    name,
			Reason:  ReasonUnsupportedFormat,
			Message: fmt.Sprintf("%s: Unsupported image format.", name),
		}, nil
	}

	rc, err := in.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	img, err := imaging.Decode(rc)
	rc.Close()
	if err != nil {
		return nil, nil, err
	}

	geom := p.compositor.Render(img, entry)

	outPath := filepath.Join(stagingDir, name)
	if err := imaging.Save(img, outPath, p.opts.Encode); err != nil {
		return nil, nil, err
	}

	pf := &ProcessedFile{
		Name:          name,
		Path:          outPath,
		Magnification: entry.Magnification,
		Geometry:      geom,
	}

	if !p.opts.Verify {
		return pf, nil, nil
	}

	res, err := verify.Label(img, geom, verify.Options{
		Language:   p.opts.VerifyLanguage,
		Background: p.compositor.Style().Box,
	})
	if err != nil {
		return pf, &Diagnostic{
			File:    name,
			Reason:  ReasonVerifyFailed,
			Message: fmt.Sprintf("%s: Label verification failed: %v.", name, err),
		}, nil
	}
	pf.Verification = res
	if !res.Match {
		return pf, &Diagnostic{
			File:    name,
			Reason:  ReasonVerifyFailed,
			Message: fmt.Sprintf("%s: Label reads %q, expected %q.", name, res.Text, res.Want),
		}, nil
	}
	return pf, nil, nil
}

// outputPaths lists each written file once, in first-written order. A later
// input with the same name has already overwritten the earlier output. The
// archive itself is never listed.
func outputPaths(files []ProcessedFile, archivePath string) []string {
	seen := map[string]bool{filepath.Clean(archivePath): true}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if seen[filepath.Clean(f.Path)] {
			continue
		}
		seen[filepath.Clean(f.Path)] = true
		paths = append(paths, f.Path)
	}
	return paths
}

// archivePath keeps the archive inside a caller-chosen OutputDir. A temporary
// staging dir only ever holds images, so the archive goes beside it.
func (p *Processor) archivePath(stagingDir string) string {
	if p.opts.OutputDir != "" {
		return filepath.Join(stagingDir, p.opts.ArchiveName)
	}
	return filepath.Join(filepath.Dir(stagingDir), p.opts.ArchiveName)
}

func (p *Processor) stagingDir() (string, error) {
	if p.opts.OutputDir != "" {
		if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
		return p.opts.OutputDir, nil
	}

	tmp, err := os.MkdirTemp("", "scalebar-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	dir := filepath.Join(tmp, "processed")
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	return dir, nil
}
