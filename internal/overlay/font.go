package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Font defaults.
const (
	DefaultFontPath = "arial.ttf"
	DefaultFontSize = 75.0
)

// FontOptions selects the label font.
type FontOptions struct {
	// Path is a font file, or a bare file name looked up in Dirs and the
	// system font directories. Empty means DefaultFontPath.
	Path string

	// Size is the em size in pixels. Zero means DefaultFontSize.
	Size float64

	// Dirs are searched before the system font directories.
	Dirs []string
}

// Font is a loaded label face.
//
// Degraded is set when the preferred font could not be used and the built-in
// Go Regular face was substituted; Reason says why. Degradation is not an
// error: labels still render, only with a different typeface.
type Font struct {
	Face     font.Face
	Source   string
	Degraded bool
	Reason   string
}

// LoadFont acquires the label face in two steps: the preferred font file, then
// the embedded Go Regular font at the same size. It never fails; if even the
// embedded font cannot be parsed the fixed 7x13 bitmap face is returned.
func LoadFont(opts FontOptions) *Font {
	name := opts.Path
	if name == "" {
		name = DefaultFontPath
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultFontSize
	}

	face, source, err := loadPreferred(name, size, opts.Dirs)
	if err == nil {
		return &Font{Face: face, Source: source}
	}
	reason := err.Error()

	face, err = newFace(goregular.TTF, size)
	if err == nil {
		return &Font{Face: face, Source: "goregular (built-in)", Degraded: true, Reason: reason}
	}

	return &Font{
		Face:     basicfont.Face7x13,
		Source:   "basicfont 7x13 (built-in)",
		Degraded: true,
		Reason:   fmt.Sprintf("%s; built-in font: %v", reason, err),
	}
}

func loadPreferred(name string, size float64, dirs []string) (font.Face, string, error) {
	path, err := findFont(name, dirs)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read font: %w", err)
	}
	face, err := newFace(data, size)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return face, path, nil
}

func newFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		// .ttc files hold several faces; take the first.
		coll, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, err
		}
		var ferr error
		if f, ferr = firstFont(coll); ferr != nil {
			return nil, ferr
		}
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func firstFont(coll *opentype.Collection) (*sfnt.Font, error) {
	if coll.NumFonts() == 0 {
		return nil, errors.New("empty font collection")
	}
	return coll.Font(0)
}

var errFontNotFound = errors.New("font not found")

// findFont resolves name as a path first, then by case-insensitive file name
// under dirs and the platform font directories.
func findFont(name string, dirs []string) (string, error) {
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return name, nil
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %s", errFontNotFound, name)
	}

	search := append(append([]string{}, dirs...), systemFontDirs()...)
	for _, dir := range search {
		if found := walkFor(dir, name); found != "" {
			return found, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errFontNotFound, name)
}

func walkFor(dir, name string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fs.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), name) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		dirs := []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Fonts"),
			"/Library/Fonts",
			"/System/Library/Fonts",
		}
	default:
		return []string{
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
			"/usr/local/share/fonts",
			"/usr/share/fonts",
		}
	}
}
