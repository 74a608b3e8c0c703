package calibration

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"golang.org/x/text/cases"
)

// Skip reasons reported for files that cannot be calibrated.
const (
	ReasonNotFound      = "magnification not found"
	ReasonNotInSettings = "magnification not in settings"
)

var (
	// ErrMagnificationNotFound matches a SkipError for a filename with no token.
	ErrMagnificationNotFound = errors.New(ReasonNotFound)

	// ErrMagnificationNotInSettings matches a SkipError for a token that has
	// no calibration entry.
	ErrMagnificationNotInSettings = errors.New(ReasonNotInSettings)
)

// tokenPattern matches 1-3 decimal digits immediately followed by "x". Any
// Unicode decimal digit counts, so fullwidth "４０x" and Arabic-Indic "٤٠x"
// read as 40. The filename is case-folded before matching, so "40X" matches
// too.
var tokenPattern = regexp.MustCompile(`(\p{Nd}{1,3})x`)

// SkipError reports why a file was not given a scale bar. It is recoverable:
// the batch continues with the next file.
type SkipError struct {
	Reason        string
	Magnification int // set for ReasonNotInSettings
}

func (e *SkipError) Error() string {
	if e.Reason == ReasonNotInSettings {
		return fmt.Sprintf("%s: %dx", e.Reason, e.Magnification)
	}
	return e.Reason
}

// Is lets errors.Is match the package sentinels.
func (e *SkipError) Is(target error) bool {
	switch target {
	case ErrMagnificationNotFound:
		return e.Reason == ReasonNotFound
	case ErrMagnificationNotInSettings:
		return e.Reason == ReasonNotInSettings
	}
	return false
}

// Message renders the per-file warning shown to users.
func (e *SkipError) Message(filename string) string {
	if e.Reason == ReasonNotInSettings {
		return fmt.Sprintf("%s: Magnification %dx not in settings.", filename, e.Magnification)
	}
	return fmt.Sprintf("%s: Magnification not found in filename.", filename)
}

// Resolve finds the magnification token in filename and returns its entry.
// It returns a *SkipError when the name has no token or the token is not in
// the table.
//
// When the name holds several tokens the leftmost one wins, so
// "run2x_40x.jpg" resolves as 2x. Use Tokens to detect such names.
func (t *Table) Resolve(filename string) (Entry, error) {
	m := tokenPattern.FindStringSubmatch(fold(filename))
	if m == nil {
		return Entry{}, &SkipError{Reason: ReasonNotFound}
	}

	mag, ok := parseDigits(m[1])
	if !ok {
		return Entry{}, &SkipError{Reason: ReasonNotFound}
	}

	e, ok := t.Lookup(mag)
	if !ok {
		return Entry{}, &SkipError{Reason: ReasonNotInSettings, Magnification: mag}
	}
	return e, nil
}

// Tokens returns every magnification token in filename, leftmost first.
func Tokens(filename string) []int {
	matches := tokenPattern.FindAllStringSubmatch(fold(filename), -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		if v, ok := parseDigits(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// parseDigits returns the value of a run of Unicode decimal digits.
func parseDigits(s string) (int, bool) {
	v := 0
	for _, r := range s {
		d, ok := digitValue(r)
		if !ok {
			return 0, false
		}
		v = v*10 + d
	}
	return v, s != ""
}

// digitValue returns the numeric value of a decimal digit rune. Unicode lays
// out every Nd script as contiguous runs of ten starting at zero, so the
// value is the distance from the start of the run, modulo ten.
func digitValue(r rune) (int, bool) {
	if !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	start := r
	for unicode.Is(unicode.Nd, start-1) {
		start--
	}
	return int(r-start) % 10, true
}
