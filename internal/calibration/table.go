package calibration

import (
	"fmt"
	"sort"
)

// Entry holds the calibration constants for one microscope objective.
type Entry struct {
	// Magnification is the integer value of the filename token that selects
	// this entry (the digits before the "x").
	Magnification int `json:"magnification" yaml:"magnification"`

	// Nominal is the objective's marked magnification, used for display only.
	// Zero means "same as Magnification".
	Nominal float64 `json:"nominal" yaml:"nominal"`

	// MMPerPixel is the physical distance in millimeters covered by one pixel.
	MMPerPixel float64 `json:"mm_per_pixel" yaml:"mm_per_pixel"`

	// ScaleLengthUM is the physical length in micrometers the bar represents.
	ScaleLengthUM float64 `json:"scale_length_um" yaml:"scale_length_um"`
}

// NominalMagnification returns Nominal, or Magnification when Nominal is unset.
func (e Entry) NominalMagnification() float64 {
	if e.Nominal > 0 {
		return e.Nominal
	}
	return float64(e.Magnification)
}

// ScaleLengthPx converts the entry's scale length to whole pixels, truncating.
func (e Entry) ScaleLengthPx() int {
	scaleLengthMM := e.ScaleLengthUM / 1000.0
	return int(scaleLengthMM / e.MMPerPixel)
}

func (e Entry) validate() error {
	if e.Magnification <= 0 || e.Magnification > 999 {
		return fmt.Errorf("magnification %d outside token range 1-999", e.Magnification)
	}
	if !(e.MMPerPixel > 0) {
		return fmt.Errorf("magnification %dx: mm_per_pixel must be > 0, got %v", e.Magnification, e.MMPerPixel)
	}
	if !(e.ScaleLengthUM > 0) {
		return fmt.Errorf("magnification %dx: scale_length_um must be > 0, got %v", e.Magnification, e.ScaleLengthUM)
	}
	return nil
}

// Table is an immutable magnification lookup. The zero value is an empty
// table; build one with NewTable or Default.
type Table struct {
	entries map[int]Entry
}

// NewTable validates entries and returns a table keyed by Magnification.
// Duplicate magnifications are rejected.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{entries: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.entries[e.Magnification]; dup {
			return nil, fmt.Errorf("duplicate calibration for magnification %dx", e.Magnification)
		}
		t.entries[e.Magnification] = e
	}
	return t, nil
}

// DefaultEntries returns the lab's reference calibration set.
//
// The 2.5x objective is keyed by token 25, so "sample_25x.jpg" selects it.
func DefaultEntries() []Entry {
	return []Entry{
		{Magnification: 25, Nominal: 2.5, MMPerPixel: 0.001245, ScaleLengthUM: 200},
		{Magnification: 10, Nominal: 10, MMPerPixel: 0.0003215, ScaleLengthUM: 100},
		{Magnification: 20, Nominal: 20, MMPerPixel: 0.0001608, ScaleLengthUM: 50},
		{Magnification: 40, Nominal: 40, MMPerPixel: 0.00008051, ScaleLengthUM: 20},
	}
}

// Default returns a table built from DefaultEntries.
func Default() *Table {
	t, err := NewTable(DefaultEntries()...)
	if err != nil {
		panic(fmt.Sprintf("calibration: invalid default table: %v", err))
	}
	return t
}

// Lookup returns the entry for a magnification token value.
func (t *Table) Lookup(magnification int) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[magnification]
	return e, ok
}

// Entries returns all entries sorted by nominal magnification.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NominalMagnification() < out[j].NominalMagnification()
	})
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
