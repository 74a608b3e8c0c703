// Package calibration maps microscope filenames to scale-bar calibration
// constants.
//
// A filename carries its objective as a token of one to three digits followed
// by "x" (matched case-insensitively), e.g. "quartzite_A3_40x.tif". Digits from
// any script count, so "muestra_٤٠x.jpg" is a 40x image too. The token
// value selects an Entry from a Table, which gives the millimeters covered by
// one pixel and the length of the scale bar to draw.
//
// Tables are immutable once built. Default returns the lab's reference set;
// NewTable builds a custom one, which is how tests and configuration files
// substitute their own calibrations.
package calibration
