// Package verify reads rendered scale-bar labels back with Tesseract OCR.
//
// Verification is a quality check on finished outputs: it crops the label
// rectangle recorded in an overlay.Geometry, runs single-line OCR restricted
// to the characters a label can contain, and compares the result with the
// label that was drawn. It also measures how much of the box background kept
// the expected color, which catches heavy JPEG recompression.
//
// # Prerequisites
//
// The package links against libtesseract through gosseract, so Tesseract and
// its language data must be installed:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
package verify
