// Package batch applies scale bars to a set of microscope images and bundles
// the results into a zip archive.
//
// Images are handled strictly one at a time, in input order: resolve the
// magnification from the file name, decode, draw, save, release. Files that
// cannot be calibrated produce a Diagnostic and are skipped; I/O and decode
// failures end the run with an error.
package batch
