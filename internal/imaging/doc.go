// Package imaging provides image buffer I/O and small pixel utilities for the
// scale-bar pipeline.
//
// Images are decoded into *image.RGBA buffers that the caller owns and may
// mutate in place. Each call to Decode or Load allocates a new buffer; nothing
// is cached, so a buffer lives exactly as long as the caller keeps it.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left), Max is exclusive (bottom-right)
//
// # Formats
//
// Decoding recognises JPEG, PNG, TIFF, BMP and GIF by content and applies EXIF
// orientation. Encoding picks the format from the output file name's
// extension. Accepted upload extensions are listed by SupportedExtensions.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during loading or saving
//   - Undecodable image data
//   - Output names with an unknown extension
//   - Crop regions that do not overlap the image
package imaging
