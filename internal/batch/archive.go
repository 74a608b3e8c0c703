package batch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteArchive creates a zip at archivePath holding each file in paths,
// stored flat under its base name. An empty paths list yields an empty,
// valid archive.
func WriteArchive(archivePath string, paths []string) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, path := range paths {
		if err := addFile(zw, path); err != nil {
			zw.Close()
			f.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for archive: %w", path, err)
	}
	defer src.Close()

	stat, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	hdr, err := zip.FileInfoHeader(stat)
	if err != nil {
		return fmt.Errorf("failed to build archive header for %s: %w", path, err)
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", hdr.Name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", hdr.Name, err)
	}
	return nil
}
