package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeBundle zips the given files into dst, storing each under its base
// name. Absent files are skipped; an empty selection is an error. The archive
// is written to a temp path and renamed on success.
func writeBundle(dst string, files []string) error {
	tmpPath := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("bundle: create temp archive: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	zw := zip.NewWriter(tmp)
	added := 0
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := addToBundle(zw, file); err != nil {
			return err
		}
		added++
	}
	if added == 0 {
		zw.Close()
		return fmt.Errorf("bundle: no artifacts to package")
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("bundle: finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("bundle: close temp archive: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("bundle: replace archive: %w", err)
	}
	return nil
}

func addToBundle(zw *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("bundle: open %s: %w", file, err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(file))
	if err != nil {
		return fmt.Errorf("bundle: add %s: %w", file, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("bundle: write %s: %w", file, err)
	}
	return nil
}
