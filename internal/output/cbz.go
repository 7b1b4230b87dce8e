package output

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CBZPackager zips the staged pages into <destination>/<name>.cbz, where
// name is the destination folder's base name.
type CBZPackager struct{}

func (CBZPackager) CreateOutput(stagingFolder, destinationFolder string) error {
	files, err := stagedFiles(stagingFolder)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destinationFolder, 0755); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	target := filepath.Join(destinationFolder, filepath.Base(filepath.Clean(destinationFolder))+".cbz")
	part := target + ".part"

	if err := writeCBZ(files, part); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("cbz: %w", err)
	}

	if err := os.Rename(part, target); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("cbz: %w", err)
	}

	return nil
}

func writeCBZ(files []string, output string) (err error) {
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	z := zip.NewWriter(out)
	for _, file := range files {
		if err := addFileToZip(z, file); err != nil {
			_ = z.Close()
			return err
		}
	}

	return z.Close()
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(file)
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
