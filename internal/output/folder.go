package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FolderPackager copies the staged pages as they are into the destination.
type FolderPackager struct{}

func (FolderPackager) CreateOutput(stagingFolder, destinationFolder string) error {
	files, err := stagedFiles(stagingFolder)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destinationFolder, 0755); err != nil {
		return fmt.Errorf("folder: %w", err)
	}

	for _, f := range files {
		if err := copyFile(f, filepath.Join(destinationFolder, filepath.Base(f))); err != nil {
			return fmt.Errorf("folder: %w", err)
		}
	}

	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
