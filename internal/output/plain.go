package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// PlainPackager writes the pages into the destination renamed 001.ext,
// 002.ext, ... in staging order, whatever names they were staged under.
type PlainPackager struct{}

func (PlainPackager) CreateOutput(stagingFolder, destinationFolder string) error {
	files, err := stagedFiles(stagingFolder)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destinationFolder, 0755); err != nil {
		return fmt.Errorf("plain: %w", err)
	}

	width := max(3, len(fmt.Sprint(len(files))))
	for i, f := range files {
		name := fmt.Sprintf("%0*d%s", width, i+1, filepath.Ext(f))
		if err := copyFile(f, filepath.Join(destinationFolder, name)); err != nil {
			return fmt.Errorf("plain: %w", err)
		}
	}

	return nil
}
