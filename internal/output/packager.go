// Package output turns a completed staging folder into the artifacts the
// user asked for. Packagers only read the staging folder and may run one
// after another against the same one.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Kind int

const (
	Folder Kind = iota
	Archive
	PlainSequence
)

func (k Kind) String() string {
	switch k {
	case Folder:
		return "folder"
	case Archive:
		return "cbz"
	case PlainSequence:
		return "plain"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names used in flags and config files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "folder", "dir":
		return Folder, nil
	case "cbz", "archive", "zip":
		return Archive, nil
	case "plain", "sequence":
		return PlainSequence, nil
	}

	return 0, fmt.Errorf("unknown output format %q (want folder, cbz or plain)", s)
}

type Packager interface {
	CreateOutput(stagingFolder, destinationFolder string) error
}

// Factory hands out the built-in packager for each Kind.
type Factory struct{}

func (Factory) Packager(k Kind) (Packager, error) {
	switch k {
	case Folder:
		return FolderPackager{}, nil
	case Archive:
		return CBZPackager{}, nil
	case PlainSequence:
		return PlainPackager{}, nil
	}

	return nil, fmt.Errorf("no packager for %s", k)
}

// stagedFiles lists the regular files of dir in lexical order, which is page
// order when counter naming was used.
func stagedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), ".part") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("staging folder %s has no pages", dir)
	}

	return files, nil
}
