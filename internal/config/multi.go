package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-shellwords"
)

const DefaultLabel = "Default"

var ErrNoConfig = errors.New("no config selected")

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "mangarip")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mangarip")
	}

	// Linux/macOS default
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mangarip")
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func profilePath(label string) string {
	return filepath.Join(ConfigsDir(), label+".yaml")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

// withLock runs fn while holding the config directory lock so that two
// processes never rewrite profiles at the same time.
func withLock(fn func() error) error {
	if err := ensureDirs(); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(ConfigRoot(), ".lock"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", ConfigRoot(), err)
	}
	if !locked {
		return fmt.Errorf("config directory %s is locked by another process", ConfigRoot())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return fn()
}

func writeCurrent(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

func validLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("invalid label %q", label)
	}
	return nil
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	if label == "" {
		return "", ErrNoConfig
	}

	return profilePath(label), nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// Load reads the profile stored under label without merging or validating it.
func Load(label string) (*Config, error) {
	if err := validLabel(label); err != nil {
		return nil, err
	}

	return loadYAML(profilePath(label))
}

func SwitchConfig(label string) error {
	if err := validLabel(label); err != nil {
		return err
	}

	return withLock(func() error {
		if _, err := os.Stat(profilePath(label)); err != nil {
			return fmt.Errorf("config %q does not exist", label)
		}
		return writeCurrent(label)
	})
}

// AddConfig copies the profile at srcPath in under label after checking that
// it parses and validates.
func AddConfig(label, srcPath string) error {
	if err := validLabel(label); err != nil {
		return err
	}

	cfg, err := loadYAML(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}
	normalizeDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", srcPath, err)
	}

	return withLock(func() error {
		dst := profilePath(label)
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("config %q already exists", label)
		}

		raw, err := os.ReadFile(srcPath)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, raw, 0644)
	})
}

func CreateEmptyConfig(label string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}

	path := profilePath(label)
	err := withLock(func() error {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %q already exists", label)
		}
		return SaveYAML(DefaultConfig(), path)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	if err := validLabel(newLabel); err != nil {
		return err
	}

	return withLock(func() error {
		oldPath, newPath := profilePath(oldLabel), profilePath(newLabel)

		if _, err := os.Stat(oldPath); err != nil {
			return fmt.Errorf("config %q does not exist", oldLabel)
		}
		if _, err := os.Stat(newPath); err == nil {
			return fmt.Errorf("config %q already exists", newLabel)
		}

		if err := os.Rename(oldPath, newPath); err != nil {
			return err
		}

		if active, _ := CurrentLabel(); active == oldLabel {
			return writeCurrent(newLabel)
		}
		return nil
	})
}

// RemoveConfig deletes a profile. Removing the active one switches back to
// the Default profile, reported by the returned bool.
func RemoveConfig(label string) (bool, error) {
	if err := validLabel(label); err != nil {
		return false, err
	}
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}

	fellBack := false
	err := withLock(func() error {
		path := profilePath(label)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config %q does not exist", label)
		}

		if active, _ := CurrentLabel(); active == label {
			if _, err := os.Stat(profilePath(DefaultLabel)); err != nil {
				return fmt.Errorf("failed switching to %s: %w", DefaultLabel, err)
			}
			if err := writeCurrent(DefaultLabel); err != nil {
				return fmt.Errorf("failed switching to %s: %w", DefaultLabel, err)
			}
			fellBack = true
		}

		return os.Remove(path)
	})

	return fellBack, err
}

// InitDefaultConfig writes the Default profile and makes it active. When the
// profile already exists it is only activated and os.ErrExist is returned.
func InitDefaultConfig() (string, error) {
	defPath := profilePath(DefaultLabel)

	err := withLock(func() error {
		if _, err := os.Stat(defPath); err == nil {
			_ = writeCurrent(DefaultLabel)
			return os.ErrExist
		}

		if err := SaveYAML(DefaultConfig(), defPath); err != nil {
			return err
		}
		return writeCurrent(DefaultLabel)
	})
	if err != nil && !errors.Is(err, os.ErrExist) {
		return "", err
	}

	return defPath, err
}

// ResetConfig overwrites the profile under label with the defaults.
func ResetConfig(label string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}

	path := profilePath(label)
	err := withLock(func() error {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config %q does not exist", label)
		}
		return SaveYAML(DefaultConfig(), path)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// EditorCommand returns the argv that opens path in the user's editor,
// honoring quoted arguments in $VISUAL or $EDITOR.
func EditorCommand(path string) ([]string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
		if runtime.GOOS == "windows" {
			editor = "notepad"
		}
	}

	args, err := shellwords.Parse(editor)
	if err != nil {
		return nil, fmt.Errorf("parse editor %q: %w", editor, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty editor command")
	}

	return append(args, path), nil
}
