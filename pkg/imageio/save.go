package imageio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// Save writes the framebuffer to path, choosing the format from the file name.
// Parent directories are created and the file is replaced atomically.
func Save(path string, fb *renderer.Framebuffer) (err error) {
	format, err := ParseFormat(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, fb, format); err != nil {
		return fmt.Errorf("encode %s as %s: %w", path, format, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}
