// Package env loads .env files into the process environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

func LoadFromDir(dir string) error {
	return Load(filepath.Join(dir, ".env"))
}

// Load applies the variables in path without replacing ones already set.
// A missing file is not an error.
func Load(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
