package prompt

import (
	"io/fs"
	"path/filepath"
)

// Option configures the Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver used by the filler.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithFileSystem resolves upload paths inside fsys instead of the local
// disk.
func WithFileSystem(fsys fs.FS) Option {
	return func(f *Filler) {
		if fsys != nil {
			f.readFile = func(name string) ([]byte, error) {
				return fs.ReadFile(fsys, filepath.ToSlash(filepath.Clean(name)))
			}
		}
	}
}

// WithMaxAttempts limits how often a field is asked again after an invalid
// answer.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}
