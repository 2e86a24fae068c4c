package resource

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fetcher reads the files a view refers to: its markup, scripts and images.
type Fetcher interface {
	Fetch(name string) ([]byte, error)
	Resolve(name string) string
}

// DirFetcher resolves relative names against a base directory.
type DirFetcher struct {
	base string
}

func NewFetcher(base string) *DirFetcher {
	return &DirFetcher{base: base}
}

func (f *DirFetcher) Base() string { return f.base }

func (f *DirFetcher) Resolve(name string) string {
	if filepath.IsAbs(name) || f.base == "" {
		return name
	}
	return filepath.Join(f.base, name)
}

func (f *DirFetcher) Fetch(name string) ([]byte, error) {
	data, err := os.ReadFile(f.Resolve(name))
	if err != nil {
		return nil, fmt.Errorf("resource: fetch %s: %w", name, err)
	}
	return data, nil
}
