package imagestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// URLPrefix is the route the disk store's files are served from.
const URLPrefix = "/uploads"

type diskStore struct {
	dir     string
	baseURL string
}

// NewDisk builds a Store that writes files under dir. URLs are baseURL + /uploads/<folder>/<file>;
// an empty baseURL yields host-relative URLs.
func NewDisk(dir, baseURL string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &diskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *diskStore) Save(_ context.Context, r io.Reader, folder, name, ext string) (string, error) {
	rel := filepath.Join(filepath.FromSlash(folder), name+ext)
	full := filepath.Join(d.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return d.baseURL + URLPrefix + "/" + filepath.ToSlash(rel), nil
}

func (d *diskStore) Delete(_ context.Context, url string) error {
	_, rel, ok := strings.Cut(url, URLPrefix+"/")
	if !ok || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
