// Package imagestore persists uploaded images (tree proofs, voucher artwork)
// and hands back a URL the browser client can load.
package imagestore

import (
	"context"
	"io"
	"path"
	"strings"
)

// Store saves an image under folder/name and returns its public URL.
type Store interface {
	Save(ctx context.Context, r io.Reader, folder, name, ext string) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// AllowedExt reports whether filename ends in one of exts (case-insensitive)
// and returns the normalised extension.
func AllowedExt(filename string, exts []string) (string, bool) {
	ext := strings.ToLower(path.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return ext, true
		}
	}
	return "", false
}
