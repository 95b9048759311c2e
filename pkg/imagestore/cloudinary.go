package imagestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Eager transformation applied on upload: auto quality/format, bounded width.
const imageEager = "q_auto,f_auto,w_1200,c_limit"

var eagerAsyncFalse = false

type cloudinaryStore struct {
	cloudName string
	root      string
	uploader  *uploader.API
}

// NewCloudinary builds a Store backed by Cloudinary. root is prepended to every folder.
func NewCloudinary(cloudName, apiKey, apiSecret, root string) (Store, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &cloudinaryStore{cloudName: cloudName, root: strings.Trim(root, "/"), uploader: up}, nil
}

func (c *cloudinaryStore) Save(ctx context.Context, r io.Reader, folder, name, _ string) (string, error) {
	if c.root != "" {
		folder = c.root + "/" + folder
	}
	result, err := c.uploader.Upload(ctx, r, uploader.UploadParams{
		Folder:     folder,
		PublicID:   name,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	return result.SecureURL, nil
}

func (c *cloudinaryStore) Delete(ctx context.Context, url string) error {
	publicID := PublicIDFromURL(url)
	if publicID == "" {
		return nil
	}
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// PublicIDFromURL extracts the Cloudinary public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/q_auto/v1712/LoyaltyTree/trees/abc.jpg.
// Transformation and version segments are skipped.
func PublicIDFromURL(url string) string {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok {
		return ""
	}
	parts := strings.Split(rest, "/")
	start := 0
	for i, p := range parts {
		if len(p) > 1 && p[0] == 'v' && isDigits(p[1:]) {
			start = i + 1
			break
		}
	}
	if start == 0 {
		// no version segment; drop leading transformation segments
		for start < len(parts)-1 && strings.Contains(parts[start], "_") && strings.Contains(parts[start], ",") {
			start++
		}
	}
	id := strings.Join(parts[start:], "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
