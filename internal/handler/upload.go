package handler

import (
	"log"
	"net/http"
	"strings"

	"loyaltytree/internal/domain"
	"loyaltytree/pkg/imagestore"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ImageUploader validates a multipart image and hands it to the store.
type ImageUploader struct {
	store    imagestore.Store
	maxBytes int64
}

func NewImageUploader(store imagestore.Store, maxBytes int64) ImageUploader {
	return ImageUploader{store: store, maxBytes: maxBytes}
}

// save stores the file in field under folder. ok is false when the request carries no such file.
func (u ImageUploader) save(c *gin.Context, field, folder string) (url string, ok bool, err error) {
	file, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return "", false, nil
		}
		return "", false, errImageRequired
	}
	if u.maxBytes > 0 && file.Size > u.maxBytes {
		return "", true, errImageTooLarge
	}
	ext, allowed := imagestore.AllowedExt(file.Filename, domain.ImageExtensions)
	if !allowed {
		return "", true, errImageType
	}
	f, err := file.Open()
	if err != nil {
		return "", true, err
	}
	defer f.Close()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	url, err = u.store.Save(c.Request.Context(), f, folder, name, ext)
	if err != nil {
		return "", true, err
	}
	return url, true, nil
}

// discard removes an image saved earlier in a request that then failed.
func (u ImageUploader) discard(c *gin.Context, tag, url string) {
	if url == "" {
		return
	}
	if err := u.store.Delete(c.Request.Context(), url); err != nil {
		log.Printf("[%s] remove orphaned image %s: %v", tag, url, err)
	}
}
