package main

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxPublicUploadSize = 5 << 20  // complaint attachments
	maxStaffUploadSize  = 10 << 20 // IOM and decision files
	thumbnailWidth      = 300
)

var (
	publicAttachmentTypes = map[string]bool{
		"image/png":       true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"application/pdf": true,
	}
	iomAttachmentTypes = map[string]bool{
		"image/png":       true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"application/pdf": true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	}
	decisionFileTypes = map[string]bool{
		"application/pdf":    true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	}
)

// validateUpload checks the declared content type and size against the
// allow-list for the endpoint.
func validateUpload(fh *multipart.FileHeader, maxSize int64, allowed map[string]bool) error {
	if fh.Size > maxSize {
		return fmt.Errorf("file %s too large (max %dMB)", fh.Filename, maxSize>>20)
	}
	ct := fh.Header.Get("Content-Type")
	if !allowed[ct] {
		return fmt.Errorf("invalid file type %q for %s", ct, fh.Filename)
	}
	return nil
}

// saveUpload stores the file under an opaque uuid name and returns its
// public serving path. Client-supplied names never reach the filesystem.
func saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
	full := filepath.Join(uploadBaseDir(), name)
	if err := c.SaveUploadedFile(fh, full); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

// thumbnailFor renders a small JPEG preview next to an image upload.
// Best effort: any failure is logged and the attachment simply has no
// thumbnail.
func thumbnailFor(publicPath, contentType string) string {
	if !strings.HasPrefix(contentType, "image/") {
		return ""
	}
	name := strings.TrimPrefix(publicPath, "/uploads/")
	src := filepath.Join(uploadBaseDir(), name)
	img, err := imaging.Open(src)
	if err != nil {
		logger.Warnf("thumbnail: cannot open %s: %v", src, err)
		return ""
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	thumbName := name + ".thumb.jpg"
	if err := imaging.Save(thumb, filepath.Join(uploadBaseDir(), thumbName)); err != nil {
		logger.Warnf("thumbnail: cannot save for %s: %v", src, err)
		return ""
	}
	return "/uploads/" + thumbName
}
