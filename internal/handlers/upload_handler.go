package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minhtran-dev/shop-backend/internal/drive"
)

const (
	// maxUploadBytes caps the whole multipart body at 10 MiB.
	maxUploadBytes = 10 << 20
	// uploadField is the multipart field name carrying the image.
	uploadField = "image"

	driveNotConfiguredMsg = "Google Drive client is not configured. Set GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN."
)

// UploadConfig groups dependencies for the upload routes.
type UploadConfig struct {
	Uploader *drive.Uploader // nil when Drive credentials are not configured
}

type uploadHandler struct {
	cfg UploadConfig
}

// RegisterUploadRoutes registers the /api/upload endpoints.
func RegisterUploadRoutes(r *gin.Engine, cfg UploadConfig) {
	h := &uploadHandler{cfg: cfg}

	g := r.Group("/api/upload")
	g.POST("/image", h.image)
	g.POST("/transaction-image", h.transactionImage)
}

// imagePart enforces the size ceiling, pulls the image field out of the
// multipart body and checks its declared MIME type. On failure the
// response has already been written and ok is false.
func (h *uploadHandler) imagePart(c *gin.Context) (multipart.File, *multipart.FileHeader, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Uploaded file exceeds the 10 MiB limit")
			return nil, nil, "", false
		}
		respondError(c, http.StatusBadRequest, "Không có file được upload")
		return nil, nil, "", false
	}

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		file.Close()
		respondError(c, http.StatusBadRequest, "Chỉ cho phép upload file ảnh")
		return nil, nil, "", false
	}
	return file, header, mimeType, true
}

// POST /api/upload/image
func (h *uploadHandler) image(c *gin.Context) {
	file, header, mimeType, ok := h.imagePart(c)
	if !ok {
		return
	}
	defer file.Close()

	if h.cfg.Uploader == nil {
		respondError(c, http.StatusInternalServerError, driveNotConfiguredMsg)
		return
	}

	url, err := h.cfg.Uploader.UploadImage(c.Request.Context(), file, header.Filename, mimeType)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Lỗi upload ảnh: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": url,
		"message":  "Upload ảnh thành công",
	})
}

// POST /api/upload/transaction-image
func (h *uploadHandler) transactionImage(c *gin.Context) {
	file, _, mimeType, ok := h.imagePart(c)
	if !ok {
		return
	}
	defer file.Close()

	if h.cfg.Uploader == nil {
		respondError(c, http.StatusInternalServerError, driveNotConfiguredMsg)
		return
	}

	dateTag := c.PostForm("date")
	imageNumber := c.PostForm("imageNumber")

	url, path, err := h.cfg.Uploader.UploadTransactionImage(c.Request.Context(), file, mimeType, dateTag, imageNumber)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Lỗi upload ảnh: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": url,
		"fileName": path,
		"message":  "Upload ảnh thành công",
	})
}
