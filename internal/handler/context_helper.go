package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sekolah-records-api/internal/dto"
	"github.com/noah-isme/sekolah-records-api/internal/middleware"
	"github.com/noah-isme/sekolah-records-api/internal/models"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
	"github.com/noah-isme/sekolah-records-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// listQuery reads keyword, page and limit. Malformed numbers fall back to
// the repository defaults.
func listQuery(c *gin.Context) (keyword string, page, size int) {
	keyword = strings.TrimSpace(c.Query("keyword"))
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return keyword, page, size
}

// bindRecord binds a JSON body or a (multipart) form into dest according to
// the request content type.
func bindRecord(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBind(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

// photoFromRequest opens the optional "photo" part of a multipart request.
// The returned release func is always safe to call.
func photoFromRequest(c *gin.Context) (*service.PhotoUpload, func(), error) {
	release := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, release, nil
	}
	header, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, release, nil
	}
	if err != nil {
		return nil, release, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload")
	}
	if header.Filename == "" {
		return nil, release, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, release, appErrors.Internal(err, "failed to read photo upload")
	}
	return &service.PhotoUpload{Filename: header.Filename, Size: header.Size, Content: file}, func() { _ = file.Close() }, nil
}

func sendFile(c *gin.Context, file *dto.ExportFile) {
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func sendPhoto(c *gin.Context, photo *service.PhotoDownload) {
	defer photo.File.Close()
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, photo.SizeBytes, photo.MimeType, photo.File, map[string]string{
		"Content-Disposition": "inline; filename=\"" + photo.Filename + "\"",
	})
}
