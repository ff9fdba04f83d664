package main

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"universe/models"
	"universe/pkg/datastore"
	"universe/pkg/picture"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var allowedImageExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// formImage reads the "image" part of a multipart upload. It writes the
// JSON error response itself and returns ok=false on failure.
func formImage(c *gin.Context) (*multipart.FileHeader, string, bool) {
	limit := cfg.Upload.MaxBytes
	// room for the multipart framing around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+64*1024)
	file, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "file too large"})
			return nil, "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "image file missing"})
		return nil, "", false
	}
	if file.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "file too large"})
		return nil, "", false
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExt[ext]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "only jpg, png, gif and webp images are accepted"})
		return nil, "", false
	}
	return file, ext, true
}

func currentProfile(c *gin.Context) (*models.Profile, bool) {
	acc, _ := currentAccount(c)
	p, err := db.ProfileByAccount(c.Request.Context(), acc.ID)
	if errors.Is(err, datastore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "profile not found"})
		return nil, false
	}
	if err != nil {
		logger.Error("load profile", zap.String("account_id", acc.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgServerError})
		return nil, false
	}
	return p, true
}

// uploadPictureHandler replaces the profile picture with a square JPEG
// stored under the account id.
func uploadPictureHandler(c *gin.Context) {
	file, _, ok := formImage(c)
	if !ok {
		return
	}
	p, ok := currentProfile(c)
	if !ok {
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not read upload"})
		return
	}
	defer src.Close()
	out, err := picture.Normalize(src, picOpts)
	if errors.Is(err, picture.ErrNotImage) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file is not an image"})
		return
	}
	if err != nil {
		logger.Error("normalize picture", zap.String("profile_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	ctx := c.Request.Context()
	key := "pfp/" + p.AccountID + ".jpg"
	if err := bucket.Put(ctx, key, bytes.NewReader(out), int64(len(out)), "image/jpeg"); err != nil {
		logger.Error("store picture", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	if err := db.SetProfilePicture(ctx, p.ID, key); err != nil {
		logger.Error("set picture path", zap.String("profile_id", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": bucket.URL(key)})
}

// uploadGalleryHandler stores the file unchanged and appends a gallery
// record. The object is removed again if the record cannot be written.
func uploadGalleryHandler(c *gin.Context) {
	file, ext, ok := formImage(c)
	if !ok {
		return
	}
	p, ok := currentProfile(c)
	if !ok {
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not read upload"})
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	img := &models.GalleryImage{
		ID:          models.NewID(),
		ContentType: allowedImageExt[ext],
	}
	img.StorePath = "gallery/" + img.ID + ext
	if err := bucket.Put(ctx, img.StorePath, src, file.Size, img.ContentType); err != nil {
		logger.Error("store gallery image", zap.String("key", img.StorePath), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	if err := db.AddGalleryImage(ctx, p.ID, img); err != nil {
		logger.Error("add gallery image", zap.String("profile_id", p.ID), zap.Error(err))
		if rerr := bucket.Remove(ctx, img.StorePath); rerr != nil {
			logger.Warn("remove orphaned object", zap.String("key", img.StorePath), zap.Error(rerr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func likeImageHandler(c *gin.Context) {
	acc, _ := currentAccount(c)
	p, ok := currentProfile(c)
	if !ok {
		return
	}
	likes, liked, err := db.ToggleLike(c.Request.Context(), p.ID, c.Param("imageId"), acc.ID)
	if errors.Is(err, datastore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	if err != nil {
		logger.Error("toggle like", zap.String("image_id", c.Param("imageId")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes, "liked": liked})
}

func deleteImageHandler(c *gin.Context) {
	p, ok := currentProfile(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	err := db.DeleteGalleryImage(ctx, p.ID, c.Param("imageId"), func(img *models.GalleryImage) error {
		return bucket.Remove(ctx, img.StorePath)
	})
	switch {
	case errors.Is(err, datastore.ErrNotFound):
		c.Status(http.StatusNotFound)
	case err != nil:
		logger.Error("delete image", zap.String("image_id", c.Param("imageId")), zap.Error(err))
		c.Status(http.StatusInternalServerError)
	default:
		c.Status(http.StatusNoContent)
	}
}
