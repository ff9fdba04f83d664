package main

import (
	"errors"
	"net/http"
	"strings"

	"universe/models"
	"universe/pkg/datastore"
	"universe/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgServerError = "Something went wrong. Please try again."

func newRouter() (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	r.MaxMultipartMemory = cfg.Upload.MaxBytes
	r.LoadHTMLGlob(cfg.Server.Templates)
	if l, ok := bucket.(*storage.Local); ok {
		r.Static(l.URLPrefix, l.Dir)
	}
	setupRoutes(r)
	return r, nil
}

func setupRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/terms_and_conditions", func(c *gin.Context) { c.HTML(http.StatusOK, "terms.html", nil) })

	app := r.Group("", sessionMiddleware())

	guest := app.Group("", requireGuest())
	guest.GET("/", signupPageHandler)
	guest.POST("/", signupHandler)
	guest.GET("/sign_in", signInPageHandler)
	guest.POST("/sign_in", signInHandler)
	guest.GET("/recover_pin", recoverPageHandler)
	guest.POST("/recover_pin", recoverPINHandler)
	guest.POST("/recover-pin", recoverPINHandler)
	guest.GET("/reset_pin", resetPageHandler)
	guest.POST("/reset_pin", resetPINHandler)

	// the verification pages depend on the staged signup, not on auth
	app.GET("/verify_email", verifyPageHandler)
	app.POST("/verify_email", verifyEmailHandler)
	app.POST("/resend-otp", resendOTPHandler)

	auth := app.Group("", requireAuth())
	auth.GET("/logout", logoutHandler)

	noProfile := auth.Group("", requireNoProfile())
	noProfile.GET("/Profile_create", profileCreatePageHandler)
	noProfile.POST("/create-profile", createProfileHandler)

	withProfile := auth.Group("", requireProfile())
	withProfile.GET("/dashboard", dashboardHandler)
	withProfile.POST("/upload-pfp", uploadPictureHandler)
	withProfile.POST("/upload/gallery", uploadGalleryHandler)
	withProfile.POST("/like-image/:imageId", likeImageHandler)
	withProfile.DELETE("/delete-image/:imageId", deleteImageHandler)
}

func renderSignup(c *gin.Context, status int, msg string) {
	c.HTML(status, "index.html", gin.H{"error": msg})
}

func renderSignIn(c *gin.Context, status int, errMsg, success string) {
	c.HTML(status, "sign_in.html", gin.H{"error": errMsg, "success": success})
}

func signupPageHandler(c *gin.Context) {
	renderSignup(c, http.StatusOK, "")
}

func signInPageHandler(c *gin.Context) {
	renderSignIn(c, http.StatusOK, "", "")
}

func signInHandler(c *gin.Context) {
	var req struct {
		Email string `form:"email" json:"email" binding:"required"`
		PIN   string `form:"pin" json:"pin" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		renderSignIn(c, http.StatusBadRequest, errInvalidCredentials.Error(), "")
		return
	}
	acc, err := Authenticate(c.Request.Context(), req.Email, req.PIN)
	switch {
	case errors.Is(err, errInvalidCredentials):
		renderSignIn(c, http.StatusUnauthorized, "Invalid email or PIN", "")
		return
	case errors.Is(err, errNotVerified):
		renderSignIn(c, http.StatusForbidden, "Please verify your email before signing in", "")
		return
	case err != nil:
		logger.Error("sign in", zap.Error(err))
		renderSignIn(c, http.StatusInternalServerError, msgServerError, "")
		return
	}
	s := rotateSession(c)
	s.AccountID = acc.ID
	if err := saveSession(c, s); err != nil {
		logger.Error("save session", zap.Error(err))
		renderSignIn(c, http.StatusInternalServerError, msgServerError, "")
		return
	}
	if acc.ProfileCreated {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/Profile_create")
}

func logoutHandler(c *gin.Context) {
	if err := destroySession(c); err != nil {
		logger.Warn("destroy session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/sign_in")
}

func profileCreatePageHandler(c *gin.Context) {
	acc, _ := currentAccount(c)
	c.HTML(http.StatusOK, "profile_create.html", gin.H{"account": acc})
}

// createProfileHandler accepts the form post or the JSON body sent by the
// step-by-step profile wizard.
func createProfileHandler(c *gin.Context) {
	acc, _ := currentAccount(c)
	var req struct {
		Name   string `form:"name" json:"name" binding:"max=255"`
		Gender string `form:"gender" json:"gender" binding:"max=32"`
		Bio    string `form:"bio" json:"bio" binding:"max=1024"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "profile_create.html", gin.H{"account": acc, "error": "Please check your profile details"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = acc.Name
	}
	p := &models.Profile{
		AccountID: acc.ID,
		Name:      name,
		Gender:    strings.TrimSpace(req.Gender),
		Bio:       strings.TrimSpace(req.Bio),
	}
	err := db.CreateProfile(c.Request.Context(), p)
	if err != nil && !errors.Is(err, datastore.ErrDuplicate) {
		logger.Error("create profile", zap.String("account_id", acc.ID), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "profile_create.html", gin.H{"account": acc, "error": msgServerError})
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

type galleryItem struct {
	ID    string
	URL   string
	Likes int
	Liked bool
}

func dashboardHandler(c *gin.Context) {
	acc, _ := currentAccount(c)
	p, err := db.ProfileByAccount(c.Request.Context(), acc.ID)
	if errors.Is(err, datastore.ErrNotFound) {
		// flag set without a profile row; show an empty profile
		logger.Warn("profile flag set but no profile", zap.String("account_id", acc.ID))
		p, err = &models.Profile{AccountID: acc.ID, Name: acc.Name}, nil
	}
	if err != nil {
		logger.Error("load profile", zap.String("account_id", acc.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, msgServerError)
		return
	}
	items := make([]galleryItem, 0, len(p.Uploads))
	for i := range p.Uploads {
		img := &p.Uploads[i]
		items = append(items, galleryItem{
			ID:    img.ID,
			URL:   bucket.URL(img.StorePath),
			Likes: img.Likes,
			Liked: img.LikedByAccount(acc.ID),
		})
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"account": gin.H{
			"Name":  acc.Name,
			"Email": acc.Email,
			"Phone": acc.Phone,
			"DOB":   acc.DOB,
		},
		"profile":    p,
		"images":     items,
		"pictureURL": bucket.URL(p.PicturePath),
	})
}
