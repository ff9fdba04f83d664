package main

import (
	"context"
	"errors"
	"net/http"

	"universe/models"
	"universe/pkg/datastore"
	"universe/pkg/mailer"
	"universe/pkg/otp"
	"universe/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgCodeExpired  = "Your verification code has expired. Please start again."
	msgCodeMismatch = "Incorrect verification code"
	msgTooMany      = "Too many incorrect codes. Please start again."
)

type signupForm struct {
	Name  string `form:"name" json:"name" binding:"required,max=255"`
	Email string `form:"email" json:"email" binding:"required,email,max=255"`
	Phone string `form:"phone" json:"phone" binding:"max=64"`
	DOB   string `form:"dob" json:"dob" binding:"max=32"`
	PIN   string `form:"pin" json:"pin" binding:"required,pin"`
}

func sendCode(ctx context.Context, template, to string, ch otp.Challenge) error {
	return notifier.Send(ctx, mailer.Message{
		To:       to,
		Template: template,
		Params:   map[string]string{"otp": ch.Code},
	})
}

// signupHandler stages the registration in the session and mails a code.
// Nothing is written to the credential store until the code is confirmed.
func signupHandler(c *gin.Context) {
	var f signupForm
	if err := c.ShouldBind(&f); err != nil {
		renderSignup(c, http.StatusBadRequest, "Please enter your name, a valid email and a 4 to 8 digit PIN")
		return
	}
	ctx := c.Request.Context()
	email := normalizeEmail(f.Email)
	if _, err := db.AccountByEmail(ctx, email); err == nil {
		c.Redirect(http.StatusFound, "/sign_in")
		return
	} else if !errors.Is(err, datastore.ErrNotFound) {
		logger.Error("signup lookup", zap.Error(err))
		renderSignup(c, http.StatusInternalServerError, msgServerError)
		return
	}
	hash, err := hashPIN(f.PIN)
	if err != nil {
		logger.Error("hash pin", zap.Error(err))
		renderSignup(c, http.StatusInternalServerError, msgServerError)
		return
	}
	ch, err := otpPolicy.Issue(now())
	if err != nil {
		logger.Error("issue otp", zap.Error(err))
		renderSignup(c, http.StatusInternalServerError, msgServerError)
		return
	}
	if err := sendCode(ctx, mailer.TemplateVerifyEmail, email, ch); err != nil {
		logger.Error("send verification code", zap.String("email", email), zap.Error(err))
		renderSignup(c, http.StatusInternalServerError, "We could not send the verification email. Please try again.")
		return
	}
	s := currentSession(c)
	s.Pending = &session.PendingSignup{
		Name:      f.Name,
		Email:     email,
		Phone:     f.Phone,
		DOB:       f.DOB,
		PINHash:   hash,
		Challenge: ch,
	}
	if err := saveSession(c, s); err != nil {
		logger.Error("save session", zap.Error(err))
		renderSignup(c, http.StatusInternalServerError, msgServerError)
		return
	}
	c.Redirect(http.StatusFound, "/verify_email")
}

func renderVerify(c *gin.Context, status int, email, msg string) {
	c.HTML(status, "verify_email.html", gin.H{"email": email, "error": msg})
}

func verifyPageHandler(c *gin.Context) {
	p := currentSession(c).Pending
	if p == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	renderVerify(c, http.StatusOK, p.Email, "")
}

// verifyEmailHandler redeems the staged code. Expiry is checked before
// correctness; both expiry and an exhausted attempt budget drop the
// staged signup.
func verifyEmailHandler(c *gin.Context) {
	s := currentSession(c)
	p := s.Pending
	if p == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	switch err := otpPolicy.Check(&p.Challenge, c.PostForm("otp"), now()); {
	case errors.Is(err, otp.ErrExpired):
		s.Pending = nil
		persist(c, s)
		renderSignup(c, http.StatusGone, msgCodeExpired)
		return
	case errors.Is(err, otp.ErrTooManyAttempts):
		s.Pending = nil
		persist(c, s)
		renderSignup(c, http.StatusTooManyRequests, msgTooMany)
		return
	case errors.Is(err, otp.ErrMismatch):
		persist(c, s)
		renderVerify(c, http.StatusBadRequest, p.Email, msgCodeMismatch)
		return
	case err != nil:
		logger.Error("check otp", zap.Error(err))
		renderVerify(c, http.StatusInternalServerError, p.Email, msgServerError)
		return
	}

	acc := &models.Account{
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		DOB:           p.DOB,
		PINHash:       p.PINHash,
		EmailVerified: true,
	}
	err := db.CreateAccount(c.Request.Context(), acc)
	if err != nil && !errors.Is(err, datastore.ErrDuplicate) {
		logger.Error("create account", zap.String("email", p.Email), zap.Error(err))
		renderVerify(c, http.StatusInternalServerError, p.Email, msgServerError)
		return
	}
	s.Pending = nil
	persist(c, s)
	if err == nil {
		logger.Info("account created", zap.String("account_id", acc.ID))
	}
	c.Redirect(http.StatusFound, "/sign_in")
}

// resendOTPHandler replaces the staged code in place and mails it again.
func resendOTPHandler(c *gin.Context) {
	s := currentSession(c)
	p := s.Pending
	if p == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No signup in progress. Please sign up again."})
		return
	}
	err := otpPolicy.Reissue(&p.Challenge, now())
	if errors.Is(err, otp.ErrCooldown) {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Please wait before requesting a new code."})
		return
	}
	if err != nil {
		logger.Error("reissue otp", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	// the session is not saved on failure so the previous code stays valid
	if err := sendCode(c.Request.Context(), mailer.TemplateVerifyEmail, p.Email, p.Challenge); err != nil {
		logger.Error("resend verification code", zap.String("email", p.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to send verification code."})
		return
	}
	if err := saveSession(c, s); err != nil {
		logger.Error("save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "A new verification code has been sent."})
}

func renderRecover(c *gin.Context, status int, msg string) {
	c.HTML(status, "recover_pin.html", gin.H{"error": msg})
}

func recoverPageHandler(c *gin.Context) {
	renderRecover(c, http.StatusOK, "")
}

// recoverPINHandler mails a recovery code for a registered email. PINs are
// stored hashed, so the user picks a new one on /reset_pin.
func recoverPINHandler(c *gin.Context) {
	var req struct {
		Email string `form:"email" json:"email" binding:"required,email"`
	}
	if err := c.ShouldBind(&req); err != nil {
		renderRecover(c, http.StatusBadRequest, "Please enter a valid email")
		return
	}
	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	if _, err := db.AccountByEmail(ctx, email); errors.Is(err, datastore.ErrNotFound) {
		renderRecover(c, http.StatusNotFound, "No account found")
		return
	} else if err != nil {
		logger.Error("recover lookup", zap.Error(err))
		renderRecover(c, http.StatusInternalServerError, msgServerError)
		return
	}
	ch, err := otpPolicy.Issue(now())
	if err != nil {
		logger.Error("issue otp", zap.Error(err))
		renderRecover(c, http.StatusInternalServerError, msgServerError)
		return
	}
	if err := sendCode(ctx, mailer.TemplateRecoverPIN, email, ch); err != nil {
		logger.Error("send recovery code", zap.String("email", email), zap.Error(err))
		renderRecover(c, http.StatusInternalServerError, "Failed to send recovery code. Please try again later.")
		return
	}
	s := currentSession(c)
	s.Recovery = &session.PendingRecovery{Email: email, Challenge: ch}
	if err := saveSession(c, s); err != nil {
		logger.Error("save session", zap.Error(err))
		renderRecover(c, http.StatusInternalServerError, msgServerError)
		return
	}
	c.Redirect(http.StatusFound, "/reset_pin")
}

func renderReset(c *gin.Context, status int, email, msg string) {
	c.HTML(status, "reset_pin.html", gin.H{"email": email, "error": msg})
}

func resetPageHandler(c *gin.Context) {
	r := currentSession(c).Recovery
	if r == nil {
		c.Redirect(http.StatusFound, "/recover_pin")
		return
	}
	renderReset(c, http.StatusOK, r.Email, "")
}

func resetPINHandler(c *gin.Context) {
	s := currentSession(c)
	r := s.Recovery
	if r == nil {
		c.Redirect(http.StatusFound, "/recover_pin")
		return
	}
	var req struct {
		Code string `form:"otp" json:"otp" binding:"required"`
		PIN  string `form:"pin" json:"pin" binding:"required,pin"`
	}
	if err := c.ShouldBind(&req); err != nil {
		renderReset(c, http.StatusBadRequest, r.Email, "Enter the code and a new 4 to 8 digit PIN")
		return
	}
	switch err := otpPolicy.Check(&r.Challenge, req.Code, now()); {
	case errors.Is(err, otp.ErrExpired):
		s.Recovery = nil
		persist(c, s)
		renderRecover(c, http.StatusGone, msgCodeExpired)
		return
	case errors.Is(err, otp.ErrTooManyAttempts):
		s.Recovery = nil
		persist(c, s)
		renderRecover(c, http.StatusTooManyRequests, msgTooMany)
		return
	case errors.Is(err, otp.ErrMismatch):
		persist(c, s)
		renderReset(c, http.StatusBadRequest, r.Email, msgCodeMismatch)
		return
	case err != nil:
		logger.Error("check otp", zap.Error(err))
		renderReset(c, http.StatusInternalServerError, r.Email, msgServerError)
		return
	}
	if err := ResetPIN(c.Request.Context(), r.Email, req.PIN); err != nil {
		logger.Error("reset pin", zap.String("email", r.Email), zap.Error(err))
		renderReset(c, http.StatusInternalServerError, r.Email, msgServerError)
		return
	}
	s.Recovery = nil
	persist(c, s)
	renderSignIn(c, http.StatusOK, "", "Your PIN has been reset. Please sign in.")
}

// persist saves s and only logs on failure; used where the response does
// not depend on the write.
func persist(c *gin.Context, s *session.Session) {
	if err := saveSession(c, s); err != nil {
		logger.Error("save session", zap.Error(err))
	}
}
