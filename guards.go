package main

import (
	"errors"
	"net/http"

	"universe/models"
	"universe/pkg/datastore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxAccount = "account"

// requireAuth sends visitors without a bound account to the sign-in page.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).Authenticated() {
			c.Redirect(http.StatusFound, "/sign_in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireGuest keeps signed-in users out of signup and sign-in pages.
func requireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c).Authenticated() {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireProfile admits accounts that have finished profile creation.
func requireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := loadAccount(c)
		if !ok {
			return
		}
		if !acc.ProfileCreated {
			c.Redirect(http.StatusFound, "/Profile_create")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireNoProfile admits accounts that still have to create a profile.
func requireNoProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := loadAccount(c)
		if !ok {
			return
		}
		if acc.ProfileCreated {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// loadAccount reads the session's account and caches it on the context.
// A stale session (account gone) is unbound and redirected to sign-in.
// It aborts the chain whenever it returns false.
func loadAccount(c *gin.Context) (*models.Account, bool) {
	if acc, ok := currentAccount(c); ok {
		return acc, true
	}
	s := currentSession(c)
	acc, err := db.AccountByID(c.Request.Context(), s.AccountID)
	if errors.Is(err, datastore.ErrNotFound) {
		if s.Authenticated() {
			s.AccountID = ""
			if err := saveSession(c, s); err != nil {
				logger.Warn("unbind stale session", zap.Error(err))
			}
		}
		c.Redirect(http.StatusFound, "/sign_in")
		c.Abort()
		return nil, false
	}
	if err != nil {
		logger.Error("load account", zap.String("account_id", s.AccountID), zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return nil, false
	}
	c.Set(ctxAccount, acc)
	return acc, true
}

func currentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(ctxAccount)
	if !ok {
		return nil, false
	}
	acc, ok := v.(*models.Account)
	return acc, ok
}
