// Package otp implements the one-time codes used to verify an email address
// and to recover a PIN.
package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	minCode = 1000
	maxCode = 9999
)

var (
	// ErrExpired is returned when a code is checked after its expiry.
	ErrExpired = errors.New("verification code expired")
	// ErrMismatch is returned when the submitted code is wrong.
	ErrMismatch = errors.New("incorrect verification code")
	// ErrTooManyAttempts is returned once the attempt budget is used up.
	ErrTooManyAttempts = errors.New("too many incorrect attempts")
	// ErrCooldown is returned when a resend is requested too early.
	ErrCooldown = errors.New("please wait before requesting a new code")
)

// Policy holds the lifecycle knobs shared by every challenge.
type Policy struct {
	TTL            time.Duration
	MaxAttempts    int           // 0 disables the limit
	ResendCooldown time.Duration // 0 disables the cooldown
}

// DefaultPolicy is a 10 minute code with 5 attempts and a 30s resend cooldown.
func DefaultPolicy() Policy {
	return Policy{TTL: 10 * time.Minute, MaxAttempts: 5, ResendCooldown: 30 * time.Second}
}

// Challenge is an issued code and its bookkeeping.
type Challenge struct {
	Code      string    `json:"code"`
	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// Generate returns a uniformly random code in [1000, 9999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}

// Issue creates a fresh challenge at now.
func (p Policy) Issue(now time.Time) (Challenge, error) {
	code, err := Generate()
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{Code: code, SentAt: now, ExpiresAt: now.Add(p.TTL)}, nil
}

// Reissue regenerates the code and expiry of c in place and resets its
// attempt counter. It refuses inside the resend cooldown.
func (p Policy) Reissue(c *Challenge, now time.Time) error {
	if p.ResendCooldown > 0 && now.Sub(c.SentAt) < p.ResendCooldown {
		return ErrCooldown
	}
	fresh, err := p.Issue(now)
	if err != nil {
		return err
	}
	*c = fresh
	return nil
}

// Check compares input with the code. Expiry wins over correctness. A
// mismatch bumps the attempt counter; ErrTooManyAttempts means the caller
// must discard the challenge.
func (p Policy) Check(c *Challenge, input string, now time.Time) error {
	if !now.Before(c.ExpiresAt) {
		return ErrExpired
	}
	if strings.TrimSpace(input) == c.Code {
		return nil
	}
	c.Attempts++
	if p.MaxAttempts > 0 && c.Attempts >= p.MaxAttempts {
		return ErrTooManyAttempts
	}
	return ErrMismatch
}

// Expired reports whether c can no longer be redeemed.
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
