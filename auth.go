package main

import (
	"context"
	"errors"
	"strings"

	"universe/models"
	"universe/pkg/datastore"

	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = errors.New("invalid email or PIN")
	errNotVerified        = errors.New("email address not verified")
)

// dummyPINHash is compared against when the email is unknown so both
// failure paths cost one bcrypt comparison.
var dummyPINHash, _ = bcrypt.GenerateFromPassword([]byte("00000000"), bcrypt.DefaultCost)

func hashPIN(pin string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks email and PIN. Unknown email and wrong PIN give the
// same error; an unverified account is reported only after a correct PIN.
func Authenticate(ctx context.Context, email, pin string) (*models.Account, error) {
	acc, err := db.AccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, datastore.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyPINHash, []byte(pin))
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(acc.PINHash, []byte(pin)); err != nil {
		return nil, errInvalidCredentials
	}
	if !acc.EmailVerified {
		return nil, errNotVerified
	}
	return acc, nil
}

// RegisterAccount stores a new account directly, bypassing email
// verification. Used by the operator CLI.
func RegisterAccount(ctx context.Context, name, email, phone, dob, pin string, verified bool) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name required")
	}
	if !pinPattern.MatchString(pin) {
		return nil, errors.New("PIN must be 4 to 8 digits")
	}
	hash, err := hashPIN(pin)
	if err != nil {
		return nil, err
	}
	acc := &models.Account{
		Name:          name,
		Email:         normalizeEmail(email),
		Phone:         phone,
		DOB:           dob,
		PINHash:       hash,
		EmailVerified: verified,
	}
	if err := db.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// ResetPIN replaces the PIN of the account registered under email.
func ResetPIN(ctx context.Context, email, pin string) error {
	if !pinPattern.MatchString(pin) {
		return errors.New("PIN must be 4 to 8 digits")
	}
	acc, err := db.AccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := hashPIN(pin)
	if err != nil {
		return err
	}
	return db.UpdatePIN(ctx, acc.ID, hash)
}
