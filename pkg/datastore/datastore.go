// Package datastore persists accounts, profiles and gallery images.
package datastore

import (
	"context"
	"errors"

	"universe/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// RemoveFunc releases whatever backs a gallery image (its stored file).
// Returning an error aborts the deletion and keeps the record.
type RemoveFunc func(img *models.GalleryImage) error

// Store is the credential and profile store.
type Store interface {
	AccountByID(ctx context.Context, id string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	CreateAccount(ctx context.Context, a *models.Account) error
	UpdatePIN(ctx context.Context, accountID string, pinHash []byte) error

	// CreateProfile inserts p and marks its account as having a profile,
	// as one unit: either both happen or neither does.
	CreateProfile(ctx context.Context, p *models.Profile) error
	ProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error)
	SetProfilePicture(ctx context.Context, profileID, path string) error

	AddGalleryImage(ctx context.Context, profileID string, img *models.GalleryImage) error
	ToggleLike(ctx context.Context, profileID, imageID, accountID string) (likes int, liked bool, err error)
	// DeleteGalleryImage removes the image record and calls remove for its
	// backing file. A remove error leaves the record in place.
	DeleteGalleryImage(ctx context.Context, profileID, imageID string, remove RemoveFunc) error

	Migrate(ctx context.Context) error
	Close() error
}
