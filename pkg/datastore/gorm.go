package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"universe/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore is the relational Store (postgres in production, sqlite for
// local runs and tests).
type GormStore struct {
	db *gorm.DB
}

// OpenGorm opens driver ("postgres" or "sqlite") at dsn.
func OpenGorm(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(zap.L().Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStore wraps an already opened handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for maintenance commands.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the schema. Models are migrated one by one so
// a failure on one does not block the others.
func (s *GormStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	var errs []error
	for _, m := range []any{&models.Account{}, &models.Profile{}, &models.GalleryImage{}} {
		if err := db.AutoMigrate(m); err != nil {
			errs = append(errs, fmt.Errorf("migrate %T: %w", m, err))
		}
	}
	return errors.Join(errs...)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *GormStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *GormStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = models.NewID()
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) UpdatePIN(ctx context.Context, accountID string, pinHash []byte) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", accountID).Update("pin_hash", pinHash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc models.Account
		if err := tx.Where("id = ?", p.AccountID).First(&acc).Error; err != nil {
			return translate(err)
		}
		if acc.ProfileCreated {
			return ErrDuplicate
		}
		if err := tx.Create(p).Error; err != nil {
			return translate(err)
		}
		return tx.Model(&acc).Update("profile_created", true).Error
	})
}

func (s *GormStore) ProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).
		Preload("Uploads", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		Where("account_id = ?", accountID).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SetProfilePicture(ctx context.Context, profileID, path string) error {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", profileID).Update("picture_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AddGalleryImage(ctx context.Context, profileID string, img *models.GalleryImage) error {
	if img.ID == "" {
		img.ID = models.NewID()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	img.ProfileID = profileID
	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) ToggleLike(ctx context.Context, profileID, imageID, accountID string) (int, bool, error) {
	var (
		likes int
		liked bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.GalleryImage
		if err := tx.Where("id = ? AND profile_id = ?", imageID, profileID).First(&img).Error; err != nil {
			return translate(err)
		}
		likes, liked = img.ToggleLike(accountID)
		return tx.Save(&img).Error
	})
	return likes, liked, err
}

func (s *GormStore) DeleteGalleryImage(ctx context.Context, profileID, imageID string, remove RemoveFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.GalleryImage
		if err := tx.Where("id = ? AND profile_id = ?", imageID, profileID).First(&img).Error; err != nil {
			return translate(err)
		}
		if err := tx.Delete(&img).Error; err != nil {
			return err
		}
		if remove != nil {
			if err := remove(&img); err != nil {
				return fmt.Errorf("remove image file: %w", err)
			}
		}
		return nil
	})
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, ErrDuplicate), isUniqueConstraintError(err):
		return ErrDuplicate
	}
	return err
}

// isUniqueConstraintError catches drivers that do not translate errors.
func isUniqueConstraintError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "unique constraint")
}
