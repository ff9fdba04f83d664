package models

import (
	"time"
)

// Account is a registered identity. It only exists once the email address
// has been verified through a one-time code.
type Account struct {
	ID             string    `gorm:"primaryKey;size:26" bson:"_id" json:"id"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
	Name           string    `gorm:"size:255;not null" bson:"name" json:"name"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" bson:"email" json:"email"`
	Phone          string    `gorm:"size:64" bson:"phone" json:"phone"`
	DOB            string    `gorm:"column:dob;size:32" bson:"dob" json:"dob"`
	PINHash        []byte    `gorm:"column:pin_hash;not null" bson:"pin_hash" json:"-"`
	EmailVerified  bool      `gorm:"not null;default:false" bson:"email_verified" json:"email_verified"`
	ProfileCreated bool      `gorm:"column:profile_created;not null;default:false" bson:"profile_created" json:"profile_created"`
}
