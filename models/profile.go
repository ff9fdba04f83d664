package models

import "time"

// Profile is the public face of an Account (one-to-one, keyed by AccountID).
type Profile struct {
	ID          string    `gorm:"primaryKey;size:26" bson:"_id" json:"id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
	AccountID   string    `gorm:"size:26;uniqueIndex;not null" bson:"account_id" json:"account_id"`
	Name        string    `gorm:"size:255;not null" bson:"name" json:"name"`
	Gender      string    `gorm:"size:32" bson:"gender" json:"gender"`
	Bio         string    `gorm:"size:1024" bson:"bio" json:"bio"`
	PicturePath string    `gorm:"size:512" bson:"picture_path" json:"picture_path"`
	// Uploads is the gallery, oldest first.
	Uploads []GalleryImage `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" bson:"uploads" json:"uploads"`
}

// Image returns the gallery image with the given id.
func (p *Profile) Image(id string) (*GalleryImage, bool) {
	for i := range p.Uploads {
		if p.Uploads[i].ID == id {
			return &p.Uploads[i], true
		}
	}
	return nil, false
}
