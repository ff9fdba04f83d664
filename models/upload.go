package models

import (
	"slices"
	"time"
)

// GalleryImage is one uploaded image owned by a Profile.
type GalleryImage struct {
	ID          string    `gorm:"primaryKey;size:26" bson:"_id" json:"id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ProfileID   string    `gorm:"size:26;index;not null" bson:"-" json:"-"`
	StorePath   string    `gorm:"column:store_path;size:512;not null" bson:"store_path" json:"store_path"` // bucket key, e.g. gallery/01J....jpg
	ContentType string    `gorm:"size:128" bson:"content_type" json:"content_type"`
	Likes       int       `gorm:"not null;default:0" bson:"likes" json:"likes"`
	// LikedBy holds account ids; each id appears at most once.
	LikedBy []string `gorm:"serializer:json" bson:"liked_by" json:"-"`
}

// LikedByAccount reports whether accountID is in the liker set.
func (g *GalleryImage) LikedByAccount(accountID string) bool {
	return slices.Contains(g.LikedBy, accountID)
}

// ToggleLike adds accountID to the liker set, or removes it when already
// present, and keeps Likes in step. Likes never drops below zero.
func (g *GalleryImage) ToggleLike(accountID string) (likes int, liked bool) {
	if i := slices.Index(g.LikedBy, accountID); i >= 0 {
		g.LikedBy = slices.Delete(g.LikedBy, i, i+1)
		if g.Likes > 0 {
			g.Likes--
		}
		return g.Likes, false
	}
	g.LikedBy = append(g.LikedBy, accountID)
	g.Likes++
	return g.Likes, true
}
