package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleLikeRoundTrip(t *testing.T) {
	img := GalleryImage{Likes: 3, LikedBy: []string{"a", "b", "c"}}

	likes, liked := img.ToggleLike("d")
	assert.Equal(t, 4, likes)
	assert.True(t, liked)

	likes, liked = img.ToggleLike("d")
	assert.Equal(t, 3, likes)
	assert.False(t, liked)
	assert.Equal(t, []string{"a", "b", "c"}, img.LikedBy)
}

func TestToggleLikeNeverDuplicates(t *testing.T) {
	var img GalleryImage
	for i := 0; i < 5; i++ {
		img.ToggleLike("x")
	}
	assert.Equal(t, []string{"x"}, img.LikedBy)
	assert.Equal(t, 1, img.Likes)
	assert.True(t, img.LikedByAccount("x"))
}

func TestToggleLikeFloorsAtZero(t *testing.T) {
	// counter drifted below the set size
	img := GalleryImage{Likes: 0, LikedBy: []string{"x"}}
	likes, liked := img.ToggleLike("x")
	assert.Equal(t, 0, likes)
	assert.False(t, liked)
	assert.Empty(t, img.LikedBy)
}

func TestProfileImage(t *testing.T) {
	p := Profile{Uploads: []GalleryImage{{ID: "1"}, {ID: "2"}}}
	img, ok := p.Image("2")
	assert.True(t, ok)
	assert.Equal(t, "2", img.ID)

	_, ok = p.Image("3")
	assert.False(t, ok)
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
