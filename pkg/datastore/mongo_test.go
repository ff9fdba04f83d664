package datastore

import (
	"context"
	"os"
	"testing"

	"universe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Set MONGO_URI_TEST to a reachable server to run this suite.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI_TEST")
	if uri == "" {
		t.Skip("integration tests are disabled; set MONGO_URI_TEST to enable")
	}
	ctx := context.Background()
	dbName := "universe_test_" + t.Name()
	s, err := OpenMongo(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close()
	})
	require.NoError(t, s.Migrate(ctx))
	storeSuite(t, s)
}

func TestRestoreImageKeepsPosition(t *testing.T) {
	img := models.GalleryImage{ID: "b", StorePath: "gallery/b.jpg"}
	update := restoreImage(img, 1)

	push, ok := update["$push"].(bson.M)
	require.True(t, ok)
	uploads, ok := push["uploads"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, []models.GalleryImage{img}, uploads["$each"])
	assert.Equal(t, 1, uploads["$position"])

	// the rendered document is what the server receives
	raw, err := bson.Marshal(update)
	require.NoError(t, err)
	pos, err := bson.Raw(raw).LookupErr("$push", "uploads", "$position")
	require.NoError(t, err)
	assert.Equal(t, int32(1), pos.Int32())
}
