package datastore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"universe/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	accountsCollection = "accounts"
	profilesCollection = "profiles"
)

// MongoStore is the document Store. Gallery images are embedded in their
// profile document. Multi-document writes are sequenced with compensating
// actions instead of transactions so a standalone server is enough.
type MongoStore struct {
	client   *mongo.Client
	accounts *mongo.Collection
	profiles *mongo.Collection
}

// OpenMongo connects to uri and uses database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		accounts: db.Collection(accountsCollection),
		profiles: db.Collection(profilesCollection),
	}, nil
}

// Migrate ensures the unique indexes exist.
func (s *MongoStore) Migrate(ctx context.Context) error {
	if _, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("accounts email index: %w", err)
	}
	if _, err := s.profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("profiles account_id index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": id})
}

func (s *MongoStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

func (s *MongoStore) findAccount(ctx context.Context, filter bson.M) (*models.Account, error) {
	var a models.Account
	if err := s.accounts.FindOne(ctx, filter).Decode(&a); err != nil {
		return nil, translateMongo(err)
	}
	return &a, nil
}

func (s *MongoStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = models.NewID()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	if _, err := s.accounts.InsertOne(ctx, a); err != nil {
		return translateMongo(err)
	}
	return nil
}

func (s *MongoStore) UpdatePIN(ctx context.Context, accountID string, pinHash []byte) error {
	return s.updateAccount(ctx, accountID, bson.M{"pin_hash": pinHash})
}

func (s *MongoStore) updateAccount(ctx context.Context, accountID string, set bson.M) error {
	set["updated_at"] = time.Now()
	res, err := s.accounts.UpdateOne(ctx, bson.M{"_id": accountID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	acc, err := s.AccountByID(ctx, p.AccountID)
	if err != nil {
		return err
	}
	if acc.ProfileCreated {
		return ErrDuplicate
	}
	if p.ID == "" {
		p.ID = models.NewID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Uploads == nil {
		p.Uploads = []models.GalleryImage{}
	}
	if _, err := s.profiles.InsertOne(ctx, p); err != nil {
		return translateMongo(err)
	}
	if err := s.updateAccount(ctx, p.AccountID, bson.M{"profile_created": true}); err != nil {
		if _, derr := s.profiles.DeleteOne(ctx, bson.M{"_id": p.ID}); derr != nil {
			return errors.Join(err, fmt.Errorf("undo profile insert: %w", derr))
		}
		return err
	}
	return nil
}

func (s *MongoStore) ProfileByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"account_id": accountID})
}

func (s *MongoStore) findProfile(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var p models.Profile
	if err := s.profiles.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, translateMongo(err)
	}
	for i := range p.Uploads {
		p.Uploads[i].ProfileID = p.ID
	}
	return &p, nil
}

func (s *MongoStore) SetProfilePicture(ctx context.Context, profileID, path string) error {
	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": profileID},
		bson.M{"$set": bson.M{"picture_path": path, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AddGalleryImage(ctx context.Context, profileID string, img *models.GalleryImage) error {
	if img.ID == "" {
		img.ID = models.NewID()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	if img.LikedBy == nil {
		img.LikedBy = []string{}
	}
	img.ProfileID = profileID
	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": profileID}, bson.M{"$push": bson.M{"uploads": img}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike reads the profile, flips membership and writes the image back.
// Concurrent toggles on the same image are last-writer-wins.
func (s *MongoStore) ToggleLike(ctx context.Context, profileID, imageID, accountID string) (int, bool, error) {
	p, err := s.findProfile(ctx, bson.M{"_id": profileID})
	if err != nil {
		return 0, false, err
	}
	img, ok := p.Image(imageID)
	if !ok {
		return 0, false, ErrNotFound
	}
	likes, liked := img.ToggleLike(accountID)
	if img.LikedBy == nil {
		img.LikedBy = []string{}
	}
	_, err = s.profiles.UpdateOne(ctx,
		bson.M{"_id": profileID, "uploads._id": imageID},
		bson.M{"$set": bson.M{"uploads.$.likes": img.Likes, "uploads.$.liked_by": img.LikedBy}})
	if err != nil {
		return 0, false, err
	}
	return likes, liked, nil
}

func (s *MongoStore) DeleteGalleryImage(ctx context.Context, profileID, imageID string, remove RemoveFunc) error {
	p, err := s.findProfile(ctx, bson.M{"_id": profileID})
	if err != nil {
		return err
	}
	pos := slices.IndexFunc(p.Uploads, func(g models.GalleryImage) bool { return g.ID == imageID })
	if pos < 0 {
		return ErrNotFound
	}
	img := p.Uploads[pos]
	if _, err := s.profiles.UpdateOne(ctx, bson.M{"_id": profileID},
		bson.M{"$pull": bson.M{"uploads": bson.M{"_id": imageID}}}); err != nil {
		return err
	}
	if remove == nil {
		return nil
	}
	if err := remove(&img); err != nil {
		if _, perr := s.profiles.UpdateOne(ctx, bson.M{"_id": profileID}, restoreImage(img, pos)); perr != nil {
			return errors.Join(fmt.Errorf("remove image file: %w", err), fmt.Errorf("restore image record: %w", perr))
		}
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

// restoreImage puts img back at index pos so the gallery keeps its
// oldest-first order.
func restoreImage(img models.GalleryImage, pos int) bson.M {
	return bson.M{"$push": bson.M{"uploads": bson.M{
		"$each":     []models.GalleryImage{img},
		"$position": pos,
	}}}
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
