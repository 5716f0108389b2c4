package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"free-games-bot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection   = "users"
	digestsCollection = "digest_runs"
)

// MongoLedger is the document-store LedgerStore: one document per user in
// the users collection, claims and achievements embedded as arrays. Every
// mutation is a single conditional update, so the per-user atomicity comes
// from MongoDB's single-document guarantees.
type MongoLedger struct {
	Client  *mongo.Client
	DB      *mongo.Database
	users   *mongo.Collection
	digests *mongo.Collection
}

func NewMongoLedger(client *mongo.Client, dbName string) *MongoLedger {
	db := client.Database(dbName)
	return &MongoLedger{
		Client:  client,
		DB:      db,
		users:   db.Collection(usersCollection),
		digests: db.Collection(digestsCollection),
	}
}

// OpenMongoLedger connects once, verifies the primary is reachable and ensures indexes.
func OpenMongoLedger(ctx context.Context, uri, dbName string) (*MongoLedger, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	ledger := NewMongoLedger(client, dbName)
	if err := ledger.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return ledger, nil
}

func (s *MongoLedger) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chatId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	if _, err := s.digests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ranAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create digest_runs index: %w", err)
	}
	return nil
}

func mongoErr(chatID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrUnknownUser, chatID)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// --- update documents ---

func upsertUserUpdate(profile models.Profile, now time.Time) bson.M {
	return bson.M{
		"$setOnInsert": bson.M{
			"username":     profile.Username,
			"first_name":   profile.FirstName,
			"last_name":    profile.LastName,
			"joinedAt":     now,
			"claimedCount": int64(0),
			"claimedList":  bson.A{},
			"achievements": bson.A{},
		},
	}
}

// claimFilter only matches the user while no claim with this URL exists,
// which makes the push + increment below idempotent.
func claimFilter(chatID, url string) bson.M {
	return bson.M{
		"chatId":          chatID,
		"claimedList.url": bson.M{"$ne": url},
	}
}

func claimUpdate(claim models.ClaimedGame) bson.M {
	return bson.M{
		"$push": bson.M{"claimedList": claim},
		"$inc":  bson.M{"claimedCount": 1},
	}
}

func achievementFilter(chatID, name string) bson.M {
	return bson.M{
		"chatId":            chatID,
		"achievements.name": bson.M{"$ne": name},
	}
}

func achievementUpdate(achievement models.Achievement) bson.M {
	return bson.M{"$push": bson.M{"achievements": achievement}}
}

// --- LedgerStore ---

func (s *MongoLedger) UpsertUser(ctx context.Context, chatID string, profile models.Profile) (bool, error) {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"chatId": chatID},
		upsertUserUpdate(profile, time.Now().UTC()),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent first contacts: the loser hits the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, mongoErr(chatID, err)
	}
	return res.UpsertedCount == 1, nil
}

func (s *MongoLedger) GetUser(ctx context.Context, chatID string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"chatId": chatID}).Decode(&user); err != nil {
		return nil, mongoErr(chatID, err)
	}
	if user.ClaimedList == nil {
		user.ClaimedList = []models.ClaimedGame{}
	}
	if user.Achievements == nil {
		user.Achievements = []models.Achievement{}
	}
	return &user, nil
}

func (s *MongoLedger) DeleteUser(ctx context.Context, chatID string) error {
	_, err := s.users.DeleteOne(ctx, bson.M{"chatId": chatID})
	return mongoErr(chatID, err)
}

func (s *MongoLedger) AppendClaim(ctx context.Context, chatID string, claim models.ClaimedGame) (ClaimAppend, error) {
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = time.Now().UTC()
	}

	var updated struct {
		ClaimedCount int64 `bson:"claimedCount"`
	}
	err := s.users.FindOneAndUpdate(ctx,
		claimFilter(chatID, claim.URL),
		claimUpdate(claim),
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"claimedCount": 1}),
	).Decode(&updated)
	if err == nil {
		return ClaimAppend{Appended: true, NewCount: updated.ClaimedCount}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return ClaimAppend{}, mongoErr(chatID, err)
	}

	// Nothing matched: either the user is absent or the URL is already claimed.
	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return ClaimAppend{}, err
	}
	existing, ok := user.HasClaimed(claim.URL)
	if !ok {
		return ClaimAppend{}, fmt.Errorf("%w: claim for %s neither applied nor present", ErrStorageUnavailable, chatID)
	}
	return ClaimAppend{Existing: existing}, nil
}

func (s *MongoLedger) AddAchievement(ctx context.Context, chatID string, achievement models.Achievement) (bool, error) {
	if achievement.UnlockedAt.IsZero() {
		achievement.UnlockedAt = time.Now().UTC()
	}
	if achievement.Source == "" {
		achievement.Source = models.AchievementSourceMilestone
	}

	res, err := s.users.UpdateOne(ctx,
		achievementFilter(chatID, achievement.Name),
		achievementUpdate(achievement),
	)
	if err != nil {
		return false, mongoErr(chatID, err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := s.users.CountDocuments(ctx, bson.M{"chatId": chatID})
	if err != nil {
		return false, mongoErr(chatID, err)
	}
	if n == 0 {
		return false, fmt.Errorf("%w: %s", ErrUnknownUser, chatID)
	}
	return false, nil
}

func (s *MongoLedger) ListSubscribers(ctx context.Context) ([]string, error) {
	cursor, err := s.users.Find(ctx, bson.M{},
		options.Find().
			SetProjection(bson.M{"chatId": 1}).
			SetSort(bson.D{{Key: "joinedAt", Value: 1}}),
	)
	if err != nil {
		return nil, mongoErr("", err)
	}
	var docs []struct {
		ChatID string `bson:"chatId"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoErr("", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ChatID)
	}
	return ids, nil
}

func (s *MongoLedger) Ping(ctx context.Context) error {
	return mongoErr("", s.Client.Ping(ctx, readpref.Primary()))
}

func (s *MongoLedger) Probe(ctx context.Context) (*StoreProbe, error) {
	names, err := s.DB.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, mongoErr("", err)
	}
	return &StoreProbe{
		Driver:      "mongodb",
		Database:    s.DB.Name(),
		Collections: names,
	}, nil
}

func (s *MongoLedger) Close(ctx context.Context) error {
	log.Println("[LEDGER] Disconnecting from MongoDB")
	return s.Client.Disconnect(ctx)
}

// --- DigestRecorder ---

type mongoDigestRun struct {
	ID               string    `bson:"_id"`
	RanAt            time.Time `bson:"ranAt"`
	OfferCount       int       `bson:"offerCount"`
	Recipients       int       `bson:"recipients"`
	FailedDeliveries int       `bson:"failedDeliveries"`
	OffersJSON       string    `bson:"offersJson"`
	ArchiveURL       string    `bson:"archiveUrl,omitempty"`
}

func (s *MongoLedger) RecordDigest(ctx context.Context, run *models.DigestRun) error {
	_, err := s.digests.InsertOne(ctx, mongoDigestRun{
		ID:               run.ID,
		RanAt:            run.RanAt,
		OfferCount:       run.OfferCount,
		Recipients:       run.Recipients,
		FailedDeliveries: run.FailedDeliveries,
		OffersJSON:       string(run.Offers),
		ArchiveURL:       run.ArchiveURL,
	})
	return mongoErr("", err)
}

func (s *MongoLedger) LatestDigest(ctx context.Context) (*models.DigestRun, error) {
	var doc mongoDigestRun
	err := s.digests.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "ranAt", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mongoErr("", err)
	}
	return &models.DigestRun{
		ID:               doc.ID,
		RanAt:            doc.RanAt,
		OfferCount:       doc.OfferCount,
		Recipients:       doc.Recipients,
		FailedDeliveries: doc.FailedDeliveries,
		Offers:           []byte(doc.OffersJSON),
		ArchiveURL:       doc.ArchiveURL,
	}, nil
}
