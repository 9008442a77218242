package twofa

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	recordsCollection  = "user_security"
	pendingsCollection = "pending_setups"
)

// MongoStore implements Store on two MongoDB collections, keyed by user id.
type MongoStore struct {
	records  *mongo.Collection
	pendings *mongo.Collection
}

type mongoRecord struct {
	UserID string             `bson:"_id"`
	Record UserSecurityRecord `bson:"record"`
}

type mongoPending struct {
	UserID  string       `bson:"_id"`
	Pending PendingSetup `bson:"pending"`
}

// NewMongoStore creates a store over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	if db == nil {
		panic("twofa: database cannot be nil")
	}
	return &MongoStore{
		records:  db.Collection(recordsCollection),
		pendings: db.Collection(pendingsCollection),
	}
}

// EnsureIndexes creates a TTL index on pending setups so MongoDB garbage
// collects expired enrollments that were never confirmed or abandoned.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.pendings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pending.expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, userID string) (*UserSecurityRecord, error) {
	var doc mongoRecord
	err := s.records.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc.Record, nil
}

// Put implements Store.
func (s *MongoStore) Put(ctx context.Context, userID string, record UserSecurityRecord) error {
	_, err := s.records.ReplaceOne(ctx,
		bson.M{"_id": userID},
		mongoRecord{UserID: userID, Record: record},
		options.Replace().SetUpsert(true),
	)
	return err
}

// GetPending implements Store.
func (s *MongoStore) GetPending(ctx context.Context, userID string) (*PendingSetup, error) {
	var doc mongoPending
	err := s.pendings.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc.Pending, nil
}

// PutPending implements Store.
func (s *MongoStore) PutPending(ctx context.Context, pending PendingSetup) error {
	_, err := s.pendings.ReplaceOne(ctx,
		bson.M{"_id": pending.UserID},
		mongoPending{UserID: pending.UserID, Pending: pending},
		options.Replace().SetUpsert(true),
	)
	return err
}

// DeletePending implements Store.
func (s *MongoStore) DeletePending(ctx context.Context, userID string) error {
	_, err := s.pendings.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
