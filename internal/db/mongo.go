package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	userIDKey       = "userId"
)

// ConnectMongo opens a client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("db.ConnectMongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("db.ConnectMongo: ping: %w", err)
	}

	return client, nil
}

// MongoProfileRepository stores profiles in the users collection keyed by userId.
type MongoProfileRepository struct {
	coll *mongo.Collection
}

func NewMongoProfileRepository(client *mongo.Client, database string) *MongoProfileRepository {
	return &MongoProfileRepository{
		coll: client.Database(database).Collection(usersCollection),
	}
}

func (r *MongoProfileRepository) Save(ctx context.Context, chatID int64, fields Fields) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{userIDKey: chatID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("MongoProfileRepository.Save: %w", err)
	}

	return nil
}

func (r *MongoProfileRepository) Load(ctx context.Context, chatID int64) (*Profile, error) {
	var doc bson.M

	err := r.coll.FindOne(ctx, bson.M{userIDKey: chatID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("MongoProfileRepository.Load: %w", err)
	}

	return ProfileFromFields(chatID, stringFields(doc)), nil
}
