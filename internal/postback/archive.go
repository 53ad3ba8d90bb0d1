package postback

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Archiver keeps the raw postback body for audit and debugging. Archiving is
// best-effort: the pipeline logs failures and carries on.
type Archiver interface {
	ArchiveRaw(ctx context.Context, profileID string, fields Fields) error
}

type rawPostbackDocument struct {
	ProfileID  string    `bson:"profile_id"`
	Fields     Fields    `bson:"fields"`
	ReceivedAt time.Time `bson:"received_at"`
}

type MongoArchiver struct {
	collection *mongo.Collection
}

func NewMongoArchiver(client *mongo.Client, database, collection string) *MongoArchiver {
	if collection == "" {
		collection = "raw_postbacks"
	}
	return &MongoArchiver{
		collection: client.Database(database).Collection(collection),
	}
}

func (a *MongoArchiver) ArchiveRaw(ctx context.Context, profileID string, fields Fields) error {
	doc := rawPostbackDocument{
		ProfileID:  profileID,
		Fields:     fields,
		ReceivedAt: time.Now(),
	}
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to archive raw postback: %w", err)
	}
	return nil
}
