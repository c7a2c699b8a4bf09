package history

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists the per-session turn log in MongoDB. A counters
// collection hands out a monotonic per-session sequence so append order
// survives identical timestamps.
type MongoStore struct {
	client            *mongo.Client
	collection        *mongo.Collection
	counterCollection *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(database)
	return &MongoStore{
		client:            client,
		collection:        db.Collection(collection),
		counterCollection: db.Collection("counters"),
	}, nil
}

func (ms *MongoStore) nextSeq(ctx context.Context, sessionKey string, n int) (int64, error) {
	res := ms.counterCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": "turns:" + sessionKey},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&doc); err != nil {
		return 0, err
	}
	return doc.Seq - int64(n) + 1, nil
}

func (ms *MongoStore) Append(ctx context.Context, sessionKey string, turns ...Turn) error {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}
	if ms == nil || ms.collection == nil || len(turns) == 0 {
		return nil
	}
	first, err := ms.nextSeq(ctx, sessionKey, len(turns))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(turns))
	for i, t := range turns {
		ts := t.Timestamp
		if ts.IsZero() {
			ts = now
		}
		docs = append(docs, bson.M{
			"session_key": sessionKey,
			"seq":         first + int64(i),
			"role":        string(t.Role),
			"text":        t.Text,
			"timestamp":   ts,
		})
	}
	_, err = ms.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

func (ms *MongoStore) Recent(ctx context.Context, sessionKey string, limit int) ([]Turn, error) {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, err
	}
	if ms == nil || ms.collection == nil || limit <= 0 {
		return nil, nil
	}
	cur, err := ms.collection.Find(ctx,
		bson.M{"session_key": sessionKey},
		options.Find().SetSort(bson.D{{Key: "seq", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	type turnDoc struct {
		Seq       int64     `bson:"seq"`
		Role      string    `bson:"role"`
		Text      string    `bson:"text"`
		Timestamp time.Time `bson:"timestamp"`
	}
	var docs []turnDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	// Query returns newest first; callers expect chronological order.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })
	turns := make([]Turn, 0, len(docs))
	for _, d := range docs {
		turns = append(turns, Turn{Role: Role(d.Role), Text: d.Text, Timestamp: d.Timestamp})
	}
	return turns, nil
}

func (ms *MongoStore) Clear(ctx context.Context, sessionKey string) error {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return err
	}
	if ms == nil || ms.collection == nil {
		return nil
	}
	if _, err := ms.collection.DeleteMany(ctx, bson.M{"session_key": sessionKey}); err != nil {
		return err
	}
	_, err := ms.counterCollection.DeleteOne(ctx, bson.M{"_id": "turns:" + sessionKey})
	return err
}

// Close disconnects the underlying client.
func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
