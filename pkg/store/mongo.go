package store

import (
	"context"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/model"
)

// CollectionName is the MongoDB collection holding documents.
const CollectionName = "documents"

// mongoRecord stores the document as canonical JSON. Keeping the body
// opaque avoids BSON's numeric types leaking into positional records.
type mongoRecord struct {
	Collection string    `bson:"collection"`
	Name       string    `bson:"name"`
	Body       []byte    `bson:"body"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// MongoStore keeps documents in a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to uri and uses database db.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "ping mongodb")
	}
	s := NewMongoStoreFromClient(client, db)
	s.owned = true
	if err := s.ensureIndex(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close leaves the
// client connected.
func NewMongoStoreFromClient(client *mongo.Client, db string) *MongoStore {
	return &MongoStore{client: client, coll: client.Database(db).Collection(CollectionName)}
}

func (s *MongoStore) ensureIndex(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create document index")
	}
	return nil
}

// Collections implements [Store].
func (s *MongoStore) Collections(ctx context.Context) ([]string, error) {
	vals, err := s.coll.Distinct(ctx, "collection", bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "list collections")
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if name, ok := v.(string); ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context, collection string) ([]string, error) {
	if err := validate(collection); err != nil {
		return nil, err
	}
	opts := options.Find().
		SetProjection(bson.D{{Key: "name", Value: 1}}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{{Key: "collection", Value: collection}}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "list %s", collection)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode record")
		}
		out = append(out, rec.Name)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "list %s", collection)
	}
	if len(out) == 0 {
		return nil, notFound(collection, "")
	}
	return out, nil
}

// Get implements [Store].
func (s *MongoStore) Get(ctx context.Context, collection, document string) (*model.Document, error) {
	if err := validate(collection, document); err != nil {
		return nil, err
	}
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.D{
		{Key: "collection", Value: collection},
		{Key: "name", Value: document},
	}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(collection, document)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "get %s/%s", collection, document)
	}
	return model.UnmarshalDocument(rec.Body, model.FormatJSON)
}

// Put implements [Store].
func (s *MongoStore) Put(ctx context.Context, collection, document string, doc *model.Document) error {
	if err := validate(collection, document); err != nil {
		return err
	}
	body, err := model.MarshalDocument(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode document")
	}
	rec := mongoRecord{Collection: collection, Name: document, Body: body, UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx,
		bson.D{{Key: "collection", Value: collection}, {Key: "name", Value: document}},
		rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "put %s/%s", collection, document)
	}
	return nil
}

// Close implements [Store].
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
