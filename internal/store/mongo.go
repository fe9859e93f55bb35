package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prowe12/plantswap/internal/models"
)

// MongoStore keeps shares and requests in MongoDB. Integer ids come from a
// counters collection so documents keep the same shape as the SQL rows.
type MongoStore struct {
	shares   *mongo.Collection
	requests *mongo.Collection
	counters *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		shares:   db.Collection("shares"),
		requests: db.Collection("requests"),
		counters: db.Collection("counters"),
	}
}

func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var c struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("mongo next id %s: %w", name, err)
	}
	return c.Seq, nil
}

func (s *MongoStore) CreateShare(ctx context.Context, sh *models.Share) (*models.Share, error) {
	id, err := s.nextID(ctx, "shares")
	if err != nil {
		return nil, err
	}
	out := *sh
	out.ID = id
	out.PhotoKey = ""
	if _, err := s.shares.InsertOne(ctx, out); err != nil {
		return nil, fmt.Errorf("mongo insert share: %w", err)
	}
	return &out, nil
}

func (s *MongoStore) ListShares(ctx context.Context) ([]models.Share, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.shares.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list shares: %w", err)
	}
	defer cur.Close(ctx)

	shares := []models.Share{}
	if err := cur.All(ctx, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (s *MongoStore) GetShare(ctx context.Context, id int64) (*models.Share, error) {
	var sh models.Share
	if err := s.shares.FindOne(ctx, bson.M{"_id": id}).Decode(&sh); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo get share: %w", err)
	}
	return &sh, nil
}

func (s *MongoStore) DeleteShare(ctx context.Context, id int64) error {
	return deleteOne(ctx, s.shares, id)
}

func (s *MongoStore) SetSharePhoto(ctx context.Context, id int64, key string) error {
	res, err := s.shares.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"photo_key": key}})
	if err != nil {
		return fmt.Errorf("mongo set share photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateRequest(ctx context.Context, rq *models.Request) (*models.Request, error) {
	id, err := s.nextID(ctx, "requests")
	if err != nil {
		return nil, err
	}
	out := *rq
	out.ID = id
	if _, err := s.requests.InsertOne(ctx, out); err != nil {
		return nil, fmt.Errorf("mongo insert request: %w", err)
	}
	return &out, nil
}

func (s *MongoStore) ListRequests(ctx context.Context) ([]models.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.requests.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list requests: %w", err)
	}
	defer cur.Close(ctx)

	requests := []models.Request{}
	if err := cur.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *MongoStore) DeleteRequest(ctx context.Context, id int64) error {
	return deleteOne(ctx, s.requests, id)
}

func deleteOne(ctx context.Context, col *mongo.Collection, id int64) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
