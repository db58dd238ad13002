package reviews

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reviewme/pkg/models"
)

const ReviewsCollection = "reviews"

// MongoRepo is the MongoDB Store. Sort fields use the document field names,
// which match the accepted sortField values.
type MongoRepo struct {
	Coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{Coll: db.Collection(ReviewsCollection)}
}

func (r *MongoRepo) Create(ctx context.Context, rv *models.Review) error {
	if _, err := r.Coll.InsertOne(ctx, rv); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var rv models.Review
	if err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &rv, nil
}

func listFilter(q ListQuery) bson.M {
	filter := bson.M{}
	if q.UserID != "" {
		filter["userId"] = q.UserID
	}
	if q.Title != "" {
		filter["title"] = q.Title
	}
	if q.Author != "" {
		filter["author"] = q.Author
	}
	if q.ReviewID != "" {
		filter["_id"] = q.ReviewID
	}
	if q.SearchTerm != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.SearchTerm), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
		}
	}
	return filter
}

func (r *MongoRepo) List(ctx context.Context, q ListQuery) ([]models.Review, error) {
	q.Normalize()

	dir := -1
	if q.SortAsc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortField, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.StartIndex)).
		SetLimit(int64(q.PageSize))

	cur, err := r.Coll.Find(ctx, listFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Review, 0, q.PageSize)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return out, nil
}

func (r *MongoRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	n, err := r.Coll.CountDocuments(ctx, listFilter(ListQuery{UserID: userID}))
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, f Fields, updatedAt time.Time) (*models.Review, error) {
	update := bson.M{"$set": bson.M{
		"title":      f.Title,
		"author":     f.Author,
		"rating":     f.Rating,
		"reviewText": f.ReviewText,
		"updatedAt":  updatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rv models.Review
	if err := r.Coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&rv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return &rv, nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	return res.DeletedCount > 0, nil
}
