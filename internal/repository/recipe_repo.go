package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrRecipeNotFound means no recipe document matched the id.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeQuery carries the optional /all-recipe filters. All provided filters
// are AND-combined.
type RecipeQuery struct {
	Category string
	Country  string
	Search   string // case-insensitive substring match on recipe_name
	Limit    int64
	Page     int64
}

type RecipeRepo struct {
	collection *mongo.Collection
}

func NewRecipeRepo(db *mongo.Database) *RecipeRepo {
	return &RecipeRepo{
		collection: db.Collection("recipes"),
	}
}

// Create inserts the recipe document verbatim, defaulting purchased_by to an
// empty array and watchCount to zero when the caller omits them so the
// purchase append always has an array to push onto.
func (r *RecipeRepo) Create(ctx context.Context, doc bson.M) (bson.ObjectID, error) {
	if _, ok := doc["purchased_by"]; !ok {
		doc["purchased_by"] = bson.A{}
	}
	if _, ok := doc["watchCount"]; !ok {
		doc["watchCount"] = 0
	}
	doc["created_at"] = time.Now()

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return bson.NilObjectID, err
	}
	return result.InsertedID.(bson.ObjectID), nil
}

// Search returns one page of matching recipes plus the total match count.
func (r *RecipeRepo) Search(ctx context.Context, q RecipeQuery) ([]bson.M, int64, error) {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Country != "" {
		filter["country"] = q.Country
	}
	if q.Search != "" {
		filter["recipe_name"] = bson.M{
			"$regex":   regexp.QuoteMeta(q.Search),
			"$options": "i",
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := (q.Page - 1) * q.Limit
	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetLimit(q.Limit).SetSkip(skip))
	if err != nil {
		return nil, 0, err
	}

	recipes := []bson.M{}
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// RecordPurchase appends the purchaser's email to purchased_by and bumps
// watchCount, as one update. The update doubles as the existence check:
// a zero match count means the recipe id does not resolve. Repeat calls with
// the same email append it again — purchases are not deduplicated.
func (r *RecipeRepo) RecordPurchase(ctx context.Context, id bson.ObjectID, userEmail string) (*mongo.UpdateResult, error) {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"purchased_by": userEmail},
		"$inc":  bson.M{"watchCount": 1},
	})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, ErrRecipeNotFound
	}
	return result, nil
}

// EnsureIndexes creates necessary indexes for the recipes collection.
func (r *RecipeRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "country", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "creatorEmail", Value: 1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
