package repository

import (
	"context"
	"errors"
	"time"

	"kitchentales-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrDuplicateEmail means a user with this email already exists.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrUserNotFound means no user document matched the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientFunds means a debit was attempted below the coin floor.
	ErrInsufficientFunds = errors.New("insufficient coins")
)

// coinFloor is the balance below which debits are refused. The rule is a fixed
// threshold check on the current balance, not a balance-after-update check.
const coinFloor = 10

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{
		collection: db.Collection("users"),
	}
}

// Create inserts the user document verbatim. The unique index on email makes
// the duplicate guard a single atomic write: a second insert for the same
// email fails with ErrDuplicateEmail and mutates nothing.
func (r *UserRepo) Create(ctx context.Context, doc bson.M) (bson.ObjectID, error) {
	if _, ok := doc["coin"]; !ok {
		doc["coin"] = 0
	}
	doc["created_at"] = time.Now()

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bson.NilObjectID, ErrDuplicateEmail
		}
		return bson.NilObjectID, err
	}
	return result.InsertedID.(bson.ObjectID), nil
}

// All returns every user document, unprojected.
func (r *UserRepo) All(ctx context.Context) ([]bson.M, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var users []bson.M
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindDocByEmail returns the raw user document, or nil if none matches.
func (r *UserRepo) FindDocByEmail(ctx context.Context, email string) (bson.M, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// FindByEmail returns the typed user, or nil if none matches.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// AdjustCoins increments the coin balance by amount (negative to debit) and
// returns the updated user. Debits require the current balance to be at least
// the coin floor; the condition rides in the update filter so check and write
// are one operation.
func (r *UserRepo) AdjustCoins(ctx context.Context, email string, amount int) (*models.User, error) {
	filter := bson.M{"email": email}
	if amount < 0 {
		filter["coin"] = bson.M{"$gte": coinFloor}
	}

	var updated models.User
	err := r.collection.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"coin": amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: for a debit that can mean either a missing user or a balance
	// below the floor. One lookup tells them apart.
	if amount < 0 {
		user, ferr := r.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, ferr
		}
		if user != nil {
			return nil, ErrInsufficientFunds
		}
	}
	return nil, ErrUserNotFound
}

// CreditCoins adds amount to the user's balance without any floor check.
// Used for recipe rewards. Returns the update counts for the response body.
func (r *UserRepo) CreditCoins(ctx context.Context, email string, amount int) (*mongo.UpdateResult, error) {
	return r.collection.UpdateOne(ctx, bson.M{"email": email},
		bson.M{"$inc": bson.M{"coin": amount}})
}

// EnsureIndexes creates necessary indexes for the users collection. The unique
// email index is what makes Create's duplicate guard atomic.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
