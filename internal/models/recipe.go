package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Recipe is the typed view of a recipe document.
type Recipe struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	RecipeName   string        `bson:"recipe_name" json:"recipe_name"`
	CreatorEmail string        `bson:"creatorEmail" json:"creatorEmail"`
	Category     string        `bson:"category,omitempty" json:"category,omitempty"`
	Country      string        `bson:"country,omitempty" json:"country,omitempty"`
	PurchasedBy  []string      `bson:"purchased_by" json:"purchased_by"`
	WatchCount   int           `bson:"watchCount" json:"watchCount"`
}
