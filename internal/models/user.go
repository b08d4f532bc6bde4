package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the typed view of a user document. Clients may attach extra profile
// fields; those are stored verbatim and only surface in raw document reads.
type User struct {
	ID    bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email string        `bson:"email" json:"email"`
	Name  string        `bson:"name,omitempty" json:"name,omitempty"`
	Photo string        `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Coin  int           `bson:"coin" json:"coin"`
}
