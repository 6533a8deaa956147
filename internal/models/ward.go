package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Ward is an administrative area a room belongs to.
type Ward struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	District string             `bson:"district" json:"district"`
}

// Amenity is a facility a room can offer (wifi, parking, ...). Search
// accepts either its id or its slug.
type Amenity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Icon        string             `bson:"icon" json:"icon"`
	Description string             `bson:"description" json:"description"`
}
