package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomStatus is the moderation state of a room listing.
type RoomStatus string

const (
	RoomStatusPending  RoomStatus = "pending"
	RoomStatusApproved RoomStatus = "approved"
	RoomStatusHidden   RoomStatus = "hidden"
)

// Availability is independent of moderation status: a host can mark an
// approved room unavailable without it leaving the public listing flow.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

// Report is an abuse report embedded in the target document. At most one
// entry per reporter; entries are append-only and only ever consumed in
// bulk by the enforcement sweep.
type Report struct {
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Reason     string             `bson:"reason" json:"reason"`
	ReportedAt time.Time          `bson:"reportedAt" json:"reportedAt"`
}

// Room is a listing. Field names are a compatibility contract with the
// admin dashboard; do not rename bson tags.
type Room struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Slug         string               `bson:"slug" json:"slug"`
	Description  string               `bson:"description" json:"description"`
	Price        float64              `bson:"price" json:"price"`
	Amenities    []primitive.ObjectID `bson:"amenities" json:"amenities"`
	Address      string               `bson:"address" json:"address"`
	Ward         primitive.ObjectID   `bson:"ward" json:"ward"`
	Location     *GeoPoint            `bson:"location,omitempty" json:"location,omitempty"`
	Images       []string             `bson:"images" json:"images"`
	Videos       []string             `bson:"videos" json:"videos"`
	AvgRating    float64              `bson:"avgRating" json:"avgRating"`
	TotalRatings int                  `bson:"totalRatings" json:"totalRatings"`
	TotalLikes   int                  `bson:"totalLikes" json:"totalLikes"`
	ViewCount    int64                `bson:"viewCount" json:"viewCount"`
	LikeBy       []primitive.ObjectID `bson:"likeBy" json:"likeBy"`
	Favorites    []primitive.ObjectID `bson:"favorites" json:"favorites"`
	Status       RoomStatus           `bson:"status" json:"status"`
	Availability Availability         `bson:"availability" json:"availability"`
	IsDeleted    bool                 `bson:"isDeleted" json:"-"`
	Reports      []Report             `bson:"reports" json:"reports,omitempty"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	VerifiedBy   *primitive.ObjectID  `bson:"verifiedBy" json:"verifiedBy"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Liked reports whether userID is in the room's like-set.
func (r *Room) Liked(userID primitive.ObjectID) bool {
	for _, id := range r.LikeBy {
		if id == userID {
			return true
		}
	}
	return false
}
