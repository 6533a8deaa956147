package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is one user's evaluation of one room. At most one review exists
// per (roomId, userId) pair, enforced by a unique compound index.
// Hidden reviews stay in the collection but drop out of the room's
// rating aggregate and public reads; the bson tag `_hidden` matches the
// persisted shape consumed by the admin dashboard.
type Review struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	RoomID     primitive.ObjectID   `bson:"roomId" json:"roomId"`
	UserID     primitive.ObjectID   `bson:"userId" json:"userId"`
	Rating     int                  `bson:"rating" json:"rating"`
	TotalLikes int                  `bson:"totalLikes" json:"totalLikes"`
	LikeBy     []primitive.ObjectID `bson:"likeBy" json:"likeBy"`
	Comment    string               `bson:"comment" json:"comment"`
	Images     []string             `bson:"images" json:"images"`
	Hidden     bool                 `bson:"_hidden" json:"-"`
	Reports    []Report             `bson:"reports" json:"reports,omitempty"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Liked reports whether userID is in the review's like-set.
func (r *Review) Liked(userID primitive.ObjectID) bool {
	for _, id := range r.LikeBy {
		if id == userID {
			return true
		}
	}
	return false
}
