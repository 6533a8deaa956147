package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tphuong3108/timnhatro-BE/internal/db"
)

// IRatingService recomputes a room's denormalized rating aggregate.
type IRatingService interface {
	RecomputeRoomRating(ctx context.Context, roomID primitive.ObjectID) error
}

type ratingService struct {
	db *mongo.Database
}

// NewRatingService creates a new RatingService.
func NewRatingService(database *mongo.Database) IRatingService {
	return &ratingService{db: database}
}

const recomputeMaxRetries = 10

// RecomputeRoomRating aggregates a room's non-hidden reviews and persists
// avgRating and totalRatings on the room. It must run synchronously after
// every review create, update, delete and hide/unhide: there is no
// background reconciliation, so a skipped recompute is a correctness bug,
// not a cache miss.
//
// Concurrent recomputes race: a writer holding a stale aggregate must not
// land after one holding a fresher one. The room's updatedAt is read
// before the aggregation and used as a compare-and-update token on the
// write; a lost race re-reads and retries. If the room no longer exists
// the recompute is a no-op.
func (s *ratingService) RecomputeRoomRating(ctx context.Context, roomID primitive.ObjectID) error {
	for attempt := 0; attempt < recomputeMaxRetries; attempt++ {
		var room struct {
			UpdatedAt time.Time `bson:"updatedAt"`
		}
		err := s.db.Collection(db.RoomsCollection).FindOne(ctx, bson.M{"_id": roomID},
			options.FindOne().SetProjection(bson.M{"updatedAt": 1})).Decode(&room)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load room %s for rating recompute: %w", roomID.Hex(), err)
		}

		avg, total, err := s.aggregateReviews(ctx, roomID)
		if err != nil {
			return err
		}

		// The updatedAt token guards against a stale aggregate landing
		// after a fresher concurrent recompute.
		res, err := s.db.Collection(db.RoomsCollection).UpdateOne(ctx,
			bson.M{"_id": roomID, "updatedAt": room.UpdatedAt},
			bson.M{"$set": bson.M{
				"avgRating":    avg,
				"totalRatings": total,
				"updatedAt":    time.Now().UTC(),
			}})
		if err != nil {
			return fmt.Errorf("failed to persist rating for room %s: %w", roomID.Hex(), err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
		// Lost the race (or the room vanished); the next iteration
		// re-reads and settles it.
	}
	return fmt.Errorf("rating recompute for room %s did not settle after %d attempts", roomID.Hex(), recomputeMaxRetries)
}

func (s *ratingService) aggregateReviews(ctx context.Context, roomID primitive.ObjectID) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"roomId": roomID, "_hidden": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"avg":   bson.M{"$avg": "$rating"},
		}}},
	}
	cursor, err := s.db.Collection(db.ReviewsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate reviews for room %s: %w", roomID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int     `bson:"total"`
		Avg   float64 `bson:"avg"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, 0, fmt.Errorf("failed to decode review aggregate for room %s: %w", roomID.Hex(), err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Avg, rows[0].Total, nil
}
