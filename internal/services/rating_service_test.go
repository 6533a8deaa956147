package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

func TestRatingService_ConcurrentReviews(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_rating_concurrent")
	cfg := testConfig()
	roomSvc := NewRoomService(database, nil, cfg)
	reviewSvc := NewReviewService(database, cfg, NewRatingService(database))
	ctx := context.Background()

	host := seedUser(t, database, models.RoleHost)
	room := seedApprovedRoom(t, roomSvc, host, "Contended Room")

	reviewers := make([]models.Actor, 4)
	for i := range reviewers {
		reviewers[i] = seedUser(t, database, models.RoleTenant)
	}
	ratings := []int{1, 2, 3, 4}

	// Concurrent creates race their recomputes; a recompute holding a
	// stale review set must not land after a fresher one.
	var wg sync.WaitGroup
	errs := make(chan error, len(reviewers))
	for i := range reviewers {
		wg.Add(1)
		go func(reviewer models.Actor, rating int) {
			defer wg.Done()
			_, err := reviewSvc.CreateReview(ctx, reviewer.UserID, room.ID,
				CreateReviewRequest{Rating: rating})
			errs <- err
		}(reviewers[i], ratings[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	avg, total := roomAggregate(t, database, room.ID)
	assert.Equal(t, 4, total)
	assert.Equal(t, 2.5, avg)
}

func TestRatingService_RecomputeMissingRoomIsNoop(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_rating_missing")
	svc := NewRatingService(database)

	assert.NoError(t, svc.RecomputeRoomRating(context.Background(), primitive.NewObjectID()))
}
