package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

// pushReports appends n distinct-reporter reports onto the target.
func pushReports(t *testing.T, database *mongo.Database, collection string, targetID primitive.ObjectID, n int) {
	t.Helper()
	reports := make(bson.A, 0, n)
	for i := 0; i < n; i++ {
		reports = append(reports, models.Report{
			UserID:     primitive.NewObjectID(),
			Reason:     fmt.Sprintf("report %d", i),
			ReportedAt: time.Now().UTC(),
		})
	}
	_, err := database.Collection(collection).UpdateByID(context.Background(), targetID,
		bson.M{"$push": bson.M{"reports": bson.M{"$each": reports}}})
	require.NoError(t, err)
}

func TestModerationService_SweepThresholds(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_moderation_sweep")
	cfg := testConfig()
	roomSvc := NewRoomService(database, nil, cfg)
	svc := NewModerationService(database, cfg, NewRatingService(database))
	ctx := context.Background()

	host := seedUser(t, database, models.RoleHost)
	clean := seedApprovedRoom(t, roomSvc, host, "Lightly Reported")
	dirty := seedApprovedRoom(t, roomSvc, host, "Heavily Reported")

	pushReports(t, database, db.RoomsCollection, clean.ID, 4)
	pushReports(t, database, db.RoomsCollection, dirty.ID, 5)

	summary, err := svc.RunEnforcementSweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.RoomsExamined)
	assert.Equal(t, 1, summary.RoomsHidden)
	assert.Equal(t, 0, summary.UsersBanned)
	assert.Empty(t, summary.Failures)

	var room models.Room
	require.NoError(t, database.Collection(db.RoomsCollection).
		FindOne(ctx, bson.M{"_id": dirty.ID}).Decode(&room))
	assert.Equal(t, models.RoomStatusHidden, room.Status)

	require.NoError(t, database.Collection(db.RoomsCollection).
		FindOne(ctx, bson.M{"_id": clean.ID}).Decode(&room))
	assert.Equal(t, models.RoomStatusApproved, room.Status)

	// Top-reported ranking: most reports first.
	require.Len(t, summary.TopRooms, 2)
	assert.Equal(t, dirty.ID, summary.TopRooms[0].TargetID)
	assert.Equal(t, 5, summary.TopRooms[0].ReportCount)
	assert.Equal(t, clean.ID, summary.TopRooms[1].TargetID)
}

func TestModerationService_SweepBansAuthor(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_moderation_ban")
	cfg := testConfig()
	roomSvc := NewRoomService(database, nil, cfg)
	reviewSvc := NewReviewService(database, cfg, NewRatingService(database))
	svc := NewModerationService(database, cfg, NewRatingService(database))
	ctx := context.Background()

	host := seedUser(t, database, models.RoleHost)
	author := seedUser(t, database, models.RoleTenant)
	second := seedUser(t, database, models.RoleTenant)
	banned := seedApprovedRoom(t, roomSvc, host, "Ban Worthy")
	other := seedApprovedRoom(t, roomSvc, host, "Host Other Room")

	pushReports(t, database, db.RoomsCollection, banned.ID, 10)

	review, err := reviewSvc.CreateReview(ctx, author.UserID, other.ID, CreateReviewRequest{Rating: 1, Comment: "abuse"})
	require.NoError(t, err)
	_, err = reviewSvc.CreateReview(ctx, second.UserID, other.ID, CreateReviewRequest{Rating: 5})
	require.NoError(t, err)
	pushReports(t, database, db.ReviewsCollection, review.ID, 5)

	summary, err := svc.RunEnforcementSweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.RoomsHidden)
	assert.Equal(t, 1, summary.ReviewsHidden)
	assert.Equal(t, 1, summary.UsersBanned)

	var hostDoc models.User
	require.NoError(t, database.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"_id": host.UserID}).Decode(&hostDoc))
	assert.True(t, hostDoc.Banned)

	// Hiding the review pulled it out of the rating aggregate.
	var room models.Room
	require.NoError(t, database.Collection(db.RoomsCollection).
		FindOne(ctx, bson.M{"_id": other.ID}).Decode(&room))
	assert.Equal(t, 5.0, room.AvgRating)
	assert.Equal(t, 1, room.TotalRatings)

	// Banning does not cascade to the host's other rooms.
	assert.Equal(t, models.RoomStatusApproved, room.Status)

	// The review author stayed under the ban threshold.
	var authorDoc models.User
	require.NoError(t, database.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"_id": author.UserID}).Decode(&authorDoc))
	assert.False(t, authorDoc.Banned)
}

func TestModerationService_SweepIdempotent(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_moderation_rerun")
	cfg := testConfig()
	roomSvc := NewRoomService(database, nil, cfg)
	svc := NewModerationService(database, cfg, NewRatingService(database))
	ctx := context.Background()

	host := seedUser(t, database, models.RoleHost)
	room := seedApprovedRoom(t, roomSvc, host, "Swept Twice")
	pushReports(t, database, db.RoomsCollection, room.ID, 10)

	first, err := svc.RunEnforcementSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RoomsHidden)
	assert.Equal(t, 1, first.UsersBanned)

	// No new reports: the second run examines but changes nothing.
	second, err := svc.RunEnforcementSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.RoomsExamined)
	assert.Equal(t, 0, second.RoomsHidden)
	assert.Equal(t, 0, second.UsersBanned)
}

func TestModerationService_SweepSkipsDeletedRooms(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_moderation_deleted")
	cfg := testConfig()
	roomSvc := NewRoomService(database, nil, cfg)
	svc := NewModerationService(database, cfg, NewRatingService(database))
	ctx := context.Background()

	host := seedUser(t, database, models.RoleHost)
	room := seedApprovedRoom(t, roomSvc, host, "Deleted Before Sweep")
	pushReports(t, database, db.RoomsCollection, room.ID, 10)
	require.NoError(t, roomSvc.SoftDeleteRoom(ctx, host, room.ID))

	summary, err := svc.RunEnforcementSweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.RoomsExamined)
	assert.Equal(t, 0, summary.RoomsHidden)
	assert.Equal(t, 0, summary.UsersBanned)
}

func TestModerationService_TopReportedOrdering(t *testing.T) {
	targets := []ReportedTarget{
		{TargetID: primitive.NewObjectID(), ReportCount: 2},
		{TargetID: primitive.NewObjectID(), ReportCount: 7},
		{TargetID: primitive.NewObjectID(), ReportCount: 7},
		{TargetID: primitive.NewObjectID(), ReportCount: 1},
	}

	top := topReported(targets, 3)
	require.Len(t, top, 3)
	assert.Equal(t, 7, top[0].ReportCount)
	assert.Equal(t, 7, top[1].ReportCount)
	// Ties break on id hex for a stable ranking.
	assert.Less(t, top[0].TargetID.Hex(), top[1].TargetID.Hex())
	assert.Equal(t, 2, top[2].ReportCount)
}

func TestModerationService_GetReportStats(t *testing.T) {
	database := setupServiceTestDB(t, "testdb_moderation_stats")
	cfg := testConfig()
	roomSvc := NewRoomService(database, nil, cfg)
	svc := NewModerationService(database, cfg, NewRatingService(database))
	ctx := context.Background()

	host := seedUser(t, database, models.RoleHost)
	reporter := seedUser(t, database, models.RoleTenant)
	room := seedApprovedRoom(t, roomSvc, host, "Stat Room")
	require.NoError(t, roomSvc.ReportRoom(ctx, room.ID, reporter.UserID, "spam"))

	stats, err := svc.GetReportStats(ctx)
	assert.NoError(t, err)
	require.Len(t, stats.Rooms, 1)
	assert.Empty(t, stats.Reviews)

	reported := stats.Rooms[0]
	assert.Equal(t, room.ID, reported.ID)
	assert.Equal(t, 1, reported.ReportCount)
	require.NotNil(t, reported.Author)
	assert.Equal(t, host.UserID, reported.Author.ID)
	require.Len(t, reported.Reporters, 1)
	assert.Equal(t, reporter.UserID, reported.Reporters[0].ID)

	// Reading the dashboard consumed nothing.
	statsAgain, err := svc.GetReportStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, statsAgain.Rooms[0].ReportCount)
}
