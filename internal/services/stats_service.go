package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tphuong3108/timnhatro-BE/internal/config"
	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

// TopHost is one row of the most-active-hosts ranking. Score weighs
// rooms at 1, likes at 0.5 and views at 0.2.
type TopHost struct {
	HostID     primitive.ObjectID `bson:"_id" json:"hostId"`
	FirstName  string             `bson:"firstName" json:"firstName"`
	LastName   string             `bson:"lastName" json:"lastName"`
	Avatar     string             `bson:"avatar" json:"avatar"`
	RoomCount  int                `bson:"roomCount" json:"roomCount"`
	TotalLikes int                `bson:"totalLikes" json:"totalLikes"`
	TotalViews int64              `bson:"totalViews" json:"totalViews"`
	Score      float64            `bson:"score" json:"score"`
}

// WeeklyOverview compares this calendar week against the previous one:
// new users, new rooms, and the views accumulated by this week's rooms.
// A week growing from zero activity counts as 100% growth.
type WeeklyOverview struct {
	NewUsers      int64   `json:"newUsers"`
	NewRooms      int64   `json:"newRooms"`
	NewViews      int64   `json:"newViews"`
	UserGrowthPct float64 `json:"userGrowthPct"`
	RoomGrowthPct float64 `json:"roomGrowthPct"`
	ViewGrowthPct float64 `json:"viewGrowthPct"`
	WeekStart     string  `json:"weekStart"`
	PrevWeekStart string  `json:"prevWeekStart"`
}

// IStatsService serves the admin dashboard's ranked reads. Everything
// here is read-only.
type IStatsService interface {
	PopularRooms(ctx context.Context) ([]models.Room, error)
	TopViewedRooms(ctx context.Context, limit int) ([]models.Room, error)
	TopHosts(ctx context.Context) ([]TopHost, error)
	GetWeeklyOverview(ctx context.Context) (*WeeklyOverview, error)
}

type statsService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewStatsService creates a new StatsService.
func NewStatsService(database *mongo.Database, cfg *config.Config) IStatsService {
	return &statsService{db: database, cfg: cfg}
}

// PopularRooms returns the five best-rated live rooms, ties broken by
// rating volume and then by likes.
func (s *statsService) PopularRooms(ctx context.Context) ([]models.Room, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "avgRating", Value: -1},
			{Key: "totalRatings", Value: -1},
			{Key: "totalLikes", Value: -1},
		}).
		SetLimit(5)
	cursor, err := s.db.Collection(db.RoomsCollection).Find(ctx, liveRoomFilter(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode popular rooms: %w", err)
	}
	return rooms, nil
}

// TopViewedRooms returns the most-viewed live rooms. A non-positive
// limit falls back to six, the dashboard's card count.
func (s *statsService) TopViewedRooms(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 {
		limit = 6
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "viewCount", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.db.Collection(db.RoomsCollection).Find(ctx, liveRoomFilter(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load top viewed rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode top viewed rooms: %w", err)
	}
	return rooms, nil
}

// TopHosts ranks hosts by an activity score over their live rooms and
// returns the top five with their profile fields joined in.
func (s *statsService) TopHosts(ctx context.Context) ([]TopHost, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: liveRoomFilter()}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$createdBy",
			"roomCount":  bson.M{"$sum": 1},
			"totalLikes": bson.M{"$sum": "$totalLikes"},
			"totalViews": bson.M{"$sum": "$viewCount"},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$add": bson.A{
				"$roomCount",
				bson.M{"$multiply": bson.A{"$totalLikes", 0.5}},
				bson.M{"$multiply": bson.A{"$totalViews", 0.2}},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: 5}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.UsersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "host",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$host", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{
			"firstName": "$host.firstName",
			"lastName":  "$host.lastName",
			"avatar":    "$host.avatar",
		}}},
		{{Key: "$project", Value: bson.M{"host": 0}}},
	}

	cursor, err := s.db.Collection(db.RoomsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top hosts: %w", err)
	}
	defer cursor.Close(ctx)

	hosts := []TopHost{}
	if err = cursor.All(ctx, &hosts); err != nil {
		return nil, fmt.Errorf("failed to decode top hosts: %w", err)
	}
	return hosts, nil
}

// GetWeeklyOverview counts new users and rooms since the start of the
// current week, sums the views on this week's rooms, and reports growth
// against the previous week.
func (s *statsService) GetWeeklyOverview(ctx context.Context) (*WeeklyOverview, error) {
	weekStart := StartOfWeek(time.Now())
	prevStart := weekStart.AddDate(0, 0, -7)

	countBetween := func(collection string, from, to time.Time) (int64, error) {
		filter := bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}
		return s.db.Collection(collection).CountDocuments(ctx, filter)
	}

	far := weekStart.AddDate(0, 0, 7)
	overview := &WeeklyOverview{
		WeekStart:     weekStart.Format(time.RFC3339),
		PrevWeekStart: prevStart.Format(time.RFC3339),
	}

	var err error
	if overview.NewUsers, err = countBetween(db.UsersCollection, weekStart, far); err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}
	if overview.NewRooms, err = countBetween(db.RoomsCollection, weekStart, far); err != nil {
		return nil, fmt.Errorf("failed to count new rooms: %w", err)
	}
	if overview.NewViews, err = s.sumViewsBetween(ctx, weekStart, far); err != nil {
		return nil, fmt.Errorf("failed to sum new views: %w", err)
	}

	prevUsers, err := countBetween(db.UsersCollection, prevStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count previous-week users: %w", err)
	}
	prevRooms, err := countBetween(db.RoomsCollection, prevStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count previous-week rooms: %w", err)
	}
	prevViews, err := s.sumViewsBetween(ctx, prevStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to sum previous-week views: %w", err)
	}

	overview.UserGrowthPct = growthPct(overview.NewUsers, prevUsers)
	overview.RoomGrowthPct = growthPct(overview.NewRooms, prevRooms)
	overview.ViewGrowthPct = growthPct(overview.NewViews, prevViews)
	return overview, nil
}

// sumViewsBetween totals viewCount over rooms created in [from, to).
func (s *statsService) sumViewsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$viewCount"},
		}}},
	}
	cursor, err := s.db.Collection(db.RoomsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// growthPct reports week-over-week growth; a week growing from nothing
// is 100% when anything happened at all.
func growthPct(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}
