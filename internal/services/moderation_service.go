package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tphuong3108/timnhatro-BE/internal/config"
	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/logger"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

// ReportedTarget is one row of the most-reported ranking.
type ReportedTarget struct {
	TargetID    primitive.ObjectID `json:"targetId"`
	AuthorID    primitive.ObjectID `json:"authorId"`
	Label       string             `json:"label"` // room name or review comment
	ReportCount int                `json:"reportCount"`
}

// SweepSummary reports what a single enforcement sweep did. Re-running
// the sweep with no new reports yields zero side-effect counts.
type SweepSummary struct {
	StartedAt       time.Time        `json:"startedAt"`
	FinishedAt      time.Time        `json:"finishedAt"`
	RoomsExamined   int              `json:"roomsExamined"`
	ReviewsExamined int              `json:"reviewsExamined"`
	RoomsHidden     int              `json:"roomsHidden"`
	ReviewsHidden   int              `json:"reviewsHidden"`
	UsersBanned     int              `json:"usersBanned"`
	Failures        []string         `json:"failures"`
	TopRooms        []ReportedTarget `json:"topRooms"`
	TopReviews      []ReportedTarget `json:"topReviews"`
}

// ReportedRoom joins a report-bearing room with its author and the
// reporters' identities for the admin dashboard. Reading never alters
// the report records.
type ReportedRoom struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Status      models.RoomStatus  `bson:"status" json:"status"`
	Reports     []models.Report    `bson:"reports" json:"reports"`
	ReportCount int                `bson:"reportCount" json:"reportCount"`
	Author      *models.User       `bson:"author,omitempty" json:"author,omitempty"`
	Reporters   []models.User      `bson:"reporters" json:"reporters"`
}

// ReportedReview is the review-side counterpart of ReportedRoom.
type ReportedReview struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	RoomID      primitive.ObjectID `bson:"roomId" json:"roomId"`
	Comment     string             `bson:"comment" json:"comment"`
	Hidden      bool               `bson:"_hidden" json:"hidden"`
	Reports     []models.Report    `bson:"reports" json:"reports"`
	ReportCount int                `bson:"reportCount" json:"reportCount"`
	Author      *models.User       `bson:"author,omitempty" json:"author,omitempty"`
	Reporters   []models.User      `bson:"reporters" json:"reporters"`
}

// ReportStats is the admin dashboard view of accumulated reports.
type ReportStats struct {
	Rooms   []ReportedRoom   `json:"rooms"`
	Reviews []ReportedReview `json:"reviews"`
}

// IModerationService converts accumulated reports into enforcement
// actions and exposes the report dashboard reads.
type IModerationService interface {
	RunEnforcementSweep(ctx context.Context) (*SweepSummary, error)
	GetReportStats(ctx context.Context) (*ReportStats, error)
}

type moderationService struct {
	db     *mongo.Database
	cfg    *config.Config
	rating IRatingService
}

// NewModerationService creates a new ModerationService.
func NewModerationService(database *mongo.Database, cfg *config.Config, rating IRatingService) IModerationService {
	return &moderationService{db: database, cfg: cfg, rating: rating}
}

// RunEnforcementSweep walks every report-bearing room and review, hides
// targets at or past the hide threshold and bans authors at or past the
// ban threshold. Both actions are idempotent: the hide update matches
// only non-hidden targets and the ban update only non-banned users, so a
// re-run with no new reports changes nothing. A single target's failure
// is logged and recorded; the sweep keeps going. Banning does not
// cascade: a banned host's other approved rooms stay visible unless
// independently hidden.
func (s *moderationService) RunEnforcementSweep(ctx context.Context) (*SweepSummary, error) {
	summary := &SweepSummary{
		StartedAt: time.Now().UTC(),
		Failures:  []string{},
	}

	roomTargets, err := s.sweepRooms(ctx, summary)
	if err != nil {
		return nil, err
	}
	reviewTargets, err := s.sweepReviews(ctx, summary)
	if err != nil {
		return nil, err
	}

	summary.TopRooms = topReported(roomTargets, s.cfg.TopReportedLimit)
	summary.TopReviews = topReported(reviewTargets, s.cfg.TopReportedLimit)
	summary.FinishedAt = time.Now().UTC()

	logger.Log.WithFields(map[string]interface{}{
		"roomsExamined":   summary.RoomsExamined,
		"reviewsExamined": summary.ReviewsExamined,
		"roomsHidden":     summary.RoomsHidden,
		"reviewsHidden":   summary.ReviewsHidden,
		"usersBanned":     summary.UsersBanned,
		"failures":        len(summary.Failures),
	}).Info("enforcement sweep finished")

	return summary, nil
}

func (s *moderationService) sweepRooms(ctx context.Context, summary *SweepSummary) ([]ReportedTarget, error) {
	collection := s.db.Collection(db.RoomsCollection)
	cursor, err := collection.Find(ctx, bson.M{
		"reports.0": bson.M{"$exists": true},
		"isDeleted": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load reported rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode reported rooms: %w", err)
	}

	targets := make([]ReportedTarget, 0, len(rooms))
	for _, room := range rooms {
		summary.RoomsExamined++
		count := len(room.Reports)
		targets = append(targets, ReportedTarget{
			TargetID:    room.ID,
			AuthorID:    room.CreatedBy,
			Label:       room.Name,
			ReportCount: count,
		})

		if count >= s.cfg.HideReportThreshold && room.Status != models.RoomStatusHidden {
			result, updateErr := collection.UpdateOne(ctx,
				bson.M{"_id": room.ID, "status": bson.M{"$ne": models.RoomStatusHidden}, "isDeleted": false},
				bson.M{"$set": bson.M{"status": models.RoomStatusHidden, "updatedAt": time.Now().UTC()}})
			if updateErr != nil {
				s.recordFailure(summary, "hide room "+room.ID.Hex(), updateErr)
			} else if result.ModifiedCount > 0 {
				summary.RoomsHidden++
			}
		}

		if count >= s.cfg.BanReportThreshold {
			s.banAuthor(ctx, summary, room.CreatedBy, "room "+room.ID.Hex())
		}
	}
	return targets, nil
}

func (s *moderationService) sweepReviews(ctx context.Context, summary *SweepSummary) ([]ReportedTarget, error) {
	collection := s.db.Collection(db.ReviewsCollection)
	cursor, err := collection.Find(ctx, bson.M{"reports.0": bson.M{"$exists": true}})
	if err != nil {
		return nil, fmt.Errorf("failed to load reported reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reported reviews: %w", err)
	}

	targets := make([]ReportedTarget, 0, len(reviews))
	for _, review := range reviews {
		summary.ReviewsExamined++
		count := len(review.Reports)
		targets = append(targets, ReportedTarget{
			TargetID:    review.ID,
			AuthorID:    review.UserID,
			Label:       review.Comment,
			ReportCount: count,
		})

		if count >= s.cfg.HideReportThreshold && !review.Hidden {
			result, updateErr := collection.UpdateOne(ctx,
				bson.M{"_id": review.ID, "_hidden": false},
				bson.M{"$set": bson.M{"_hidden": true, "updatedAt": time.Now().UTC()}})
			if updateErr != nil {
				s.recordFailure(summary, "hide review "+review.ID.Hex(), updateErr)
			} else if result.ModifiedCount > 0 {
				summary.ReviewsHidden++
				// The review left the aggregate; keep the room consistent.
				if recomputeErr := s.rating.RecomputeRoomRating(ctx, review.RoomID); recomputeErr != nil {
					s.recordFailure(summary, "recompute rating for room "+review.RoomID.Hex(), recomputeErr)
				}
			}
		}

		if count >= s.cfg.BanReportThreshold {
			s.banAuthor(ctx, summary, review.UserID, "review "+review.ID.Hex())
		}
	}
	return targets, nil
}

// banAuthor bans the target's author if not already banned. A repeated
// ban is a no-op, never an error.
func (s *moderationService) banAuthor(ctx context.Context, summary *SweepSummary, authorID primitive.ObjectID, cause string) {
	result, err := s.db.Collection(db.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": authorID, "banned": false},
		bson.M{"$set": bson.M{"banned": true, "updatedAt": time.Now().UTC()}})
	if err != nil {
		s.recordFailure(summary, "ban author "+authorID.Hex()+" for "+cause, err)
		return
	}
	if result.ModifiedCount > 0 {
		summary.UsersBanned++
		logger.Log.WithFields(map[string]interface{}{
			"userId": authorID.Hex(),
			"cause":  cause,
		}).Warn("author banned by enforcement sweep")
	}
}

func (s *moderationService) recordFailure(summary *SweepSummary, action string, err error) {
	msg := fmt.Sprintf("%s: %v", action, err)
	summary.Failures = append(summary.Failures, msg)
	logger.Log.WithField("action", action).WithError(err).Error("enforcement sweep step failed")
}

// topReported orders targets by report count descending, breaking ties
// by target id for a stable ranking, and keeps the first limit entries.
func topReported(targets []ReportedTarget, limit int) []ReportedTarget {
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].ReportCount != targets[j].ReportCount {
			return targets[i].ReportCount > targets[j].ReportCount
		}
		return targets[i].TargetID.Hex() < targets[j].TargetID.Hex()
	})
	if len(targets) > limit {
		targets = targets[:limit]
	}
	return targets
}

// GetReportStats returns every report-bearing room and review with the
// author and reporter identities joined in, for the admin dashboard.
func (s *moderationService) GetReportStats(ctx context.Context) (*ReportStats, error) {
	stats := &ReportStats{Rooms: []ReportedRoom{}, Reviews: []ReportedReview{}}

	roomPipeline := reportStatsPipeline("createdBy")
	cursor, err := s.db.Collection(db.RoomsCollection).Aggregate(ctx, roomPipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reported rooms: %w", err)
	}
	if err = cursor.All(ctx, &stats.Rooms); err != nil {
		return nil, fmt.Errorf("failed to decode reported rooms: %w", err)
	}

	reviewPipeline := reportStatsPipeline("userId")
	cursor, err = s.db.Collection(db.ReviewsCollection).Aggregate(ctx, reviewPipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reported reviews: %w", err)
	}
	if err = cursor.All(ctx, &stats.Reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reported reviews: %w", err)
	}

	return stats, nil
}

// reportStatsPipeline joins the author (via authorField) and the
// reporters onto each report-bearing document, most reported first.
func reportStatsPipeline(authorField string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reports.0": bson.M{"$exists": true}}}},
		{{Key: "$addFields", Value: bson.M{"reportCount": bson.M{"$size": "$reports"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "reportCount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.UsersCollection,
			"localField":   authorField,
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.UsersCollection,
			"localField":   "reports.userId",
			"foreignField": "_id",
			"as":           "reporters",
		}}},
		{{Key: "$project", Value: bson.M{"author.password": 0, "reporters.password": 0}}},
	}
}
