package services

import (
	"context"
	"errors"
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

// CreateReviewRequest is the typed input for posting a review.
type CreateReviewRequest struct {
	Rating  int
	Comment string
	Images  []string
}

// UpdateReviewRequest carries optional review updates; nil fields stay.
type UpdateReviewRequest struct {
	Rating  *int
	Comment *string
	Images  *[]string
}

// ReviewWithAuthor joins the review with its author for admin display.
type ReviewWithAuthor struct {
	models.Review `bson:",inline"`
	Author        *models.User `bson:"author,omitempty" json:"author,omitempty"`
}

// IReviewService defines the interface for review-related operations.
// Every mutation that can change a room's rating aggregate triggers a
// synchronous recompute through the rating service.
type IReviewService interface {
	CreateReview(ctx context.Context, userID, roomID primitive.ObjectID, req CreateReviewRequest) (*models.Review, error)
	ListRoomReviews(ctx context.Context, roomID primitive.ObjectID, page, limit int) ([]models.Review, *Pagination, error)
	UpdateReview(ctx context.Context, userID, reviewID primitive.ObjectID, req UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID) error
	ToggleLike(ctx context.Context, reviewID, userID primitive.ObjectID) (bool, error)
	ReportReview(ctx context.Context, reviewID, reporterID primitive.ObjectID, reason string) error
	HideReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error)
	UnhideReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error)
	AdminListReviews(ctx context.Context, page, limit int) ([]ReviewWithAuthor, *Pagination, error)
}

// reviewService implements IReviewService.
type reviewService struct {
	db     *mongo.Database
	cfg    *config.Config
	rating IRatingService
}

// NewReviewService creates a new ReviewService.
func NewReviewService(database *mongo.Database, cfg *config.Config, rating IRatingService) IReviewService {
	return &reviewService{db: database, cfg: cfg, rating: rating}
}

// requireLiveRoom rejects reviews against rooms that are not approved or
// are deleted.
func (s *reviewService) requireLiveRoom(ctx context.Context, roomID primitive.ObjectID) error {
	var room models.Room
	err := s.db.Collection(db.RoomsCollection).FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load room %s: %w", roomID.Hex(), err)
	}
	if room.IsDeleted {
		return ErrRoomDeleted
	}
	if room.Status != models.RoomStatusApproved {
		return ErrRoomNotApproved
	}
	return nil
}

// CreateReview posts a review on an approved room. One review per
// (room, user) pair: the pre-check gives a friendly conflict and the
// unique compound index closes the race behind it. The rating recompute
// runs synchronously; a recompute failure after the write is surfaced,
// never dropped.
func (s *reviewService) CreateReview(ctx context.Context, userID, roomID primitive.ObjectID, req CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, &DomainError{KindInvalidState, "rating must be between 1 and 5"}
	}
	if err := s.requireLiveRoom(ctx, roomID); err != nil {
		return nil, err
	}

	collection := s.db.Collection(db.ReviewsCollection)
	err := collection.FindOne(ctx, bson.M{"roomId": roomID, "userId": userID}).Err()
	if err == nil {
		return nil, ErrAlreadyReviewed
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to check for existing review: %w", err)
	}

	now := time.Now().UTC()
	review := &models.Review{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Images:    req.Images,
		LikeBy:    []primitive.ObjectID{},
		Reports:   []models.Report{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if review.Images == nil {
		review.Images = []string{}
	}

	if _, err := collection.InsertOne(ctx, review); err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to insert review for room %s: %w", roomID.Hex(), err)
	}

	if err := s.rating.RecomputeRoomRating(ctx, roomID); err != nil {
		return nil, fmt.Errorf("review %s created but rating recompute failed: %w", review.ID.Hex(), err)
	}
	return review, nil
}

// ListRoomReviews returns the visible reviews of an approved room,
// newest first.
func (s *reviewService) ListRoomReviews(ctx context.Context, roomID primitive.ObjectID, page, limit int) ([]models.Review, *Pagination, error) {
	if err := s.requireLiveRoom(ctx, roomID); err != nil {
		return nil, nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.cfg.DefaultPageSize
	}

	collection := s.db.Collection(db.ReviewsCollection)
	filter := bson.M{"roomId": roomID, "_hidden": false}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	pagination := &Pagination{
		Total:      total,
		Limit:      limit,
		Page:       page,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	return reviews, pagination, nil
}

// UpdateReview lets the author change rating, comment or images, then
// recomputes the room aggregate.
func (s *reviewService) UpdateReview(ctx context.Context, userID, reviewID primitive.ObjectID, req UpdateReviewRequest) (*models.Review, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, &DomainError{KindInvalidState, "rating must be between 1 and 5"}
	}

	collection := s.db.Collection(db.ReviewsCollection)
	var review models.Review
	if err := collection.FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review %s: %w", reviewID.Hex(), err)
	}
	if review.UserID != userID {
		return nil, ErrForbidden
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Rating != nil {
		set["rating"] = *req.Rating
	}
	if req.Comment != nil {
		set["comment"] = *req.Comment
	}
	if req.Images != nil {
		set["images"] = *req.Images
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Review
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": reviewID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review %s: %w", reviewID.Hex(), err)
	}

	if err := s.rating.RecomputeRoomRating(ctx, updated.RoomID); err != nil {
		return nil, fmt.Errorf("review %s updated but rating recompute failed: %w", reviewID.Hex(), err)
	}
	return &updated, nil
}

// DeleteReview removes a review for good (reviews are hard-deleted,
// unlike rooms) and recomputes the room aggregate. Authors can delete
// their own reviews; admins can delete any.
func (s *reviewService) DeleteReview(ctx context.Context, actor models.Actor, reviewID primitive.ObjectID) error {
	collection := s.db.Collection(db.ReviewsCollection)
	var review models.Review
	if err := collection.FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to load review %s: %w", reviewID.Hex(), err)
	}
	if !actor.IsAdmin() && review.UserID != actor.UserID {
		return ErrForbidden
	}

	if _, err := collection.DeleteOne(ctx, bson.M{"_id": reviewID}); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", reviewID.Hex(), err)
	}

	if err := s.rating.RecomputeRoomRating(ctx, review.RoomID); err != nil {
		return fmt.Errorf("review %s deleted but rating recompute failed: %w", reviewID.Hex(), err)
	}
	return nil
}

// ToggleLike flips the user's like on a visible review and returns the
// resulting state.
func (s *reviewService) ToggleLike(ctx context.Context, reviewID, userID primitive.ObjectID) (bool, error) {
	collection := s.db.Collection(db.ReviewsCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review models.Review
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": reviewID, "_hidden": false},
		likeTogglePipeline(userID), opts).Decode(&review)
	if err == nil {
		return review.Liked(userID), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, fmt.Errorf("failed to toggle like on review %s: %w", reviewID.Hex(), err)
	}

	checkErr := collection.FindOne(ctx, bson.M{"_id": reviewID}).Err()
	if errors.Is(checkErr, mongo.ErrNoDocuments) {
		return false, ErrReviewNotFound
	}
	if checkErr != nil {
		return false, fmt.Errorf("failed to load review %s: %w", reviewID.Hex(), checkErr)
	}
	return false, ErrReviewHidden
}

// ReportReview appends an abuse report against a visible review, one per
// distinct reporter.
func (s *reviewService) ReportReview(ctx context.Context, reviewID, reporterID primitive.ObjectID, reason string) error {
	report := models.Report{UserID: reporterID, Reason: reason, ReportedAt: time.Now().UTC()}
	result, err := s.db.Collection(db.ReviewsCollection).UpdateOne(ctx,
		bson.M{
			"_id":            reviewID,
			"_hidden":        false,
			"reports.userId": bson.M{"$ne": reporterID},
		},
		bson.M{"$push": bson.M{"reports": report}})
	if err != nil {
		return fmt.Errorf("failed to report review %s: %w", reviewID.Hex(), err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	var review models.Review
	checkErr := s.db.Collection(db.ReviewsCollection).FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review)
	if errors.Is(checkErr, mongo.ErrNoDocuments) {
		return ErrReviewNotFound
	}
	if checkErr != nil {
		return fmt.Errorf("failed to load review %s: %w", reviewID.Hex(), checkErr)
	}
	if review.Hidden {
		return ErrReviewHidden
	}
	return ErrAlreadyReported
}

// HideReview takes a review out of public reads and out of the room's
// rating aggregate. Hiding an already-hidden review is a no-op.
func (s *reviewService) HideReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error) {
	return s.setHidden(ctx, reviewID, true)
}

// UnhideReview restores a hidden review, putting it back into the
// aggregate. Unhiding a visible review is a no-op.
func (s *reviewService) UnhideReview(ctx context.Context, reviewID primitive.ObjectID) (*models.Review, error) {
	return s.setHidden(ctx, reviewID, false)
}

func (s *reviewService) setHidden(ctx context.Context, reviewID primitive.ObjectID, hidden bool) (*models.Review, error) {
	collection := s.db.Collection(db.ReviewsCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review models.Review
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": reviewID, "_hidden": !hidden},
		bson.M{"$set": bson.M{"_hidden": hidden, "updatedAt": time.Now().UTC()}}, opts).Decode(&review)
	if err == nil {
		// Visibility changed, so the room aggregate did too.
		if recomputeErr := s.rating.RecomputeRoomRating(ctx, review.RoomID); recomputeErr != nil {
			return nil, fmt.Errorf("review %s visibility changed but rating recompute failed: %w", reviewID.Hex(), recomputeErr)
		}
		return &review, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update review %s: %w", reviewID.Hex(), err)
	}

	// Already in the requested state, or gone.
	checkErr := collection.FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review)
	if errors.Is(checkErr, mongo.ErrNoDocuments) {
		return nil, ErrReviewNotFound
	}
	if checkErr != nil {
		return nil, fmt.Errorf("failed to load review %s: %w", reviewID.Hex(), checkErr)
	}
	return &review, nil
}

// AdminListReviews returns every review joined with its author for the
// moderation dashboard, newest first. Hidden reviews are included.
func (s *reviewService) AdminListReviews(ctx context.Context, page, limit int) ([]ReviewWithAuthor, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.cfg.DefaultPageSize
	}

	collection := s.db.Collection(db.ReviewsCollection)
	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.UsersCollection,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{"author.password": 0}}},
	}
	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list reviews for admin: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []ReviewWithAuthor{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, nil, fmt.Errorf("failed to decode admin reviews: %w", err)
	}

	pagination := &Pagination{
		Total:      total,
		Limit:      limit,
		Page:       page,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	return reviews, pagination, nil
}
