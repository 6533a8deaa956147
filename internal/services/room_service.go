package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tphuong3108/timnhatro-BE/internal/cache"
	"github.com/tphuong3108/timnhatro-BE/internal/config"
	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
	"github.com/tphuong3108/timnhatro-BE/internal/utils"
)

// CreateRoomRequest is the typed input for creating a listing.
// VerifierID carries the explicit verifier for owner-verified creation;
// when set (or when the creator is an admin) the room skips the pending
// queue and enters approved directly.
type CreateRoomRequest struct {
	Name        string
	Description string
	Price       float64
	Amenities   []primitive.ObjectID
	Address     string
	Ward        primitive.ObjectID
	Longitude   *float64
	Latitude    *float64
	Images      []string
	Videos      []string
	VerifierID  *primitive.ObjectID
}

// EditRoomRequest carries optional field updates; nil fields are left
// untouched. Keeping the surface typed and bounded lets the state machine
// check its preconditions against known fields instead of an open map.
type EditRoomRequest struct {
	Name        *string
	Description *string
	Price       *float64
	Amenities   *[]primitive.ObjectID
	Address     *string
	Ward        *primitive.ObjectID
	Longitude   *float64
	Latitude    *float64
	Images      *[]string
	Videos      *[]string
}

// SearchFilter holds the independently optional search criteria; all
// supplied filters AND together.
type SearchFilter struct {
	Name       string
	Amenity    string // amenity id or slug
	Address    string
	Ward       *primitive.ObjectID
	PriceMin   *float64
	PriceMax   *float64
	MinRating  *float64
	MinRatings *int
}

// ListRoomsQuery is a paginated, sortable listing request.
type ListRoomsQuery struct {
	Page      int
	Limit     int
	SortBy    string // "latest" or "rating"
	SortOrder string // "asc" or "desc"
}

// Pagination describes a page of results.
type Pagination struct {
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

// HotRoom is a row of the weekly hot-rooms ranking.
type HotRoom struct {
	RoomID        primitive.ObjectID `bson:"roomId" json:"roomId"`
	Name          string             `bson:"name" json:"name"`
	Address       string             `bson:"address" json:"address"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	AvgRating     float64            `bson:"avgRating" json:"avgRating"`
	FavoriteCount int                `bson:"favoriteCount" json:"favoriteCount"`
	TotalLikes    int                `bson:"totalLikes" json:"totalLikes"`
}

// IRoomService defines the interface for room-related operations.
type IRoomService interface {
	CreateRoom(ctx context.Context, actor models.Actor, req CreateRoomRequest) (*models.Room, error)
	GetRoomDetails(ctx context.Context, idOrSlug string) (*models.Room, []models.Review, error)
	GetAdminRoomDetails(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error)
	ListApprovedRooms(ctx context.Context, q ListRoomsQuery) ([]models.Room, *Pagination, error)
	ListHostRooms(ctx context.Context, hostID primitive.ObjectID, q ListRoomsQuery) ([]models.Room, *Pagination, error)
	ListAllRooms(ctx context.Context, q ListRoomsQuery) ([]models.Room, *Pagination, error)
	EditRoom(ctx context.Context, actor models.Actor, roomID primitive.ObjectID, req EditRoomRequest) (*models.Room, error)
	ApproveRoom(ctx context.Context, adminID, roomID primitive.ObjectID) (*models.Room, error)
	SoftDeleteRoom(ctx context.Context, actor models.Actor, roomID primitive.ObjectID) error
	SetAvailability(ctx context.Context, actor models.Actor, roomID primitive.ObjectID, availability models.Availability) error
	ToggleLike(ctx context.Context, roomID, userID primitive.ObjectID) (bool, error)
	AddFavorite(ctx context.Context, roomID, userID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, roomID, userID primitive.ObjectID) error
	ListFavoriteRooms(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error)
	ReportRoom(ctx context.Context, roomID, reporterID primitive.ObjectID, reason string) error
	SearchRooms(ctx context.Context, filter SearchFilter) ([]models.Room, error)
	NearbyRooms(ctx context.Context, longitude, latitude float64, maxDistanceMeters int) ([]models.Room, error)
	HotRooms(ctx context.Context) ([]HotRoom, error)
}

// roomService implements IRoomService.
type roomService struct {
	db  *mongo.Database
	rdb *redis.Client
	cfg *config.Config
}

// NewRoomService creates a new RoomService.
func NewRoomService(database *mongo.Database, rdb *redis.Client, cfg *config.Config) IRoomService {
	return &roomService{db: database, rdb: rdb, cfg: cfg}
}

const hotRoomsCacheKey = "rooms:hot"

// StartOfWeek returns Sunday 00:00 of t's week, in t's location.
func StartOfWeek(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).
		AddDate(0, 0, -int(t.Weekday()))
}

// liveRoomFilter matches rooms visible on public read paths.
func liveRoomFilter() bson.M {
	return bson.M{"status": models.RoomStatusApproved, "isDeleted": false}
}

// uniqueSlug finds the first free slug derived from name, appending a
// numeric suffix on collision. excludeID skips the room being renamed.
// The unique index on slug still guards the race between the scan and the
// write; callers retry through db.Try on a duplicate key error.
func (s *roomService) uniqueSlug(ctx context.Context, name string, excludeID *primitive.ObjectID) (string, error) {
	base := utils.Slugify(name)
	collection := s.db.Collection(db.RoomsCollection)
	for counter := 0; ; counter++ {
		candidate := utils.SlugWithSuffix(base, counter)
		filter := bson.M{"slug": candidate}
		if excludeID != nil {
			filter["_id"] = bson.M{"$ne": *excludeID}
		}
		err := collection.FindOne(ctx, filter).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to probe slug %q: %w", candidate, err)
		}
	}
}

// CreateRoom creates a new listing. Hosts' rooms enter the pending
// moderation queue; admins and owner-verified creations go straight to
// approved with verifiedBy set.
func (s *roomService) CreateRoom(ctx context.Context, actor models.Actor, req CreateRoomRequest) (*models.Room, error) {
	if !actor.IsAdmin() && !actor.IsHost() {
		return nil, ErrForbidden
	}

	collection := s.db.Collection(db.RoomsCollection)
	now := time.Now().UTC()

	room := &models.Room{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Amenities:    req.Amenities,
		Address:      req.Address,
		Ward:         req.Ward,
		Images:       req.Images,
		Videos:       req.Videos,
		LikeBy:       []primitive.ObjectID{},
		Favorites:    []primitive.ObjectID{},
		Reports:      []models.Report{},
		Status:       models.RoomStatusPending,
		Availability: models.AvailabilityAvailable,
		CreatedBy:    actor.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if room.Amenities == nil {
		room.Amenities = []primitive.ObjectID{}
	}
	if room.Images == nil {
		room.Images = []string{}
	}
	if room.Videos == nil {
		room.Videos = []string{}
	}
	if req.Longitude != nil && req.Latitude != nil {
		room.Location = models.NewGeoPoint(*req.Longitude, *req.Latitude)
	}

	switch {
	case actor.IsAdmin():
		verifier := actor.UserID
		room.Status = models.RoomStatusApproved
		room.VerifiedBy = &verifier
	case req.VerifierID != nil:
		room.Status = models.RoomStatusApproved
		room.VerifiedBy = req.VerifierID
	}

	err := db.Try(func(attempt int) error {
		slug, slugErr := s.uniqueSlug(ctx, req.Name, nil)
		if slugErr != nil {
			return slugErr
		}
		room.Slug = slug
		_, insertErr := collection.InsertOne(ctx, room)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert room for user %s: %w", actor.UserID.Hex(), err)
	}
	return room, nil
}

// detailsQuery matches a room by hex id or by slug.
func detailsQuery(idOrSlug string) bson.M {
	if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		return bson.M{"_id": id}
	}
	return bson.M{"slug": idOrSlug}
}

// GetRoomDetails returns an approved room together with its visible
// reviews, atomically bumping the view counter on the way.
func (s *roomService) GetRoomDetails(ctx context.Context, idOrSlug string) (*models.Room, []models.Review, error) {
	filter := detailsQuery(idOrSlug)
	for k, v := range liveRoomFilter() {
		filter[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room models.Room
	err := s.db.Collection(db.RoomsCollection).FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"viewCount": 1}}, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("failed to load room %q: %w", idOrSlug, err)
	}

	reviewOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.db.Collection(db.ReviewsCollection).Find(ctx, bson.M{
		"roomId":  room.ID,
		"_hidden": false,
	}, reviewOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reviews for room %s: %w", room.ID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, nil, fmt.Errorf("failed to decode reviews for room %s: %w", room.ID.Hex(), err)
	}
	return &room, reviews, nil
}

// GetAdminRoomDetails returns a room regardless of moderation state or
// soft deletion. Admin inspection is the one read path deleted rooms stay
// visible on.
func (s *roomService) GetAdminRoomDetails(ctx context.Context, roomID primitive.ObjectID) (*models.Room, error) {
	var room models.Room
	err := s.db.Collection(db.RoomsCollection).FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to load room %s: %w", roomID.Hex(), err)
	}
	return &room, nil
}

func (q ListRoomsQuery) normalize(defaultLimit int) ListRoomsQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	return q
}

func (q ListRoomsQuery) sort() bson.D {
	field := "createdAt"
	if q.SortBy == "rating" {
		field = "avgRating"
	}
	order := 1
	if q.SortOrder == "desc" {
		order = -1
	}
	return bson.D{{Key: field, Value: order}}
}

func (s *roomService) listRooms(ctx context.Context, filter bson.M, q ListRoomsQuery) ([]models.Room, *Pagination, error) {
	q = q.normalize(s.cfg.DefaultPageSize)
	collection := s.db.Collection(db.RoomsCollection)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count rooms: %w", err)
	}

	opts := options.Find().
		SetSort(q.sort()).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, nil, fmt.Errorf("failed to decode rooms: %w", err)
	}

	pagination := &Pagination{
		Total:      total,
		Limit:      q.Limit,
		Page:       q.Page,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}
	return rooms, pagination, nil
}

// ListApprovedRooms returns the public, paginated listing page.
func (s *roomService) ListApprovedRooms(ctx context.Context, q ListRoomsQuery) ([]models.Room, *Pagination, error) {
	return s.listRooms(ctx, liveRoomFilter(), q)
}

// ListHostRooms returns a host's own rooms in every moderation state,
// newest first.
func (s *roomService) ListHostRooms(ctx context.Context, hostID primitive.ObjectID, q ListRoomsQuery) ([]models.Room, *Pagination, error) {
	q.SortOrder = "desc"
	return s.listRooms(ctx, bson.M{"createdBy": hostID, "isDeleted": false}, q)
}

// ListAllRooms is the admin view: every room, deleted ones included.
func (s *roomService) ListAllRooms(ctx context.Context, q ListRoomsQuery) ([]models.Room, *Pagination, error) {
	return s.listRooms(ctx, bson.M{}, q)
}

// EditRoom applies field updates under the moderation rules: a host can
// only edit their own rooms and an edit to an approved room sends it back
// to pending with verifiedBy cleared for re-review. Admin edits never
// demote status. Deleted rooms reject all edits.
func (s *roomService) EditRoom(ctx context.Context, actor models.Actor, roomID primitive.ObjectID, req EditRoomRequest) (*models.Room, error) {
	collection := s.db.Collection(db.RoomsCollection)

	var room models.Room
	if err := collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to load room %s: %w", roomID.Hex(), err)
	}
	if room.IsDeleted {
		return nil, ErrRoomDeleted
	}
	if !actor.IsAdmin() {
		if !actor.IsHost() || room.CreatedBy != actor.UserID {
			return nil, ErrForbidden
		}
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.Amenities != nil {
		set["amenities"] = *req.Amenities
	}
	if req.Address != nil {
		set["address"] = *req.Address
	}
	if req.Ward != nil {
		set["ward"] = *req.Ward
	}
	if req.Longitude != nil && req.Latitude != nil {
		set["location"] = models.NewGeoPoint(*req.Longitude, *req.Latitude)
	}
	if req.Images != nil {
		set["images"] = *req.Images
	}
	if req.Videos != nil {
		set["videos"] = *req.Videos
	}
	if req.Name != nil {
		set["name"] = *req.Name
	}

	// Host edits of an approved listing demote it for re-review.
	if actor.IsHost() && room.Status == models.RoomStatusApproved {
		set["status"] = models.RoomStatusPending
		set["verifiedBy"] = nil
	}

	var updated models.Room
	err := db.Try(func(attempt int) error {
		if req.Name != nil {
			slug, slugErr := s.uniqueSlug(ctx, *req.Name, &roomID)
			if slugErr != nil {
				return slugErr
			}
			set["slug"] = slug
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return collection.FindOneAndUpdate(ctx,
			bson.M{"_id": roomID, "isDeleted": false},
			bson.M{"$set": set}, opts).Decode(&updated)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomDeleted
		}
		return nil, fmt.Errorf("failed to update room %s: %w", roomID.Hex(), err)
	}
	return &updated, nil
}

// ApproveRoom moves a pending or hidden room to approved and records the
// verifying admin. Approving an approved room is a conflict.
func (s *roomService) ApproveRoom(ctx context.Context, adminID, roomID primitive.ObjectID) (*models.Room, error) {
	collection := s.db.Collection(db.RoomsCollection)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room models.Room
	err := collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":       roomID,
			"isDeleted": false,
			"status":    bson.M{"$in": bson.A{models.RoomStatusPending, models.RoomStatusHidden}},
		},
		bson.M{"$set": bson.M{
			"status":     models.RoomStatusApproved,
			"verifiedBy": adminID,
			"updatedAt":  time.Now().UTC(),
		}}, opts).Decode(&room)
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to approve room %s: %w", roomID.Hex(), err)
	}

	// Find out why the transition did not match.
	var existing models.Room
	checkErr := collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&existing)
	if errors.Is(checkErr, mongo.ErrNoDocuments) {
		return nil, ErrRoomNotFound
	}
	if checkErr != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID.Hex(), checkErr)
	}
	if existing.IsDeleted {
		return nil, ErrRoomDeleted
	}
	return nil, ErrAlreadyApproved
}

// SoftDeleteRoom retires a room. Hosts may only delete their own rooms;
// admins may delete any. Deleting twice is rejected.
func (s *roomService) SoftDeleteRoom(ctx context.Context, actor models.Actor, roomID primitive.ObjectID) error {
	collection := s.db.Collection(db.RoomsCollection)

	var room models.Room
	if err := collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to load room %s: %w", roomID.Hex(), err)
	}
	if room.IsDeleted {
		return ErrRoomDeleted
	}
	if !actor.IsAdmin() {
		if !actor.IsHost() || room.CreatedBy != actor.UserID {
			return ErrForbidden
		}
	}

	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": roomID, "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to delete room %s: %w", roomID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrRoomDeleted
	}
	return nil
}

// SetAvailability flips available/unavailable independently of the
// moderation state machine.
func (s *roomService) SetAvailability(ctx context.Context, actor models.Actor, roomID primitive.ObjectID, availability models.Availability) error {
	if availability != models.AvailabilityAvailable && availability != models.AvailabilityUnavailable {
		return &DomainError{KindInvalidState, fmt.Sprintf("invalid availability %q", availability)}
	}

	collection := s.db.Collection(db.RoomsCollection)
	var room models.Room
	if err := collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to load room %s: %w", roomID.Hex(), err)
	}
	if room.IsDeleted {
		return ErrRoomDeleted
	}
	if !actor.IsAdmin() {
		if !actor.IsHost() || room.CreatedBy != actor.UserID {
			return ErrForbidden
		}
	}

	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": roomID, "isDeleted": false},
		bson.M{"$set": bson.M{"availability": availability, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to update availability for room %s: %w", roomID.Hex(), err)
	}
	return nil
}

// likeTogglePipeline flips userID's membership in likeBy and recomputes
// totalLikes in the same server-side update, so concurrent toggles from
// different users never tear the counter from the set.
func likeTogglePipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likeBy": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, bson.M{"$ifNull": bson.A{"$likeBy", bson.A{}}}}},
				bson.M{"$setDifference": bson.A{"$likeBy", bson.A{userID}}},
				bson.M{"$concatArrays": bson.A{bson.M{"$ifNull": bson.A{"$likeBy", bson.A{}}}, bson.A{userID}}},
			}},
			"updatedAt": "$$NOW",
		}}},
		{{Key: "$set", Value: bson.M{"totalLikes": bson.M{"$size": "$likeBy"}}}},
	}
}

// ToggleLike flips the user's like on an approved room and returns the
// resulting state. Two calls in a row restore the original state.
func (s *roomService) ToggleLike(ctx context.Context, roomID, userID primitive.ObjectID) (bool, error) {
	collection := s.db.Collection(db.RoomsCollection)
	filter := bson.M{"_id": roomID}
	for k, v := range liveRoomFilter() {
		filter[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room models.Room
	err := collection.FindOneAndUpdate(ctx, filter, likeTogglePipeline(userID), opts).Decode(&room)
	if err == nil {
		return room.Liked(userID), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, fmt.Errorf("failed to toggle like on room %s: %w", roomID.Hex(), err)
	}
	return false, s.diagnoseRoomState(ctx, roomID)
}

// diagnoseRoomState explains why a live-room filter did not match.
func (s *roomService) diagnoseRoomState(ctx context.Context, roomID primitive.ObjectID) error {
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
	return ErrRoomNotApproved
}

// requireLiveRoom rejects operations against rooms that are not approved
// or are deleted.
func (s *roomService) requireLiveRoom(ctx context.Context, roomID primitive.ObjectID) error {
	filter := bson.M{"_id": roomID}
	for k, v := range liveRoomFilter() {
		filter[k] = v
	}
	err := s.db.Collection(db.RoomsCollection).FindOne(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s.diagnoseRoomState(ctx, roomID)
	}
	if err != nil {
		return fmt.Errorf("failed to load room %s: %w", roomID.Hex(), err)
	}
	return nil
}

// AddFavorite puts the room into the user's favorite set. Unlike the like
// toggle, duplicates are rejected rather than flipped.
func (s *roomService) AddFavorite(ctx context.Context, roomID, userID primitive.ObjectID) error {
	if err := s.requireLiveRoom(ctx, roomID); err != nil {
		return err
	}

	users := s.db.Collection(db.UsersCollection)
	result, err := users.UpdateOne(ctx,
		bson.M{"_id": userID, "favorites": bson.M{"$ne": roomID}},
		bson.M{
			"$addToSet": bson.M{"favorites": roomID},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("failed to add favorite for user %s: %w", userID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		if exists, checkErr := s.userExists(ctx, userID); checkErr != nil {
			return checkErr
		} else if !exists {
			return ErrUserNotFound
		}
		return ErrAlreadyFavorited
	}
	return nil
}

// RemoveFavorite takes the room out of the user's favorite set; removing
// an absent favorite is rejected.
func (s *roomService) RemoveFavorite(ctx context.Context, roomID, userID primitive.ObjectID) error {
	if err := s.requireLiveRoom(ctx, roomID); err != nil {
		return err
	}

	users := s.db.Collection(db.UsersCollection)
	result, err := users.UpdateOne(ctx,
		bson.M{"_id": userID, "favorites": roomID},
		bson.M{
			"$pull": bson.M{"favorites": roomID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("failed to remove favorite for user %s: %w", userID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		if exists, checkErr := s.userExists(ctx, userID); checkErr != nil {
			return checkErr
		} else if !exists {
			return ErrUserNotFound
		}
		return ErrNotFavorited
	}
	return nil
}

func (s *roomService) userExists(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"_id": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user %s: %w", userID.Hex(), err)
	}
	return true, nil
}

// ListFavoriteRooms resolves the user's favorite ids through the store,
// dropping rooms that are no longer live.
func (s *roomService) ListFavoriteRooms(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID.Hex(), err)
	}
	if len(user.Favorites) == 0 {
		return []models.Room{}, nil
	}

	filter := liveRoomFilter()
	filter["_id"] = bson.M{"$in": user.Favorites}
	cursor, err := s.db.Collection(db.RoomsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite rooms for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode favorite rooms: %w", err)
	}
	return rooms, nil
}

// ReportRoom appends an abuse report, one per distinct reporter. The
// filter excludes documents the reporter already reported so concurrent
// duplicates cannot both land.
func (s *roomService) ReportRoom(ctx context.Context, roomID, reporterID primitive.ObjectID, reason string) error {
	filter := bson.M{
		"_id":            roomID,
		"reports.userId": bson.M{"$ne": reporterID},
	}
	for k, v := range liveRoomFilter() {
		filter[k] = v
	}

	report := models.Report{UserID: reporterID, Reason: reason, ReportedAt: time.Now().UTC()}
	result, err := s.db.Collection(db.RoomsCollection).UpdateOne(ctx, filter,
		bson.M{"$push": bson.M{"reports": report}})
	if err != nil {
		return fmt.Errorf("failed to report room %s: %w", roomID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		if stateErr := s.requireLiveRoom(ctx, roomID); stateErr != nil {
			return stateErr
		}
		return ErrAlreadyReported
	}
	return nil
}

// SearchRooms applies the optional filters, all ANDed, over approved
// non-deleted rooms. Results are capped and unordered beyond the cap.
func (s *roomService) SearchRooms(ctx context.Context, f SearchFilter) ([]models.Room, error) {
	filter := liveRoomFilter()

	if f.Name != "" {
		filter["name"] = bson.M{"$regex": f.Name, "$options": "i"}
	}
	if f.Address != "" {
		filter["address"] = bson.M{"$regex": f.Address, "$options": "i"}
	}
	if f.Ward != nil {
		filter["ward"] = *f.Ward
	}
	if f.Amenity != "" {
		if amenityID, ok := s.resolveAmenity(ctx, f.Amenity); ok {
			filter["amenities"] = amenityID
		}
	}
	if f.PriceMin != nil || f.PriceMax != nil {
		price := bson.M{}
		if f.PriceMin != nil {
			price["$gte"] = *f.PriceMin
		}
		if f.PriceMax != nil {
			price["$lte"] = *f.PriceMax
		}
		filter["price"] = price
	}
	if f.MinRating != nil {
		filter["avgRating"] = bson.M{"$gte": *f.MinRating}
	}
	if f.MinRatings != nil {
		filter["totalRatings"] = bson.M{"$gte": *f.MinRatings}
	}

	opts := options.Find().SetLimit(int64(s.cfg.SearchLimit))
	cursor, err := s.db.Collection(db.RoomsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return rooms, nil
}

// resolveAmenity accepts an amenity id or slug. An unknown amenity drops
// the filter rather than failing the whole search.
func (s *roomService) resolveAmenity(ctx context.Context, idOrSlug string) (primitive.ObjectID, bool) {
	if id, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		return id, true
	}
	var amenity models.Amenity
	err := s.db.Collection(db.AmenitiesCollection).FindOne(ctx, bson.M{"slug": idOrSlug}).Decode(&amenity)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return amenity.ID, true
}

// NearbyRooms returns approved rooms within the radius, nearest first.
func (s *roomService) NearbyRooms(ctx context.Context, longitude, latitude float64, maxDistanceMeters int) ([]models.Room, error) {
	filter := liveRoomFilter()
	filter["location"] = bson.M{
		"$near": bson.M{
			"$geometry":    models.NewGeoPoint(longitude, latitude),
			"$maxDistance": maxDistanceMeters,
		},
	}

	opts := options.Find().SetLimit(int64(s.cfg.NearbyLimit))
	cursor, err := s.db.Collection(db.RoomsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []models.Room{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode nearby rooms: %w", err)
	}
	return rooms, nil
}

// HotRooms ranks rooms created this calendar week (Sunday 00:00 local)
// by avgRating, then favorite count, then likes. The ranking is cached
// briefly in Redis since it only shifts with new engagement.
func (s *roomService) HotRooms(ctx context.Context) ([]HotRoom, error) {
	var cached []HotRoom
	if cache.GetJSON(ctx, s.rdb, hotRoomsCacheKey, &cached) {
		return cached, nil
	}

	now := time.Now()
	match := liveRoomFilter()
	match["createdAt"] = bson.M{"$gte": StartOfWeek(now), "$lte": now}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"favoriteCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$favorites", bson.A{}}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "avgRating", Value: -1},
			{Key: "favoriteCount", Value: -1},
			{Key: "totalLikes", Value: -1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":           0,
			"roomId":        "$_id",
			"name":          1,
			"address":       1,
			"image":         bson.M{"$arrayElemAt": bson.A{"$images", 0}},
			"avgRating":     1,
			"favoriteCount": 1,
			"totalLikes":    1,
		}}},
	}

	cursor, err := s.db.Collection(db.RoomsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate hot rooms: %w", err)
	}
	defer cursor.Close(ctx)

	rooms := []HotRoom{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode hot rooms: %w", err)
	}

	cache.SetJSON(ctx, s.rdb, hotRoomsCacheKey, rooms, s.cfg.HotRoomsCacheTTL)
	return rooms, nil
}
