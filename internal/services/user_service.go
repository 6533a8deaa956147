package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tphuong3108/timnhatro-BE/internal/auth"
	"github.com/tphuong3108/timnhatro-BE/internal/db"
	"github.com/tphuong3108/timnhatro-BE/internal/models"
)

// CreateUserRequest carries the fields needed to register an account.
type CreateUserRequest struct {
	FirstName string      `json:"firstName" binding:"required"`
	LastName  string      `json:"lastName" binding:"required"`
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8"`
	Role      models.Role `json:"role"`
}

// IUserService covers the account operations the engine needs: enough
// to seed actors, resolve identities, sign them in and enforce bans.
type IUserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	BanUser(ctx context.Context, actor models.Actor, userID primitive.ObjectID) error
}

type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database) IUserService {
	return &userService{db: database}
}

// CreateUser registers an account with a bcrypt password hash. Role
// defaults to tenant. The email unique index is the source of truth for
// duplicates.
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleTenant
	}

	now := time.Now().UTC()
	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Favorites:    []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := s.db.Collection(db.UsersCollection).InsertOne(ctx, user)
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return user, nil
}

// Login resolves an email/password pair to the account it belongs to.
// An unknown email and a wrong password fail the same way; a banned
// account is rejected even with the right password.
func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"email": email, "_destroyed": false}).
		Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account %q: %w", email, err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.Banned {
		return nil, ErrAccountBanned
	}
	return &user, nil
}

// FindByID loads a user that has not been destroyed.
func (s *userService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).
		FindOne(ctx, bson.M{"_id": userID, "_destroyed": false}).
		Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID.Hex(), err)
	}
	return &user, nil
}

// BanUser marks an account banned. Admin only; banning again is a
// conflict so the caller learns nothing changed.
func (s *userService) BanUser(ctx context.Context, actor models.Actor, userID primitive.ObjectID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	result, err := s.db.Collection(db.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": userID, "banned": false},
		bson.M{"$set": bson.M{"banned": true, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to ban user %s: %w", userID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		count, countErr := s.db.Collection(db.UsersCollection).
			CountDocuments(ctx, bson.M{"_id": userID})
		if countErr != nil {
			return fmt.Errorf("failed to diagnose ban of user %s: %w", userID.Hex(), countErr)
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrAlreadyBanned
	}
	return nil
}
