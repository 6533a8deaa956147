package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role classifies a user for ownership and moderation checks.
type Role string

const (
	RoleTenant Role = "tenant"
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
)

// User holds the account fields the engine cares about. Authentication
// state beyond the password hash (tokens, OTP, login logs) lives with
// the identity collaborator and is not modelled here.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName    string               `bson:"firstName" json:"firstName"`
	LastName     string               `bson:"lastName" json:"lastName"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password" json:"-"`
	Avatar       string               `bson:"avatar" json:"avatar"`
	Role         Role                 `bson:"role" json:"role"`
	Favorites    []primitive.ObjectID `bson:"favorites" json:"favorites"`
	Banned       bool                 `bson:"banned" json:"banned"`
	Destroyed    bool                 `bson:"_destroyed" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the already-authenticated identity attached to every call:
// the engine trusts it and only enforces role/ownership rules.
type Actor struct {
	UserID primitive.ObjectID
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
func (a Actor) IsHost() bool  { return a.Role == RoleHost }
