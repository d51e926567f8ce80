package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleUser    Role = "user"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account. Regular users own workouts;
// admins additionally manage the exercise catalog and other users.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Email        string             `bson:"email" json:"email"` // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`

	ProfilePicture string     `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Height         *float64   `bson:"height,omitempty" json:"height,omitempty"` // cm
	Weight         *float64   `bson:"weight,omitempty" json:"weight,omitempty"` // kg
	DateOfBirth    *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`

	IsActive bool `bson:"isActive" json:"isActive"`

	// RefreshToken is the currently valid refresh token, if the user has an
	// open session. Never serialized to JSON.
	RefreshToken string `bson:"refreshToken,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
