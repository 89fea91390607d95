package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is a marketplace role tag held by a user.
type Role string

const (
	RoleFreelancer Role = "freelancer"
	RoleClient     Role = "client"

	// RolePending is a placeholder meaning the account exists but no
	// role has been chosen yet (OAuth sign-ups without a role).
	RolePending Role = "pending"
)

// ValidRole reports whether r is a role a user can actually hold.
// RolePending is deliberately excluded.
func ValidRole(r Role) bool {
	return r == RoleFreelancer || r == RoleClient
}

// User represents a marketplace account. A single account may hold both
// the freelancer and client roles; PrimaryRole is the one currently
// driving the UI and authorization context.
type User struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	Name     string        `bson:"name"`
	Email    string        `bson:"email"`
	Location string        `bson:"location,omitempty"`

	// PasswordHash is nil for accounts created through OAuth; such
	// accounts cannot log in with a password.
	PasswordHash *string `bson:"password_hash,omitempty"`

	Roles       []Role `bson:"roles"`
	PrimaryRole Role   `bson:"primary_role"`
	IsVerified  bool   `bson:"is_verified"`

	// OAuth provider linkage, at most one identifier per provider.
	GoogleID string `bson:"google_id,omitempty"`
	GitHubID string `bson:"github_id,omitempty"`

	// Client profile fields.
	CompanySize string `bson:"company_size,omitempty"`
	Industry    string `bson:"industry,omitempty"`

	// Freelancer profile fields.
	Skills     []string `bson:"skills,omitempty"`
	Experience string   `bson:"experience,omitempty"`
	HourlyRate *float64 `bson:"hourly_rate,omitempty"`
	Title      string   `bson:"title,omitempty"`

	Bio    string `bson:"bio,omitempty"`
	Avatar string `bson:"avatar,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// HasRole reports whether the user already holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole appends role to the user's role set. Adding a role the user
// already holds is a no-op, so the set never contains duplicates.
func (u *User) AddRole(role Role) {
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
}

// HasPasswordLogin reports whether the account carries a local password.
func (u *User) HasPasswordLogin() bool {
	return u.PasswordHash != nil
}

// ProfileComplete reports whether the onboarding profile for the user's
// primary role has been filled in. Clients are complete once a company
// size is set; freelancers once they have at least one skill and an
// hourly rate.
func (u *User) ProfileComplete() bool {
	switch u.PrimaryRole {
	case RoleClient:
		return u.CompanySize != ""
	case RoleFreelancer:
		return len(u.Skills) > 0 && u.HourlyRate != nil
	default:
		return false
	}
}
