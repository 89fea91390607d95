package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PayloadKind discriminates the two staged-registration variants.
type PayloadKind string

const (
	PayloadNewAccount PayloadKind = "new_account"
	PayloadAddRole    PayloadKind = "add_role"
)

// NewAccountPayload stages the data for a brand-new account. The
// password is kept as entered and hashed only when the account is
// actually created.
type NewAccountPayload struct {
	Name     string `bson:"name"`
	Password string `bson:"password"`
	Role     Role   `bson:"role"`
	Location string `bson:"location,omitempty"`
}

// AddRolePayload stages a role addition to an existing verified
// account. Name and location are copied from the account for
// continuity, never re-entered.
type AddRolePayload struct {
	UserID   bson.ObjectID `bson:"user_id"`
	Role     Role          `bson:"role"`
	Name     string        `bson:"name"`
	Location string        `bson:"location,omitempty"`
}

// StagedPayload is a tagged union of the two registration variants.
// Exactly one of NewAccount and AddRole is set, as indicated by Kind.
type StagedPayload struct {
	Kind       PayloadKind        `bson:"kind"`
	NewAccount *NewAccountPayload `bson:"new_account,omitempty"`
	AddRole    *AddRolePayload    `bson:"add_role,omitempty"`
}

// PendingRegistration holds an email verification round-trip in flight:
// the OTP sent to the address and the registration data to commit once
// it is confirmed. At most one exists per email; the collection carries
// a TTL index so abandoned records purge themselves.
type PendingRegistration struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	OTP          string        `bson:"otp"`
	OTPExpiresAt time.Time     `bson:"otp_expires_at"`
	Payload      StagedPayload `bson:"payload"`
	CreatedAt    time.Time     `bson:"created_at"`
}

// Expired reports whether the OTP is past its expiry at the given
// instant. An expired record must never verify, even if the TTL
// sweeper has not purged it yet.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.OTPExpiresAt)
}
