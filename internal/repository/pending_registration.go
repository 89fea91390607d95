package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/workdeck/workdeck-api/internal/model"
)

// PendingRegistrationRepository defines the interface for the
// short-lived verification records backing the OTP round-trip.
type PendingRegistrationRepository interface {
	// Upsert fully replaces the pending registration for the given
	// email, or creates it. There is at most one record per email.
	Upsert(ctx context.Context, pending *model.PendingRegistration) (*model.PendingRegistration, error)

	// GetByEmail retrieves the pending registration for an email.
	GetByEmail(ctx context.Context, email string) (*model.PendingRegistration, error)

	// RefreshOTP replaces the OTP and its expiry in place, leaving the
	// staged payload untouched.
	RefreshOTP(ctx context.Context, email, otp string, expiresAt time.Time) (*model.PendingRegistration, error)

	// Consume atomically deletes the record matching both email and
	// OTP and returns it. When two callers race, exactly one wins;
	// the loser gets mongo.ErrNoDocuments.
	Consume(ctx context.Context, email, otp string) (*model.PendingRegistration, error)
}

const pendingRegistrationCollection = "pending_registrations"

type pendingRegistrationMongoRepository struct {
	db *mongo.Database
}

// NewPendingRegistrationMongoRepository creates a MongoDB-backed
// repository for pending registrations. The collection carries a
// unique index on email and a TTL index so records abandoned before
// verification purge themselves independently of application logic.
func NewPendingRegistrationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	maxAge time.Duration,
) PendingRegistrationRepository {
	collection := db.Collection(pendingRegistrationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(maxAge.Seconds())), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pending registration indexes")
	}

	return &pendingRegistrationMongoRepository{db: db}
}

func (r *pendingRegistrationMongoRepository) Upsert(
	ctx context.Context,
	pending *model.PendingRegistration,
) (*model.PendingRegistration, error) {
	pending.CreatedAt = time.Now()

	result := r.db.Collection(pendingRegistrationCollection).FindOneAndUpdate(
		ctx,
		bson.M{"email": pending.Email},
		bson.M{"$set": bson.M{
			"email":          pending.Email,
			"otp":            pending.OTP,
			"otp_expires_at": pending.OTPExpiresAt,
			"payload":        pending.Payload,
			"created_at":     pending.CreatedAt,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var stored model.PendingRegistration
	if err := result.Decode(&stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *pendingRegistrationMongoRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*model.PendingRegistration, error) {
	result := r.db.Collection(pendingRegistrationCollection).FindOne(ctx, bson.M{"email": email})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var pending model.PendingRegistration
	if err := result.Decode(&pending); err != nil {
		return nil, err
	}

	return &pending, nil
}

func (r *pendingRegistrationMongoRepository) RefreshOTP(
	ctx context.Context,
	email, otp string,
	expiresAt time.Time,
) (*model.PendingRegistration, error) {
	result := r.db.Collection(pendingRegistrationCollection).FindOneAndUpdate(
		ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"otp":            otp,
			"otp_expires_at": expiresAt,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var pending model.PendingRegistration
	if err := result.Decode(&pending); err != nil {
		return nil, err
	}

	return &pending, nil
}

func (r *pendingRegistrationMongoRepository) Consume(
	ctx context.Context,
	email, otp string,
) (*model.PendingRegistration, error) {
	result := r.db.Collection(pendingRegistrationCollection).FindOneAndDelete(
		ctx,
		bson.M{"email": email, "otp": otp},
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var pending model.PendingRegistration
	if err := result.Decode(&pending); err != nil {
		return nil, err
	}

	return &pending, nil
}
