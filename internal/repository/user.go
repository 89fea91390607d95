package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/workdeck/workdeck-api/internal/model"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Name        *string
	Location    *string
	Roles       *[]model.Role
	PrimaryRole *model.Role
	GoogleID    *string
	GitHubID    *string
	CompanySize *string
	Industry    *string
	Skills      *[]string
	Experience  *string
	HourlyRate  *float64
	Title       *string
	Bio         *string
	Avatar      *string
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates a MongoDB-backed user repository and
// ensures the unique email index exists.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(userCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, bson.M{"email": email})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	// Build update query
	updateMap := bson.M{}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Location != nil {
		updateMap["location"] = *params.Location
	}
	if params.Roles != nil {
		updateMap["roles"] = *params.Roles
	}
	if params.PrimaryRole != nil {
		updateMap["primary_role"] = *params.PrimaryRole
	}
	if params.GoogleID != nil {
		updateMap["google_id"] = *params.GoogleID
	}
	if params.GitHubID != nil {
		updateMap["github_id"] = *params.GitHubID
	}
	if params.CompanySize != nil {
		updateMap["company_size"] = *params.CompanySize
	}
	if params.Industry != nil {
		updateMap["industry"] = *params.Industry
	}
	if params.Skills != nil {
		updateMap["skills"] = *params.Skills
	}
	if params.Experience != nil {
		updateMap["experience"] = *params.Experience
	}
	if params.HourlyRate != nil {
		updateMap["hourly_rate"] = *params.HourlyRate
	}
	if params.Title != nil {
		updateMap["title"] = *params.Title
	}
	if params.Bio != nil {
		updateMap["bio"] = *params.Bio
	}
	if params.Avatar != nil {
		updateMap["avatar"] = *params.Avatar
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no user fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
