package usecase

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/workdeck/workdeck-api/internal/config"
	"github.com/workdeck/workdeck-api/internal/model"
	"github.com/workdeck/workdeck-api/internal/repository"
	"github.com/workdeck/workdeck-api/pkg/auth"
)

// ProfileUsecase covers primary-role selection and the role-specific
// onboarding profile updates.
type ProfileUsecase interface {
	// SwitchRole changes the primary role to another role the user
	// already holds.
	SwitchRole(ctx context.Context, userID string, role model.Role) (*model.User, error)

	// UpdateRole sets the primary role from the role-selection page,
	// appending the role if absent, and issues a fresh token. It is
	// keyed by email because the caller may not be authenticated yet.
	UpdateRole(ctx context.Context, email string, role model.Role) (*AuthResult, error)

	// CompleteClientProfile fills in the client onboarding fields.
	CompleteClientProfile(ctx context.Context, params ClientProfileParams) (*AuthResult, error)

	// CompleteFreelancerProfile fills in the freelancer onboarding
	// fields. Inputs arrive already normalized to canonical shapes.
	CompleteFreelancerProfile(ctx context.Context, params FreelancerProfileParams) (*AuthResult, error)

	// UpdateProfile applies general profile edits for the
	// authenticated user.
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)

	// SetAvatar records the URL of an uploaded avatar image.
	SetAvatar(ctx context.Context, userID, avatarURL string) (*model.User, error)
}

// ClientProfileParams defines the client onboarding fields.
type ClientProfileParams struct {
	Email       string
	CompanyName string
	CompanySize string
	Website     string
}

// FreelancerProfileParams defines the freelancer onboarding fields.
// Zero values leave the stored field untouched.
type FreelancerProfileParams struct {
	Email      string
	Skills     []string
	Experience string
	HourlyRate *float64
	Bio        string
	Title      string
}

// UpdateProfileParams defines the general profile edits. Only non-nil
// fields are applied.
type UpdateProfileParams struct {
	Name     *string
	Bio      *string
	Location *string
	Skills   *[]string
}

var ErrRoleNotHeld = errors.New("account does not hold this role")

type profileUsecase struct {
	userRepo repository.UserRepository
	jwtAuth  auth.JWTAuthenticator
	cfg      *config.Config
}

// NewProfileUsecase creates a new instance of ProfileUsecase.
func NewProfileUsecase(
	userRepo repository.UserRepository,
	jwtAuth auth.JWTAuthenticator,
	cfg *config.Config,
) ProfileUsecase {
	return &profileUsecase{
		userRepo: userRepo,
		jwtAuth:  jwtAuth,
		cfg:      cfg,
	}
}

func (u *profileUsecase) SwitchRole(ctx context.Context, userID string, role model.Role) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.HasRole(role) {
		return nil, ErrRoleNotHeld
	}

	return u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PrimaryRole: &role,
	})
}

func (u *profileUsecase) UpdateRole(ctx context.Context, email string, role model.Role) (*AuthResult, error) {
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	roles := withRole(user.Roles, role)
	user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		Roles:       &roles,
		PrimaryRole: &role,
	})
	if err != nil {
		return nil, err
	}

	return u.authResult(user)
}

func (u *profileUsecase) CompleteClientProfile(
	ctx context.Context,
	params ClientProfileParams,
) (*AuthResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	companySize := strings.TrimSpace(params.CompanySize)
	industry := strings.TrimSpace(params.CompanyName)
	updates := repository.UpdateUserParams{
		CompanySize: &companySize,
		Industry:    &industry,
	}
	if website := strings.TrimSpace(params.Website); website != "" {
		updates.Bio = &website
	}

	user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), updates)
	if err != nil {
		return nil, err
	}

	return u.authResult(user)
}

func (u *profileUsecase) CompleteFreelancerProfile(
	ctx context.Context,
	params FreelancerProfileParams,
) (*AuthResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := repository.UpdateUserParams{}
	dirty := false

	if len(params.Skills) > 0 {
		skills := trimAll(params.Skills)
		updates.Skills = &skills
		dirty = true
	}
	if params.Experience != "" {
		experience := strings.TrimSpace(params.Experience)
		updates.Experience = &experience
		dirty = true
	}
	if params.HourlyRate != nil {
		updates.HourlyRate = params.HourlyRate
		dirty = true
	}
	if params.Bio != "" {
		bio := strings.TrimSpace(params.Bio)
		updates.Bio = &bio
		dirty = true
	}
	if params.Title != "" {
		title := strings.TrimSpace(params.Title)
		updates.Title = &title
		dirty = true
	}

	if dirty {
		user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), updates)
		if err != nil {
			return nil, err
		}
	}

	return u.authResult(user)
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.User, error) {
	updates := repository.UpdateUserParams{
		Name:     params.Name,
		Bio:      params.Bio,
		Location: params.Location,
		Skills:   params.Skills,
	}

	user, err := u.userRepo.UpdateUser(ctx, userID, updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *profileUsecase) SetAvatar(ctx context.Context, userID, avatarURL string) (*model.User, error) {
	user, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Avatar: &avatarURL,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *profileUsecase) authResult(user *model.User) (*AuthResult, error) {
	token, err := u.jwtAuth.IssueUserToken(user.ID.Hex(), u.cfg.Token.Secret, u.cfg.Token.ExpiresIn)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
