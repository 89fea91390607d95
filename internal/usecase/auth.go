package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/workdeck/workdeck-api/internal/config"
	"github.com/workdeck/workdeck-api/internal/model"
	"github.com/workdeck/workdeck-api/internal/repository"
	"github.com/workdeck/workdeck-api/pkg/auth"
	"github.com/workdeck/workdeck-api/pkg/security"
)

// OAuth providers an account can be linked to.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	OAuthLogin(ctx context.Context, params OAuthLoginParams) (*OAuthResult, error)
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// OAuthLoginParams defines the parameters for an OAuth sign-in. Role is
// optional; when empty and the account has no concrete role yet, the
// caller still owes a role selection step.
type OAuthLoginParams struct {
	Email      string
	Name       string
	Provider   string
	ProviderID string
	Role       model.Role
}

// AuthResult carries a signed bearer token and the authenticated user.
type AuthResult struct {
	Token string
	User  *model.User
}

// OAuthResult extends AuthResult with the onboarding steps the client
// still owes after this sign-in.
type OAuthResult struct {
	Token                  string
	User                   *model.User
	IsNewUser              bool
	NeedsRoleSelection     bool
	NeedsProfileCompletion bool
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidProvider    = errors.New("unknown oauth provider")
)

type authUsecase struct {
	userRepo repository.UserRepository
	jwtAuth  auth.JWTAuthenticator
	cfg      *config.Config
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	jwtAuth auth.JWTAuthenticator,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		jwtAuth:  jwtAuth,
		cfg:      cfg,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// OAuth-created accounts have no local password and cannot log in
	// with one.
	if !user.HasPasswordLogin() {
		return nil, ErrInvalidCredentials
	}

	if ok, err := security.VerifyPassword(params.Password, *user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified && !u.cfg.AllowUnverifiedLogin {
		return nil, ErrEmailNotVerified
	}

	token, err := u.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

func (u *authUsecase) OAuthLogin(ctx context.Context, params OAuthLoginParams) (*OAuthResult, error) {
	if params.Provider != ProviderGoogle && params.Provider != ProviderGitHub {
		return nil, ErrInvalidProvider
	}
	if params.Role != "" && !model.ValidRole(params.Role) {
		return nil, ErrInvalidRole
	}

	email := normalizeEmail(params.Email)

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return u.oauthExistingUser(ctx, user, params)
	case errors.Is(err, mongo.ErrNoDocuments):
		return u.oauthNewUser(ctx, email, params)
	default:
		return nil, err
	}
}

func (u *authUsecase) oauthExistingUser(
	ctx context.Context,
	user *model.User,
	params OAuthLoginParams,
) (*OAuthResult, error) {
	updates := repository.UpdateUserParams{}
	dirty := false

	// Link the provider identifier if its slot is still empty.
	// Re-linking the same identity is a no-op.
	switch params.Provider {
	case ProviderGoogle:
		if user.GoogleID == "" {
			updates.GoogleID = &params.ProviderID
			dirty = true
		}
	case ProviderGitHub:
		if user.GitHubID == "" {
			updates.GitHubID = &params.ProviderID
			dirty = true
		}
	}

	result := &OAuthResult{}

	rolePending := user.PrimaryRole == "" || user.PrimaryRole == model.RolePending
	switch {
	case rolePending && params.Role != "":
		// The account finally picked a role: adopt it as primary and
		// retire the placeholder.
		roles := withRole(user.Roles, params.Role)
		updates.Roles = &roles
		updates.PrimaryRole = &params.Role
		dirty = true
		result.NeedsProfileCompletion = true
	case rolePending:
		result.NeedsRoleSelection = true
	default:
		result.NeedsProfileCompletion = !user.ProfileComplete()
	}

	if dirty {
		updated, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), updates)
		if err != nil {
			return nil, err
		}
		user = updated
	}

	token, err := u.issueToken(user)
	if err != nil {
		return nil, err
	}

	result.Token = token
	result.User = user
	return result, nil
}

func (u *authUsecase) oauthNewUser(
	ctx context.Context,
	email string,
	params OAuthLoginParams,
) (*OAuthResult, error) {
	result := &OAuthResult{IsNewUser: true}

	// OAuth is proof of email ownership, so the account is verified
	// immediately and carries no local password.
	user := &model.User{
		Name:       params.Name,
		Email:      email,
		IsVerified: true,
	}

	if params.Role != "" {
		user.Roles = []model.Role{params.Role}
		user.PrimaryRole = params.Role
		result.NeedsProfileCompletion = true
	} else {
		user.Roles = []model.Role{model.RolePending}
		user.PrimaryRole = model.RolePending
		result.NeedsRoleSelection = true
	}

	switch params.Provider {
	case ProviderGoogle:
		user.GoogleID = params.ProviderID
	case ProviderGitHub:
		user.GitHubID = params.ProviderID
	}

	created, err := u.userRepo.CreateUser(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	token, err := u.issueToken(created)
	if err != nil {
		return nil, err
	}

	result.Token = token
	result.User = created
	return result, nil
}

func (u *authUsecase) issueToken(user *model.User) (string, error) {
	return u.jwtAuth.IssueUserToken(user.ID.Hex(), u.cfg.Token.Secret, u.cfg.Token.ExpiresIn)
}

// withRole returns roles with role appended if absent and the pending
// placeholder removed.
func withRole(roles []model.Role, role model.Role) []model.Role {
	out := make([]model.Role, 0, len(roles)+1)
	for _, r := range roles {
		if r == model.RolePending || r == role {
			continue
		}
		out = append(out, r)
	}
	return append(out, role)
}
