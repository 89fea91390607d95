package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck-api/internal/model"
	"github.com/workdeck/workdeck-api/pkg/auth"
)

func newAuthFixture(t *testing.T) (AuthUsecase, *fakeUserRepo) {
	t.Helper()

	userRepo := newFakeUserRepo()
	jwtAuth := auth.NewJWTAuthenticator("workdeck-test", "workdeck-test")
	return NewAuthUsecase(userRepo, jwtAuth, testConfig()), userRepo
}

func TestLoginSuccess(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	seedVerifiedUser(t, userRepo, "a@x.com", model.RoleFreelancer)

	result, err := u.Login(context.Background(), LoginParams{Email: "A@X.com ", Password: "Secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "a@x.com", result.User.Email)
}

func TestLoginUnknownEmail(t *testing.T) {
	u, _ := newAuthFixture(t)

	_, err := u.Login(context.Background(), LoginParams{Email: "nobody@x.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	seedVerifiedUser(t, userRepo, "a@x.com", model.RoleFreelancer)

	_, err := u.Login(context.Background(), LoginParams{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginPasswordlessAccount(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	// OAuth-created account: no local password at all.
	userRepo.seed(model.User{
		Name:        "Ann",
		Email:       "a@x.com",
		Roles:       []model.Role{model.RoleClient},
		PrimaryRole: model.RoleClient,
		IsVerified:  true,
		GoogleID:    "google-sub-1",
	})

	_, err := u.Login(context.Background(), LoginParams{Email: "a@x.com", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverifiedAccountRejected(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	user := seedVerifiedUser(t, userRepo, "a@x.com", model.RoleFreelancer)
	user.IsVerified = false
	userRepo.seed(user)

	_, err := u.Login(context.Background(), LoginParams{Email: "a@x.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLoginUnverifiedAccountAllowedByPolicy(t *testing.T) {
	userRepo := newFakeUserRepo()
	cfg := testConfig()
	cfg.AllowUnverifiedLogin = true
	u := NewAuthUsecase(userRepo, auth.NewJWTAuthenticator("workdeck-test", "workdeck-test"), cfg)

	user := seedVerifiedUser(t, userRepo, "a@x.com", model.RoleFreelancer)
	user.IsVerified = false
	userRepo.seed(user)

	result, err := u.Login(context.Background(), LoginParams{Email: "a@x.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestOAuthLoginCreatesAccountWithoutRole(t *testing.T) {
	u, userRepo := newAuthFixture(t)

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email:      "New@X.com",
		Name:       "New User",
		Provider:   ProviderGoogle,
		ProviderID: "google-sub-1",
	})
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.True(t, result.NeedsRoleSelection)
	assert.False(t, result.NeedsProfileCompletion)
	assert.NotEmpty(t, result.Token)

	user, err := userRepo.GetUserByEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.PasswordHash)
	assert.Equal(t, model.RolePending, user.PrimaryRole)
	assert.Equal(t, []model.Role{model.RolePending}, user.Roles)
	assert.Equal(t, "google-sub-1", user.GoogleID)
}

func TestOAuthLoginCreatesAccountWithRole(t *testing.T) {
	u, _ := newAuthFixture(t)

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email:      "new@x.com",
		Name:       "New User",
		Provider:   ProviderGitHub,
		ProviderID: "42",
		Role:       model.RoleFreelancer,
	})
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.False(t, result.NeedsRoleSelection)
	assert.True(t, result.NeedsProfileCompletion)
	assert.Equal(t, model.RoleFreelancer, result.User.PrimaryRole)
	assert.Equal(t, "42", result.User.GitHubID)
}

func TestOAuthLoginResolvesPendingRole(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	userRepo.seed(model.User{
		Name:        "Ann",
		Email:       "a@x.com",
		Roles:       []model.Role{model.RolePending},
		PrimaryRole: model.RolePending,
		IsVerified:  true,
		GoogleID:    "google-sub-1",
	})

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email:      "a@x.com",
		Name:       "Ann",
		Provider:   ProviderGoogle,
		ProviderID: "google-sub-1",
		Role:       model.RoleClient,
	})
	require.NoError(t, err)
	assert.False(t, result.IsNewUser)
	assert.False(t, result.NeedsRoleSelection)
	assert.True(t, result.NeedsProfileCompletion)
	assert.Equal(t, model.RoleClient, result.User.PrimaryRole)
	// The pending placeholder retires when a concrete role is chosen.
	assert.Equal(t, []model.Role{model.RoleClient}, result.User.Roles)
}

func TestOAuthLoginPendingRoleWithoutChoice(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	userRepo.seed(model.User{
		Email:       "a@x.com",
		Roles:       []model.Role{model.RolePending},
		PrimaryRole: model.RolePending,
		IsVerified:  true,
	})

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email:      "a@x.com",
		Name:       "Ann",
		Provider:   ProviderGoogle,
		ProviderID: "google-sub-1",
	})
	require.NoError(t, err)
	assert.True(t, result.NeedsRoleSelection)
	assert.False(t, result.NeedsProfileCompletion)
}

func TestOAuthLoginLinksEmptyProviderSlot(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	seedVerifiedUser(t, userRepo, "a@x.com", model.RoleClient)

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email:      "a@x.com",
		Name:       "Ann",
		Provider:   ProviderGoogle,
		ProviderID: "google-sub-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", result.User.GoogleID)

	// Re-linking the same identity is a no-op; an already occupied
	// slot is left alone.
	result, err = u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email:      "a@x.com",
		Name:       "Ann",
		Provider:   ProviderGoogle,
		ProviderID: "other-sub",
	})
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", result.User.GoogleID)
}

func TestOAuthLoginInfersProfileCompleteness(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	rate := 45.0

	incomplete := userRepo.seed(model.User{
		Email:       "inc@x.com",
		Roles:       []model.Role{model.RoleFreelancer},
		PrimaryRole: model.RoleFreelancer,
		IsVerified:  true,
	})
	complete := userRepo.seed(model.User{
		Email:       "done@x.com",
		Roles:       []model.Role{model.RoleFreelancer},
		PrimaryRole: model.RoleFreelancer,
		IsVerified:  true,
		Skills:      []string{"go"},
		HourlyRate:  &rate,
	})

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email: incomplete.Email, Name: "A", Provider: ProviderGoogle, ProviderID: "s1",
	})
	require.NoError(t, err)
	assert.True(t, result.NeedsProfileCompletion)

	result, err = u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email: complete.Email, Name: "B", Provider: ProviderGoogle, ProviderID: "s2",
	})
	require.NoError(t, err)
	assert.False(t, result.NeedsProfileCompletion)
}

func TestOAuthLoginClientCompleteness(t *testing.T) {
	u, userRepo := newAuthFixture(t)
	userRepo.seed(model.User{
		Email:       "c@x.com",
		Roles:       []model.Role{model.RoleClient},
		PrimaryRole: model.RoleClient,
		IsVerified:  true,
		CompanySize: "11-50",
	})

	result, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email: "c@x.com", Name: "C", Provider: ProviderGitHub, ProviderID: "7",
	})
	require.NoError(t, err)
	assert.False(t, result.NeedsProfileCompletion)
}

func TestOAuthLoginUnknownProvider(t *testing.T) {
	u, _ := newAuthFixture(t)

	_, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email: "a@x.com", Name: "A", Provider: "gitlab", ProviderID: "1",
	})
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestOAuthLoginInvalidRole(t *testing.T) {
	u, _ := newAuthFixture(t)

	_, err := u.OAuthLogin(context.Background(), OAuthLoginParams{
		Email: "a@x.com", Name: "A", Provider: ProviderGoogle, ProviderID: "1", Role: "admin",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}
