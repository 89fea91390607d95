package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/workdeck/workdeck-api/internal/config"
	"github.com/workdeck/workdeck-api/internal/model"
	"github.com/workdeck/workdeck-api/internal/repository"
	"github.com/workdeck/workdeck-api/pkg/security"
)

// RegistrationUsecase drives the email verification state machine: an
// address moves from "unverified, pending OTP" to a verified account,
// or adds a second role to an existing account through its own OTP
// round-trip.
type RegistrationUsecase interface {
	// Register stages a registration and sends an OTP. For a known
	// email it stages a role addition instead of a new account.
	Register(ctx context.Context, params RegisterParams) (*RegisterResult, error)

	// VerifyOTP consumes the pending registration and commits the
	// staged payload: it creates the account or appends the new role.
	VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error)

	// ResendOTP regenerates the OTP for an existing pending
	// registration and re-sends it. The staged payload is untouched.
	ResendOTP(ctx context.Context, email string) error
}

// RegisterParams defines the parameters for starting a registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Location string
}

// RegisterResult reports what kind of registration was staged.
type RegisterResult struct {
	IsAddingRole bool
	Role         model.Role
}

// VerifyResult reports the outcome of a successful OTP verification.
// NewRole is set only when a role was added to an existing account.
type VerifyResult struct {
	User         *model.User
	IsAddingRole bool
	NewRole      model.Role
}

// Mailer sends transactional email. Satisfied by *mailer.Mailer.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

var (
	ErrInvalidRole            = errors.New("invalid role")
	ErrRoleAlreadyHeld        = errors.New("account already holds this role")
	ErrRegistrationNotFound   = errors.New("pending registration not found")
	ErrInvalidOTP             = errors.New("invalid or expired otp")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUserNotFound           = errors.New("user not found")
)

type registrationUsecase struct {
	userRepo    repository.UserRepository
	pendingRepo repository.PendingRegistrationRepository
	mailer      Mailer
	logger      *zerolog.Logger
	cfg         *config.Config
}

// NewRegistrationUsecase creates a new instance of RegistrationUsecase.
func NewRegistrationUsecase(
	userRepo repository.UserRepository,
	pendingRepo repository.PendingRegistrationRepository,
	mailer Mailer,
	logger *zerolog.Logger,
	cfg *config.Config,
) RegistrationUsecase {
	return &registrationUsecase{
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		mailer:      mailer,
		logger:      logger,
		cfg:         cfg,
	}
}

func (u *registrationUsecase) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	if !model.ValidRole(params.Role) {
		return nil, ErrInvalidRole
	}

	email := normalizeEmail(params.Email)

	var payload model.StagedPayload

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account: the only thing left to register is a role
		// it does not hold yet. Name and location carry over; the
		// password is not re-collected.
		if user.HasRole(params.Role) {
			return nil, ErrRoleAlreadyHeld
		}
		payload = model.StagedPayload{
			Kind: model.PayloadAddRole,
			AddRole: &model.AddRolePayload{
				UserID:   user.ID,
				Role:     params.Role,
				Name:     user.Name,
				Location: user.Location,
			},
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		// The password is staged as entered and hashed only when the
		// account is actually created.
		payload = model.StagedPayload{
			Kind: model.PayloadNewAccount,
			NewAccount: &model.NewAccountPayload{
				Name:     strings.TrimSpace(params.Name),
				Password: params.Password,
				Role:     params.Role,
				Location: strings.TrimSpace(params.Location),
			},
		}
	default:
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}

	pending := &model.PendingRegistration{
		Email:        email,
		OTP:          otp,
		OTPExpiresAt: time.Now().Add(u.cfg.OTP.TTL),
		Payload:      payload,
	}

	if _, err := u.pendingRepo.Upsert(ctx, pending); err != nil {
		return nil, err
	}

	isAddingRole := payload.Kind == model.PayloadAddRole
	if isAddingRole {
		u.sendAsync(email, "WorkDeck - Add New Role Verification", addRoleEmailBody(params.Role, otp))
	} else {
		u.sendAsync(email, "WorkDeck - Email Verification", newAccountEmailBody(otp))
	}

	return &RegisterResult{IsAddingRole: isAddingRole, Role: params.Role}, nil
}

func (u *registrationUsecase) VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error) {
	email = normalizeEmail(email)
	otp = strings.ToUpper(strings.TrimSpace(otp))

	pending, err := u.pendingRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	// A wrong code and an expired code are deliberately the same
	// error, so callers cannot tell which condition failed.
	if pending.OTP != otp || pending.Expired(time.Now()) {
		return nil, ErrInvalidOTP
	}

	// Single-winner consume: of two concurrent verifications with the
	// same OTP, only the one that deletes the record proceeds to
	// mutate the account. The loser observes a missing registration.
	if _, err := u.pendingRepo.Consume(ctx, email, otp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	switch pending.Payload.Kind {
	case model.PayloadAddRole:
		return u.completeAddRole(ctx, pending.Payload.AddRole)
	case model.PayloadNewAccount:
		return u.completeNewAccount(ctx, email, pending.Payload.NewAccount)
	default:
		return nil, fmt.Errorf("unknown staged payload kind %q", pending.Payload.Kind)
	}
}

func (u *registrationUsecase) completeAddRole(
	ctx context.Context,
	payload *model.AddRolePayload,
) (*VerifyResult, error) {
	user, err := u.userRepo.GetUser(ctx, payload.UserID.Hex())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Account deleted mid-flow.
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Idempotent on role membership; the primary role is untouched.
	if !user.HasRole(payload.Role) {
		user.AddRole(payload.Role)
		user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
			Roles: &user.Roles,
		})
		if err != nil {
			return nil, err
		}
	}

	return &VerifyResult{User: user, IsAddingRole: true, NewRole: payload.Role}, nil
}

func (u *registrationUsecase) completeNewAccount(
	ctx context.Context,
	email string,
	payload *model.NewAccountPayload,
) (*VerifyResult, error) {
	passwordHash, err := security.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         payload.Name,
		Email:        email,
		Location:     payload.Location,
		PasswordHash: &passwordHash,
		Roles:        []model.Role{payload.Role},
		PrimaryRole:  payload.Role,
		IsVerified:   true,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent registration created the same email first.
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	return &VerifyResult{User: user, IsAddingRole: false}, nil
}

func (u *registrationUsecase) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := u.pendingRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRegistrationNotFound
		}
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}

	if _, err := u.pendingRepo.RefreshOTP(ctx, email, otp, time.Now().Add(u.cfg.OTP.TTL)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRegistrationNotFound
		}
		return err
	}

	u.sendAsync(email, "WorkDeck - Email Verification (Resent)", resendEmailBody(otp))

	return nil
}

// sendAsync delivers email best-effort in the background. Delivery
// failure is logged and never fails the user-facing operation; the OTP
// stays retrievable through resend.
func (u *registrationUsecase) sendAsync(email, subject, htmlBody string) {
	go func() {
		if err := u.mailer.SendHTML([]string{email}, subject, htmlBody); err != nil {
			u.logger.Error().Err(err).Str("email", email).Msg("failed to send verification email")
		}
	}()
}

// normalizeEmail produces the canonical form used as the unique key
// for both accounts and pending registrations.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateOTP produces a short uppercase hex verification code.
func generateOTP() (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(bytes)), nil
}

func newAccountEmailBody(otp string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #2563eb;">Welcome to WorkDeck!</h2>
			<p>Your email verification code is:</p>
			<div style="background: #f3f4f6; padding: 20px; text-align: center; margin: 20px 0;">
				<h1 style="color: #1f2937; font-size: 32px; margin: 0;">%s</h1>
			</div>
			<p>This code will expire in 10 minutes.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, otp)
}

func addRoleEmailBody(role model.Role, otp string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #2563eb;">Add %s Role to Your Account</h2>
			<p>You're adding a %s role to your existing WorkDeck account.</p>
			<p>Your verification code is:</p>
			<div style="background: #f3f4f6; padding: 20px; text-align: center; margin: 20px 0;">
				<h1 style="color: #1f2937; font-size: 32px; margin: 0;">%s</h1>
			</div>
			<p>This code will expire in 10 minutes.</p>
		</div>
	`, role, role, otp)
}

func resendEmailBody(otp string) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #2563eb;">WorkDeck Email Verification</h2>
			<p>Your new verification code is:</p>
			<div style="background: #f3f4f6; padding: 20px; text-align: center; margin: 20px 0;">
				<h1 style="color: #1f2937; font-size: 32px; margin: 0;">%s</h1>
			</div>
			<p>This code will expire in 10 minutes.</p>
		</div>
	`, otp)
}
