package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/workdeck/workdeck-api/internal/middleware"
	"github.com/workdeck/workdeck-api/internal/usecase"
	"github.com/workdeck/workdeck-api/pkg/provider"
	"github.com/workdeck/workdeck-api/pkg/validate"
)

// AuthHandler exposes the registration, login and role endpoints.
type AuthHandler struct {
	registrationUsecase usecase.RegistrationUsecase
	authUsecase         usecase.AuthUsecase
	profileUsecase      usecase.ProfileUsecase
	google              *provider.GoogleProvider
	github              *provider.GitHubProvider
	validator           *validate.Validator
	logger              *zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. The provider verifiers may
// be nil, in which case OAuth sign-ins trust the claimed identity.
func NewAuthHandler(
	registrationUsecase usecase.RegistrationUsecase,
	authUsecase usecase.AuthUsecase,
	profileUsecase usecase.ProfileUsecase,
	google *provider.GoogleProvider,
	github *provider.GitHubProvider,
	validator *validate.Validator,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		registrationUsecase: registrationUsecase,
		authUsecase:         authUsecase,
		profileUsecase:      profileUsecase,
		google:              google,
		github:              github,
		validator:           validator,
		logger:              logger,
	}
}

// Routes mounts the auth endpoints. requireAuth guards the endpoints
// that need an authenticated caller.
func (h *AuthHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/resend-otp", h.ResendOTP)
	r.Post("/oauth", h.OAuthLogin)
	r.Post("/update-role", h.UpdateRole)
	r.Post("/complete-profile", h.CompleteProfile)
	r.Post("/complete-freelancer-profile", h.CompleteFreelancerProfile)
	r.Post("/complete-oauth-profile", h.CompleteFreelancerProfile)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/switch-role", h.SwitchRole)
	})

	return r
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.registrationUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Location: req.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "Invalid role. Must be 'freelancer' or 'client'")
		case errors.Is(err, usecase.ErrRoleAlreadyHeld):
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("You already have a %s account. Please login instead.", req.Role))
		default:
			h.logger.Error().Err(err).Msg("failed to register")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	message := "OTP sent to your email. Please verify to complete registration."
	if result.IsAddingRole {
		message = fmt.Sprintf("OTP sent to add %s role to your existing account.", result.Role)
	}

	respondSuccess(w, http.StatusCreated, response{
		"message":      message,
		"isAddingRole": result.IsAddingRole,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.registrationUsecase.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRegistrationNotFound):
			respondError(w, http.StatusNotFound, "Registration not found or expired")
		case errors.Is(err, usecase.ErrInvalidOTP):
			respondError(w, http.StatusBadRequest, "Invalid or expired OTP")
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, usecase.ErrEmailAlreadyRegistered):
			respondError(w, http.StatusConflict, "Email already registered")
		default:
			h.logger.Error().Err(err).Msg("failed to verify otp")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	message := "Email verified and account created successfully"
	var newRole any
	if result.IsAddingRole {
		message = fmt.Sprintf("%s role added successfully", result.NewRole)
		newRole = result.NewRole
	}

	respondSuccess(w, http.StatusOK, response{
		"message":      message,
		"isAddingRole": result.IsAddingRole,
		"newRole":      newRole,
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.registrationUsecase.ResendOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, usecase.ErrRegistrationNotFound):
			respondError(w, http.StatusNotFound, "Registration not found")
		default:
			h.logger.Error().Err(err).Msg("failed to resend otp")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{"message": "New OTP sent to your email"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, usecase.ErrEmailNotVerified):
			respondError(w, http.StatusUnauthorized, "Please verify your email before logging in")
		default:
			h.logger.Error().Err(err).Msg("failed to login")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"token": result.Token,
		"user":  newUserResponse(result.User),
	})
}

func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req OAuthLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	email := req.Email
	if verified, ok := h.verifyOAuthIdentity(w, r, &req); ok {
		if verified != "" {
			email = verified
		}
	} else {
		return
	}

	result, err := h.authUsecase.OAuthLogin(r.Context(), usecase.OAuthLoginParams{
		Email:      email,
		Name:       req.Name,
		Provider:   req.Provider,
		ProviderID: req.ProviderID,
		Role:       req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidProvider), errors.Is(err, usecase.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "Invalid provider or role")
		case errors.Is(err, usecase.ErrEmailAlreadyRegistered):
			respondError(w, http.StatusConflict, "Email already registered")
		default:
			h.logger.Error().Err(err).Msg("failed to process oauth login")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"token":                  result.Token,
		"isNewUser":              result.IsNewUser,
		"needsRoleSelection":     result.NeedsRoleSelection,
		"needsProfileCompletion": result.NeedsProfileCompletion,
		"user":                   newUserResponse(result.User),
	})
}

// verifyOAuthIdentity checks the supplied provider credential when the
// provider is configured. It returns the provider-verified email (may
// be empty) and whether the request should proceed.
func (h *AuthHandler) verifyOAuthIdentity(
	w http.ResponseWriter,
	r *http.Request,
	req *OAuthLoginRequest,
) (string, bool) {
	switch req.Provider {
	case usecase.ProviderGoogle:
		if h.google == nil || req.IDToken == "" {
			return "", true
		}
		email, err := h.google.VerifyIDToken(r.Context(), req.IDToken, req.ProviderID)
		if err != nil {
			h.logger.Warn().Err(err).Msg("google id token rejected")
			respondError(w, http.StatusUnauthorized, "OAuth token verification failed")
			return "", false
		}
		return email, true
	case usecase.ProviderGitHub:
		if h.github == nil || req.AccessToken == "" {
			return "", true
		}
		email, err := h.github.VerifyAccessToken(r.Context(), req.AccessToken, req.ProviderID)
		if err != nil {
			h.logger.Warn().Err(err).Msg("github access token rejected")
			respondError(w, http.StatusUnauthorized, "OAuth token verification failed")
			return "", false
		}
		return email, true
	default:
		return "", true
	}
}

func (h *AuthHandler) SwitchRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req SwitchRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.profileUsecase.SwitchRole(r.Context(), userID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "Invalid role")
		case errors.Is(err, usecase.ErrRoleNotHeld):
			respondError(w, http.StatusBadRequest, "You don't have access to this role")
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("failed to switch role")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"message": "Role switched successfully",
		"user":    newUserResponse(user),
	})
}

func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.profileUsecase.UpdateRole(r.Context(), req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "Invalid role")
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("failed to update role")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"message": "Role updated successfully",
		"token":   result.Token,
		"user":    newUserResponse(result.User),
	})
}

func (h *AuthHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req CompleteProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.profileUsecase.CompleteClientProfile(r.Context(), usecase.ClientProfileParams{
		Email:       req.Email,
		CompanyName: req.CompanyName,
		CompanySize: req.CompanySize,
		Website:     req.Website,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("failed to complete client profile")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"message": "Profile completed successfully",
		"token":   result.Token,
		"user":    newUserResponse(result.User),
	})
}

func (h *AuthHandler) CompleteFreelancerProfile(w http.ResponseWriter, r *http.Request) {
	var req CompleteFreelancerProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	bio := req.Bio
	if bio == "" {
		bio = req.Description
	}

	var hourlyRate *float64
	if req.HourlyRate != nil {
		rate := float64(*req.HourlyRate)
		hourlyRate = &rate
	}

	result, err := h.profileUsecase.CompleteFreelancerProfile(r.Context(), usecase.FreelancerProfileParams{
		Email:      req.Email,
		Skills:     req.Skills,
		Experience: req.Experience,
		HourlyRate: hourlyRate,
		Bio:        bio,
		Title:      req.Title,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("failed to complete freelancer profile")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"message": "Freelancer profile completed successfully",
		"token":   result.Token,
		"user":    newUserResponse(result.User),
	})
}

// decode parses and validates the JSON request body, writing the 400
// response itself when it fails.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validator.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
