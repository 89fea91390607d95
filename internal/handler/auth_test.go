package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck-api/internal/model"
	"github.com/workdeck/workdeck-api/internal/usecase"
	"github.com/workdeck/workdeck-api/pkg/validate"
)

type stubRegistrationUsecase struct {
	registerFn func(context.Context, usecase.RegisterParams) (*usecase.RegisterResult, error)
	verifyFn   func(context.Context, string, string) (*usecase.VerifyResult, error)
	resendFn   func(context.Context, string) error
}

func (s *stubRegistrationUsecase) Register(
	ctx context.Context,
	params usecase.RegisterParams,
) (*usecase.RegisterResult, error) {
	return s.registerFn(ctx, params)
}

func (s *stubRegistrationUsecase) VerifyOTP(
	ctx context.Context,
	email, otp string,
) (*usecase.VerifyResult, error) {
	return s.verifyFn(ctx, email, otp)
}

func (s *stubRegistrationUsecase) ResendOTP(ctx context.Context, email string) error {
	return s.resendFn(ctx, email)
}

type stubAuthUsecase struct {
	loginFn func(context.Context, usecase.LoginParams) (*usecase.AuthResult, error)
	oauthFn func(context.Context, usecase.OAuthLoginParams) (*usecase.OAuthResult, error)
}

func (s *stubAuthUsecase) Login(
	ctx context.Context,
	params usecase.LoginParams,
) (*usecase.AuthResult, error) {
	return s.loginFn(ctx, params)
}

func (s *stubAuthUsecase) OAuthLogin(
	ctx context.Context,
	params usecase.OAuthLoginParams,
) (*usecase.OAuthResult, error) {
	return s.oauthFn(ctx, params)
}

func newTestAuthHandler(
	t *testing.T,
	registration usecase.RegistrationUsecase,
	authUC usecase.AuthUsecase,
) *AuthHandler {
	t.Helper()

	validator, err := validate.New()
	require.NoError(t, err)
	logger := zerolog.Nop()

	return NewAuthHandler(registration, authUC, nil, nil, nil, validator, &logger)
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterHandlerValidation(t *testing.T) {
	h := newTestAuthHandler(t, &stubRegistrationUsecase{}, &stubAuthUsecase{})

	rec := postJSON(t, h.Register, map[string]any{
		"name": "A", "email": "not-an-email", "password": "x", "role": "freelancer",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestRegisterHandlerRoleConflict(t *testing.T) {
	registration := &stubRegistrationUsecase{
		registerFn: func(context.Context, usecase.RegisterParams) (*usecase.RegisterResult, error) {
			return nil, usecase.ErrRoleAlreadyHeld
		},
	}
	h := newTestAuthHandler(t, registration, &stubAuthUsecase{})

	rec := postJSON(t, h.Register, map[string]any{
		"name": "Ann", "email": "a@x.com", "password": "Secret123", "role": "client",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already have a client account")
}

func TestRegisterHandlerAddingRole(t *testing.T) {
	registration := &stubRegistrationUsecase{
		registerFn: func(context.Context, usecase.RegisterParams) (*usecase.RegisterResult, error) {
			return &usecase.RegisterResult{IsAddingRole: true, Role: model.RoleFreelancer}, nil
		},
	}
	h := newTestAuthHandler(t, registration, &stubAuthUsecase{})

	rec := postJSON(t, h.Register, map[string]any{
		"name": "Ann", "email": "a@x.com", "password": "Secret123", "role": "freelancer",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["isAddingRole"])
}

func TestVerifyOTPHandlerNotFound(t *testing.T) {
	registration := &stubRegistrationUsecase{
		verifyFn: func(context.Context, string, string) (*usecase.VerifyResult, error) {
			return nil, usecase.ErrRegistrationNotFound
		},
	}
	h := newTestAuthHandler(t, registration, &stubAuthUsecase{})

	rec := postJSON(t, h.VerifyOTP, map[string]any{"email": "a@x.com", "otp": "ABC123"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyOTPHandlerInvalidCode(t *testing.T) {
	registration := &stubRegistrationUsecase{
		verifyFn: func(context.Context, string, string) (*usecase.VerifyResult, error) {
			return nil, usecase.ErrInvalidOTP
		},
	}
	h := newTestAuthHandler(t, registration, &stubAuthUsecase{})

	rec := postJSON(t, h.VerifyOTP, map[string]any{"email": "a@x.com", "otp": "ABC123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired OTP")
}

func TestVerifyOTPHandlerDuplicateEmail(t *testing.T) {
	registration := &stubRegistrationUsecase{
		verifyFn: func(context.Context, string, string) (*usecase.VerifyResult, error) {
			return nil, usecase.ErrEmailAlreadyRegistered
		},
	}
	h := newTestAuthHandler(t, registration, &stubAuthUsecase{})

	rec := postJSON(t, h.VerifyOTP, map[string]any{"email": "a@x.com", "otp": "ABC123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestLoginHandlerUnauthorized(t *testing.T) {
	authUC := &stubAuthUsecase{
		loginFn: func(context.Context, usecase.LoginParams) (*usecase.AuthResult, error) {
			return nil, usecase.ErrInvalidCredentials
		},
	}
	h := newTestAuthHandler(t, &stubRegistrationUsecase{}, authUC)

	rec := postJSON(t, h.Login, map[string]any{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandlerSuccessShape(t *testing.T) {
	user := &model.User{
		Name:        "Ann",
		Email:       "a@x.com",
		Roles:       []model.Role{model.RoleFreelancer},
		PrimaryRole: model.RoleFreelancer,
	}
	authUC := &stubAuthUsecase{
		loginFn: func(context.Context, usecase.LoginParams) (*usecase.AuthResult, error) {
			return &usecase.AuthResult{Token: "tok", User: user}, nil
		},
	}
	h := newTestAuthHandler(t, &stubRegistrationUsecase{}, authUC)

	rec := postJSON(t, h.Login, map[string]any{"email": "a@x.com", "password": "Secret123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "tok", body["token"])

	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", userBody["email"])
	assert.Equal(t, "freelancer", userBody["primaryRole"])
	// The password hash never appears in a response.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSwitchRoleHandlerRequiresIdentity(t *testing.T) {
	h := newTestAuthHandler(t, &stubRegistrationUsecase{}, &stubAuthUsecase{})

	rec := postJSON(t, h.SwitchRole, map[string]any{"role": "client"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
