package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workdeck/workdeck-api/internal/middleware"
	"github.com/workdeck/workdeck-api/internal/usecase"
	"github.com/workdeck/workdeck-api/pkg/validate"
)

const maxAvatarSize = 10 << 20 // 10 MiB

var allowedAvatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UserHandler exposes the profile endpoints for authenticated users.
type UserHandler struct {
	profileUsecase usecase.ProfileUsecase
	validator      *validate.Validator
	logger         *zerolog.Logger
	uploadDir      string
}

// NewUserHandler creates a new UserHandler. Uploaded avatars are
// written under uploadDir/avatars.
func NewUserHandler(
	profileUsecase usecase.ProfileUsecase,
	validator *validate.Validator,
	logger *zerolog.Logger,
	uploadDir string,
) *UserHandler {
	return &UserHandler{
		profileUsecase: profileUsecase,
		validator:      validator,
		logger:         logger,
		uploadDir:      uploadDir,
	}
}

// Routes mounts the user endpoints; all of them require auth.
func (h *UserHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Post("/upload-avatar", h.UploadAvatar)
	r.Put("/profile", h.UpdateProfile)

	return r
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAvatarExtensions[ext] {
		respondError(w, http.StatusBadRequest, "Unsupported image format")
		return
	}

	dir := filepath.Join(h.uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.logger.Error().Err(err).Msg("failed to create avatar directory")
		respondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create avatar file")
		respondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error().Err(err).Msg("failed to write avatar file")
		respondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	avatarURL := "/uploads/avatars/" + filename

	if _, err := h.profileUsecase.SetAvatar(r.Context(), userID, avatarURL); err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("failed to set avatar")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"message": "Avatar uploaded successfully",
		"avatar":  avatarURL,
	})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil && req.Bio == nil && req.Location == nil && req.Skills == nil {
		respondError(w, http.StatusBadRequest, "No profile fields to update")
		return
	}

	user, err := h.profileUsecase.UpdateProfile(r.Context(), userID, usecase.UpdateProfileParams{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Skills:   (*[]string)(req.Skills),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error().Err(err).Msg("failed to update profile")
			respondError(w, http.StatusInternalServerError, internalErrorMessage)
		}
		return
	}

	respondSuccess(w, http.StatusOK, response{
		"user": newUserResponse(user),
	})
}
