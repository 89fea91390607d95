package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/workdeck/workdeck-api/internal/model"
)

type RegisterRequest struct {
	Name     string     `json:"name"     validate:"required,min=2,max=50"`
	Email    string     `json:"email"    validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role"     validate:"required"`
	Location string     `json:"location" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type OAuthLoginRequest struct {
	Email      string     `json:"email"      validate:"required,email"`
	Name       string     `json:"name"       validate:"required"`
	Provider   string     `json:"provider"   validate:"required,oneof=google github"`
	ProviderID string     `json:"providerId" validate:"required"`
	Role       model.Role `json:"role"       validate:"omitempty"`

	// Optional provider credential; when present and the provider is
	// configured, the claimed identity is verified against it.
	IDToken     string `json:"idToken"`
	AccessToken string `json:"accessToken"`
}

type SwitchRoleRequest struct {
	Role model.Role `json:"role" validate:"required"`
}

type UpdateRoleRequest struct {
	Email string     `json:"email" validate:"required,email"`
	Role  model.Role `json:"role"  validate:"required"`
}

type CompleteProfileRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	CompanyName string `json:"companyName" validate:"required,max=100"`
	CompanySize string `json:"companySize" validate:"required,oneof=1 2-10 11-50 51-200 200+"`
	Website     string `json:"website"     validate:"omitempty,url"`
}

type CompleteFreelancerProfileRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Skills      SkillList  `json:"skills"`
	Experience  string     `json:"experience"`
	HourlyRate  *FlexFloat `json:"hourlyRate"`
	Bio         string     `json:"bio"`
	Description string     `json:"description"`
	Title       string     `json:"title"`
}

type UpdateProfileRequest struct {
	Name     *string    `json:"name"     validate:"omitempty,min=2,max=50"`
	Bio      *string    `json:"bio"      validate:"omitempty,max=500"`
	Location *string    `json:"location" validate:"omitempty,max=100"`
	Skills   *SkillList `json:"skills"`
}

// UserResponse is the user shape returned to clients. The password
// hash never leaves the server.
type UserResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Roles       []model.Role `json:"roles"`
	PrimaryRole model.Role   `json:"primaryRole"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		Roles:       u.Roles,
		PrimaryRole: u.PrimaryRole,
	}
}

// SkillList accepts either a JSON array of strings or a single
// comma-delimited string and normalizes both to a list of trimmed,
// non-empty entries.
type SkillList []string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = normalizeSkills(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return errors.New("skills must be a string or an array of strings")
	}

	*s = normalizeSkills(strings.Split(single, ","))
	return nil
}

func normalizeSkills(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, skill := range raw {
		if trimmed := strings.TrimSpace(skill); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FlexFloat accepts a JSON number or a numeric string and rejects
// anything that does not parse as a number.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("must be a number")
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("must be a number")
	}

	*f = FlexFloat(n)
	return nil
}
