package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupportedLanguages lists the response languages flows can be asked for
var SupportedLanguages = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"mr": "Marathi",
	"ta": "Tamil",
	"te": "Telugu",
	"kn": "Kannada",
	"bn": "Bengali",
	"gu": "Gujarati",
	"pa": "Punjabi",
}

// LanguageName returns the display name for a language code, defaulting to English
func LanguageName(code string) string {
	if name, ok := SupportedLanguages[strings.ToLower(code)]; ok {
		return name
	}
	return "English"
}

// User roles. Every registered user starts as a farmer; review roles are
// granted from the CLI.
const (
	RoleFarmer   = "farmer"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is a known user role
func ValidRole(role string) bool {
	switch role {
	case RoleFarmer, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered farmer
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Phone     string    `json:"phone" db:"phone"`
	Name      string    `json:"name" db:"name"`
	Language  string    `json:"language" db:"language"`
	State     string    `json:"state" db:"state"`
	District  string    `json:"district" db:"district"`
	Role      string    `json:"role" db:"role"`
	TokenHash string    `json:"-" db:"token_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanReviewClaims reports whether the user may move claims through review
func (u *User) CanReviewClaims() bool {
	return u != nil && (u.Role == RoleReviewer || u.Role == RoleAdmin)
}

// RegisterUserRequest is the payload for creating a user
type RegisterUserRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Language string `json:"language"`
	State    string `json:"state"`
	District string `json:"district"`
}

// Validate checks the registration payload
func (r *RegisterUserRequest) Validate() error {
	phone := strings.TrimSpace(r.Phone)
	if len(phone) < 10 || len(phone) > 15 {
		return validationErr("phone must be 10-15 characters")
	}
	for i, c := range phone {
		if (c < '0' || c > '9') && !(i == 0 && c == '+') {
			return validationErr("phone must contain digits only")
		}
	}
	if strings.TrimSpace(r.Name) == "" {
		return validationErr("name is required")
	}
	if r.Language != "" {
		if _, ok := SupportedLanguages[strings.ToLower(r.Language)]; !ok {
			return validationErr("unsupported language: " + r.Language)
		}
	}
	return nil
}

// RegisteredUser is returned once at registration; the token is never shown again
type RegisteredUser struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
