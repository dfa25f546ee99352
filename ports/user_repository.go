package ports

import (
	"context"

	"kisanrakshak/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// CreateUser creates a new user; a duplicate phone is a conflict
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by their ID
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetUserByTokenHash resolves the owner of an API token
	GetUserByTokenHash(ctx context.Context, tokenHash string) (*models.User, error)

	// GetUserByPhone retrieves a user by their registered phone number
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)

	// SetUserRole changes a user's role
	SetUserRole(ctx context.Context, userID uuid.UUID, role string) error
}
