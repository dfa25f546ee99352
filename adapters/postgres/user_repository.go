package postgres

import (
	"context"
	"time"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, phone, name, language, state, district, role, token_hash, created_at, updated_at`

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// CreateUser creates a new user. A registered phone number is a conflict.
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleFarmer
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :phone, :name, :language, :state, :district, :role, :token_hash, :created_at, :updated_at)
	`, user)
	return translate(err, "user")
}

// GetUserByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetUserByTokenHash resolves the owner of an API token
func (r *UserRepositoryImpl) GetUserByTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetUserByPhone retrieves a user by their registered phone number
func (r *UserRepositoryImpl) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// SetUserRole changes a user's role
func (r *UserRepositoryImpl) SetUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
	`, userID, role)
	return expectOne(res, err, "user")
}
