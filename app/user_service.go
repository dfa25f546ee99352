package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenBytes = 32

// UserService registers farmers and resolves API tokens
type UserService struct {
	repo   ports.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repo ports.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger.Named("users")}
}

// Register creates a user and issues their API token. The token is returned once
// and only its hash is stored.
func (s *UserService) Register(ctx context.Context, req *models.RegisterUserRequest) (*models.RegisteredUser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate token")
	}

	lang := strings.ToLower(req.Language)
	if lang == "" {
		lang = "en"
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New(),
		Phone:     strings.TrimSpace(req.Phone),
		Name:      strings.TrimSpace(req.Name),
		Language:  lang,
		State:     strings.TrimSpace(req.State),
		District:  strings.TrimSpace(req.District),
		Role:      models.RoleFarmer,
		TokenHash: HashToken(token),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, errors.Conflict("a user with this phone number already exists")
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return &models.RegisteredUser{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to its user
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.Unauthorized("missing API token")
	}
	user, err := s.repo.GetUserByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("invalid API token")
		}
		return nil, errors.Wrap(err, "failed to resolve token")
	}
	return user, nil
}

// GrantRole sets the role of the user registered with phone
func (s *UserService) GrantRole(ctx context.Context, phone, role string) (*models.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, errors.ValidationError("unknown role: " + role)
	}
	user, err := s.repo.GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetUserRole(ctx, user.ID, role); err != nil {
		return nil, errors.Wrap(err, "failed to set role")
	}
	s.logger.Info("role granted",
		zap.String("user_id", user.ID.String()),
		zap.String("from", user.Role),
		zap.String("to", role))
	user.Role = role
	return user, nil
}

// HashToken returns the hex SHA-256 of an API token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
