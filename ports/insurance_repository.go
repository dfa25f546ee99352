package ports

import (
	"context"

	"kisanrakshak/models"

	"github.com/google/uuid"
)

// PolicyRepository stores insurance policies and claims
type PolicyRepository interface {
	CreatePolicy(ctx context.Context, policy *models.Policy) error
	GetPolicy(ctx context.Context, policyID uuid.UUID) (*models.Policy, error)
	ListPolicies(ctx context.Context, userID uuid.UUID) ([]*models.Policy, error)

	CreateClaim(ctx context.Context, claim *models.Claim) error
	GetClaim(ctx context.Context, claimID uuid.UUID) (*models.Claim, error)
	ListClaims(ctx context.Context, userID uuid.UUID) ([]*models.Claim, error)

	// ListClaimsByStatus returns every user's claims in a status, oldest first
	ListClaimsByStatus(ctx context.Context, status models.ClaimStatus, limit int) ([]*models.Claim, error)
	UpdateClaimStatus(ctx context.Context, claimID uuid.UUID, status models.ClaimStatus, note string) error
}
