package postgres

import (
	"context"
	"time"

	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const policyColumns = `id, user_id, policy_number, scheme, crop_name, season, area_acres, sum_insured,
	premium, start_date, end_date, status, created_at`

const claimColumns = `id, policy_id, user_id, cause, loss_date, estimated_loss, description,
	photo_upload_id, status, review_note, created_at, updated_at`

// PolicyRepositoryImpl implements PolicyRepository for PostgreSQL
type PolicyRepositoryImpl struct {
	db *sqlx.DB
}

// NewPolicyRepository creates a new PostgreSQL policy repository
func NewPolicyRepository(db *sqlx.DB) ports.PolicyRepository {
	return &PolicyRepositoryImpl{db: db}
}

// CreatePolicy inserts a policy; policy numbers are unique
func (r *PolicyRepositoryImpl) CreatePolicy(ctx context.Context, policy *models.Policy) error {
	if policy.ID == uuid.Nil {
		policy.ID = uuid.New()
	}
	policy.CreatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO policies (`+policyColumns+`)
		VALUES (:id, :user_id, :policy_number, :scheme, :crop_name, :season, :area_acres, :sum_insured,
			:premium, :start_date, :end_date, :status, :created_at)
	`, policy)
	return translate(err, "policy")
}

// GetPolicy retrieves a policy
func (r *PolicyRepositoryImpl) GetPolicy(ctx context.Context, policyID uuid.UUID) (*models.Policy, error) {
	var p models.Policy
	if err := r.db.GetContext(ctx, &p, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, policyID); err != nil {
		return nil, translate(err, "policy")
	}
	return &p, nil
}

// ListPolicies returns a user's policies, latest cover first
func (r *PolicyRepositoryImpl) ListPolicies(ctx context.Context, userID uuid.UUID) ([]*models.Policy, error) {
	policies := []*models.Policy{}
	err := r.db.SelectContext(ctx, &policies, `
		SELECT `+policyColumns+` FROM policies
		WHERE user_id = $1
		ORDER BY start_date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err, "policy")
	}
	return policies, nil
}

// CreateClaim inserts a claim
func (r *PolicyRepositoryImpl) CreateClaim(ctx context.Context, claim *models.Claim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	now := time.Now().UTC()
	claim.CreatedAt, claim.UpdatedAt = now, now
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES (:id, :policy_id, :user_id, :cause, :loss_date, :estimated_loss, :description,
			:photo_upload_id, :status, :review_note, :created_at, :updated_at)
	`, claim)
	return translate(err, "claim")
}

// GetClaim retrieves a claim
func (r *PolicyRepositoryImpl) GetClaim(ctx context.Context, claimID uuid.UUID) (*models.Claim, error) {
	var c models.Claim
	if err := r.db.GetContext(ctx, &c, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, claimID); err != nil {
		return nil, translate(err, "claim")
	}
	return &c, nil
}

// ListClaims returns a user's claims, newest first
func (r *PolicyRepositoryImpl) ListClaims(ctx context.Context, userID uuid.UUID) ([]*models.Claim, error) {
	claims := []*models.Claim{}
	err := r.db.SelectContext(ctx, &claims, `
		SELECT `+claimColumns+` FROM claims WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err, "claim")
	}
	return claims, nil
}

// ListClaimsByStatus returns claims awaiting a review step, oldest first
func (r *PolicyRepositoryImpl) ListClaimsByStatus(ctx context.Context, status models.ClaimStatus, limit int) ([]*models.Claim, error) {
	claims := []*models.Claim{}
	err := r.db.SelectContext(ctx, &claims, `
		SELECT `+claimColumns+` FROM claims WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, translate(err, "claim")
	}
	return claims, nil
}

// UpdateClaimStatus sets a claim's review status
func (r *PolicyRepositoryImpl) UpdateClaimStatus(ctx context.Context, claimID uuid.UUID, status models.ClaimStatus, note string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE claims SET status = $2, review_note = $3, updated_at = NOW() WHERE id = $1
	`, claimID, status, note)
	return expectOne(res, err, "claim")
}
