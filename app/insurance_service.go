package app

import (
	"context"
	"strings"
	"time"

	"kisanrakshak/domain/insurance"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InsuranceService records policies and moves claims through review
type InsuranceService struct {
	repo   ports.PolicyRepository
	blobs  ports.BlobStore
	logger *zap.Logger
	now    func() time.Time
}

// NewInsuranceService creates a new insurance service
func NewInsuranceService(repo ports.PolicyRepository, blobs ports.BlobStore, logger *zap.Logger) *InsuranceService {
	return &InsuranceService{repo: repo, blobs: blobs, logger: logger.Named("insurance"), now: time.Now}
}

// CreatePolicy records a policy for the user with its farmer premium computed
func (s *InsuranceService) CreatePolicy(ctx context.Context, userID uuid.UUID, req *models.CreatePolicyRequest) (*models.Policy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	season, _ := models.ParseSeason(req.Season)
	quote, err := insurance.PremiumQuote(string(season), "", req.SumInsured, 0)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}

	scheme := strings.TrimSpace(req.Scheme)
	if scheme == "" {
		scheme = "PMFBY"
	}
	policy := &models.Policy{
		ID:           uuid.New(),
		UserID:       userID,
		PolicyNumber: strings.TrimSpace(req.PolicyNumber),
		Scheme:       scheme,
		CropName:     strings.TrimSpace(req.CropName),
		Season:       season,
		AreaAcres:    req.AreaAcres,
		SumInsured:   req.SumInsured,
		Premium:      quote.FarmerPremium,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       models.PolicyActive,
		CreatedAt:    s.now().UTC(),
	}
	policy.Status = policy.EffectiveStatus(s.now())

	if err := s.repo.CreatePolicy(ctx, policy); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, errors.Conflict("policy number already recorded")
		}
		return nil, errors.Wrap(err, "failed to create policy")
	}
	return policy, nil
}

// ListPolicies returns the user's policies with expiry applied
func (s *InsuranceService) ListPolicies(ctx context.Context, userID uuid.UUID) ([]*models.Policy, error) {
	policies, err := s.repo.ListPolicies(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, p := range policies {
		p.Status = p.EffectiveStatus(now)
	}
	return policies, nil
}

// GetPolicy returns one of the user's policies
func (s *InsuranceService) GetPolicy(ctx context.Context, userID, policyID uuid.UUID) (*models.Policy, error) {
	policy, err := s.repo.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy.UserID != userID {
		// do not reveal other users' policies
		return nil, errors.NotFound("policy")
	}
	policy.Status = policy.EffectiveStatus(s.now())
	return policy, nil
}

// FileClaim files a loss claim against the user's own active policy
func (s *InsuranceService) FileClaim(ctx context.Context, userID, policyID uuid.UUID, req *models.FileClaimRequest) (*models.Claim, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	policy, err := s.GetPolicy(ctx, userID, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Status != models.PolicyActive {
		return nil, errors.Conflict("claims can only be filed against an active policy")
	}
	if req.LossDate.Before(policy.StartDate) || req.LossDate.After(policy.EndDate) {
		return nil, errors.ValidationError("loss_date is outside the policy period")
	}
	if req.EstimatedLoss > policy.SumInsured {
		return nil, errors.ValidationError("estimated_loss exceeds the sum insured")
	}
	if err := checkOwnUpload(ctx, s.blobs, userID, req.PhotoUploadID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	claim := &models.Claim{
		ID:            uuid.New(),
		PolicyID:      policy.ID,
		UserID:        userID,
		Cause:         req.Cause,
		LossDate:      req.LossDate,
		EstimatedLoss: req.EstimatedLoss,
		Description:   strings.TrimSpace(req.Description),
		PhotoUploadID: req.PhotoUploadID,
		Status:        models.ClaimSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateClaim(ctx, claim); err != nil {
		return nil, errors.Wrap(err, "failed to file claim")
	}

	s.logger.Info("claim filed",
		zap.String("claim_id", claim.ID.String()),
		zap.String("policy_id", policy.ID.String()),
		zap.String("cause", claim.Cause))
	return claim, nil
}

// ListClaims returns the user's claims
func (s *InsuranceService) ListClaims(ctx context.Context, userID uuid.UUID) ([]*models.Claim, error) {
	return s.repo.ListClaims(ctx, userID)
}

// ClaimsForReview lists claims in a status across all users for a reviewer.
// An empty status means submitted.
func (s *InsuranceService) ClaimsForReview(ctx context.Context, reviewer *models.User, status models.ClaimStatus, limit int) ([]*models.Claim, error) {
	if !reviewer.CanReviewClaims() {
		return nil, errors.Forbidden("only claim reviewers can list the review queue")
	}
	status = models.ClaimStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if status == "" {
		status = models.ClaimSubmitted
	}
	if !models.ValidClaimStatus(status) {
		return nil, errors.ValidationError("unknown claim status: " + string(status))
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListClaimsByStatus(ctx, status, limit)
}

// UpdateClaimStatus moves a claim along submitted → under_review → approved|rejected.
// Only reviewers may do this, and never on a claim they filed themselves.
func (s *InsuranceService) UpdateClaimStatus(ctx context.Context, reviewer *models.User, claimID uuid.UUID, req *models.UpdateClaimStatusRequest) (*models.Claim, error) {
	if !reviewer.CanReviewClaims() {
		return nil, errors.Forbidden("only claim reviewers can change a claim's status")
	}
	claim, err := s.repo.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.UserID == reviewer.ID {
		return nil, errors.Forbidden("reviewers cannot decide their own claims")
	}
	to := models.ClaimStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if !models.ValidClaimStatus(to) {
		return nil, errors.ValidationError("unknown claim status: " + string(to))
	}
	if !models.CanTransition(claim.Status, to) {
		return nil, errors.ValidationError("cannot move claim from " + string(claim.Status) + " to " + string(to))
	}

	note := strings.TrimSpace(req.ReviewNote)
	if err := s.repo.UpdateClaimStatus(ctx, claimID, to, note); err != nil {
		return nil, errors.Wrap(err, "failed to update claim")
	}
	s.logger.Info("claim status changed",
		zap.String("claim_id", claimID.String()),
		zap.String("reviewer_id", reviewer.ID.String()),
		zap.String("from", string(claim.Status)),
		zap.String("to", string(to)))
	return s.repo.GetClaim(ctx, claimID)
}
