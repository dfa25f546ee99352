package app

import (
	"context"
	"testing"
	"time"

	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newInsurance() (*InsuranceService, *memPolicies) {
	repo := newMemPolicies()
	svc := NewInsuranceService(repo, newMemBlobs(), zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func kharifPolicy() *models.CreatePolicyRequest {
	return &models.CreatePolicyRequest{
		PolicyNumber: "PMFBY-2026-001",
		CropName:     "paddy",
		Season:       "Kharif",
		AreaAcres:    2,
		SumInsured:   80000,
		StartDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreatePolicyComputesPremium(t *testing.T) {
	svc, _ := newInsurance()
	user := uuid.New()

	p, err := svc.CreatePolicy(context.Background(), user, kharifPolicy())
	require.NoError(t, err)
	assert.Equal(t, models.SeasonKharif, p.Season)
	assert.Equal(t, "PMFBY", p.Scheme)
	assert.Equal(t, 1600.0, p.Premium)
	assert.Equal(t, models.PolicyActive, p.Status)

	list, err := svc.ListPolicies(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.GetPolicy(context.Background(), uuid.New(), p.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestFileClaimRequiresOwnActivePolicy(t *testing.T) {
	svc, _ := newInsurance()
	ctx := context.Background()
	user := uuid.New()
	p, err := svc.CreatePolicy(ctx, user, kharifPolicy())
	require.NoError(t, err)

	claim := &models.FileClaimRequest{Cause: "Flood", LossDate: testNow.AddDate(0, 0, -3), EstimatedLoss: 30000}
	c, err := svc.FileClaim(ctx, user, p.ID, claim)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimSubmitted, c.Status)
	assert.Equal(t, "flood", c.Cause)

	_, err = svc.FileClaim(ctx, uuid.New(), p.ID, claim)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	tooBig := *claim
	tooBig.EstimatedLoss = 1e6
	_, err = svc.FileClaim(ctx, user, p.ID, &tooBig)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	early := *claim
	early.LossDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.FileClaim(ctx, user, p.ID, &early)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	expired := kharifPolicy()
	expired.PolicyNumber = "OLD"
	expired.StartDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expired.EndDate = time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)
	old, err := svc.CreatePolicy(ctx, user, expired)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyExpired, old.Status)
	_, err = svc.FileClaim(ctx, user, old.ID, &models.FileClaimRequest{Cause: "drought", LossDate: expired.StartDate.AddDate(0, 1, 0), EstimatedLoss: 10})
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))
}

func fileTestClaim(t *testing.T, svc *InsuranceService, farmer uuid.UUID) *models.Claim {
	t.Helper()
	ctx := context.Background()
	req := kharifPolicy()
	req.PolicyNumber = "PMFBY-" + uuid.NewString()[:8]
	p, err := svc.CreatePolicy(ctx, farmer, req)
	require.NoError(t, err)
	c, err := svc.FileClaim(ctx, farmer, p.ID, &models.FileClaimRequest{Cause: "pest", LossDate: testNow, EstimatedLoss: 5000})
	require.NoError(t, err)
	return c
}

func TestClaimStatusTransitions(t *testing.T) {
	svc, _ := newInsurance()
	ctx := context.Background()
	farmer := uuid.New()
	reviewer := &models.User{ID: uuid.New(), Role: models.RoleReviewer}
	c := fileTestClaim(t, svc, farmer)

	_, err := svc.UpdateClaimStatus(ctx, reviewer, c.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimApproved})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	updated, err := svc.UpdateClaimStatus(ctx, reviewer, c.ID, &models.UpdateClaimStatusRequest{Status: "Under_Review", ReviewNote: "surveyor assigned"})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimUnderReview, updated.Status)
	assert.Equal(t, "surveyor assigned", updated.ReviewNote)

	updated, err = svc.UpdateClaimStatus(ctx, reviewer, c.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimApproved})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, updated.Status)

	_, err = svc.UpdateClaimStatus(ctx, reviewer, c.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimRejected})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = svc.UpdateClaimStatus(ctx, reviewer, uuid.New(), &models.UpdateClaimStatusRequest{Status: models.ClaimRejected})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	claims, err := svc.ListClaims(ctx, farmer)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestSubmittedClaimCannotSkipReview(t *testing.T) {
	svc, _ := newInsurance()
	ctx := context.Background()
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	c := fileTestClaim(t, svc, uuid.New())

	_, err := svc.UpdateClaimStatus(ctx, admin, c.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimRejected})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = svc.UpdateClaimStatus(ctx, admin, c.ID, &models.UpdateClaimStatusRequest{Status: "settled"})
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	claims, err := svc.ListClaims(ctx, c.UserID)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, models.ClaimSubmitted, claims[0].Status)
}

func TestClaimantCannotReviewOwnClaim(t *testing.T) {
	svc, _ := newInsurance()
	ctx := context.Background()
	farmer := &models.User{ID: uuid.New(), Role: models.RoleFarmer}
	c := fileTestClaim(t, svc, farmer.ID)

	_, err := svc.UpdateClaimStatus(ctx, farmer, c.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimUnderReview})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	// a reviewer who is also the claimant is still refused
	farmer.Role = models.RoleReviewer
	_, err = svc.UpdateClaimStatus(ctx, farmer, c.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimUnderReview})
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))

	claims, err := svc.ListClaims(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimSubmitted, claims[0].Status)
}

func TestClaimsForReview(t *testing.T) {
	svc, _ := newInsurance()
	ctx := context.Background()
	reviewer := &models.User{ID: uuid.New(), Role: models.RoleReviewer}
	first := fileTestClaim(t, svc, uuid.New())
	second := fileTestClaim(t, svc, uuid.New())
	_, err := svc.UpdateClaimStatus(ctx, reviewer, second.ID, &models.UpdateClaimStatusRequest{Status: models.ClaimUnderReview})
	require.NoError(t, err)

	queue, err := svc.ClaimsForReview(ctx, reviewer, "", 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, first.ID, queue[0].ID)

	queue, err = svc.ClaimsForReview(ctx, reviewer, models.ClaimUnderReview, 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, second.ID, queue[0].ID)

	_, err = svc.ClaimsForReview(ctx, reviewer, "lost", 10)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = svc.ClaimsForReview(ctx, &models.User{ID: uuid.New(), Role: models.RoleFarmer}, "", 10)
	assert.Equal(t, errors.CodeForbidden, errors.GetCode(err))
}
