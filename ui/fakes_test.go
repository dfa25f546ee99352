package ui

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"kisanrakshak/domain/mandi"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func (r *memUsers) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == user.Phone {
			return errors.Conflict("duplicate phone")
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errors.NotFound("user")
}

func (r *memUsers) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TokenHash == hash {
			return u, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (r *memUsers) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (r *memUsers) SetUserRole(ctx context.Context, id uuid.UUID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("user")
	}
	u.Role = role
	return nil
}

type memBlobs struct {
	mu    sync.Mutex
	meta  map[uuid.UUID]*models.Upload
	bytes map[uuid.UUID][]byte
}

func (b *memBlobs) PutGenerated(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error) {
	return b.Put(ctx, userID, contentType, data)
}

func (b *memBlobs) Put(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := models.AllowedUploadTypes[contentType]; !ok {
		return nil, errors.InvalidInput("content type is not allowed")
	}
	u := &models.Upload{ID: uuid.New(), UserID: userID, ContentType: contentType, SizeBytes: int64(len(data)), SHA256: "abc", CreatedAt: time.Now()}
	b.meta[u.ID] = u
	b.bytes[u.ID] = append([]byte(nil), data...)
	return u, nil
}

func (b *memBlobs) Get(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.meta[id]
	if !ok {
		return nil, errors.NotFound("upload")
	}
	return u, nil
}

func (b *memBlobs) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.Upload, error) {
	u, err := b.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return io.NopCloser(bytes.NewReader(b.bytes[id])), u, nil
}

// memPosts keeps posts and comments; likes are counted per user
type memPosts struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]*models.Post
	comments map[uuid.UUID]*models.Comment
	likes    map[[2]uuid.UUID]bool
}

func (r *memPosts) CreatePost(ctx context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r *memPosts) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, errors.NotFound("post")
	}
	cp := *p
	cp.LikeCount = 0
	for k := range r.likes {
		if k[0] == id {
			cp.LikeCount++
		}
	}
	return &cp, nil
}

func (r *memPosts) ListPosts(ctx context.Context, f models.PostFilter) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Post{}
	for _, p := range r.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memPosts) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *memPosts) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{postID, userID}
	if r.likes[key] {
		return false, nil
	}
	r.likes[key] = true
	return true, nil
}

func (r *memPosts) CreateComment(ctx context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.comments[c.ID] = &cp
	return nil
}

func (r *memPosts) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, errors.NotFound("comment")
	}
	return c, nil
}

func (r *memPosts) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memPosts) DeleteComment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

type stubPrices struct {
	result *mandi.FetchResult
	last   mandi.Query
}

func (s *stubPrices) Fetch(ctx context.Context, q mandi.Query) (*mandi.FetchResult, error) {
	s.last = q
	if s.result == nil {
		return &mandi.FetchResult{Query: q}, nil
	}
	return s.result, nil
}

type stubUsage struct {
	summary *models.UserUsageSummary
	records []*models.LLMUsage
	userID  uuid.UUID
}

func (s *stubUsage) GetUserUsage(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.LLMUsage, error) {
	s.userID = userID
	return s.records, nil
}

func (s *stubUsage) GetUserUsageSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.UserUsageSummary, error) {
	s.userID = userID
	return s.summary, nil
}

type memPolicies struct {
	mu       sync.Mutex
	policies map[uuid.UUID]*models.Policy
	claims   map[uuid.UUID]*models.Claim
}

func (r *memPolicies) CreatePolicy(ctx context.Context, p *models.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.policies[p.ID] = &cp
	return nil
}

func (r *memPolicies) GetPolicy(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[id]
	if !ok {
		return nil, errors.NotFound("policy")
	}
	cp := *p
	return &cp, nil
}

func (r *memPolicies) ListPolicies(ctx context.Context, userID uuid.UUID) ([]*models.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Policy{}
	for _, p := range r.policies {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPolicies) CreateClaim(ctx context.Context, c *models.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.claims[c.ID] = &cp
	return nil
}

func (r *memPolicies) GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return nil, errors.NotFound("claim")
	}
	cp := *c
	return &cp, nil
}

func (r *memPolicies) ListClaims(ctx context.Context, userID uuid.UUID) ([]*models.Claim, error) {
	return r.filterClaims(func(c *models.Claim) bool { return c.UserID == userID }, 0)
}

func (r *memPolicies) ListClaimsByStatus(ctx context.Context, status models.ClaimStatus, limit int) ([]*models.Claim, error) {
	return r.filterClaims(func(c *models.Claim) bool { return c.Status == status }, limit)
}

func (r *memPolicies) filterClaims(keep func(*models.Claim) bool, limit int) ([]*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Claim{}
	for _, c := range r.claims {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPolicies) UpdateClaimStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return errors.NotFound("claim")
	}
	c.Status = status
	c.ReviewNote = note
	return nil
}

type memCrops struct {
	mu    sync.Mutex
	crops map[uuid.UUID]*models.Crop
	snaps []*models.Snap
}

func (r *memCrops) CreateCrop(ctx context.Context, c *models.Crop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crops[c.ID] = c
	return nil
}

func (r *memCrops) GetCrop(ctx context.Context, id uuid.UUID) (*models.Crop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.crops[id]
	if !ok {
		return nil, errors.NotFound("crop")
	}
	return c, nil
}

func (r *memCrops) ListCrops(ctx context.Context, userID uuid.UUID) ([]*models.Crop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Crop{}
	for _, c := range r.crops {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCrops) CreateSnap(ctx context.Context, s *models.Snap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return nil
}

func (r *memCrops) ListSnaps(ctx context.Context, cropID uuid.UUID) ([]*models.Snap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Snap{}
	for _, s := range r.snaps {
		if s.CropID == cropID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenOn.Before(out[j].TakenOn) })
	return out, nil
}

func (r *memCrops) ListStaleCrops(ctx context.Context, since time.Time) ([]*models.StaleCrop, error) {
	return nil, nil
}
