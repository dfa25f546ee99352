package app

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"kisanrakshak/adapters/llm"
	"kisanrakshak/ai"
	"kisanrakshak/domain/growth"
	"kisanrakshak/domain/insurance"
	"kisanrakshak/domain/mandi"
	"kisanrakshak/domain/schemes"
	"kisanrakshak/domain/weather"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
	"kisanrakshak/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockPrices is a testify mock of ports.PriceSource
type mockPrices struct {
	mock.Mock
}

func (m *mockPrices) Fetch(ctx context.Context, q mandi.Query) (*mandi.FetchResult, error) {
	args := m.Called(q)
	if r := args.Get(0); r != nil {
		return r.(*mandi.FetchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubWeather struct {
	forecast *weather.Forecast
	err      error
	last     weather.Location
}

func (s *stubWeather) Forecast(ctx context.Context, loc weather.Location) (*weather.Forecast, error) {
	s.last = loc
	return s.forecast, s.err
}

type stubSpeech struct {
	audio *ports.SpeechAudio
	err   error
}

func (s *stubSpeech) Synthesize(ctx context.Context, text, voice string) (*ports.SpeechAudio, error) {
	return s.audio, s.err
}

type usageCall struct {
	userID    uuid.UUID
	operation string
}

type stubRecorder struct {
	mu    sync.Mutex
	calls []usageCall
}

func (r *stubRecorder) RecordUsage(ctx context.Context, userID uuid.UUID, operationType string, usage *models.UsageData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, usageCall{userID, operationType})
	return nil
}

// memBlobs is an in-memory ports.BlobStore
type memBlobs struct {
	mu       sync.Mutex
	meta     map[uuid.UUID]*models.Upload
	bytes    map[uuid.UUID][]byte
	maxBytes int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{meta: map[uuid.UUID]*models.Upload{}, bytes: map[uuid.UUID][]byte{}}
}

func (b *memBlobs) Put(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error) {
	if b.maxBytes > 0 && len(data) > b.maxBytes {
		return nil, errors.TooLarge("upload too large")
	}
	return b.PutGenerated(ctx, userID, contentType, data)
}

func (b *memBlobs) PutGenerated(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (*models.Upload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := models.AllowedUploadTypes[contentType]; !ok {
		return nil, errors.InvalidInput("unsupported content type")
	}
	u := &models.Upload{ID: uuid.New(), UserID: userID, ContentType: contentType, SizeBytes: int64(len(data)), CreatedAt: time.Now()}
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

// memUsers is an in-memory ports.UserRepository
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}}
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

// memPosts is an in-memory ports.PostRepository
type memPosts struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]*models.Post
	comments map[uuid.UUID]*models.Comment
	likes    map[[2]uuid.UUID]bool
}

func newMemPosts() *memPosts {
	return &memPosts{posts: map[uuid.UUID]*models.Post{}, comments: map[uuid.UUID]*models.Comment{}, likes: map[[2]uuid.UUID]bool{}}
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
	cp.LikeCount, cp.CommentCount = 0, 0
	for k := range r.likes {
		if k[0] == id {
			cp.LikeCount++
		}
	}
	for _, c := range r.comments {
		if c.PostID == id {
			cp.CommentCount++
		}
	}
	return &cp, nil
}

func (r *memPosts) ListPosts(ctx context.Context, f models.PostFilter) ([]*models.Post, error) {
	r.mu.Lock()
	var out []*models.Post
	for _, p := range r.posts {
		if f.Tag != "" && !contains(p.Tags, f.Tag) {
			continue
		}
		out = append(out, p)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset >= len(out) {
		return []*models.Post{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
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
	var out []*models.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memPosts) DeleteComment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

// memPolicies is an in-memory ports.PolicyRepository
type memPolicies struct {
	mu       sync.Mutex
	policies map[uuid.UUID]*models.Policy
	claims   map[uuid.UUID]*models.Claim
}

func newMemPolicies() *memPolicies {
	return &memPolicies{policies: map[uuid.UUID]*models.Policy{}, claims: map[uuid.UUID]*models.Claim{}}
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
	var out []*models.Policy
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Claim
	for _, c := range r.claims {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memPolicies) ListClaimsByStatus(ctx context.Context, status models.ClaimStatus, limit int) ([]*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Claim
	for _, c := range r.claims {
		if c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
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
	c.UpdatedAt = time.Now()
	return nil
}

// memCrops is an in-memory ports.CropRepository
type memCrops struct {
	mu    sync.Mutex
	crops map[uuid.UUID]*models.Crop
	snaps []*models.Snap
}

func newMemCrops() *memCrops {
	return &memCrops{crops: map[uuid.UUID]*models.Crop{}}
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
	var out []*models.Crop
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
	var out []*models.Snap
	for _, s := range r.snaps {
		if s.CropID == cropID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenOn.Before(out[j].TakenOn) })
	return out, nil
}

func (r *memCrops) ListStaleCrops(ctx context.Context, since time.Time) ([]*models.StaleCrop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.StaleCrop
	for _, c := range r.crops {
		var last *time.Time
		for _, s := range r.snaps {
			if s.CropID == c.ID && (last == nil || s.TakenOn.After(*last)) {
				t := s.TakenOn
				last = &t
			}
		}
		if last == nil || last.Before(since) {
			out = append(out, &models.StaleCrop{Crop: c, LastSnapDate: last})
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type flowFixture struct {
	svc      *FlowService
	llm      *llm.MockLLMClient
	prices   *mockPrices
	weather  *stubWeather
	speech   *stubSpeech
	blobs    *memBlobs
	recorder *stubRecorder
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	catalog, err := schemes.Load()
	require.NoError(t, err)
	finance, err := insurance.LoadScaleOfFinance()
	require.NoError(t, err)

	f := &flowFixture{
		llm:      &llm.MockLLMClient{Usage: &models.UsageData{TotalTokens: 42}},
		prices:   &mockPrices{},
		weather:  &stubWeather{},
		speech:   &stubSpeech{},
		blobs:    newMemBlobs(),
		recorder: &stubRecorder{},
	}
	rt := ai.NewRuntime(f.llm, ai.NewPromptManager("", nil), f.recorder,
		config.LLMConfig{MaxConcurrency: 2, Timeout: time.Second}, zap.NewNop())
	f.svc = NewFlowService(FlowDeps{
		Runtime: rt,
		Prices:  f.prices,
		Weather: f.weather,
		Schemes: catalog,
		Finance: finance,
		Blobs:   f.blobs,
		Speech:  f.speech,
		Logger:  zap.NewNop(),
	})
	return f
}

func loadBenchmarks(t *testing.T) *growth.Benchmarks {
	t.Helper()
	b, err := growth.Load()
	require.NoError(t, err)
	return b
}
