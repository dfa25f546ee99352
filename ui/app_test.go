package ui

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kisanrakshak/adapters/llm"
	"kisanrakshak/ai"
	"kisanrakshak/app"
	"kisanrakshak/domain/growth"
	"kisanrakshak/domain/insurance"
	"kisanrakshak/domain/mandi"
	"kisanrakshak/domain/schemes"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/notify"
	"kisanrakshak/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testApp struct {
	*App
	users    *memUsers
	blobs    *memBlobs
	posts    *memPosts
	prices   *stubPrices
	usage    *stubUsage
	hub      *notify.Hub
	policies *memPolicies
	crops    *memCrops
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	catalog, err := schemes.Load()
	require.NoError(t, err)
	finance, err := insurance.LoadScaleOfFinance()
	require.NoError(t, err)

	ta := &testApp{
		users:    &memUsers{users: map[uuid.UUID]*models.User{}},
		blobs:    &memBlobs{meta: map[uuid.UUID]*models.Upload{}, bytes: map[uuid.UUID][]byte{}},
		posts:    &memPosts{posts: map[uuid.UUID]*models.Post{}, comments: map[uuid.UUID]*models.Comment{}, likes: map[[2]uuid.UUID]bool{}},
		prices:   &stubPrices{},
		usage:    &stubUsage{summary: &models.UserUsageSummary{TotalTokens: 120, RequestCount: 3}},
		hub:      notify.NewHub(nil),
		policies: &memPolicies{policies: map[uuid.UUID]*models.Policy{}, claims: map[uuid.UUID]*models.Claim{}},
		crops:    &memCrops{crops: map[uuid.UUID]*models.Crop{}},
	}
	benchmarks, err := growth.Load()
	require.NoError(t, err)

	rt := ai.NewRuntime(&llm.MockLLMClient{}, ai.NewPromptManager("", nil), nil,
		config.LLMConfig{MaxConcurrency: 1, Timeout: time.Second}, zap.NewNop())
	flows := app.NewFlowService(app.FlowDeps{
		Runtime: rt,
		Prices:  ta.prices,
		Schemes: catalog,
		Finance: finance,
		Blobs:   ta.blobs,
		Logger:  zap.NewNop(),
	})

	ta.App = NewApp(Config{MaxUploadBytes: 64}, Deps{
		Users:     app.NewUserService(ta.users, zap.NewNop()),
		Flows:     flows,
		Community: app.NewCommunityService(ta.posts, ta.blobs, zap.NewNop()),
		Insurance: app.NewInsuranceService(ta.policies, ta.blobs, zap.NewNop()),
		Crops:     app.NewCropMonitorService(ta.crops, ta.blobs, benchmarks, zap.NewNop()),
		Blobs:     ta.blobs,
		Usage:     ta.usage,
		Events:    ta.hub,
		Logger:    zap.NewNop(),
	})
	return ta
}

func (ta *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ta.ServeHTTP(rec, req)
	return rec
}

func (ta *testApp) register(t *testing.T, phone string) (string, *models.User) {
	t.Helper()
	rec := ta.do(http.MethodPost, "/api/users", "", map[string]string{
		"phone": phone, "name": "Ramesh", "language": "hi", "state": "Punjab",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out models.RegisteredUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token, out.User
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out map[string]errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out["error"]
}

func TestHealthz(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	ta.health = func(ctx context.Context) error { return fmt.Errorf("db down") }
	rec = ta.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterAndMe(t *testing.T) {
	ta := newTestApp(t)
	token, user := ta.register(t, "9876543210")
	assert.Equal(t, "hi", user.Language)

	rec := ta.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, user.ID, me.ID)
	assert.NotContains(t, rec.Body.String(), "token_hash")

	rec = ta.do(http.MethodPost, "/api/users", "", map[string]string{"phone": "9876543210", "name": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec).Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodPost, "/api/users", "", map[string]string{"phone": "12", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = ta.do(http.MethodPost, "/api/users", "", `{"phone":"9876543210","name":"x","admin":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)

	rec = ta.do(http.MethodPost, "/api/users", "", `{"phone":"9876543210","name":"x"}{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	rec = ta.do(http.MethodGet, "/api/posts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListSchemesIsPublic(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.do(http.MethodGet, "/api/schemes?q=I+need+a+loan", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Schemes []schemes.Scheme `json:"schemes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Schemes, 1)
	assert.Equal(t, "kcc", out.Schemes[0].ID)
}

func TestPremiumQuote(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.do(http.MethodGet, "/api/insurance/premium?season=kharif&sum_insured=100000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var q insurance.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, 2000.0, q.FarmerPremium)
	assert.Equal(t, 10000.0, q.TotalPremium)
	assert.Equal(t, 8000.0, q.GovernmentShare)

	rec = ta.do(http.MethodGet, "/api/insurance/premium?season=monsoon&sum_insured=100", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(http.MethodGet, "/api/insurance/premium?season=rabi", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrices(t *testing.T) {
	ta := newTestApp(t)
	token, _ := ta.register(t, "9876543210")

	rec := ta.do(http.MethodGet, "/api/mandi/prices", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ta.prices.result = &mandi.FetchResult{
		Records: []mandi.Record{
			{Market: "Khanna", Commodity: "Wheat", ArrivalDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), MinPrice: 2200, MaxPrice: 2400, ModalPrice: 2300},
			{Market: "Rajpura", Commodity: "Wheat", ArrivalDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), MinPrice: 2250, MaxPrice: 2450, ModalPrice: 2350},
		},
		Total: 2,
	}
	rec = ta.do(http.MethodGet, "/api/mandi/prices?commodity=+Wheat+&state=Punjab&limit=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Wheat", ta.prices.last.Commodity)
	assert.Equal(t, 5, ta.prices.last.Limit)

	var report app.PriceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Records, 2)
	require.NotNil(t, report.Summary)

	rec = ta.do(http.MethodGet, "/api/mandi/prices.xlsx?commodity=Wheat", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "wheat_prices.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestWeatherRequiresLocation(t *testing.T) {
	ta := newTestApp(t)
	token, _ := ta.register(t, "9876543210")
	rec := ta.do(http.MethodGet, "/api/weather", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(http.MethodGet, "/api/weather?lat=30.9", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(http.MethodGet, "/api/weather?lat=north&lon=75", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTextToSpeechWithoutSynthesizer(t *testing.T) {
	ta := newTestApp(t)
	token, _ := ta.register(t, "9876543210")

	rec := ta.do(http.MethodPost, "/api/flows/tts", token, map[string]string{"text": "namaste"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", decodeError(t, rec).Code)
}

func TestPostLifecycle(t *testing.T) {
	ta := newTestApp(t)
	author, _ := ta.register(t, "9876543210")
	other, _ := ta.register(t, "9123456780")

	rec := ta.do(http.MethodPost, "/api/posts", author, map[string]interface{}{
		"title": "Yellow leaves on wheat", "body": "Seeing yellowing after rain", "tags": []string{"Wheat"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))

	path := "/api/posts/" + post.ID.String()
	rec = ta.do(http.MethodPost, path+"/like", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ta.do(http.MethodPost, path+"/like", other, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, 1, post.LikeCount)

	rec = ta.do(http.MethodPost, path+"/comments", other, map[string]string{"body": "Try urea top dressing"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ta.do(http.MethodGet, path, other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "urea")

	rec = ta.do(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ta.do(http.MethodDelete, path, author, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ta.do(http.MethodGet, path, author, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(http.MethodGet, "/api/posts/not-a-uuid", author, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRawAndMultipart(t *testing.T) {
	ta := newTestApp(t)
	token, _ := ta.register(t, "9876543210")
	png := []byte("\x89PNG fake image")

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader(png))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ta.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var upload models.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))

	rec = ta.do(http.MethodGet, "/api/uploads/"+upload.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="leaf.jpg"`}
	h["Content-Type"] = []string{"image/jpeg"}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg bytes"))
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/api/uploads", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	ta.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "image/jpeg")
}

func TestUploadRejects(t *testing.T) {
	ta := newTestApp(t)
	token, _ := ta.register(t, "9876543210")

	send := func(contentType string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		ta.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, send("", []byte("x")).Code)
	assert.Equal(t, http.StatusBadRequest, send("text/plain", []byte("x")).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, send("image/png", []byte(strings.Repeat("x", 65))).Code)

	rec := ta.do(http.MethodGet, "/api/uploads/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsageSummary(t *testing.T) {
	ta := newTestApp(t)
	token, user := ta.register(t, "9876543210")

	rec := ta.do(http.MethodGet, "/api/usage?days=7", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, ta.usage.userID)
	assert.Contains(t, rec.Body.String(), `"total_tokens":120`)

	rec = ta.do(http.MethodGet, "/api/usage?days=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithLanguage(t *testing.T) {
	user := &models.User{Language: "ta"}
	assert.Equal(t, "ta", withLanguage("", user))
	assert.Equal(t, "hi", withLanguage("hi", user))
}

func TestEventsStreamDeliversReminders(t *testing.T) {
	ta := newTestApp(t)
	token, user := ta.register(t, "9876543210")
	srv := httptest.NewServer(ta)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return ta.hub.ClientCount(user.ID) == 1 }, 2*time.Second, 10*time.Millisecond)
	ta.hub.Notify(user.ID, notify.EventCropLogReminder, map[string]string{"crop_name": "wheat"})

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: crop_log_reminder\n", line)
}

func TestEventsRequireAuth(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
