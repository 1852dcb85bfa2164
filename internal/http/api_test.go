package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-tracker/internal/auth"
	"meeting-tracker/internal/client/gemini"
	"meeting-tracker/internal/repository/sqlite"
	"meeting-tracker/internal/service"
)

const testSecret = "test-secret"

func authToken(email string) (string, error) {
	return auth.CreateAccessToken(email, testSecret, time.Hour)
}

// fakeAIText controls what the fake Gemini backend returns as model output.
type testEnv struct {
	router     *gin.Engine
	fakeAIText string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	meetingRepo := sqlite.NewMeetingRepository(db)
	actionRepo := sqlite.NewActionItemRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, meetingRepo.Init(ctx))
	require.NoError(t, actionRepo.Init(ctx))

	env := &testEnv{fakeAIText: `{"sentiment":"Positive","risk_level":"Low","summary":"Fine."}`}

	aiBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%s}]}}]}`, strconv.Quote(env.fakeAIText))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(aiBackend.Close)

	insight := gemini.NewClient(gemini.Config{APIKey: "test-key", BaseURL: aiBackend.URL})

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	handler := NewHandler(
		service.NewUserService(userRepo),
		service.NewMeetingService(meetingRepo, actionRepo),
		insight,
		nil,
		logger,
		testSecret,
		time.Hour,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	env.router = router
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, password string) UserResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

func (e *testEnv) createMeeting(t *testing.T, token, title string) MeetingResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/meetings/", token, gin.H{
		"title": title, "description": "notes", "date": "2024-01-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var meeting MeetingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meeting))
	return meeting
}

func TestRegisterLoginFlow(t *testing.T) {
	env := setup(t)

	user := env.register(t, "a@x.com", "pw1")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)

	token := env.login(t, "a@x.com", "pw1")
	require.NotEmpty(t, token)

	claims, err := auth.ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setup(t)
	env.register(t, "a@x.com", "pw1")

	rec := env.do(t, http.MethodPost, "/register", "", gin.H{"email": "a@x.com", "password": "pw2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestLoginBadCredentials(t *testing.T) {
	env := setup(t)
	env.register(t, "a@x.com", "pw1")

	for _, creds := range []url.Values{
		{"username": {"a@x.com"}, "password": {"wrong"}},
		{"username": {"nobody@x.com"}, "password": {"pw1"}},
	} {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(creds.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	}
}

func TestMeetingsRequireAuth(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/meetings/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/meetings/", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListMeetings(t *testing.T) {
	env := setup(t)
	user := env.register(t, "a@x.com", "pw1")
	token := env.login(t, "a@x.com", "pw1")

	meeting := env.createMeeting(t, token, "Standup")
	assert.Equal(t, user.ID, meeting.OwnerID)
	assert.Equal(t, "Standup", meeting.Title)
	assert.NotNil(t, meeting.Actions)
	assert.Empty(t, meeting.Actions)

	rec := env.do(t, http.MethodGet, "/meetings/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []MeetingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, meeting.ID, list[0].ID)
}

func TestMeetingInvisibleToOtherUser(t *testing.T) {
	env := setup(t)
	env.register(t, "a@x.com", "pw1")
	env.register(t, "b@x.com", "pw2")
	tokenA := env.login(t, "a@x.com", "pw1")
	tokenB := env.login(t, "b@x.com", "pw2")

	meeting := env.createMeeting(t, tokenA, "Private")
	path := fmt.Sprintf("/meetings/%d", meeting.ID)

	rec := env.do(t, http.MethodGet, path, tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// not-owned is indistinguishable from missing
	rec = env.do(t, http.MethodGet, path, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/meetings/9999", tokenA, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// b's list stays empty
	rec = env.do(t, http.MethodGet, "/meetings/", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []MeetingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestAddAction(t *testing.T) {
	env := setup(t)
	env.register(t, "a@x.com", "pw1")
	env.register(t, "b@x.com", "pw2")
	tokenA := env.login(t, "a@x.com", "pw1")
	tokenB := env.login(t, "b@x.com", "pw2")

	meeting := env.createMeeting(t, tokenA, "Standup")
	path := fmt.Sprintf("/meetings/%d/actions", meeting.ID)

	rec := env.do(t, http.MethodPost, path, tokenA, gin.H{"task": "follow up", "assigned_to": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var action ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &action))
	assert.Equal(t, meeting.ID, action.MeetingID)
	assert.Equal(t, "pending", action.Status)
	assert.Nil(t, action.DueDate)

	// cannot attach actions to someone else's meeting
	rec = env.do(t, http.MethodPost, path, tokenB, gin.H{"task": "sneaky", "assigned_to": "eve"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the action shows up nested under the meeting
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/meetings/%d", meeting.ID), tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got MeetingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Actions, 1)
	assert.Equal(t, "follow up", got.Actions[0].Task)
}

func TestMeetingHealth(t *testing.T) {
	env := setup(t)
	env.register(t, "a@x.com", "pw1")
	token := env.login(t, "a@x.com", "pw1")
	meeting := env.createMeeting(t, token, "Standup")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/meetings/%d/health", meeting.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report gemini.SentimentReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Positive", report.Sentiment)
	assert.Equal(t, "Low", report.RiskLevel)
}

func TestMeetingHealthUnparsableAI(t *testing.T) {
	env := setup(t)
	env.fakeAIText = "definitely not json"
	env.register(t, "a@x.com", "pw1")
	token := env.login(t, "a@x.com", "pw1")
	meeting := env.createMeeting(t, token, "Standup")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/meetings/%d/health", meeting.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "AI response parsing failed", payload["error"])
	assert.Equal(t, "definitely not json", payload["raw"])
}

func TestExportMeeting(t *testing.T) {
	env := setup(t)
	env.register(t, "a@x.com", "pw1")
	env.register(t, "b@x.com", "pw2")
	tokenA := env.login(t, "a@x.com", "pw1")
	tokenB := env.login(t, "b@x.com", "pw2")

	meeting := env.createMeeting(t, tokenA, "Standup")
	path := fmt.Sprintf("/meetings/%d/export", meeting.ID)

	rec := env.do(t, http.MethodGet, path, tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf("attachment; filename=meeting_%d.pdf", meeting.ID), rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = env.do(t, http.MethodGet, path, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenSubjectMustResolveToUser(t *testing.T) {
	env := setup(t)

	// a well-signed token for an email that was never registered
	token, err := authToken("ghost@x.com")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/meetings/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
