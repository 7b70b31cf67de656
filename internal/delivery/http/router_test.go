package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/matchmaker-backend/internal/realtime"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/memory"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/auth"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/chat"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/matching"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/profile"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/swipe"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
	carol = "33333333-3333-4333-8333-333333333333"
	ghost = "99999999-9999-4999-8999-999999999999"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	db := memory.New()
	hub := realtime.NewHub(log)
	matchingUseCase := matching.NewMatchingUseCase(db, db, db, nil, matching.Config{}, log)
	notifier := chat.NewNotifier(hub, db, nil, log)
	swipeUseCase := swipe.NewSwipeUseCase(db, db, notifier, matchingUseCase, swipe.Options{}, log)
	chatUseCase := chat.NewChatUseCase(memory.NewMessageStore(), swipeUseCase, hub, log)
	profileUseCase := profile.NewProfileUseCase(db, db, matchingUseCase)
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef")

	router := NewRouter(
		handler.NewProfileHandler(profileUseCase, log),
		handler.NewMatchingHandler(matchingUseCase, log),
		handler.NewSwipeHandler(swipeUseCase, log),
		handler.NewChatHandler(chatUseCase, hub, log),
		middleware.NewAuthMiddleware(tokens),
		profileUseCase,
		log,
	)
	return &testServer{t: t, engine: router.Setup(), tokens: tokens}
}

func (s *testServer) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.tokens.IssueToken(userID, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) onboard(userID, gender string) {
	s.t.Helper()
	w := s.do(http.MethodPut, "/api/v1/profile/me", userID, map[string]any{
		"name":       "User " + userID[:4],
		"gender":     gender,
		"birth_date": "1996-04-12",
		"interests":  []string{"music", "hiking"},
		"location":   map[string]float64{"latitude": 52.52, "longitude": 13.405},
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	// First read creates the default preferences.
	w = s.do(http.MethodGet, "/api/v1/preferences", userID, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestRouter_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ProfileAndPreferences(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/profile/me", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.onboard(alice, domain.GenderFemale)
	w = s.do(http.MethodGet, "/api/v1/profile/me", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice, decode(t, w)["id"])

	w = s.do(http.MethodPut, "/api/v1/profile/me", alice, map[string]any{
		"location": map[string]float64{"latitude": 95, "longitude": 0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/preferences", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(18), decode(t, w)["min_age"])

	w = s.do(http.MethodPut, "/api/v1/preferences", alice, map[string]any{"min_age": 40, "max_age": 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/v1/preferences", alice, map[string]any{"max_distance_km": 10})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), decode(t, w)["max_distance_km"])
}

func TestRouter_SwipeValidation(t *testing.T) {
	s := newTestServer(t)
	s.onboard(alice, domain.GenderFemale)

	w := s.do(http.MethodPost, "/api/v1/swipes/up/"+bob, alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/swipes/right/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/swipes/right/"+alice, alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/swipes/right/"+ghost, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/swipes/"+bob, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MatchFlow(t *testing.T) {
	s := newTestServer(t)
	s.onboard(alice, domain.GenderFemale)
	s.onboard(bob, domain.GenderMale)
	s.onboard(carol, domain.GenderFemale)

	w := s.do(http.MethodGet, "/api/v1/matches?limit=10", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/v1/matches?mode=popular", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/swipes/right/"+bob, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_match"])

	w = s.do(http.MethodGet, "/api/v1/swipes/likes-received", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(http.MethodPost, "/api/v1/swipes/right/"+alice, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["is_match"])
	room := domain.RoomID(alice, bob)
	assert.Equal(t, room, body["room_id"])

	w = s.do(http.MethodGet, "/api/v1/swipes/can-message/"+bob, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["can_message"])

	w = s.do(http.MethodGet, "/api/v1/swipes/matches", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/v1/matches?mode=liked", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/v1/chat/rooms/"+room+"/messages", carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/chat/rooms/"+room+"/messages?limit=10", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/v1/chat/rooms/"+room+"/messages?before=yesterday", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/swipes/"+bob, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "left", decode(t, w)["action"])

	w = s.do(http.MethodGet, "/api/v1/swipes/can-message/"+bob, alice, nil)
	assert.Equal(t, false, decode(t, w)["can_message"])
	w = s.do(http.MethodGet, "/api/v1/swipes/can-message/"+alice, bob, nil)
	assert.Equal(t, true, decode(t, w)["can_message"])
}

func TestRouter_MatchesWithoutLocation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/v1/profile/me", alice, map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/preferences", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/matches", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
