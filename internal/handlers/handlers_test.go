package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"campus-dating-app/internal/codec"
	"campus-dating-app/internal/config"
	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/models"
	"campus-dating-app/internal/presence"
	"campus-dating-app/internal/repository"
	"campus-dating-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "handler-test-secret"

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.MatchGreeting = ""
	c, err := codec.New(cfg.ContentKey)
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()

	deps := services.Deps{
		Store:    store,
		Codec:    c,
		Presence: presence.NewTracker(presence.NewMemoryStore(), cfg.PresenceTimeout),
		Log:      log,
	}
	matches := services.NewMatchService(deps, cfg)
	messages := services.NewMessageService(deps, cfg)

	r := gin.New()
	v1 := r.Group("/api/v1", middleware.Authenticate(jwtSecret))
	RegisterRoutes(v1, Handlers{
		Explore:   NewExploreHandler(services.NewDiscoveryService(deps, cfg)),
		Matches:   NewMatchHandler(matches, messages),
		Messages:  NewMessageHandler(messages),
		Presence:  NewPresenceHandler(services.NewPresenceService(deps, cfg)),
		Interests: NewInterestHandler(services.NewInterestService(deps, cfg)),
	})
	return &testServer{router: r, store: store}
}

func (s *testServer) profile(t *testing.T, userID uint) *models.Profile {
	t.Helper()
	p := &models.Profile{
		UserID:          userID,
		FullName:        "User " + strconv.Itoa(int(userID)),
		DateOfBirth:     time.Now().AddDate(-21, 0, -10),
		Gender:          models.GenderFemale,
		IsActive:        true,
		MinAge:          18,
		MaxAge:          30,
		PreferredGender: models.GenderAny,
	}
	require.NoError(t, s.store.CreateProfile(context.Background(), p))
	return p
}

func token(t *testing.T, userID uint) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

// call performs a request as userID (zero for anonymous) and decodes the
// JSON response into out when given.
func (s *testServer) call(t *testing.T, method, path string, userID uint, body interface{}, out interface{}) int {
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
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (s *testServer) matchPair(t *testing.T) (matchID uint, a, b *models.Profile) {
	t.Helper()
	a = s.profile(t, 1)
	b = s.profile(t, 2)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/swipes", 1,
		gin.H{"target_id": b.ID, "action": "LIKE"}, nil))

	var resp struct {
		Match services.MatchSummary `json:"match"`
	}
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/v1/swipes", 2,
		gin.H{"target_id": a.ID, "action": "LIKE"}, &resp))
	return resp.Match.ID, a, b
}

func (s *testServer) openConversation(t *testing.T) uint {
	t.Helper()
	matchID, _, _ := s.matchPair(t)
	var resp struct {
		ConversationID uint `json:"conversation_id"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost,
		"/api/v1/matches/"+strconv.Itoa(int(matchID))+"/conversation", 1, nil, &resp))
	return resp.ConversationID
}

func TestExploreEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.profile(t, 1)
	other := s.profile(t, 2)

	var resp struct {
		Candidates []services.Candidate `json:"candidates"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/explore?limit=5", 1, nil, &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, other.ID, resp.Candidates[0].ID)
	assert.Equal(t, 40, resp.Candidates[0].Score)

	resp.Candidates = nil
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/explore", 0, nil, &resp))
	assert.Empty(t, resp.Candidates)

	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, "/api/v1/explore?limit=abc", 1, nil, nil))
}

func TestSwipeEndpointErrors(t *testing.T) {
	s := newTestServer(t)
	a := s.profile(t, 1)

	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/api/v1/swipes", 0,
		gin.H{"target_id": a.ID, "action": "LIKE"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPost, "/api/v1/swipes", 1,
		gin.H{"target_id": a.ID, "action": "SUPERLIKE"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPost, "/api/v1/swipes", 1,
		gin.H{"target_id": a.ID, "action": "LIKE"}, nil))
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPost, "/api/v1/swipes", 1,
		gin.H{"target_id": 999, "action": "LIKE"}, nil))
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPost, "/api/v1/swipes", 7,
		gin.H{"target_id": a.ID, "action": "LIKE"}, nil))
}

func TestMatchLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)
	matchID, _, b := s.matchPair(t)
	s.profile(t, 3)

	var list struct {
		Matches []services.MatchSummary `json:"matches"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/matches?sort=name", 1, nil, &list))
	require.Len(t, list.Matches, 1)
	assert.Equal(t, b.ID, list.Matches[0].Partner.ID)
	assert.True(t, list.Matches[0].IsNew)

	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, "/api/v1/matches?sort=random", 1, nil, nil))
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/matches/seen", 1, nil, nil))

	path := "/api/v1/matches/" + strconv.Itoa(int(matchID))
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodDelete, path, 3, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodDelete, "/api/v1/matches/abc", 1, nil, nil))
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodDelete, path, 1, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodDelete, path, 1, nil, nil))
}

func TestMessagingEndpoints(t *testing.T) {
	s := newTestServer(t)
	convID := s.openConversation(t)
	base := "/api/v1/conversations/" + strconv.Itoa(int(convID))

	for _, content := range []string{"m1", "m2", "m3"} {
		assert.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, base+"/messages", 1,
			gin.H{"content": content}, nil))
	}
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPost, base+"/messages", 1,
		gin.H{"content": "x", "message_type": "system"}, nil))
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, base+"/messages", 0,
		gin.H{"content": "x"}, nil))

	var convs struct {
		Conversations []services.ConversationSummary `json:"conversations"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/conversations", 2, nil, &convs))
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, 3, convs.Conversations[0].UnreadCount)
	require.NotNil(t, convs.Conversations[0].LastMessage)
	assert.Equal(t, "m3", *convs.Conversations[0].LastMessage)

	var page services.MessagePage
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, base+"/messages?limit=2", 2, nil, &page))
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "m2", page.Messages[0].Content)
	assert.Equal(t, "m3", page.Messages[1].Content)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)

	cursor := url.QueryEscape(page.NextCursor.Format(time.RFC3339Nano))
	page = services.MessagePage{}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, base+"/messages?limit=2&cursor="+cursor, 2, nil, &page))
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "m1", page.Messages[0].Content)
	assert.False(t, page.HasMore)

	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, base+"/messages?cursor=yesterday", 2, nil, nil))

	var read struct {
		Marked int64 `json:"marked"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodPut, base+"/read", 2, nil, &read))
	assert.Equal(t, int64(3), read.Marked)

	convs.Conversations = nil
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/conversations", 2, nil, &convs))
	assert.Zero(t, convs.Conversations[0].UnreadCount)
}

func TestPresenceEndpoints(t *testing.T) {
	s := newTestServer(t)
	a := s.profile(t, 1)
	b := s.profile(t, 2)

	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodPost, "/api/v1/presence/heartbeat", 1, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/api/v1/presence/heartbeat", 0, nil, nil))

	var status struct {
		Online bool `json:"online"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/presence/"+strconv.Itoa(int(a.ID)), 2, nil, &status))
	assert.True(t, status.Online)

	var batch struct {
		Online map[string]bool `json:"online"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/presence/query", 2,
		gin.H{"profile_ids": []uint{a.ID, b.ID}}, &batch))
	assert.Equal(t, map[string]bool{
		strconv.Itoa(int(a.ID)): true,
		strconv.Itoa(int(b.ID)): false,
	}, batch.Online)
}

func TestInterestEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.profile(t, 1)

	assert.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/v1/interests", 1, gin.H{"name": "Chess"}, nil))
	assert.Equal(t, http.StatusConflict, s.call(t, http.MethodPost, "/api/v1/interests", 1, gin.H{"name": "Chess"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPost, "/api/v1/interests", 1, gin.H{"name": "  "}, nil))
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/api/v1/interests", 0, gin.H{"name": "Go"}, nil))

	var list struct {
		Interests []models.Interest `json:"interests"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/v1/interests", 0, nil, &list))
	require.Len(t, list.Interests, 1)
	assert.Equal(t, "Chess", list.Interests[0].Name)

	var seeded struct {
		Inserted int `json:"inserted"`
	}
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/v1/interests/seed", 1, nil, &seeded))
	assert.Zero(t, seeded.Inserted)
}
