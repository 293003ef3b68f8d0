package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"babelroom/auth"
	"babelroom/delivery"
	"babelroom/domain"
	"babelroom/errors"
	"babelroom/observability"
	"babelroom/search"
	"babelroom/services"
)

type fakeAuthService struct {
	registerErr error
	loginErr    error
}

func (f *fakeAuthService) Register(string, string, domain.LocaleCode) (services.Token, error) {
	return "fake-token", f.registerErr
}

func (f *fakeAuthService) Login(string, string) (services.Token, error) {
	return "fake-token", f.loginErr
}

type fakeChatService struct {
	rooms    map[domain.RoomCode]domain.Room
	messages []domain.Message
	hits     []search.Hit
}

func (f *fakeChatService) CreateRoom(ownerID string) (domain.Room, error) {
	room := domain.Room{Code: "NEW123", CreatedBy: ownerID, CreatedAt: time.Now().UTC()}
	f.rooms[room.Code] = room
	return room, nil
}

func (f *fakeChatService) GetRoom(code domain.RoomCode) (domain.Room, error) {
	room, ok := f.rooms[code]
	if !ok {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	return room, nil
}

func (f *fakeChatService) PostMessage(_ context.Context, cmd domain.PostMessageCommand) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeChatService) GetMessages(domain.GetMessagesCommand) ([]domain.Message, *string, error) {
	return f.messages, nil, nil
}

func (f *fakeChatService) Search(context.Context, domain.RoomCode, string, int) ([]search.Hit, error) {
	return f.hits, nil
}

func (f *fakeChatService) OpenSession(domain.User, domain.RoomCode) (*delivery.Session, error) {
	return nil, errors.ErrRoomNotFound
}

func (f *fakeChatService) CloseSession(*delivery.Session) {}

type serverFixture struct {
	server *httptest.Server
	tokens *auth.TokenManager
	chat   *fakeChatService
	auth   *fakeAuthService
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	chat := &fakeChatService{rooms: map[domain.RoomCode]domain.Room{}}
	authSvc := &fakeAuthService{}
	server := NewServer(slog.Default(), chat, authSvc, tokens, observability.NewMetrics(), 50)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return &serverFixture{server: ts, tokens: tokens, chat: chat, auth: authSvc}
}

func (f *serverFixture) token(t *testing.T) string {
	t.Helper()
	token, err := f.tokens.GenerateToken(domain.User{
		ID: "u-1", Email: "alice@mail.com", PreferredLanguage: domain.English,
	})
	require.NoError(t, err)
	return token
}

func (f *serverFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_Register_Returns_A_Token(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)

	resp := fixture.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": "alice@mail.com", "password": "ComplexPass123!", "language": "en",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)

	var decoded tokenResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	req.Equal("fake-token", decoded.Token)
}

func TestServer_Register_Conflict_On_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)
	fixture.auth.registerErr = errors.ErrUserAlreadyExists

	resp := fixture.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": "alice@mail.com", "password": "ComplexPass123!", "language": "en",
	})
	req.Equal(http.StatusConflict, resp.StatusCode)
}

func TestServer_Login_Rejects_Bad_Credentials(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)
	fixture.auth.loginErr = errors.ErrInvalidCredentials

	resp := fixture.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "alice@mail.com", "password": "wrong",
	})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Protected_Routes_Require_A_Token(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)

	resp := fixture.do(t, http.MethodPost, "/api/rooms", "", nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = fixture.do(t, http.MethodPost, "/api/rooms", "not-a-jwt", nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Create_And_Fetch_Room(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)
	token := fixture.token(t)

	resp := fixture.do(t, http.MethodPost, "/api/rooms", token, nil)
	req.Equal(http.StatusCreated, resp.StatusCode)

	var created roomResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&created))
	req.Equal("NEW123", created.Code)
	req.Equal("u-1", created.CreatedBy)

	resp = fixture.do(t, http.MethodGet, "/api/rooms/new123", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestServer_Unknown_Room_Is_A_404(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)
	token := fixture.token(t)

	resp := fixture.do(t, http.MethodGet, "/api/rooms/NOROOM", token, nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, "/api/rooms/NOROOM/messages", token, nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestServer_Search_Requires_Query_Terms(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)
	token := fixture.token(t)
	fixture.chat.rooms["ABC123"] = domain.Room{Code: "ABC123"}

	resp := fixture.do(t, http.MethodGet, "/api/rooms/ABC123/search", token, nil)
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, "/api/rooms/ABC123/search?q=hello", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestServer_Stats_Snapshot(t *testing.T) {
	req := require.New(t)
	fixture := newServerFixture(t)
	token := fixture.token(t)

	resp := fixture.do(t, http.MethodGet, "/api/stats", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	var stats observability.Stats
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Equal(int64(0), stats.ActiveSessions)
}
