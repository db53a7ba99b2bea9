package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/genial/game/config"
	"github.com/wricardo/genial/game/engine"
	"github.com/wricardo/genial/game/service"
	"github.com/wricardo/genial/game/store"
	"github.com/wricardo/genial/transport/websocket"
)

const testPlayerID = "0b8f7f3e-5d7a-4c39-9a53-8c9a1f0e2b11"

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateGameFunc   func(ctx context.Context, req service.CreateGameRequest) (*service.GameInfo, error)
	ListGamesFunc    func(ctx context.Context) ([]*service.GameInfo, error)
	LobbyGameFunc    func(ctx context.Context, gameID string) (*service.LobbyGame, error)
	BoardOfFunc      func(ctx context.Context, gameID string) (*service.BoardInfo, error)
	UpsertPlayerFunc func(ctx context.Context, playerID, name string) (*service.PlayerInfo, error)
	PlayerInfoFunc   func(ctx context.Context, playerID string) (*service.PlayerInfo, error)
}

func (m *MockGameService) CreateGame(ctx context.Context, req service.CreateGameRequest) (*service.GameInfo, error) {
	if m.CreateGameFunc != nil {
		return m.CreateGameFunc(ctx, req)
	}
	return &service.GameInfo{ID: "g1", Name: req.Name, BoardSize: req.BoardSize, PlayerCount: req.PlayerCount, Status: store.StatusCreated}, nil
}

func (m *MockGameService) ListGames(ctx context.Context) ([]*service.GameInfo, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return []*service.GameInfo{}, nil
}

func (m *MockGameService) LobbyGame(ctx context.Context, gameID string) (*service.LobbyGame, error) {
	if m.LobbyGameFunc != nil {
		return m.LobbyGameFunc(ctx, gameID)
	}
	return &service.LobbyGame{GameInfo: service.GameInfo{ID: gameID}}, nil
}

func (m *MockGameService) BoardOf(ctx context.Context, gameID string) (*service.BoardInfo, error) {
	if m.BoardOfFunc != nil {
		return m.BoardOfFunc(ctx, gameID)
	}
	return &service.BoardInfo{GameID: gameID}, nil
}

func (m *MockGameService) UpsertPlayer(ctx context.Context, playerID, name string) (*service.PlayerInfo, error) {
	if m.UpsertPlayerFunc != nil {
		return m.UpsertPlayerFunc(ctx, playerID, name)
	}
	return &service.PlayerInfo{ID: playerID, Name: name}, nil
}

func (m *MockGameService) PlayerInfo(ctx context.Context, playerID string) (*service.PlayerInfo, error) {
	if m.PlayerInfoFunc != nil {
		return m.PlayerInfoFunc(ctx, playerID)
	}
	return &service.PlayerInfo{ID: playerID}, nil
}

func (m *MockGameService) Join(ctx context.Context, playerID, gameID string) error { return nil }
func (m *MockGameService) Leave(ctx context.Context, playerID, gameID string) error { return nil }
func (m *MockGameService) Place(ctx context.Context, p service.Placement) error { return nil }
func (m *MockGameService) Restore(ctx context.Context) error { return nil }
func (m *MockGameService) Close() {}
func (m *MockGameService) ChangeReady(ctx context.Context, playerID, gameID string, ready bool) error {
	return nil
}

type mockPresets struct {
	presets []config.Preset
	saveErr error
}

func (m *mockPresets) List() []config.Preset { return m.presets }

func (m *mockPresets) Save(p config.Preset) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.presets = append(m.presets, p)
	return nil
}

func newTestServer(svc *MockGameService, opts ...Option) *Server {
	return NewServer(svc, websocket.NewHub(), opts...)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestListGames(t *testing.T) {
	now := time.Now()
	svc := &MockGameService{
		ListGamesFunc: func(ctx context.Context) ([]*service.GameInfo, error) {
			return []*service.GameInfo{
				{ID: "a", Status: store.StatusCreated, CreatedAt: now},
				{ID: "b", Status: store.StatusInProgress, CreatedAt: now},
				{ID: "c", Status: store.StatusCreated, CreatedAt: now},
			}, nil
		},
	}
	s := newTestServer(svc)

	tests := []struct {
		name      string
		path      string
		wantCount int
		wantTotal int
	}{
		{"all", "/api/games", 3, 3},
		{"status filter", "/api/games?status=created", 2, 2},
		{"limit", "/api/games?limit=1", 1, 3},
		{"limit beyond length", "/api/games?limit=10", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, "GET", tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Count int                 `json:"count"`
				Total int                 `json:"total"`
				Games []*service.GameInfo `json:"games"`
			}
			decode(t, w, &resp)
			if resp.Count != tt.wantCount || len(resp.Games) != tt.wantCount {
				t.Errorf("Expected count %d, got %d (%d games)", tt.wantCount, resp.Count, len(resp.Games))
			}
			if resp.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, resp.Total)
			}
		})
	}
}

func TestListGamesUnknownStatus(t *testing.T) {
	s := newTestServer(&MockGameService{})

	w := doRequest(t, s, "GET", "/api/games?status=paused", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateGame(t *testing.T) {
	var got service.CreateGameRequest
	svc := &MockGameService{
		CreateGameFunc: func(ctx context.Context, req service.CreateGameRequest) (*service.GameInfo, error) {
			got = req
			return &service.GameInfo{ID: "new", Name: req.Name, BoardSize: req.BoardSize, PlayerCount: req.PlayerCount}, nil
		},
	}
	s := newTestServer(svc)

	w := doRequest(t, s, "POST", "/api/games", map[string]interface{}{
		"name": "Friday", "board_size": 7, "player_count": 3, "preset": "trio",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if got.Name != "Friday" || got.BoardSize != 7 || got.PlayerCount != 3 || got.Preset != "trio" {
		t.Errorf("request decoded wrong: %+v", got)
	}
	var info service.GameInfo
	decode(t, w, &info)
	if info.ID != "new" {
		t.Errorf("Expected id new, got %s", info.ID)
	}
}

func TestCreateGameErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"bad json", "{", nil, http.StatusBadRequest},
		{"invalid request", `{"name":"x"}`, &service.Rejection{Action: service.ActionCreate, Reason: "invalid_game_request", Err: fmt.Errorf("%w: board size", service.ErrInvalidGameRequest)}, http.StatusBadRequest},
		{"closed", `{"name":"x"}`, service.ErrServiceClosed, http.StatusServiceUnavailable},
		{"internal", `{"name":"x"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockGameService{
				CreateGameFunc: func(ctx context.Context, req service.CreateGameRequest) (*service.GameInfo, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(svc)
			req := httptest.NewRequest("POST", "/api/games", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp map[string]interface{}
			decode(t, w, &resp)
			if resp["error"] == "" || resp["error"] == nil {
				t.Error("Expected error message in response")
			}
		})
	}
}

func TestGetGame(t *testing.T) {
	svc := &MockGameService{
		LobbyGameFunc: func(ctx context.Context, gameID string) (*service.LobbyGame, error) {
			if gameID != "g1" {
				return nil, service.ErrGameNotFound
			}
			return &service.LobbyGame{
				GameInfo:     service.GameInfo{ID: "g1", Status: store.StatusCreated, Players: []string{"p1"}},
				LobbyPlayers: []store.LobbyPlayer{{ID: "p1", Name: "Ada", Ready: true}},
			}, nil
		},
	}
	s := newTestServer(svc)

	w := doRequest(t, s, "GET", "/api/games/g1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var game service.LobbyGame
	decode(t, w, &game)
	if game.ID != "g1" || len(game.LobbyPlayers) != 1 || !game.LobbyPlayers[0].Ready {
		t.Errorf("unexpected game: %+v", game)
	}

	w = doRequest(t, s, "GET", "/api/games/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetBoard(t *testing.T) {
	svc := &MockGameService{
		BoardOfFunc: func(ctx context.Context, gameID string) (*service.BoardInfo, error) {
			corners := engine.Corners(6)
			return &service.BoardInfo{
				GameID:    gameID,
				BoardSize: 6,
				Cells:     []engine.Cell{{X: 1, Y: 0, Color: engine.Red}},
				Corners:   corners[:],
			}, nil
		},
	}
	s := newTestServer(svc)

	w := doRequest(t, s, "GET", "/api/games/g1/board", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var board service.BoardInfo
	decode(t, w, &board)
	if len(board.Cells) != 1 || board.Cells[0].Color != engine.Red {
		t.Errorf("unexpected cells: %+v", board.Cells)
	}
	if len(board.Corners) != engine.ColorCount {
		t.Errorf("Expected %d corners, got %d", engine.ColorCount, len(board.Corners))
	}
}

func TestPlayers(t *testing.T) {
	var upserted string
	svc := &MockGameService{
		UpsertPlayerFunc: func(ctx context.Context, playerID, name string) (*service.PlayerInfo, error) {
			upserted = name
			return &service.PlayerInfo{ID: playerID, Name: name}, nil
		},
		PlayerInfoFunc: func(ctx context.Context, playerID string) (*service.PlayerInfo, error) {
			if playerID != testPlayerID {
				return nil, service.ErrPlayerNotFound
			}
			return &service.PlayerInfo{ID: playerID, Name: "Ada", HandSize: 6}, nil
		},
	}
	s := newTestServer(svc)

	w := doRequest(t, s, "POST", "/api/players/"+testPlayerID, map[string]string{"name": "Ada"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if upserted != "Ada" {
		t.Errorf("Expected name Ada, got %q", upserted)
	}

	w = doRequest(t, s, "GET", "/api/players/"+testPlayerID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var raw map[string]interface{}
	decode(t, w, &raw)
	if _, ok := raw["hex_pairs"]; ok {
		t.Error("player view must not expose the hand")
	}
	if raw["hand_size"] != float64(6) {
		t.Errorf("Expected hand_size 6, got %v", raw["hand_size"])
	}

	w = doRequest(t, s, "GET", "/api/players/someone-else", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpsertPlayerInvalidID(t *testing.T) {
	svc := &MockGameService{
		UpsertPlayerFunc: func(ctx context.Context, playerID, name string) (*service.PlayerInfo, error) {
			return nil, fmt.Errorf("%w: %q", service.ErrInvalidPlayerID, playerID)
		},
	}
	s := newTestServer(svc)

	w := doRequest(t, s, "POST", "/api/players/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPresets(t *testing.T) {
	presets := &mockPresets{presets: []config.Preset{{Name: "classic", BoardSize: 6, PlayerCount: 2}}}
	s := newTestServer(&MockGameService{}, WithPresets(presets))

	w := doRequest(t, s, "GET", "/api/presets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Count   int             `json:"count"`
		Presets []config.Preset `json:"presets"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 || resp.Presets[0].Name != "classic" {
		t.Errorf("unexpected presets: %+v", resp)
	}

	w = doRequest(t, s, "POST", "/api/presets", config.Preset{Name: "big", BoardSize: 8, PlayerCount: 4})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if len(presets.presets) != 2 {
		t.Errorf("Expected preset to be saved")
	}

	presets.saveErr = fmt.Errorf("%w: board size", config.ErrInvalidConfig)
	w = doRequest(t, s, "POST", "/api/presets", config.Preset{Name: "bad"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPresetsUnavailable(t *testing.T) {
	s := newTestServer(&MockGameService{})

	if w := doRequest(t, s, "GET", "/api/presets", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := doRequest(t, s, "POST", "/api/presets", config.Preset{Name: "x"}); w.Code != http.StatusNotImplemented {
		t.Errorf("Expected status 501, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(&MockGameService{})

	w := doRequest(t, s, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	decode(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", resp["status"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrGameNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", service.ErrPlayerNotFound), http.StatusNotFound},
		{config.ErrPresetNotFound, http.StatusNotFound},
		{service.ErrInvalidPlayerID, http.StatusBadRequest},
		{&service.Rejection{Action: service.ActionJoin, Reason: "game_full", Err: service.ErrGameFull}, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWebSocketRejectsNonUUID(t *testing.T) {
	s := newTestServer(&MockGameService{})

	w := doRequest(t, s, "GET", "/ws/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	upserted := make(chan string, 1)
	svc := &MockGameService{
		UpsertPlayerFunc: func(ctx context.Context, playerID, name string) (*service.PlayerInfo, error) {
			upserted <- playerID
			return &service.PlayerInfo{ID: playerID}, nil
		},
	}
	hub := websocket.NewHub()
	s := NewServer(svc, hub)
	server := httptest.NewServer(s)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + testPlayerID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	select {
	case id := <-upserted:
		if id != testPlayerID {
			t.Errorf("Expected upsert of %s, got %s", testPlayerID, id)
		}
	case <-time.After(time.Second):
		t.Fatal("player was not upserted")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if conns, _ := hub.Stats(); conns == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("connection was not registered")
}
