package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/session"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/whatsapp"
)

func score(v float64) *float64 { return &v }

func testLevels() game.Levels {
	return game.Levels{
		1: game.NewLevel(1, "First Paycheck", "Your first job", types.LevelInitialStats{Cash: 5000, Age: 22}, []types.Scene{
			&types.DecisionScene{
				SceneHeader: types.SceneHeader{ID: "start", Title: "Payday"},
				Choices: []types.Choice{
					{Text: "Save it", TargetSceneID: "saved", Score: score(80)},
				},
			},
			&types.OutcomeScene{
				SceneHeader:   types.SceneHeader{ID: "saved", Title: "Saved"},
				Patch:         types.StatUpdate{CashChange: types.Num(500)},
				TargetSceneID: game.EndingSelectorID,
			},
			&types.EndingScene{
				SceneHeader:        types.SceneHeader{ID: "end", Title: "The End"},
				QualitativeSummary: "Nicely done.",
			},
		}),
	}
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, levels game.Levels) *testServer {
	t.Helper()
	reg := session.NewRegistry(kv.NewMemoryStore(), levels, config.DefaultConfig().Game, nil)
	h := NewHandler(reg, levels, "http://maze.test", nil)
	return &testServer{t: t, handler: h.Routes()}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) session(method, path, body string) SessionResponse {
	s.t.Helper()
	rec := s.do(method, path, body)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SessionResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) create() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/sessions", "")
	require.Equal(s.t, http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.ID)
	return resp.ID
}

func TestHealthAndLevels(t *testing.T) {
	srv := newTestServer(t, testLevels())

	rec := srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = srv.do(http.MethodGet, "/levels", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var levels []types.LevelSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &levels))
	require.Len(t, levels, 1)
	assert.Equal(t, "First Paycheck", levels[0].Title)
	assert.Equal(t, 3, levels[0].SceneCount)
	assert.Equal(t, 1, levels[0].EndingCount)
}

func TestSessionPlaythrough(t *testing.T) {
	srv := newTestServer(t, testLevels())
	id := srv.create()
	base := "/sessions/" + id

	// Test case 1: a new session sits at the intro level
	resp := srv.session(http.MethodGet, base, "")
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, game.IntroLevel, resp.State.CurrentLevel)
	assert.Nil(t, resp.Scene)

	// Test case 2: start defaults to level 1
	resp = srv.session(http.MethodPost, base+"/start", "")
	require.NotNil(t, resp.Scene)
	assert.Equal(t, "start", resp.Scene.ID)
	assert.Equal(t, types.SceneDecision, resp.Scene.Type)
	assert.Len(t, resp.Scene.Choices, 1)

	// Test case 3: advancing a decision is a soft failure
	resp = srv.session(http.MethodPost, base+"/advance", "")
	assert.Equal(t, "scene requires a choice", resp.Warning)
	assert.Equal(t, "start", resp.State.CurrentSceneID)

	// Test case 4: an unknown target leaves state unchanged
	resp = srv.session(http.MethodPost, base+"/choose", `{"targetSceneId":"nowhere"}`)
	assert.Contains(t, resp.Warning, "scene not found")
	assert.Equal(t, "start", resp.State.CurrentSceneID)
	assert.Empty(t, resp.State.DecisionScores)

	// Test case 5: a real choice applies the outcome
	resp = srv.session(http.MethodPost, base+"/choose", `{"targetSceneId":"saved"}`)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "saved", resp.Scene.ID)
	assert.Equal(t, 5500.0, resp.State.PlayerStats.Cash)
	assert.Equal(t, []float64{80}, resp.State.DecisionScores)

	// Test case 6: the ending selector resolves to the ending
	resp = srv.session(http.MethodPost, base+"/advance", "{}")
	assert.Equal(t, "end", resp.Scene.ID)
	assert.True(t, resp.State.Completed)
	assert.Equal(t, 80.0, resp.State.AverageScore)

	// Test case 7: reset returns to the intro
	resp = srv.session(http.MethodPost, base+"/reset", "")
	assert.Equal(t, game.IntroLevel, resp.State.CurrentLevel)
	assert.Nil(t, resp.Scene)
}

func TestStartLevelSelectionAndFallback(t *testing.T) {
	srv := newTestServer(t, testLevels())
	base := "/sessions/" + srv.create()

	resp := srv.session(http.MethodPost, base+"/start", `{"level":-1}`)
	assert.True(t, resp.State.ShowLevelSelect)
	assert.Nil(t, resp.Scene)

	resp = srv.session(http.MethodPost, base+"/start", `{"level":7}`)
	assert.Contains(t, resp.Warning, "level not found")
	assert.Equal(t, 1, resp.State.CurrentLevel)
	assert.False(t, resp.State.ShowLevelSelect)
}

func TestAdvanceToScene(t *testing.T) {
	srv := newTestServer(t, testLevels())
	base := "/sessions/" + srv.create()

	srv.session(http.MethodPost, base+"/start", `{"level":1}`)
	resp := srv.session(http.MethodPost, base+"/advance", `{"targetSceneId":"saved"}`)
	assert.Equal(t, "saved", resp.State.CurrentSceneID)
	assert.Empty(t, resp.State.DecisionScores)
}

func TestSessionErrors(t *testing.T) {
	srv := newTestServer(t, testLevels())
	base := "/sessions/" + srv.create()

	rec := srv.do(http.MethodGet, "/sessions/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodPost, "/sessions/does-not-exist/start", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodPost, base+"/choose", `{"targetSceneId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, base+"/choose", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(http.MethodPost, base+"/start", `{"level":"one"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoPlayableLevel(t *testing.T) {
	srv := newTestServer(t, game.Levels{})
	base := "/sessions/" + srv.create()

	rec := srv.do(http.MethodPost, base+"/start", `{"level":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "No playable level")
}

func TestReportAndQR(t *testing.T) {
	srv := newTestServer(t, testLevels())
	id := srv.create()
	base := "/sessions/" + id

	srv.session(http.MethodPost, base+"/start", "")
	srv.session(http.MethodPost, base+"/choose", `{"targetSceneId":"saved"}`)
	srv.session(http.MethodPost, base+"/advance", "")

	rec := srv.do(http.MethodGet, base+"/report.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = srv.do(http.MethodGet, base+"/qr.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	h := NewHandler(nil, nil, "http://maze.test", nil)
	assert.Equal(t, "http://maze.test/sessions/"+id, h.ResumeURL(id))
}

// Mock WhatsApp services for testing
type mockPairing struct{ mock.Mock }

func (m *mockPairing) GenerateQRCode(ctx context.Context, phoneNumber string) (whatsapp.PairingCode, error) {
	args := m.Called(phoneNumber)
	return args.Get(0).(whatsapp.PairingCode), args.Error(1)
}

type mockDevices struct{ mock.Mock }

func (m *mockDevices) ListSessions() ([]whatsapp.SessionInfo, error) {
	args := m.Called()
	return args.Get(0).([]whatsapp.SessionInfo), args.Error(1)
}

func (m *mockDevices) DeleteSession(phoneNumber, sessionID string) error {
	return m.Called(phoneNumber, sessionID).Error(0)
}

func (m *mockDevices) Disconnect(phoneNumber string) error {
	return m.Called(phoneNumber).Error(0)
}

func TestWhatsAppRoutes(t *testing.T) {
	// Setup
	pairing := new(mockPairing)
	devices := new(mockDevices)
	levels := testLevels()
	reg := session.NewRegistry(kv.NewMemoryStore(), levels, config.DefaultConfig().Game, nil)
	handler := NewHandler(reg, levels, "", nil).
		WithWhatsApp(WhatsAppRoutes{Pairing: pairing, Sessions: devices, Clients: devices}).
		Routes()
	srv := &testServer{t: t, handler: handler}

	pairing.On("GenerateQRCode", "5521999999999").Return(whatsapp.PairingCode{Code: "2@abc", Path: "qr.png"}, nil)
	pairing.On("GenerateQRCode", "5521000000000").Return(whatsapp.PairingCode{}, errors.New("timeout"))
	devices.On("ListSessions").Return([]whatsapp.SessionInfo{{ID: "abc", PhoneNumber: "5521999999999"}}, nil)
	devices.On("Disconnect", "5521999999999").Return(errors.New("client not found"))
	devices.On("DeleteSession", "5521999999999", "abc").Return(nil)

	// Test case 1: pairing
	rec := srv.do(http.MethodPost, "/whatsapp/qr", `{"phone_number":"5521999999999"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"qr_code":"2@abc","path":"qr.png"}`, rec.Body.String())

	rec = srv.do(http.MethodPost, "/whatsapp/qr", `{"phone_number":"5521000000000"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = srv.do(http.MethodPost, "/whatsapp/qr", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Test case 2: listing
	rec = srv.do(http.MethodGet, "/whatsapp/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phone_number":"5521999999999"`)

	// Test case 3: deleting works even when the client is offline
	rec = srv.do(http.MethodDelete, "/whatsapp/sessions/5521999999999/abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	pairing.AssertExpectations(t)
	devices.AssertExpectations(t)
}
