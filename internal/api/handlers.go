package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/interfaces"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/report"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/session"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// Handler serves the game over HTTP. Every session is addressed by the id
// returned from POST /sessions.
type Handler struct {
	sessions interfaces.SessionRegistry
	levels   game.Levels
	baseURL  string
	logger   *zap.Logger
	whatsapp *WhatsAppRoutes
}

// SessionResponse is the body of every session endpoint
type SessionResponse struct {
	ID      string             `json:"id"`
	State   types.GameState    `json:"state"`
	Scene   *types.SceneRecord `json:"scene,omitempty"`
	Warning string             `json:"warning,omitempty"`
}

type startRequest struct {
	Level *int `json:"level"`
}

type sceneRequest struct {
	TargetSceneID string `json:"targetSceneId"`
}

// NewHandler creates the HTTP handler. baseURL is used for resume links.
func NewHandler(sessions interfaces.SessionRegistry, levels game.Levels, baseURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		levels:   levels,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// WithWhatsApp adds the device pairing endpoints
func (h *Handler) WithWhatsApp(routes WhatsAppRoutes) *Handler {
	h.whatsapp = &routes
	return h
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", h.health)
	router.Get("/healthcheck", h.health)
	router.Get("/levels", h.listLevels)

	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Post("/start", h.startLevel)
			r.Post("/choose", h.choose)
			r.Post("/advance", h.advance)
			r.Post("/reset", h.reset)
			r.Get("/report.pdf", h.report)
			r.Get("/qr.png", h.resumeQR)
		})
	})

	if h.whatsapp != nil {
		h.whatsapp.mount(router, h.logger)
	}

	return router
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr))
	w.Write([]byte("OK"))
}

func (h *Handler) listLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.levels.Summaries())
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	id, gm, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	state := gm.State()
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id, State: state})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, gm, ok := h.session(w, r)
	if !ok {
		return
	}

	scene, err := gm.CurrentScene()
	h.writeResult(w, id, types.StepResult{State: gm.State(), Scene: scene, Warning: err}, nil)
}

func (h *Handler) startLevel(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, gm, ok := h.session(w, r)
	if !ok {
		return
	}

	level := 1
	if req.Level != nil {
		level = *req.Level
	}
	res, err := gm.StartGame(r.Context(), level)
	h.writeResult(w, id, res, err)
}

func (h *Handler) choose(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TargetSceneID == "" {
		http.Error(w, "targetSceneId is required", http.StatusBadRequest)
		return
	}
	id, gm, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := gm.MakeChoice(r.Context(), req.TargetSceneID)
	h.writeResult(w, id, res, err)
}

// advance continues from the current scene, or moves to targetSceneId when
// one is given
func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, gm, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		res types.StepResult
		err error
	)
	if req.TargetSceneID != "" {
		res, err = gm.AdvanceToScene(r.Context(), req.TargetSceneID)
	} else {
		res, err = gm.HandleNext(r.Context())
	}
	h.writeResult(w, id, res, err)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	id, gm, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := gm.ResetGame(r.Context())
	h.writeResult(w, id, res, err)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	id, gm, ok := h.session(w, r)
	if !ok {
		return
	}

	state := gm.State()
	in := report.Input{State: state}
	if level := h.levels.Get(state.CurrentLevel); level != nil {
		in.LevelTitle = level.Title
	}
	if scene, err := gm.CurrentScene(); err == nil {
		if ending, isEnding := scene.(*types.EndingScene); isEnding {
			in.Ending = ending
		}
	}

	pdf, err := report.Generate(in)
	if err != nil {
		h.logger.Error("Failed to generate report",
			zap.String("session_id", id),
			zap.Error(err))
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="financial-mind-maze-%s.pdf"`, id))
	w.Write(pdf)
}

// resumeQR renders a QR code pointing at the session, so a game can be picked
// up on another device
func (h *Handler) resumeQR(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.session(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(h.ResumeURL(id), qrcode.Medium, 256)
	if err != nil {
		h.logger.Error("Failed to generate QR code",
			zap.String("session_id", id),
			zap.Error(err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// ResumeURL is the link encoded in a session's QR code
func (h *Handler) ResumeURL(id string) string {
	return h.baseURL + "/sessions/" + id
}

// session looks up the session named in the path. It writes the error
// response itself when the lookup fails.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, interfaces.GameManager, bool) {
	id := chi.URLParam(r, "id")
	gm, err := h.sessions.Get(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
		return "", nil, false
	case err != nil:
		h.logger.Error("Failed to load session",
			zap.String("session_id", id),
			zap.Error(err))
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return "", nil, false
	}
	return id, gm, true
}

func (h *Handler) writeResult(w http.ResponseWriter, id string, res types.StepResult, err error) {
	if err != nil {
		h.logger.Error("Game command failed",
			zap.String("session_id", id),
			zap.Error(err))
		if errors.Is(err, game.ErrNoPlayableLevel) {
			http.Error(w, "No playable level", http.StatusInternalServerError)
			return
		}
		http.Error(w, "Game command failed", http.StatusInternalServerError)
		return
	}

	resp := SessionResponse{ID: id, State: res.State}
	if res.Scene != nil {
		rec := types.RecordOf(res.Scene)
		resp.Scene = &rec
	}
	if res.Warning != nil {
		resp.Warning = res.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	http.Error(w, "Invalid request", http.StatusBadRequest)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
