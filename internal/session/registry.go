package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/game"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/interfaces"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
)

// ErrNotFound is returned for ids with neither a live nor a stored session
var ErrNotFound = errors.New("session not found")

// Registry hands out one GameManager per session id. Managers are created
// lazily and share one backing store, each under its own key.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*game.GameManager
	store    kv.Store
	levels   game.Levels
	config   config.GameConfig
	logger   *zap.Logger
}

var _ interfaces.SessionRegistry = (*Registry)(nil)

// NewRegistry creates a registry over store
func NewRegistry(store kv.Store, levels game.Levels, cfg config.GameConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		managers: make(map[string]*game.GameManager),
		store:    store,
		levels:   levels,
		config:   cfg,
		logger:   logger,
	}
}

// NewID returns a fresh session id
func (r *Registry) NewID() string {
	return uuid.New().String()
}

// Levels returns the content every session plays
func (r *Registry) Levels() game.Levels {
	return r.levels
}

// Create starts a new session at the intro level. The intro state is
// written straight away so the id can be looked up after a restart.
func (r *Registry) Create(ctx context.Context) (string, interfaces.GameManager, error) {
	id := r.NewID()
	gm, err := r.GetOrCreate(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if _, err := gm.ResetGame(ctx); err != nil {
		return "", nil, fmt.Errorf("initialise session %s: %w", id, err)
	}
	return id, gm, nil
}

// Get returns a live session or restores a stored one
func (r *Registry) Get(ctx context.Context, id string) (interfaces.GameManager, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	gm, ok := r.managers[id]
	r.mu.RUnlock()
	if ok {
		return gm, nil
	}

	_, stored, err := r.store.Get(ctx, game.SessionStateKey(id))
	if err != nil {
		return nil, fmt.Errorf("lookup session %s: %w", id, err)
	}
	if !stored {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.GetOrCreate(ctx, id)
}

// GetOrCreate returns the session for id, creating it when needed. Chat
// adapters use the sender address as the id.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (interfaces.GameManager, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gm, ok := r.managers[id]; ok {
		return gm, nil
	}

	storage := game.NewGameStateStorage(r.store, game.SessionStateKey(id))
	gm := game.NewGameManager(ctx, r.levels, storage, r.config, r.logger.With(zap.String("session_id", id)))
	r.managers[id] = gm

	r.logger.Info("Session opened", zap.String("session_id", id))
	return gm, nil
}

// Len reports how many sessions are live in memory
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}
