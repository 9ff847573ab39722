package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/alfonsusrr/financial-mind-maze-sub000/config"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/interfaces"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/kv"
	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// GameManager owns one player session: its state, the level content it plays
// through and the storage the state is written to after every change.
type GameManager struct {
	state     *types.GameState
	stateLock sync.RWMutex
	storage   *GameStateStorage
	levels    Levels
	config    config.GameConfig
	Logger    *zap.Logger
}

// Ensure GameManager satifies the interfaces.GameManager interface
var _ interfaces.GameManager = (*GameManager)(nil)

// NewGameManager creates a manager and restores any state stored for it.
// Stored state that fails validation is discarded in favour of the intro
// level.
func NewGameManager(ctx context.Context, levels Levels, storage *GameStateStorage, cfg config.GameConfig, logger *zap.Logger) *GameManager {
	if storage == nil {
		storage = NewGameStateStorage(kv.NewMemoryStore(), DefaultStateKey)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gm := &GameManager{
		storage: storage,
		levels:  levels,
		config:  cfg,
		Logger:  logger,
	}

	state, err := storage.LoadGameState(ctx)
	switch {
	case err != nil:
		gm.Logger.Warn("Discarding stored game state",
			zap.String("key", storage.Key()),
			zap.Error(err))
		gm.state = gm.introState()
	case state == nil:
		gm.state = gm.introState()
	default:
		gm.Logger.Info("Restored game state",
			zap.String("key", storage.Key()),
			zap.Int("level", state.CurrentLevel),
			zap.String("scene_id", state.CurrentSceneID))
		gm.state = state
	}

	return gm
}

// SetLogger replaces the manager's logger
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	gm.Logger = logger
}

// saveState persists the current game state. Failures are logged and the
// in-memory state stays authoritative.
func (gm *GameManager) saveState(ctx context.Context) {
	if err := gm.storage.SaveGameState(ctx, gm.state); err != nil {
		gm.Logger.Error("Failed to save game state",
			zap.String("key", gm.storage.Key()),
			zap.Error(err))
	}
}

// State returns a copy of the current game state
func (gm *GameManager) State() types.GameState {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.state.Clone()
}

// CurrentScene resolves the scene the player is on. It returns nil without an
// error while no level is being played.
func (gm *GameManager) CurrentScene() (types.Scene, error) {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()
	return gm.currentScene()
}

// Levels returns the level content the manager plays
func (gm *GameManager) Levels() Levels {
	return gm.levels
}

// LevelSummaries lists the levels in ascending order for level selection
func (gm *GameManager) LevelSummaries() []types.LevelSummary {
	return gm.levels.Summaries()
}

// StartGame begins level. LevelSelectSentinel only switches to level
// selection, IntroLevel lands on the intro state, and any other level starts
// fresh from its baseline. A level without scene data falls back to level 1;
// if level 1 is unplayable too, ErrNoPlayableLevel is returned.
func (gm *GameManager) StartGame(ctx context.Context, level int) (types.StepResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	return gm.startGame(ctx, level)
}

// ResetGame returns to the intro level
func (gm *GameManager) ResetGame(ctx context.Context) (types.StepResult, error) {
	return gm.StartGame(ctx, IntroLevel)
}

// MakeChoice records the score of the chosen option, if any, and moves to
// its target. Nothing is recorded when the target cannot be resolved.
func (gm *GameManager) MakeChoice(ctx context.Context, targetSceneID string) (types.StepResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	scores := gm.state.DecisionScores
	if scene, err := gm.currentScene(); err == nil {
		if decision, ok := scene.(*types.DecisionScene); ok {
			for _, choice := range decision.Choices {
				if choice.TargetSceneID != targetSceneID {
					continue
				}
				if choice.Score != nil {
					scores = append(append([]float64{}, scores...), *choice.Score)
				}
				break
			}
		}
	}

	return gm.advance(ctx, targetSceneID, scores), nil
}

// AdvanceToScene moves to targetSceneID, applying the patch of outcome,
// event and insight scenes on the way in
func (gm *GameManager) AdvanceToScene(ctx context.Context, targetSceneID string) (types.StepResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	return gm.advance(ctx, targetSceneID, gm.state.DecisionScores), nil
}

// HandleNext continues from a scene that does not need a choice. From an
// ending it moves on to the next level, or back to level 1 after the last.
func (gm *GameManager) HandleNext(ctx context.Context) (types.StepResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	scene, err := gm.currentScene()
	if err != nil {
		gm.Logger.Warn("Cannot continue from current scene",
			zap.Int("level", gm.state.CurrentLevel),
			zap.String("scene_id", gm.state.CurrentSceneID),
			zap.Error(err))
		return gm.result(nil, err), nil
	}

	switch sc := scene.(type) {
	case *types.OutcomeScene:
		return gm.advance(ctx, sc.TargetSceneID, gm.state.DecisionScores), nil
	case *types.EventScene:
		return gm.advance(ctx, sc.TargetSceneID, gm.state.DecisionScores), nil
	case *types.InsightScene:
		return gm.advance(ctx, sc.TargetSceneID, gm.state.DecisionScores), nil
	case *types.EndingScene:
		return gm.nextLevel(ctx)
	case *types.DecisionScene:
		gm.Logger.Debug("Decision scene waits for a choice",
			zap.String("scene_id", sc.ID))
		return gm.result(sc, ErrNotProgressible), nil
	default:
		return gm.result(nil, ErrNotProgressible), nil
	}
}

func (gm *GameManager) startGame(ctx context.Context, level int) (types.StepResult, error) {
	switch level {
	case LevelSelectSentinel:
		gm.state.ShowLevelSelect = true
		gm.state.CurrentLevel = IntroLevel
		gm.saveState(ctx)
		gm.Logger.Info("Showing level selection")
		return gm.result(nil, nil), nil
	case IntroLevel:
		gm.clearState(ctx)
		gm.state = gm.introState()
		gm.saveState(ctx)
		gm.Logger.Info("Game reset to intro level")
		return gm.result(nil, nil), nil
	}

	var warning error
	target := gm.levels.Get(level)
	if !target.Playable() {
		warning = fmt.Errorf("%w: %d", ErrLevelNotFound, level)
		gm.Logger.Warn("Level has no scene data, falling back to level 1",
			zap.Int("level", level))

		target = gm.levels.Get(1)
		if !target.Playable() {
			gm.Logger.Error("No playable level",
				zap.Int("requested_level", level))
			return gm.result(nil, nil), ErrNoPlayableLevel
		}
	}

	gm.clearState(ctx)
	gm.state = newLevelState(target)
	gm.saveState(ctx)

	gm.Logger.Info("Level started",
		zap.Int("level", target.Number),
		zap.String("scene_id", gm.state.CurrentSceneID),
		zap.Float64("cash", gm.state.PlayerStats.Cash))

	return gm.result(nil, warning), nil
}

// advance resolves targetSceneID and commits the transition with scores as
// the new decision scores. On a resolution failure nothing is committed.
func (gm *GameManager) advance(ctx context.Context, targetSceneID string, scores []float64) types.StepResult {
	level := gm.levels.Get(gm.state.CurrentLevel)
	average := AverageScore(scores)

	sceneID := targetSceneID
	if targetSceneID == EndingSelectorID {
		ending, ok := level.SelectEnding(average)
		if !ok {
			err := fmt.Errorf("%w: level %d has no endings", ErrSceneNotFound, gm.state.CurrentLevel)
			gm.Logger.Warn("Cannot select ending", zap.Error(err))
			return gm.result(nil, err)
		}
		gm.Logger.Debug("Ending selected",
			zap.String("scene_id", ending.ID),
			zap.Float64("average_score", average),
			zap.Float64("threshold", ending.ScoreThreshold))
		sceneID = ending.ID
	}

	scene, err := level.Resolve(sceneID)
	if err != nil {
		gm.Logger.Warn("Transition aborted",
			zap.Int("level", gm.state.CurrentLevel),
			zap.String("from", gm.state.CurrentSceneID),
			zap.String("target", targetSceneID),
			zap.Error(err))
		return gm.result(nil, err)
	}

	before := gm.state.PlayerStats
	stats := before
	switch sc := scene.(type) {
	case *types.OutcomeScene:
		stats = ApplyStatUpdate(before, sc.Patch)
	case *types.EventScene:
		stats = ApplyStatUpdate(before, sc.Patch)
	case *types.InsightScene:
		if sc.Patch != nil {
			stats = ApplyStatUpdate(before, *sc.Patch)
		}
	case *types.DecisionScene, *types.EndingScene:
	}

	next := gm.state.Clone()
	next.CurrentSceneID = sceneID
	next.PlayerStats = stats
	next.History = append(next.History, sceneID)
	next.FinancialHistory = append(next.FinancialHistory, types.SnapshotOf(before, sceneID))
	next.DecisionScores = append([]float64{}, scores...)
	next.AverageScore = average
	_, next.Completed = scene.(*types.EndingScene)

	gm.state = &next
	gm.saveState(ctx)

	gm.Logger.Info("Scene entered",
		zap.Int("level", next.CurrentLevel),
		zap.String("scene_id", sceneID),
		zap.String("type", string(scene.Type())),
		zap.Float64("net_worth", stats.NetWorth),
		zap.Int("well_being", stats.WellBeing),
		zap.Bool("completed", next.Completed))

	return gm.result(scene, nil)
}

// nextLevel leaves an ending for the following level with a fresh baseline
func (gm *GameManager) nextLevel(ctx context.Context) (types.StepResult, error) {
	gm.state.AverageScore = AverageScore(gm.state.DecisionScores)
	gm.Logger.Info("Level completed",
		zap.Int("level", gm.state.CurrentLevel),
		zap.Float64("average_score", gm.state.AverageScore),
		zap.Float64("net_worth", gm.state.PlayerStats.NetWorth))

	next := gm.levels.Get(gm.state.CurrentLevel + 1)
	if !next.Playable() {
		gm.Logger.Info("No further level, restarting from level 1")
		return gm.startGame(ctx, 1)
	}

	gm.state = newLevelState(next)
	gm.saveState(ctx)

	gm.Logger.Info("Level started",
		zap.Int("level", next.Number),
		zap.String("scene_id", gm.state.CurrentSceneID))

	return gm.result(nil, nil), nil
}

func (gm *GameManager) currentScene() (types.Scene, error) {
	if gm.state.ShowLevelSelect || gm.state.CurrentLevel == IntroLevel || gm.state.CurrentSceneID == "" {
		return nil, nil
	}
	return gm.levels.Get(gm.state.CurrentLevel).Resolve(gm.state.CurrentSceneID)
}

// result snapshots the state; scene is resolved when not given
func (gm *GameManager) result(scene types.Scene, warning error) types.StepResult {
	if scene == nil {
		var err error
		scene, err = gm.currentScene()
		if err != nil && warning == nil {
			warning = err
		}
	}
	return types.StepResult{
		State:   gm.state.Clone(),
		Scene:   scene,
		Warning: warning,
	}
}

func (gm *GameManager) clearState(ctx context.Context) {
	if err := gm.storage.ClearGameState(ctx); err != nil {
		gm.Logger.Error("Failed to clear game state",
			zap.String("key", gm.storage.Key()),
			zap.Error(err))
	}
}

// introState is the reset destination, on the configured default baseline
func (gm *GameManager) introState() *types.GameState {
	return &types.GameState{
		CurrentLevel:     IntroLevel,
		PlayerStats:      types.NewPlayerStats(gm.config.InitialStats()),
		History:          []string{},
		FinancialHistory: []types.FinancialSnapshot{},
		DecisionScores:   []float64{},
	}
}

func newLevelState(level *Level) *types.GameState {
	stats := types.NewPlayerStats(level.InitialStats)
	first := level.InitialSceneID()
	return &types.GameState{
		CurrentLevel:     level.Number,
		CurrentSceneID:   first,
		PlayerStats:      stats,
		History:          []string{first},
		FinancialHistory: []types.FinancialSnapshot{types.SnapshotOf(stats, first)},
		DecisionScores:   []float64{},
	}
}

// IsSoft reports whether err is a recoverable engine failure
func IsSoft(err error) bool {
	return errors.Is(err, ErrSceneNotFound) ||
		errors.Is(err, ErrLevelNotFound) ||
		errors.Is(err, ErrNotProgressible) ||
		errors.Is(err, ErrInvalidState)
}
