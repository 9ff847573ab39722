package game

import "errors"

var (
	// ErrSceneNotFound is reported when a target scene id does not exist in
	// the active level. The transition is aborted and state is unchanged.
	ErrSceneNotFound = errors.New("scene not found")

	// ErrLevelNotFound is reported when a level has no scene data.
	ErrLevelNotFound = errors.New("level not found")

	// ErrInvalidState is reported when persisted state is missing required
	// fields or cannot be decoded.
	ErrInvalidState = errors.New("invalid persisted game state")

	// ErrNoPlayableLevel is the only unrecoverable error: the requested level
	// and the level 1 fallback both have no scene data.
	ErrNoPlayableLevel = errors.New("no playable level")

	// ErrNotProgressible is reported when HandleNext is called on a scene that
	// waits for a player choice.
	ErrNotProgressible = errors.New("scene requires a choice")
)
