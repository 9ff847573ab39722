package game

import (
	"fmt"
	"math"
	"sort"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// EndingSelectorID is a reserved target id. It is never a scene of its own
// and is rewritten to a concrete ending based on the average decision score.
const EndingSelectorID = "ending_selector"

// Level is one playable chapter: a baseline and an ordered set of scenes
type Level struct {
	Number       int
	Title        string
	Description  string
	InitialStats types.LevelInitialStats
	Scenes       []types.Scene

	index map[string]types.Scene
}

// NewLevel builds a level and indexes its scenes by id. When ids repeat, the
// first scene wins.
func NewLevel(number int, title, description string, initial types.LevelInitialStats, scenes []types.Scene) *Level {
	l := &Level{
		Number:       number,
		Title:        title,
		Description:  description,
		InitialStats: initial,
		Scenes:       scenes,
		index:        make(map[string]types.Scene, len(scenes)),
	}
	for _, s := range scenes {
		if _, dup := l.index[s.SceneID()]; !dup {
			l.index[s.SceneID()] = s
		}
	}
	return l
}

// Resolve looks up a scene by id
func (l *Level) Resolve(sceneID string) (types.Scene, error) {
	if l == nil {
		return nil, ErrLevelNotFound
	}
	if l.index != nil {
		if s, ok := l.index[sceneID]; ok {
			return s, nil
		}
	} else {
		// Built as a literal rather than through NewLevel.
		for _, s := range l.Scenes {
			if s.SceneID() == sceneID {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q in level %d", ErrSceneNotFound, sceneID, l.Number)
}

// InitialSceneID returns the id of the first scene, or "" for an empty level
func (l *Level) InitialSceneID() string {
	if l == nil || len(l.Scenes) == 0 {
		return ""
	}
	return l.Scenes[0].SceneID()
}

// Playable reports whether the level has scene data to start from
func (l *Level) Playable() bool {
	return l.InitialSceneID() != ""
}

// Endings lists the ending scenes in content order
func (l *Level) Endings() []*types.EndingScene {
	if l == nil {
		return nil
	}
	var endings []*types.EndingScene
	for _, s := range l.Scenes {
		if e, ok := s.(*types.EndingScene); ok {
			endings = append(endings, e)
		}
	}
	return endings
}

// SelectEnding picks the ending for an average score: the highest threshold
// the score reaches, else the lowest threshold available. It returns false
// when the level has no endings.
func (l *Level) SelectEnding(average float64) (*types.EndingScene, bool) {
	endings := l.Endings()
	if len(endings) == 0 {
		return nil, false
	}

	sorted := append([]*types.EndingScene(nil), endings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScoreThreshold > sorted[j].ScoreThreshold
	})

	for _, e := range sorted {
		if average >= e.ScoreThreshold {
			return e, true
		}
	}
	return sorted[len(sorted)-1], true
}

// Levels maps level numbers to their content
type Levels map[int]*Level

// Get returns the level, or nil when it does not exist
func (ls Levels) Get(number int) *Level {
	if ls == nil {
		return nil
	}
	return ls[number]
}

// Numbers returns the level numbers in ascending order
func (ls Levels) Numbers() []int {
	numbers := make([]int, 0, len(ls))
	for n := range ls {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Summaries describes the levels in ascending order
func (ls Levels) Summaries() []types.LevelSummary {
	summaries := make([]types.LevelSummary, 0, len(ls))
	for _, n := range ls.Numbers() {
		l := ls[n]
		summaries = append(summaries, types.LevelSummary{
			Number:       l.Number,
			Title:        l.Title,
			Description:  l.Description,
			SceneCount:   len(l.Scenes),
			EndingCount:  len(l.Endings()),
			InitialStats: l.InitialStats,
		})
	}
	return summaries
}

// AverageScore is the mean of scores rounded half up, or 0 when empty
func AverageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return math.Floor(sum/float64(len(scores)) + 0.5)
}
