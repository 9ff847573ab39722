package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/types"
)

// levelFile is the YAML layout of one level*.yaml content file
type levelFile struct {
	Level        int                     `yaml:"level"`
	Title        string                  `yaml:"title"`
	Description  string                  `yaml:"description"`
	InitialStats types.LevelInitialStats `yaml:"initialStats"`
	Scenes       []types.SceneRecord     `yaml:"scenes"`
}

// DataLoader handles loading level content from files
type DataLoader struct {
	basePath string
}

// NewDataLoader creates a new data loader
func NewDataLoader(basePath string) *DataLoader {
	return &DataLoader{
		basePath: basePath,
	}
}

// LoadLevels reads every level*.yaml file under the base path
func (dl *DataLoader) LoadLevels() (Levels, error) {
	paths, err := filepath.Glob(filepath.Join(dl.basePath, "level*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list level files: %w", err)
	}
	sort.Strings(paths)

	levels := make(Levels, len(paths))
	for _, path := range paths {
		level, err := dl.LoadLevel(path)
		if err != nil {
			return nil, err
		}
		if _, dup := levels[level.Number]; dup {
			return nil, fmt.Errorf("level %d defined twice (%s)", level.Number, filepath.Base(path))
		}
		levels[level.Number] = level
	}

	return levels, nil
}

// LoadLevel reads a single level file
func (dl *DataLoader) LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	level, err := ParseLevel(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return level, nil
}

// ParseLevel decodes the YAML form of a level
func ParseLevel(data []byte) (*Level, error) {
	var lf levelFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, err
	}
	if lf.Level <= 0 {
		return nil, fmt.Errorf("level number must be positive, got %d", lf.Level)
	}

	scenes := make([]types.Scene, 0, len(lf.Scenes))
	for _, rec := range lf.Scenes {
		scene, err := rec.Scene()
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, scene)
	}

	return NewLevel(lf.Level, lf.Title, lf.Description, lf.InitialStats, scenes), nil
}

// Validate reports problems in the loaded content: targets that do not exist
// in their level, ending selectors in levels without endings and growth rates
// below -100%. The server logs them at startup; scene resolution does not
// depend on it and reports missing targets on its own.
func Validate(levels Levels) []error {
	var problems []error

	for _, number := range levels.Numbers() {
		level := levels[number]
		seen := make(map[string]bool, len(level.Scenes))
		for _, s := range level.Scenes {
			if seen[s.SceneID()] {
				problems = append(problems, fmt.Errorf("level %d: duplicate scene id %q", number, s.SceneID()))
			}
			seen[s.SceneID()] = true
		}

		check := func(from, target string) {
			if target == EndingSelectorID {
				if len(level.Endings()) == 0 {
					problems = append(problems, fmt.Errorf("level %d: scene %q selects an ending but the level has none", number, from))
				}
				return
			}
			if _, err := level.Resolve(target); err != nil {
				problems = append(problems, fmt.Errorf("level %d: scene %q: %w", number, from, err))
			}
		}

		checkPatch := func(from string, patch *types.StatUpdate) {
			if patch == nil {
				return
			}
			if rate, ok := growthRate(patch.PortfolioGrowthRate); ok && rate < -1 {
				problems = append(problems, fmt.Errorf("level %d: scene %q: growth rate %v is below -100%%", number, from, patch.PortfolioGrowthRate))
			}
		}

		for _, s := range level.Scenes {
			switch sc := s.(type) {
			case *types.DecisionScene:
				if len(sc.Choices) == 0 {
					problems = append(problems, fmt.Errorf("level %d: decision %q has no choices", number, sc.ID))
				}
				for _, c := range sc.Choices {
					check(sc.ID, c.TargetSceneID)
				}
			case *types.OutcomeScene:
				check(sc.ID, sc.TargetSceneID)
				checkPatch(sc.ID, &sc.Patch)
			case *types.EventScene:
				check(sc.ID, sc.TargetSceneID)
				checkPatch(sc.ID, &sc.Patch)
			case *types.InsightScene:
				check(sc.ID, sc.TargetSceneID)
				checkPatch(sc.ID, sc.Patch)
			case *types.EndingScene:
			}
		}
	}

	return problems
}
