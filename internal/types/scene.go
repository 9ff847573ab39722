package types

import (
	"fmt"
)

// SceneType discriminates the scene variants in content files
type SceneType string

const (
	SceneDecision SceneType = "decision"
	SceneOutcome  SceneType = "outcome"
	SceneInsight  SceneType = "insight"
	SceneEvent    SceneType = "event"
	SceneEnding   SceneType = "ending"
)

// Scene is one node of a level's narrative graph. The set of implementations
// is closed: *DecisionScene, *OutcomeScene, *InsightScene, *EventScene and
// *EndingScene.
type Scene interface {
	SceneID() string
	Type() SceneType
	Header() SceneHeader
	sealed()
}

// SceneHeader holds the fields every scene shares
type SceneHeader struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Background  string `json:"background,omitempty"`
}

func (h SceneHeader) SceneID() string     { return h.ID }
func (h SceneHeader) Header() SceneHeader { return h }
func (SceneHeader) sealed()               {}

// DecisionScene asks the player to pick one of its choices
type DecisionScene struct {
	SceneHeader
	Choices []Choice
}

// OutcomeScene applies a patch on entry and chains to TargetSceneID
type OutcomeScene struct {
	SceneHeader
	Patch         StatUpdate
	TargetSceneID string
}

// EventScene is an outcome the player did not choose
type EventScene struct {
	SceneHeader
	Patch         StatUpdate
	TargetSceneID string
}

// InsightScene explains a real-world lesson; its patch is optional
type InsightScene struct {
	SceneHeader
	Patch            *StatUpdate
	TargetSceneID    string
	RealWorldExample string
	Summary          string
}

// EndingScene is terminal for its level
type EndingScene struct {
	SceneHeader
	Score              float64
	ScoreThreshold     float64
	QualitativeSummary string
}

func (*DecisionScene) Type() SceneType { return SceneDecision }
func (*OutcomeScene) Type() SceneType  { return SceneOutcome }
func (*EventScene) Type() SceneType    { return SceneEvent }
func (*InsightScene) Type() SceneType  { return SceneInsight }
func (*EndingScene) Type() SceneType   { return SceneEnding }

// Choice is one option of a DecisionScene
type Choice struct {
	Text          string         `json:"text" yaml:"text"`
	TargetSceneID string         `json:"nextSceneId" yaml:"nextSceneId"`
	Score         *float64       `json:"score,omitempty" yaml:"score,omitempty"`
	Details       *ChoiceDetails `json:"detailedInfo,omitempty" yaml:"detailedInfo,omitempty"`
}

// ChoiceDetails is descriptive metadata shown before a choice is made
type ChoiceDetails struct {
	ShortTermFinancial *float64          `json:"shortTermFinancial,omitempty" yaml:"shortTermFinancial,omitempty"`
	ShortTermWellBeing *int              `json:"shortTermWellBeing,omitempty" yaml:"shortTermWellBeing,omitempty"`
	LongTermImpact     map[string]string `json:"longTermImpact,omitempty" yaml:"longTermImpact,omitempty"`
	TimeCommitment     string            `json:"timeCommitment,omitempty" yaml:"timeCommitment,omitempty"`
	RiskLevel          string            `json:"riskLevel,omitempty" yaml:"riskLevel,omitempty"`
	Benefits           []string          `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	Drawbacks          []string          `json:"drawbacks,omitempty" yaml:"drawbacks,omitempty"`
}

// SceneRecord is the flat, type-tagged form scenes take in content files and
// API payloads.
type SceneRecord struct {
	ID                 string      `json:"id" yaml:"id"`
	Type               SceneType   `json:"type" yaml:"type"`
	Title              string      `json:"title" yaml:"title"`
	Description        string      `json:"description" yaml:"description"`
	Background         string      `json:"background,omitempty" yaml:"background,omitempty"`
	Choices            []Choice    `json:"choices,omitempty" yaml:"choices,omitempty"`
	Outcome            *StatUpdate `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	NextSceneID        string      `json:"nextSceneId,omitempty" yaml:"nextSceneId,omitempty"`
	RealWorldExample   string      `json:"realWorldExample,omitempty" yaml:"realWorldExample,omitempty"`
	Summary            string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	QualitativeSummary string      `json:"qualitativeSummary,omitempty" yaml:"qualitativeSummary,omitempty"`
	Score              *float64    `json:"score,omitempty" yaml:"score,omitempty"`
	ScoreThreshold     *float64    `json:"scoreThreshold,omitempty" yaml:"scoreThreshold,omitempty"`
}

// Scene converts the record into its typed variant
func (r SceneRecord) Scene() (Scene, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("scene without id")
	}
	header := SceneHeader{ID: r.ID, Title: r.Title, Description: r.Description, Background: r.Background}

	switch r.Type {
	case SceneDecision:
		return &DecisionScene{SceneHeader: header, Choices: r.Choices}, nil
	case SceneOutcome:
		return &OutcomeScene{SceneHeader: header, Patch: derefPatch(r.Outcome), TargetSceneID: r.NextSceneID}, nil
	case SceneEvent:
		return &EventScene{SceneHeader: header, Patch: derefPatch(r.Outcome), TargetSceneID: r.NextSceneID}, nil
	case SceneInsight:
		return &InsightScene{
			SceneHeader:      header,
			Patch:            r.Outcome,
			TargetSceneID:    r.NextSceneID,
			RealWorldExample: r.RealWorldExample,
			Summary:          r.Summary,
		}, nil
	case SceneEnding:
		ending := &EndingScene{SceneHeader: header, QualitativeSummary: r.QualitativeSummary}
		if r.Score != nil {
			ending.Score = *r.Score
		}
		if r.ScoreThreshold != nil {
			ending.ScoreThreshold = *r.ScoreThreshold
		}
		return ending, nil
	default:
		return nil, fmt.Errorf("scene %s: unknown type %q", r.ID, r.Type)
	}
}

// RecordOf flattens a typed scene back into its record form
func RecordOf(s Scene) SceneRecord {
	h := s.Header()
	rec := SceneRecord{
		ID:          h.ID,
		Type:        s.Type(),
		Title:       h.Title,
		Description: h.Description,
		Background:  h.Background,
	}

	switch sc := s.(type) {
	case *DecisionScene:
		rec.Choices = sc.Choices
	case *OutcomeScene:
		patch := sc.Patch
		rec.Outcome = &patch
		rec.NextSceneID = sc.TargetSceneID
	case *EventScene:
		patch := sc.Patch
		rec.Outcome = &patch
		rec.NextSceneID = sc.TargetSceneID
	case *InsightScene:
		rec.Outcome = sc.Patch
		rec.NextSceneID = sc.TargetSceneID
		rec.RealWorldExample = sc.RealWorldExample
		rec.Summary = sc.Summary
	case *EndingScene:
		score, threshold := sc.Score, sc.ScoreThreshold
		rec.Score = &score
		rec.ScoreThreshold = &threshold
		rec.QualitativeSummary = sc.QualitativeSummary
	}
	return rec
}

func derefPatch(p *StatUpdate) StatUpdate {
	if p == nil {
		return StatUpdate{}
	}
	return *p
}
