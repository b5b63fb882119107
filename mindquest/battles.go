package mindquest

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BattlesConfig is the data definition for a BattlesSystem type.
type BattlesConfig struct {
	// VictoryPoints is the experience awarded for a correct response. Defaults to 20.
	VictoryPoints int64 `json:"victory_points,omitempty"`
	// ConsolationPoints is the experience awarded for an incorrect response. Defaults to 5.
	ConsolationPoints int64 `json:"consolation_points,omitempty"`

	// StreakBadges and VictoryBadges are named badges granted inline when the run
	// streak or the victory total reaches a threshold.
	StreakBadges  []*BattlesConfigBadge `json:"streak_badges,omitempty"`
	VictoryBadges []*BattlesConfigBadge `json:"victory_badges,omitempty"`

	// LevelBadgeFormat names the badge granted on every level-up, e.g. "Level %d Warrior".
	LevelBadgeFormat string `json:"level_badge_format,omitempty"`

	Scenarios []*BattleScenario `json:"scenarios,omitempty"`
}

type BattlesConfigBadge struct {
	Threshold int64  `json:"threshold,omitempty"`
	Name      string `json:"name,omitempty"`
}

// BattleScenario is a single-choice exercise with exactly one correct response.
type BattleScenario struct {
	Id              string                  `json:"id"`
	Enemy           string                  `json:"enemy,omitempty"`
	Difficulty      string                  `json:"difficulty,omitempty"`
	Situation       string                  `json:"situation,omitempty"`
	NegativeThought string                  `json:"negative_thought,omitempty"`
	Options         []*BattleScenarioOption `json:"options,omitempty"`
}

type BattleScenarioOption struct {
	Text     string `json:"text,omitempty"`
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback,omitempty"`
}

// BattleSnapshot is the complete battle-mode progression state for one user. The
// streak here is a simple run counter over consecutive correct rounds, independent of
// calendar dates.
type BattleSnapshot struct {
	XP            int64    `json:"xp"`
	Level         int64    `json:"level"`
	TotalBattles  int64    `json:"total_battles"`
	Victories     int64    `json:"victories"`
	Streak        int64    `json:"streak"`
	HighestStreak int64    `json:"highest_streak"`
	Badges        []string `json:"badges,omitempty"`
}

type BattlesSystem interface {
	System

	// GetSnapshot returns the current battle-mode snapshot for a user.
	GetSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*BattleSnapshot, error)

	// ListScenarios returns the configured scenario catalog in order.
	ListScenarios() []*BattleScenario

	// GetScenario returns one scenario by ID.
	GetScenario(scenarioID string) (*BattleScenario, error)

	// RecordOutcome records one battle round. A correct response awards the victory
	// experience and extends the run streak; an incorrect one awards consolation
	// experience and resets the run streak to zero. Threshold badges are granted
	// inline.
	RecordOutcome(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, correct bool) (*BattleSnapshot, error)

	// ResetProgress discards all battle-mode state.
	ResetProgress(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*BattleSnapshot, error)

	// ExportSnapshot serializes the current snapshot to its raw persisted form.
	ExportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (string, error)

	// ImportSnapshot validates and installs a raw snapshot previously produced by
	// ExportSnapshot, replacing the current state.
	ImportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, raw string) (*BattleSnapshot, error)

	// SetClock overrides the time source used for badge unlock timestamps.
	SetClock(clock Clock)

	// SetMindQuest sets the MindQuest instance for cross-system communication.
	SetMindQuest(mq MindQuest)
}
