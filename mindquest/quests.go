package mindquest

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Quest lifecycle states. A quest transitions available -> completed exactly once per
// assignment and only returns to available through a daily reset.
const (
	QuestStatusAvailable = "available"
	QuestStatusCompleted = "completed"
)

// adversaryMaxHealth is the health every adversary starts with and is clamped to.
const adversaryMaxHealth = 100

// QuestsConfig is the data definition for a QuestsSystem type.
type QuestsConfig struct {
	// ResetCronexpr schedules the daily quest reassignment window. Defaults to local
	// midnight ("0 0 * * *") when empty.
	ResetCronexpr string                          `json:"reset_cronexpr,omitempty"`
	Quests        map[string]*QuestsConfigQuest   `json:"quests,omitempty"`
	Powerups      map[string]*QuestsConfigPowerup `json:"powerups,omitempty"`
	Adversaries   []*QuestsConfigAdversary        `json:"adversaries,omitempty"`
	Badges        map[string]*QuestsConfigBadge   `json:"badges,omitempty"`
}

type QuestsConfigQuest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Points      int64  `json:"points,omitempty"`
}

type QuestsConfigPowerup struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Points      int64  `json:"points,omitempty"`
}

// QuestsConfigAdversary seeds the initial adversary pool. Kept as a list rather than a
// map so the pool has a stable order for uniform random targeting.
type QuestsConfigAdversary struct {
	Id          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Quest is a one-time-per-assignment completable task awarding points.
type Quest struct {
	Id           string `json:"id"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Points       int64  `json:"points,omitempty"`
	Status       string `json:"status"`
	AssignedDate string `json:"assigned_date,omitempty"`
}

// PowerUp is a repeatable action awarding a small fixed point value.
type PowerUp struct {
	Id          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Points      int64  `json:"points,omitempty"`
	Uses        int64  `json:"uses"`
}

type Ally struct {
	Id          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	AddedAtSec  int64  `json:"added_at_sec,omitempty"`
}

// Adversary is a health-bearing entity absorbing quest-completion damage. Defeated is
// one-way: once health is floor-clamped to 0 it never reverts.
type Adversary struct {
	Id          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Health      int64  `json:"health"`
	Defeated    bool   `json:"defeated"`
}

type AllyDefinition struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type AdversaryDefinition struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// QuestSnapshot is the complete quest-mode progression state for one user. Every
// mutating operation computes a full replacement snapshot so no partial update is ever
// observable.
type QuestSnapshot struct {
	Progress    *PlayerProgress     `json:"progress"`
	Quests      map[string]*Quest   `json:"quests,omitempty"`
	Powerups    map[string]*PowerUp `json:"powerups,omitempty"`
	Allies      []*Ally             `json:"allies,omitempty"`
	Adversaries []*Adversary        `json:"adversaries,omitempty"`
	Badges      map[string]*Badge   `json:"badges,omitempty"`

	// NextResetSec is the unix time of the next scheduled daily quest reassignment.
	NextResetSec int64 `json:"next_reset_sec,omitempty"`
}

type QuestsSystem interface {
	System

	// GetSnapshot returns the current quest-mode snapshot for a user, applying any
	// overdue daily quest rollover first.
	GetSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*QuestSnapshot, error)

	// CompleteQuest marks a quest completed, awards its points, advances the daily
	// streak, distributes damage to one random undefeated adversary, and re-evaluates
	// badge rules. Completing an already-completed quest fails without double-awarding.
	CompleteQuest(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, questID string) (*QuestSnapshot, error)

	// UsePowerUp applies a repeatable power-up: awards its points and bumps the use
	// counters. Power-ups do not advance the daily streak.
	UsePowerUp(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, powerUpID string) (*QuestSnapshot, error)

	// AddAlly records a new support ally for the user.
	AddAlly(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, definition *AllyDefinition) (*QuestSnapshot, error)

	// RemoveAlly removes a previously added ally.
	RemoveAlly(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, allyID string) (*QuestSnapshot, error)

	// AddAdversary adds a fresh adversary to the pool at full health.
	AddAdversary(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, definition *AdversaryDefinition) (*QuestSnapshot, error)

	// ResetDailyQuests reassigns every quest to available for the new day.
	ResetDailyQuests(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*QuestSnapshot, error)

	// ResetProgress discards all quest-mode state and reseeds the config defaults.
	ResetProgress(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*QuestSnapshot, error)

	// ExportSnapshot serializes the current snapshot to its raw persisted form.
	ExportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (string, error)

	// ImportSnapshot validates and installs a raw snapshot previously produced by
	// ExportSnapshot, replacing the current state.
	ImportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, raw string) (*QuestSnapshot, error)

	// SetClock overrides the time source used for streaks and daily resets.
	SetClock(clock Clock)

	// SetRandom overrides the random source used for adversary targeting.
	SetRandom(random Random)

	// SetMindQuest sets the MindQuest instance for cross-system communication.
	SetMindQuest(mq MindQuest)
}
