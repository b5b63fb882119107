package mindquest

import (
	"context"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	battlesStorageCollection = "mindbattle"
	battleSnapshotStorageKey = "battle_snapshot"
)

// Battle-mode award and badge defaults, applied when the config leaves them unset.
const (
	defaultVictoryPoints     = 20
	defaultConsolationPoints = 5
	defaultLevelBadgeFormat  = "Level %d Warrior"
)

func defaultStreakBadges() []*BattlesConfigBadge {
	return []*BattlesConfigBadge{
		{Threshold: 5, Name: "Mind Warrior"},
		{Threshold: 10, Name: "Thought Champion"},
	}
}

func defaultVictoryBadges() []*BattlesConfigBadge {
	return []*BattlesConfigBadge{
		{Threshold: 10, Name: "10 Victories"},
		{Threshold: 25, Name: "Battle Master"},
	}
}

var _ BattlesSystem = &NakamaBattlesSystem{}

// NakamaBattlesSystem implements the BattlesSystem gameplay system.
type NakamaBattlesSystem struct {
	config    *BattlesConfig
	store     *snapshotStore[BattleSnapshot]
	scenarios map[string]*BattleScenario
	clock     Clock
	mindquest MindQuest
}

func NewNakamaBattlesSystem(config *BattlesConfig) *NakamaBattlesSystem {
	if config.VictoryPoints <= 0 {
		config.VictoryPoints = defaultVictoryPoints
	}
	if config.ConsolationPoints <= 0 {
		config.ConsolationPoints = defaultConsolationPoints
	}
	if len(config.StreakBadges) == 0 {
		config.StreakBadges = defaultStreakBadges()
	}
	if len(config.VictoryBadges) == 0 {
		config.VictoryBadges = defaultVictoryBadges()
	}
	if config.LevelBadgeFormat == "" {
		config.LevelBadgeFormat = defaultLevelBadgeFormat
	}

	b := &NakamaBattlesSystem{
		config:    config,
		scenarios: make(map[string]*BattleScenario, len(config.Scenarios)),
		clock:     systemClock{},
	}
	for _, scenario := range config.Scenarios {
		b.scenarios[scenario.Id] = scenario
	}
	b.store = newSnapshotStore[BattleSnapshot](battlesStorageCollection, battleSnapshotStorageKey, newBattleSnapshot, validateBattleSnapshot)
	return b
}

func (b *NakamaBattlesSystem) GetType() SystemType {
	return SystemTypeBattles
}

func (b *NakamaBattlesSystem) GetConfig() any {
	return b.config
}

func (b *NakamaBattlesSystem) SetClock(clock Clock) {
	if clock != nil {
		b.clock = clock
	}
}

func (b *NakamaBattlesSystem) SetMindQuest(mq MindQuest) {
	b.mindquest = mq
}

func newBattleSnapshot() *BattleSnapshot {
	return &BattleSnapshot{Level: 1}
}

func validateBattleSnapshot(snapshot *BattleSnapshot) error {
	if snapshot.XP < 0 || snapshot.TotalBattles < 0 || snapshot.Victories < 0 || snapshot.Streak < 0 {
		return fmt.Errorf("negative battle counter")
	}
	if snapshot.Victories > snapshot.TotalBattles {
		return fmt.Errorf("victories exceed total battles")
	}
	if snapshot.HighestStreak < snapshot.Streak {
		return fmt.Errorf("highest streak below current streak")
	}
	snapshot.Level = levelForXP(snapshot.XP)
	return nil
}

func (b *NakamaBattlesSystem) GetSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*BattleSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	return b.store.load(ctx, logger, nk, userID), nil
}

func (b *NakamaBattlesSystem) ListScenarios() []*BattleScenario {
	return b.config.Scenarios
}

func (b *NakamaBattlesSystem) GetScenario(scenarioID string) (*BattleScenario, error) {
	scenario, ok := b.scenarios[scenarioID]
	if !ok {
		return nil, ErrScenarioNotFound
	}
	return scenario, nil
}

func (b *NakamaBattlesSystem) RecordOutcome(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, correct bool) (*BattleSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}

	next, err := cloneSnapshot(b.store.load(ctx, logger, nk, userID))
	if err != nil {
		return nil, err
	}

	now := b.clock.Now()
	next.TotalBattles++

	var leveledUp bool
	var newBadges []string
	if correct {
		leveledUp = b.addExperience(next, b.config.VictoryPoints)
		next.Victories++
		next.Streak++
		if next.Streak > next.HighestStreak {
			next.HighestStreak = next.Streak
		}
		newBadges = append(newBadges, grantThresholdBadges(next, b.config.StreakBadges, next.Streak)...)
		newBadges = append(newBadges, grantThresholdBadges(next, b.config.VictoryBadges, next.Victories)...)
	} else {
		leveledUp = b.addExperience(next, b.config.ConsolationPoints)
		next.Streak = 0
	}
	if leveledUp {
		name := fmt.Sprintf(b.config.LevelBadgeFormat, next.Level)
		if grantBattleBadge(next, name) {
			newBadges = append(newBadges, name)
		}
	}

	b.store.commit(ctx, logger, nk, userID, next)

	events := []*PublisherEvent{{
		Name:      EventBattleRecorded,
		Timestamp: now.Unix(),
		Metadata: map[string]string{
			"correct": fmt.Sprintf("%t", correct),
			"streak":  fmt.Sprintf("%d", next.Streak),
		},
		System: b,
	}}
	if leveledUp {
		events = append(events, &PublisherEvent{
			Name:      EventLevelUp,
			Timestamp: now.Unix(),
			Value:     fmt.Sprintf("%d", next.Level),
			System:    b,
		})
	}
	for _, name := range newBadges {
		events = append(events, &PublisherEvent{
			Name:      EventBadgeUnlocked,
			Timestamp: now.Unix(),
			Value:     name,
			System:    b,
		})
	}
	b.publish(ctx, logger, nk, userID, events)

	return next, nil
}

// addExperience accumulates the award and recomputes the level, reporting whether a
// level boundary was crossed. Point values are validated non-negative at config load.
func (b *NakamaBattlesSystem) addExperience(snapshot *BattleSnapshot, amount int64) bool {
	previous := snapshot.Level
	snapshot.XP += amount
	snapshot.Level = levelForXP(snapshot.XP)
	return snapshot.Level > previous
}

// grantThresholdBadges grants every configured badge whose threshold the counter has
// reached. Grants are idempotent, a badge name is never added twice.
func grantThresholdBadges(snapshot *BattleSnapshot, badges []*BattlesConfigBadge, count int64) []string {
	var granted []string
	for _, badge := range badges {
		if count >= badge.Threshold && grantBattleBadge(snapshot, badge.Name) {
			granted = append(granted, badge.Name)
		}
	}
	return granted
}

func grantBattleBadge(snapshot *BattleSnapshot, name string) bool {
	for _, existing := range snapshot.Badges {
		if existing == name {
			return false
		}
	}
	snapshot.Badges = append(snapshot.Badges, name)
	return true
}

func (b *NakamaBattlesSystem) ResetProgress(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*BattleSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}

	next := newBattleSnapshot()
	b.store.commit(ctx, logger, nk, userID, next)
	return next, nil
}

func (b *NakamaBattlesSystem) ExportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (string, error) {
	if userID == "" {
		return "", ErrNoSessionUser
	}
	return b.store.export(ctx, logger, nk, userID)
}

func (b *NakamaBattlesSystem) ImportSnapshot(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, raw string) (*BattleSnapshot, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	return b.store.importRaw(ctx, logger, nk, userID, raw)
}

func (b *NakamaBattlesSystem) publish(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent) {
	if b.mindquest == nil || len(events) == 0 {
		return
	}
	b.mindquest.SendPublisherEvents(ctx, logger, nk, userID, events)
}

// validateBattlesConfig rejects catalogs whose scenarios are unanswerable or ambiguous
// and whose point values would corrupt the experience totals.
func validateBattlesConfig(config *BattlesConfig) error {
	if config.VictoryPoints < 0 || config.ConsolationPoints < 0 {
		return fmt.Errorf("battle point awards must not be negative")
	}
	seen := make(map[string]bool, len(config.Scenarios))
	for i, scenario := range config.Scenarios {
		if scenario.Id == "" {
			return fmt.Errorf("scenario at index %d has no id", i)
		}
		if seen[scenario.Id] {
			return fmt.Errorf("duplicate scenario id %q", scenario.Id)
		}
		seen[scenario.Id] = true

		correct := 0
		for _, option := range scenario.Options {
			if option.Correct {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("scenario %q must have exactly one correct option, has %d", scenario.Id, correct)
		}
	}
	return nil
}
