package mindquest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badgeTestSnapshot() *QuestSnapshot {
	return &QuestSnapshot{
		Progress: &PlayerProgress{
			XP:                   150,
			Level:                2,
			CurrentStreak:        4,
			LongestStreak:        6,
			TotalQuestsCompleted: 12,
			TotalPowerupsUsed:    3,
		},
		Allies: []*Ally{{Id: "a1"}, {Id: "a2"}},
		Adversaries: []*Adversary{
			{Id: "m1", Health: 0, Defeated: true},
			{Id: "m2", Health: 40},
		},
		Badges: map[string]*Badge{},
	}
}

func TestRequirementCount(t *testing.T) {
	snapshot := badgeTestSnapshot()

	assert.Equal(t, int64(12), requirementCount(snapshot, BadgeRequirementQuests))
	assert.Equal(t, int64(4), requirementCount(snapshot, BadgeRequirementStreak))
	assert.Equal(t, int64(3), requirementCount(snapshot, BadgeRequirementPowerups))
	assert.Equal(t, int64(2), requirementCount(snapshot, BadgeRequirementLevel))
	assert.Equal(t, int64(2), requirementCount(snapshot, BadgeRequirementAllies))
	assert.Equal(t, int64(1), requirementCount(snapshot, BadgeRequirementAdversaries))
	assert.Equal(t, int64(0), requirementCount(snapshot, "unknown"))
}

func TestEvaluateBadges_UnlocksAtThreshold(t *testing.T) {
	snapshot := badgeTestSnapshot()
	snapshot.Badges = map[string]*Badge{
		"quests_10": {Id: "quests_10", Requirement: BadgeRequirementQuests, Threshold: 10},
		"quests_50": {Id: "quests_50", Requirement: BadgeRequirementQuests, Threshold: 50},
		"streak_4":  {Id: "streak_4", Requirement: BadgeRequirementStreak, Threshold: 4},
	}

	unlocked := evaluateBadges(snapshot, 1700000000)
	require.Len(t, unlocked, 2)
	assert.True(t, snapshot.Badges["quests_10"].Unlocked)
	assert.Equal(t, int64(1700000000), snapshot.Badges["quests_10"].UnlockedAtSec)
	assert.True(t, snapshot.Badges["streak_4"].Unlocked)
	assert.False(t, snapshot.Badges["quests_50"].Unlocked)
}

func TestEvaluateBadges_UnlockIsMonotonic(t *testing.T) {
	snapshot := badgeTestSnapshot()
	snapshot.Badges = map[string]*Badge{
		"streak_4": {Id: "streak_4", Requirement: BadgeRequirementStreak, Threshold: 4},
	}

	unlocked := evaluateBadges(snapshot, 100)
	require.Len(t, unlocked, 1)

	// The counter dropping below the threshold never re-locks, and re-evaluation
	// never duplicates the unlock or moves its timestamp.
	snapshot.Progress.CurrentStreak = 0
	unlocked = evaluateBadges(snapshot, 200)
	assert.Empty(t, unlocked)
	assert.True(t, snapshot.Badges["streak_4"].Unlocked)
	assert.Equal(t, int64(100), snapshot.Badges["streak_4"].UnlockedAtSec)
}

func TestEvaluateBadges_UnknownRequirementNeverUnlocks(t *testing.T) {
	snapshot := badgeTestSnapshot()
	snapshot.Badges = map[string]*Badge{
		"mystery": {Id: "mystery", Requirement: "mystery", Threshold: 1},
	}

	unlocked := evaluateBadges(snapshot, 100)
	assert.Empty(t, unlocked)
	assert.False(t, snapshot.Badges["mystery"].Unlocked)
}
