package mindquest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBattlesConfig() *BattlesConfig {
	return &BattlesConfig{
		Scenarios: []*BattleScenario{
			{
				Id:              "no_reply",
				Enemy:           "self-doubt-slime",
				Difficulty:      "easy",
				Situation:       "My friend didn't reply to my message.",
				NegativeThought: "They must hate me.",
				Options: []*BattleScenarioOption{
					{Text: "Maybe they are just busy.", Correct: true},
					{Text: "No one likes me.", Correct: false},
				},
			},
			{
				Id:         "small_mistake",
				Enemy:      "self-doubt-slime",
				Difficulty: "easy",
				Situation:  "I made a small mistake at work.",
				Options: []*BattleScenarioOption{
					{Text: "Everyone makes mistakes sometimes.", Correct: true},
					{Text: "I should quit my job.", Correct: false},
				},
			},
		},
	}
}

func newTestBattlesSystem(config *BattlesConfig) (*NakamaBattlesSystem, *MockNakamaModule) {
	system := NewNakamaBattlesSystem(config)
	system.SetClock(&fixedClock{now: time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)})
	return system, NewMockNakamaModule()
}

func TestNewNakamaBattlesSystem_AppliesDefaults(t *testing.T) {
	config := &BattlesConfig{}
	system := NewNakamaBattlesSystem(config)

	assert.Equal(t, SystemTypeBattles, system.GetType())
	assert.Equal(t, int64(20), config.VictoryPoints)
	assert.Equal(t, int64(5), config.ConsolationPoints)
	assert.Equal(t, "Level %d Warrior", config.LevelBadgeFormat)
	require.Len(t, config.StreakBadges, 2)
	assert.Equal(t, "Mind Warrior", config.StreakBadges[0].Name)
	require.Len(t, config.VictoryBadges, 2)
	assert.Equal(t, "10 Victories", config.VictoryBadges[0].Name)
}

func TestValidateBattlesConfig(t *testing.T) {
	require.NoError(t, validateBattlesConfig(testBattlesConfig()))

	ambiguous := testBattlesConfig()
	ambiguous.Scenarios[0].Options[1].Correct = true
	assert.Error(t, validateBattlesConfig(ambiguous))

	unanswerable := testBattlesConfig()
	unanswerable.Scenarios[0].Options[0].Correct = false
	assert.Error(t, validateBattlesConfig(unanswerable))

	duplicated := testBattlesConfig()
	duplicated.Scenarios[1].Id = duplicated.Scenarios[0].Id
	assert.Error(t, validateBattlesConfig(duplicated))

	negative := testBattlesConfig()
	negative.VictoryPoints = -1
	assert.Error(t, validateBattlesConfig(negative))
}

func TestBattlesScenarioCatalog(t *testing.T) {
	system, _ := newTestBattlesSystem(testBattlesConfig())

	scenarios := system.ListScenarios()
	require.Len(t, scenarios, 2)
	assert.Equal(t, "no_reply", scenarios[0].Id)

	scenario, err := system.GetScenario("small_mistake")
	require.NoError(t, err)
	assert.Equal(t, "I made a small mistake at work.", scenario.Situation)

	_, err = system.GetScenario("missing")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestRecordOutcome_Victory(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())

	snapshot, err := system.RecordOutcome(context.Background(), &mockLogger{}, nk, "user1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(20), snapshot.XP)
	assert.Equal(t, int64(1), snapshot.Level)
	assert.Equal(t, int64(1), snapshot.TotalBattles)
	assert.Equal(t, int64(1), snapshot.Victories)
	assert.Equal(t, int64(1), snapshot.Streak)
	assert.Equal(t, int64(1), snapshot.HighestStreak)
	assert.Empty(t, snapshot.Badges)
}

func TestRecordOutcome_IncorrectResetsStreak(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := system.RecordOutcome(ctx, logger, nk, "user1", true)
		require.NoError(t, err)
	}

	snapshot, err := system.RecordOutcome(ctx, logger, nk, "user1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(65), snapshot.XP)
	assert.Equal(t, int64(0), snapshot.Streak)
	assert.Equal(t, int64(3), snapshot.HighestStreak)
	assert.Equal(t, int64(3), snapshot.Victories)
	assert.Equal(t, int64(4), snapshot.TotalBattles)
}

func TestRecordOutcome_StreakAndLevelBadges(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()

	var snapshot *BattleSnapshot
	var err error
	for i := 0; i < 5; i++ {
		snapshot, err = system.RecordOutcome(ctx, logger, nk, "user1", true)
		require.NoError(t, err)
	}

	// Five straight victories are 100 XP, crossing into level 2 on the same round
	// the streak badge lands.
	assert.Equal(t, int64(100), snapshot.XP)
	assert.Equal(t, int64(2), snapshot.Level)
	assert.Contains(t, snapshot.Badges, "Mind Warrior")
	assert.Contains(t, snapshot.Badges, "Level 2 Warrior")
	assert.NotContains(t, snapshot.Badges, "Thought Champion")
}

func TestRecordOutcome_VictoryBadgeSurvivesStreakBreak(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := system.RecordOutcome(ctx, logger, nk, "user1", true)
		require.NoError(t, err)
	}
	_, err := system.RecordOutcome(ctx, logger, nk, "user1", false)
	require.NoError(t, err)

	var snapshot *BattleSnapshot
	for i := 0; i < 5; i++ {
		snapshot, err = system.RecordOutcome(ctx, logger, nk, "user1", true)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(10), snapshot.Victories)
	assert.Equal(t, int64(5), snapshot.Streak)
	assert.Contains(t, snapshot.Badges, "10 Victories")

	// A repeated streak threshold does not duplicate the badge.
	count := 0
	for _, name := range snapshot.Badges {
		if name == "Mind Warrior" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBattlesResetProgress(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()

	_, err := system.RecordOutcome(ctx, logger, nk, "user1", true)
	require.NoError(t, err)

	snapshot, err := system.ResetProgress(ctx, logger, nk, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snapshot.XP)
	assert.Equal(t, int64(1), snapshot.Level)
	assert.Equal(t, int64(0), snapshot.TotalBattles)
	assert.Empty(t, snapshot.Badges)
}

func TestBattlesExportImportRoundtrip(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := system.RecordOutcome(ctx, logger, nk, "user1", true)
		require.NoError(t, err)
	}

	raw, err := system.ExportSnapshot(ctx, logger, nk, "user1")
	require.NoError(t, err)

	_, err = system.ResetProgress(ctx, logger, nk, "user1")
	require.NoError(t, err)

	snapshot, err := system.ImportSnapshot(ctx, logger, nk, "user1", raw)
	require.NoError(t, err)
	assert.Equal(t, int64(100), snapshot.XP)
	assert.Equal(t, int64(2), snapshot.Level)
	assert.Equal(t, int64(5), snapshot.Victories)
	assert.Contains(t, snapshot.Badges, "Mind Warrior")
}

func TestBattlesImportSnapshot_RejectsCorruptData(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()

	_, err := system.ImportSnapshot(ctx, logger, nk, "user1", "{broken")
	assert.ErrorIs(t, err, ErrSnapshotCorrupted)

	_, err = system.ImportSnapshot(ctx, logger, nk, "user1", `{"victories":5,"total_battles":2}`)
	assert.ErrorIs(t, err, ErrSnapshotCorrupted)
}

func TestBattlesPersistenceFailureDegradesToMemory(t *testing.T) {
	system, nk := newTestBattlesSystem(testBattlesConfig())
	logger := &mockLogger{}
	ctx := context.Background()
	nk.FailWrites = true

	snapshot, err := system.RecordOutcome(ctx, logger, nk, "user1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(20), snapshot.XP)
	assert.Empty(t, nk.StoredObject(battlesStorageCollection, battleSnapshotStorageKey, "user1"))

	nk.FailWrites = false
	_, err = system.RecordOutcome(ctx, logger, nk, "user1", true)
	require.NoError(t, err)
	assert.NotEmpty(t, nk.StoredObject(battlesStorageCollection, battleSnapshotStorageKey, "user1"))
}
